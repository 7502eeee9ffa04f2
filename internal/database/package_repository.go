package database

import (
	"database/sql"
	"fmt"

	"github.com/voyagenest/booking-backend/internal/models"
)

// PackageRepository handles database operations for the travel_packages table
type PackageRepository struct {
	db DB
}

// NewPackageRepository creates a new PackageRepository
func NewPackageRepository(db DB) *PackageRepository {
	return &PackageRepository{db: db}
}

const packageColumns = `id, slug, title, destination, duration_label, price, currency,
	   description, highlights, is_active, created_at, updated_at`

// ListActive lists all active packages, optionally filtered by destination
func (r *PackageRepository) ListActive(destination string) ([]models.TravelPackage, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM travel_packages
		WHERE is_active = true
		  AND ($1 = '' OR destination ILIKE $1)
		ORDER BY title
	`, packageColumns)

	rows, err := r.db.Query(query, destination)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	packages := []models.TravelPackage{}
	for rows.Next() {
		pkg, err := r.scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, *pkg)
	}

	return packages, rows.Err()
}

// GetBySlug retrieves an active package by slug, nil if not found
func (r *PackageRepository) GetBySlug(slug string) (*models.TravelPackage, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM travel_packages
		WHERE slug = $1 AND is_active = true
	`, packageColumns)

	return r.scanPackage(r.db.QueryRow(query, slug))
}

func (r *PackageRepository) scanPackage(row scanner) (*models.TravelPackage, error) {
	pkg := &models.TravelPackage{}
	err := row.Scan(
		&pkg.ID, &pkg.Slug, &pkg.Title, &pkg.Destination, &pkg.DurationLabel,
		&pkg.Price, &pkg.Currency, &pkg.Description, &pkg.Highlights,
		&pkg.IsActive, &pkg.CreatedAt, &pkg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan package: %w", err)
	}

	return pkg, nil
}
