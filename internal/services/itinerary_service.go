package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/voyagenest/booking-backend/internal/models"
)

// durationDays maps the duration labels the trip planner offers to a fixed
// number of itinerary days. Unrecognized labels fall back to 7.
var durationDays = map[string]int{
	"4-6 Days":   5,
	"7-9 Days":   8,
	"10-12 Days": 11,
	"13-15 Days": 14,
}

const defaultDurationDays = 7

// destinationActivities holds canned activity strings per destination,
// keyed by lowercase destination name, then by day theme.
var destinationActivities = map[string]map[string][]string{
	"goa": {
		"arrival":     {"Check in to your beachside resort", "Sunset stroll along Calangute Beach", "Welcome dinner with Goan seafood"},
		"sightseeing": {"Explore Old Goa's Portuguese churches", "Walk the Fontainhas Latin Quarter", "Visit the Saturday night market at Arpora"},
		"adventure":   {"Parasailing at Baga Beach", "Kayaking through the Sal backwaters", "Scuba diving trip to Grande Island"},
	},
	"kerala": {
		"arrival":     {"Arrive in Kochi and settle in", "Evening Kathakali performance", "Dinner at a spice-route restaurant"},
		"sightseeing": {"Tour the Fort Kochi heritage quarter", "Visit the Mattancherry Palace", "Browse the Jew Town antique shops"},
		"adventure":   {"Houseboat cruise on the Alleppey backwaters", "Bamboo rafting in Periyar", "Trek through Munnar tea plantations"},
	},
	"rajasthan": {
		"arrival":     {"Arrive in Jaipur, the Pink City", "Evening visit to Chokhi Dhani village", "Rooftop dinner overlooking Hawa Mahal"},
		"sightseeing": {"Climb Amber Fort at sunrise", "Tour the City Palace and Jantar Mantar", "Wander the bazaars of the old city"},
		"adventure":   {"Camel safari over the Thar dunes", "Hot air balloon ride at dawn", "Zip lining across Mehrangarh Fort"},
	},
	"himachal pradesh": {
		"arrival":     {"Arrive in Manali and acclimatize", "Walk along the Mall Road", "Bonfire dinner at the hotel"},
		"sightseeing": {"Visit the Hadimba Temple", "Day trip to Naggar Castle", "Explore Old Manali cafes"},
		"adventure":   {"River rafting on the Beas", "Trek to Jogini waterfall", "Paragliding at Solang Valley"},
	},
}

// weatherByTheme gives each day a cosmetic weather string. Purely decorative;
// it keys off the day index so output is deterministic.
var weatherOptions = []string{
	"Sunny, 28°C",
	"Partly cloudy, 25°C",
	"Clear skies, 30°C",
	"Light breeze, 27°C",
	"Mostly sunny, 29°C",
}

// ItineraryService builds deterministic day-by-day travel plans
type ItineraryService struct{}

// NewItineraryService creates a new ItineraryService
func NewItineraryService() *ItineraryService {
	return &ItineraryService{}
}

// DaysForDuration resolves a duration label to a day count
func (s *ItineraryService) DaysForDuration(label string) int {
	if days, ok := durationDays[label]; ok {
		return days
	}
	return defaultDurationDays
}

// Generate produces a complete itinerary. It is pure: the same request
// always yields the same plan.
func (s *ItineraryService) Generate(req *models.GenerateItineraryRequest) (*models.Itinerary, error) {
	if strings.TrimSpace(req.Destination) == "" {
		return nil, fmt.Errorf("destination is required")
	}

	days := s.DaysForDuration(req.Duration)
	travelers := req.Travelers
	if travelers <= 0 {
		travelers = 1
	}

	var startDate time.Time
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date: %w", err)
		}
		startDate = parsed
	}

	itinerary := &models.Itinerary{
		Destination: req.Destination,
		FromCity:    req.FromCity,
		Travelers:   travelers,
		Days:        make([]models.ItineraryDay, 0, days),
	}

	for day := 1; day <= days; day++ {
		entry := models.ItineraryDay{
			Day:        day,
			Title:      s.dayTitle(day, req.Destination),
			City:       s.cityForDay(day, req),
			Activities: s.activitiesForDay(day, req.Destination),
			Weather:    weatherOptions[(day-1)%len(weatherOptions)],
		}
		if !startDate.IsZero() {
			entry.Date = startDate.AddDate(0, 0, day-1).Format("2006-01-02")
		}

		itinerary.Days = append(itinerary.Days, entry)
	}

	return itinerary, nil
}

// dayTitle themes each day: day 1 is arrival, days 2-3 sightseeing,
// everything after is adventure.
func (s *ItineraryService) dayTitle(day int, destination string) string {
	switch {
	case day == 1:
		return fmt.Sprintf("Arrival in %s", destination)
	case day <= 3:
		return fmt.Sprintf("Discovering %s", destination)
	default:
		return fmt.Sprintf("Adventure day in %s", destination)
	}
}

func (s *ItineraryService) cityForDay(day int, req *models.GenerateItineraryRequest) string {
	if len(req.SelectedCities) > 0 {
		return req.SelectedCities[(day-1)%len(req.SelectedCities)]
	}
	return req.Destination
}

func (s *ItineraryService) activitiesForDay(day int, destination string) []string {
	theme := "adventure"
	switch {
	case day == 1:
		theme = "arrival"
	case day <= 3:
		theme = "sightseeing"
	}

	if table, ok := destinationActivities[strings.ToLower(strings.TrimSpace(destination))]; ok {
		if activities, ok := table[theme]; ok {
			return activities
		}
	}

	return s.genericActivities(theme, destination)
}

// genericActivities covers destinations without a canned table
func (s *ItineraryService) genericActivities(theme, destination string) []string {
	switch theme {
	case "arrival":
		return []string{
			fmt.Sprintf("Arrive in %s and check in to your hotel", destination),
			fmt.Sprintf("Orientation walk around central %s", destination),
			"Welcome dinner featuring local cuisine",
		}
	case "sightseeing":
		return []string{
			fmt.Sprintf("Guided tour of %s's main landmarks", destination),
			"Visit the local museum and heritage sites",
			"Browse the local markets for souvenirs",
		}
	default:
		return []string{
			fmt.Sprintf("Outdoor excursion in the %s countryside", destination),
			"Optional adventure activity with a local guide",
			"Evening at leisure",
		}
	}
}
