package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyagenest/booking-backend/internal/models"
)

func TestDaysForDuration(t *testing.T) {
	service := NewItineraryService()

	cases := []struct {
		label string
		days  int
	}{
		{"4-6 Days", 5},
		{"7-9 Days", 8},
		{"10-12 Days", 11},
		{"13-15 Days", 14},
		{"", 7},
		{"a fortnight", 7},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.days, service.DaysForDuration(tc.label), "label=%q", tc.label)
	}
}

func TestGenerateItinerary(t *testing.T) {
	service := NewItineraryService()

	t.Run("Deterministic", func(t *testing.T) {
		req := &models.GenerateItineraryRequest{
			Destination: "Goa",
			Duration:    "7-9 Days",
			Travelers:   2,
			StartDate:   "2026-10-01",
		}

		first, err := service.Generate(req)
		require.NoError(t, err)
		second, err := service.Generate(req)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("Day Themes", func(t *testing.T) {
		itinerary, err := service.Generate(&models.GenerateItineraryRequest{
			Destination: "Goa",
			Duration:    "4-6 Days",
		})
		require.NoError(t, err)
		require.Len(t, itinerary.Days, 5)

		assert.Equal(t, "Arrival in Goa", itinerary.Days[0].Title)
		assert.Equal(t, "Discovering Goa", itinerary.Days[1].Title)
		assert.Equal(t, "Discovering Goa", itinerary.Days[2].Title)
		assert.Equal(t, "Adventure day in Goa", itinerary.Days[3].Title)
		assert.Equal(t, "Adventure day in Goa", itinerary.Days[4].Title)
	})

	t.Run("Known Destination Activities", func(t *testing.T) {
		itinerary, err := service.Generate(&models.GenerateItineraryRequest{
			Destination: "Kerala",
			Duration:    "4-6 Days",
		})
		require.NoError(t, err)

		assert.Contains(t, itinerary.Days[0].Activities, "Arrive in Kochi and settle in")
		assert.Contains(t, itinerary.Days[3].Activities, "Houseboat cruise on the Alleppey backwaters")
	})

	t.Run("Unknown Destination Falls Back To Generic", func(t *testing.T) {
		itinerary, err := service.Generate(&models.GenerateItineraryRequest{
			Destination: "Ladakh",
			Duration:    "4-6 Days",
		})
		require.NoError(t, err)

		assert.Contains(t, itinerary.Days[0].Activities, "Arrive in Ladakh and check in to your hotel")
	})

	t.Run("Dates Progress From Start", func(t *testing.T) {
		itinerary, err := service.Generate(&models.GenerateItineraryRequest{
			Destination: "Goa",
			Duration:    "4-6 Days",
			StartDate:   "2026-10-30",
		})
		require.NoError(t, err)

		assert.Equal(t, "2026-10-30", itinerary.Days[0].Date)
		assert.Equal(t, "2026-10-31", itinerary.Days[1].Date)
		assert.Equal(t, "2026-11-01", itinerary.Days[2].Date)
	})

	t.Run("No Start Date Leaves Dates Empty", func(t *testing.T) {
		itinerary, err := service.Generate(&models.GenerateItineraryRequest{
			Destination: "Goa",
			Duration:    "4-6 Days",
		})
		require.NoError(t, err)

		for _, day := range itinerary.Days {
			assert.Empty(t, day.Date)
		}
	})

	t.Run("Selected Cities Cycle", func(t *testing.T) {
		itinerary, err := service.Generate(&models.GenerateItineraryRequest{
			Destination:    "Rajasthan",
			Duration:       "4-6 Days",
			SelectedCities: []string{"Jaipur", "Udaipur"},
		})
		require.NoError(t, err)

		assert.Equal(t, "Jaipur", itinerary.Days[0].City)
		assert.Equal(t, "Udaipur", itinerary.Days[1].City)
		assert.Equal(t, "Jaipur", itinerary.Days[2].City)
	})

	t.Run("Travelers Clamped To One", func(t *testing.T) {
		itinerary, err := service.Generate(&models.GenerateItineraryRequest{
			Destination: "Goa",
			Travelers:   0,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, itinerary.Travelers)
	})

	t.Run("Missing Destination Rejected", func(t *testing.T) {
		_, err := service.Generate(&models.GenerateItineraryRequest{Destination: "   "})
		assert.Error(t, err)
	})

	t.Run("Malformed Start Date Rejected", func(t *testing.T) {
		_, err := service.Generate(&models.GenerateItineraryRequest{
			Destination: "Goa",
			StartDate:   "30/10/2026",
		})
		assert.Error(t, err)
	})
}
