package models

// GenerateItineraryRequest describes the trip to plan
type GenerateItineraryRequest struct {
	Destination    string   `json:"destination" binding:"required"`
	Duration       string   `json:"duration"` // duration label, e.g. "7-9 Days"
	StartDate      string   `json:"start_date"`
	SelectedCities []string `json:"selected_cities,omitempty"`
	Travelers      int      `json:"travelers"`
	FromCity       string   `json:"from_city"`
}

// Itinerary is a generated day-by-day travel plan
type Itinerary struct {
	Destination string         `json:"destination"`
	FromCity    string         `json:"from_city,omitempty"`
	Travelers   int            `json:"travelers"`
	Days        []ItineraryDay `json:"days"`
}

// ItineraryDay is one day of a generated plan
type ItineraryDay struct {
	Day        int      `json:"day"`
	Date       string   `json:"date,omitempty"`
	Title      string   `json:"title"`
	City       string   `json:"city"`
	Activities []string `json:"activities"`
	Weather    string   `json:"weather"`
}
