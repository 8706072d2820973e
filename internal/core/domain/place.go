package domain

import "time"

// ExtractedPlace is one place the vision model reported for a screenshot.
// Confidence is kept exactly as the model returned it.
type ExtractedPlace struct {
	Name              string  `json:"name"`
	SuggestedCategory string  `json:"suggested_category"`
	SuggestedLocation string  `json:"suggested_location"`
	Confidence        float64 `json:"confidence"`
	RawText           string  `json:"raw_text"`
}

// PlaceCandidate is a map-search match for a free-text place name.
type PlaceCandidate struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Place struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CategoryID string    `json:"category_id"`
	Address    *string   `json:"address,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p Place) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type UserPlace struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PlaceID   string    `json:"place_id"`
	Visited   bool      `json:"visited"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedPlace is a user's link joined with the canonical place and its category.
type SavedPlace struct {
	UserPlaceID string    `json:"id"`
	PlaceID     string    `json:"place_id"`
	Name        string    `json:"name"`
	Address     *string   `json:"address,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Category    Category  `json:"category"`
	Location    string    `json:"location,omitempty"`
	Visited     bool      `json:"visited"`
	SavedAt     time.Time `json:"saved_at"`
	MapLinks    MapLinks  `json:"map_links"`
}

func (p SavedPlace) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// SaveRequest carries one place the user confirmed from an extraction, or a manual entry.
type SaveRequest struct {
	UserID       string
	Place        ExtractedPlace
	CategoryName string
	Location     string
	// Selected is the candidate the user picked when the search was ambiguous.
	Selected *PlaceCandidate
}

type SaveOutcome string

const (
	SaveOutcomeSaved     SaveOutcome = "saved"
	SaveOutcomeDuplicate SaveOutcome = "duplicate"
)

type SaveResult struct {
	Outcome     SaveOutcome     `json:"outcome"`
	Place       Place           `json:"place"`
	UserPlaceID string          `json:"user_place_id"`
	Candidate   *PlaceCandidate `json:"candidate,omitempty"`
	Ambiguous   bool            `json:"ambiguous,omitempty"`
}

type LibrarySort string

const (
	SortLatest LibrarySort = "latest"
	SortName   LibrarySort = "name"
)

// LibraryFilter narrows a user's saved places. Empty fields mean "all".
type LibraryFilter struct {
	Category string
	Location string
	Sort     LibrarySort
}

type Library struct {
	Places     []SavedPlace `json:"places"`
	Total      int          `json:"total"`
	Categories []string     `json:"categories"`
	Locations  []string     `json:"locations"`
}
