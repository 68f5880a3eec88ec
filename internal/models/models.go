package models

import (
	"database/sql"
	"time"
)

// Location types
const (
	TypeShoppingCentre = "SHOPPING_CENTRE"
	TypeRetailPark     = "RETAIL_PARK"
	TypeOutletCentre   = "OUTLET_CENTRE"
	TypeHighStreet     = "HIGH_STREET"
)

// Location represents a retail destination (shopping centre, retail park, etc.)
// Latitude/longitude of exactly 0,0 means "not geocoded", never a real coordinate.
type Location struct {
	ID                     string          `db:"id" json:"id"`
	Name                   string          `db:"name" json:"name"`
	Type                   string          `db:"type" json:"type"`
	Address                sql.NullString  `db:"address" json:"address"`
	City                   string          `db:"city" json:"city"`
	County                 string          `db:"county" json:"county"`
	Postcode               sql.NullString  `db:"postcode" json:"postcode"`
	Latitude               float64         `db:"latitude" json:"latitude"`
	Longitude              float64         `db:"longitude" json:"longitude"`
	Phone                  sql.NullString  `db:"phone" json:"phone"`
	Website                sql.NullString  `db:"website" json:"website"`
	NumberOfStores         sql.NullInt64   `db:"number_of_stores" json:"number_of_stores"`
	ParkingSpaces          sql.NullInt64   `db:"parking_spaces" json:"parking_spaces"`
	TotalFloorArea         sql.NullFloat64 `db:"total_floor_area" json:"total_floor_area"` // sq ft
	Footfall               sql.NullInt64   `db:"footfall" json:"footfall"`                 // annual visitors
	GoogleRating           sql.NullFloat64 `db:"google_rating" json:"google_rating"`
	Vacancy                sql.NullFloat64 `db:"vacancy" json:"vacancy"` // 0..1
	LargestCategory        sql.NullString  `db:"largest_category" json:"largest_category"`
	LargestCategoryPercent sql.NullFloat64 `db:"largest_category_percent" json:"largest_category_percent"` // 0..100
	CreatedAt              time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time       `db:"updated_at" json:"updated_at"`
}

// HasCoordinates reports whether the location has been geocoded.
func (l *Location) HasCoordinates() bool {
	return l.Latitude != 0 || l.Longitude != 0
}

// Tenant is a retail unit occupying space within exactly one Location.
// (location_id, name) pairs are unique.
type Tenant struct {
	ID             string         `db:"id" json:"id"`
	LocationID     string         `db:"location_id" json:"location_id"`
	Name           string         `db:"name" json:"name"`
	Category       string         `db:"category" json:"category"` // raw free-text category
	CategoryID     sql.NullString `db:"category_id" json:"category_id"`
	IsAnchorTenant bool           `db:"is_anchor_tenant" json:"is_anchor_tenant"`

	// Populated by joins; empty when the tenant carries no normalized reference.
	CategoryName sql.NullString `db:"category_name" json:"-"`
	ParentName   sql.NullString `db:"parent_name" json:"-"`
	CategoryTier sql.NullInt64  `db:"category_tier" json:"-"`
}

// EffectiveCategory resolves the tenant's two-variant category (normalized
// reference vs raw text) into a single canonical name. Tier-3 nodes roll up
// to their tier-2 parent so aggregation always compares at the same level.
func (t *Tenant) EffectiveCategory() string {
	if t.CategoryName.Valid {
		if t.CategoryTier.Valid && t.CategoryTier.Int64 == 3 && t.ParentName.Valid {
			return t.ParentName.String
		}
		return t.CategoryName.String
	}
	if t.Category != "" {
		return t.Category
	}
	return "Uncategorized"
}

// Category is a node in the normalized taxonomy tenants may reference.
type Category struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Tier             int            `db:"tier" json:"tier"`
	ParentCategoryID sql.NullString `db:"parent_category_id" json:"parent_category_id"`
}

// CategoryDistribution is one row of a derived category breakdown.
type CategoryDistribution struct {
	CategoryName string  `json:"category_name"`
	Count        int     `json:"count"`
	Percentage   float64 `json:"percentage"` // 0..100
}

// LargestCategoryAggregate summarizes how often a category is the single
// largest category across a set of locations.
type LargestCategoryAggregate struct {
	LargestCategory string  `json:"largest_category"`
	Locations       int     `json:"locations"`
	AvgPercent      float64 `json:"avg_percent"` // 0..100
}

// LocationMatch is the output of fuzzy name resolution.
type LocationMatch struct {
	LocationID string  `json:"location_id"`
	Name       string  `json:"name"`
	City       string  `json:"city"`
	County     string  `json:"county"`
	Confidence float64 `json:"confidence"` // 0..1
	Ambiguous  bool    `json:"ambiguous,omitempty"`
}

// Competitor is a nearby location with its computed distance.
type Competitor struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	City           string  `json:"city"`
	County         string  `json:"county"`
	NumberOfStores int64   `json:"number_of_stores,omitempty"`
	DistanceKm     float64 `json:"distance_km"`
}

// LocationListItem is a lightweight location row for listings and maps.
type LocationListItem struct {
	ID             string  `db:"id" json:"id"`
	Name           string  `db:"name" json:"name"`
	Type           string  `db:"type" json:"type"`
	City           string  `db:"city" json:"city"`
	County         string  `db:"county" json:"county"`
	Latitude       float64 `db:"latitude" json:"lat"`
	Longitude      float64 `db:"longitude" json:"lng"`
	NumberOfStores int64   `db:"number_of_stores" json:"number_of_stores"`
}

// LocationRef carries the fields fuzzy resolution matches against.
type LocationRef struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	City     string `db:"city" json:"city"`
	County   string `db:"county" json:"county"`
	Postcode string `db:"postcode" json:"postcode"`
}
