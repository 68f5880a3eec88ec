// Package enrichment audits how completely the location snapshot is filled
// in, so data-collection effort can be pointed at the fields that matter.
package enrichment

import (
	"math"
	"sort"

	"retail-intel/internal/models"
)

// Priorities for closing a field gap.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// FieldGap reports fill rate for one field over its relevant denominator.
// Percentages against all locations would be misleading: parking only makes
// sense for shopping centres and retail parks, ratings only for locations
// that have a web presence at all.
type FieldGap struct {
	Field         string `json:"field"`
	DisplayName   string `json:"display_name"`
	TotalMissing  int    `json:"total_missing"`
	RelevantTotal int    `json:"relevant_total"`
	Percentage    int    `json:"percentage"` // filled, 0..100
	Priority      string `json:"priority"`
	ContextNote   string `json:"context_note"`
}

// CoverageReport is the output of a full snapshot audit.
type CoverageReport struct {
	Overview     Overview     `json:"overview"`
	FieldGaps    []FieldGap   `json:"field_gaps"`
	CriticalGaps CriticalGaps `json:"critical_gaps"`
}

type Overview struct {
	TotalLocations             int `json:"total_locations"`
	ShoppingCentresRetailParks int `json:"shopping_centres_retail_parks"`
	LocationsWithWebsites      int `json:"locations_with_websites"`
}

// CriticalGaps counts the absences that block analysis outright.
type CriticalGaps struct {
	MajorLocationsWithoutWebsites int `json:"major_locations_without_websites"`
	UngeocodedLocations           int `json:"ungeocoded_locations"`
	ShoppingCentresWithoutParking int `json:"shopping_centres_without_parking"`
	LocationsWithoutStoreCounts   int `json:"locations_without_store_counts"`
}

// majorStoreThreshold marks a location as major for the critical-gap counts.
const majorStoreThreshold = 20

type fieldSpec struct {
	field       string
	displayName string
	// relevant narrows the denominator; nil means all locations.
	relevant func(*models.Location) bool
	filled   func(*models.Location) bool
}

func isRetailDestination(l *models.Location) bool {
	return l.Type == models.TypeShoppingCentre || l.Type == models.TypeRetailPark
}

func hasWebsite(l *models.Location) bool {
	return l.Website.Valid && l.Website.String != ""
}

var fieldSpecs = []fieldSpec{
	{"address", "Address", nil, func(l *models.Location) bool { return l.Address.Valid && l.Address.String != "" }},
	{"city", "City", nil, func(l *models.Location) bool { return l.City != "" }},
	{"county", "County", nil, func(l *models.Location) bool { return l.County != "" }},
	{"postcode", "Postcode", nil, func(l *models.Location) bool { return l.Postcode.Valid && l.Postcode.String != "" }},
	{"latitude", "Latitude", nil, func(l *models.Location) bool { return l.HasCoordinates() }},
	{"longitude", "Longitude", nil, func(l *models.Location) bool { return l.HasCoordinates() }},
	{"number_of_stores", "Number of Stores", nil, func(l *models.Location) bool { return l.NumberOfStores.Valid }},
	{"total_floor_area", "Total Floor Area", nil, func(l *models.Location) bool { return l.TotalFloorArea.Valid }},
	{"website", "Website", isRetailDestination, hasWebsite},
	{"footfall", "Annual Footfall", isRetailDestination, func(l *models.Location) bool { return l.Footfall.Valid }},
	{"parking_spaces", "Parking Spaces", isRetailDestination, func(l *models.Location) bool { return l.ParkingSpaces.Valid }},
	{"phone", "Phone Number", hasWebsite, func(l *models.Location) bool { return l.Phone.Valid && l.Phone.String != "" }},
	{"google_rating", "Google Rating", hasWebsite, func(l *models.Location) bool { return l.GoogleRating.Valid }},
	{"vacancy", "Vacancy Rate", nil, func(l *models.Location) bool { return l.Vacancy.Valid }},
	{"largest_category", "Largest Category", nil, func(l *models.Location) bool { return l.LargestCategory.Valid }},
	{"largest_category_percent", "Largest Category %", nil, func(l *models.Location) bool { return l.LargestCategoryPercent.Valid }},
}

func contextNote(spec fieldSpec) string {
	switch {
	case spec.relevant == nil:
		return "of all locations"
	case spec.field == "phone" || spec.field == "google_rating":
		return "of locations with websites"
	default:
		return "of shopping centres/retail parks"
	}
}

func priorityFor(field string, percentage int) string {
	switch field {
	case "website", "latitude", "longitude", "number_of_stores", "total_floor_area":
		if percentage < 90 {
			return PriorityHigh
		}
	case "vacancy", "parking_spaces", "footfall":
		if percentage < 70 {
			return PriorityMedium
		}
	}
	return PriorityLow
}

// Audit measures field fill rates across the snapshot. High-priority gaps
// sort first, then lowest fill rate.
func Audit(locations []models.Location) *CoverageReport {
	report := &CoverageReport{
		Overview: Overview{TotalLocations: len(locations)},
	}

	for i := range locations {
		l := &locations[i]
		if isRetailDestination(l) {
			report.Overview.ShoppingCentresRetailParks++
			if !hasWebsite(l) && l.NumberOfStores.Valid && l.NumberOfStores.Int64 >= majorStoreThreshold {
				report.CriticalGaps.MajorLocationsWithoutWebsites++
			}
			if !l.ParkingSpaces.Valid {
				report.CriticalGaps.ShoppingCentresWithoutParking++
			}
		}
		if hasWebsite(l) {
			report.Overview.LocationsWithWebsites++
		}
		if !l.HasCoordinates() {
			report.CriticalGaps.UngeocodedLocations++
		}
		if !l.NumberOfStores.Valid {
			report.CriticalGaps.LocationsWithoutStoreCounts++
		}
	}

	report.FieldGaps = make([]FieldGap, 0, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		relevant, missing := 0, 0
		for i := range locations {
			l := &locations[i]
			if spec.relevant != nil && !spec.relevant(l) {
				continue
			}
			relevant++
			if !spec.filled(l) {
				missing++
			}
		}

		pct := 100
		if relevant > 0 {
			pct = int(math.Round(float64(relevant-missing) / float64(relevant) * 100))
		}

		report.FieldGaps = append(report.FieldGaps, FieldGap{
			Field:         spec.field,
			DisplayName:   spec.displayName,
			TotalMissing:  missing,
			RelevantTotal: relevant,
			Percentage:    pct,
			Priority:      priorityFor(spec.field, pct),
			ContextNote:   contextNote(spec),
		})
	}

	order := map[string]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}
	sort.SliceStable(report.FieldGaps, func(i, j int) bool {
		a, b := report.FieldGaps[i], report.FieldGaps[j]
		if order[a.Priority] != order[b.Priority] {
			return order[a.Priority] < order[b.Priority]
		}
		return a.Percentage < b.Percentage
	})

	return report
}

// MissingField lists the locations whose given field is absent, largest
// locations first, capped to limit.
func MissingField(locations []models.Location, field string, limit int) []models.LocationListItem {
	var spec *fieldSpec
	for i := range fieldSpecs {
		if fieldSpecs[i].field == field {
			spec = &fieldSpecs[i]
			break
		}
	}
	if spec == nil {
		return nil
	}

	missing := make([]models.LocationListItem, 0)
	for i := range locations {
		l := &locations[i]
		if spec.relevant != nil && !spec.relevant(l) {
			continue
		}
		if spec.filled(l) {
			continue
		}
		missing = append(missing, models.LocationListItem{
			ID:             l.ID,
			Name:           l.Name,
			Type:           l.Type,
			City:           l.City,
			County:         l.County,
			Latitude:       l.Latitude,
			Longitude:      l.Longitude,
			NumberOfStores: l.NumberOfStores.Int64,
		})
	}

	sort.SliceStable(missing, func(i, j int) bool {
		return missing[i].NumberOfStores > missing[j].NumberOfStores
	})

	if limit > 0 && len(missing) > limit {
		missing = missing[:limit]
	}
	return missing
}
