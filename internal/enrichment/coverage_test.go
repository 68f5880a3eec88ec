package enrichment

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-intel/internal/models"
)

// auditFixture covers the denominator rules: one fully-filled centre, a
// retail park with no website or parking, an ungeocoded high street, and a
// small centre with a website but no phone or parking.
func auditFixture() []models.Location {
	return []models.Location{
		{
			ID: "queensgate", Name: "Queensgate Shopping Centre", Type: models.TypeShoppingCentre,
			City: "Peterborough", County: "Cambridgeshire",
			Latitude: 52.5736, Longitude: -0.2478,
			Website:        sql.NullString{String: "https://queensgate-shopping.co.uk", Valid: true},
			Phone:          sql.NullString{String: "01733 311666", Valid: true},
			GoogleRating:   sql.NullFloat64{Float64: 4.2, Valid: true},
			NumberOfStores: sql.NullInt64{Int64: 90, Valid: true},
			ParkingSpaces:  sql.NullInt64{Int64: 2300, Valid: true},
		},
		{
			ID: "brotherhood", Name: "Brotherhood Shopping Park", Type: models.TypeRetailPark,
			City: "Peterborough", County: "Cambridgeshire",
			Latitude: 52.6040, Longitude: -0.2600,
			NumberOfStores: sql.NullInt64{Int64: 25, Valid: true},
		},
		{
			ID: "westgate", Name: "Westgate Arcade", Type: models.TypeHighStreet,
			City: "Peterborough", County: "Cambridgeshire",
		},
		{
			ID: "bretton", Name: "The Bretton Centre", Type: models.TypeShoppingCentre,
			City: "Peterborough", County: "Cambridgeshire",
			Latitude: 52.5900, Longitude: -0.2900,
			Website:        sql.NullString{String: "https://brettoncentre.co.uk", Valid: true},
			NumberOfStores: sql.NullInt64{Int64: 10, Valid: true},
		},
	}
}

func findGap(t *testing.T, report *CoverageReport, field string) FieldGap {
	t.Helper()
	for _, g := range report.FieldGaps {
		if g.Field == field {
			return g
		}
	}
	t.Fatalf("field %q not in report", field)
	return FieldGap{}
}

func TestAuditOverview(t *testing.T) {
	report := Audit(auditFixture())

	assert.Equal(t, 4, report.Overview.TotalLocations)
	assert.Equal(t, 3, report.Overview.ShoppingCentresRetailParks)
	assert.Equal(t, 2, report.Overview.LocationsWithWebsites)
}

func TestAuditCriticalGaps(t *testing.T) {
	report := Audit(auditFixture())

	// Brotherhood has 25 stores and no website.
	assert.Equal(t, 1, report.CriticalGaps.MajorLocationsWithoutWebsites)
	assert.Equal(t, 1, report.CriticalGaps.UngeocodedLocations)
	// Brotherhood and Bretton lack parking counts.
	assert.Equal(t, 2, report.CriticalGaps.ShoppingCentresWithoutParking)
	assert.Equal(t, 1, report.CriticalGaps.LocationsWithoutStoreCounts)
}

func TestAuditRelevantDenominators(t *testing.T) {
	report := Audit(auditFixture())

	website := findGap(t, report, "website")
	assert.Equal(t, 3, website.RelevantTotal)
	assert.Equal(t, 1, website.TotalMissing)
	assert.Equal(t, 67, website.Percentage)
	assert.Equal(t, "of shopping centres/retail parks", website.ContextNote)

	phone := findGap(t, report, "phone")
	assert.Equal(t, 2, phone.RelevantTotal)
	assert.Equal(t, 1, phone.TotalMissing)
	assert.Equal(t, "of locations with websites", phone.ContextNote)

	stores := findGap(t, report, "number_of_stores")
	assert.Equal(t, 4, stores.RelevantTotal)
	assert.Equal(t, 75, stores.Percentage)
}

func TestAuditPriorities(t *testing.T) {
	report := Audit(auditFixture())

	assert.Equal(t, PriorityHigh, findGap(t, report, "website").Priority)
	assert.Equal(t, PriorityHigh, findGap(t, report, "latitude").Priority)
	assert.Equal(t, PriorityMedium, findGap(t, report, "parking_spaces").Priority)
	assert.Equal(t, PriorityMedium, findGap(t, report, "footfall").Priority)
	// Phone never rises above low.
	assert.Equal(t, PriorityLow, findGap(t, report, "phone").Priority)
}

func TestAuditSortsHighPriorityFirst(t *testing.T) {
	report := Audit(auditFixture())
	require.NotEmpty(t, report.FieldGaps)

	// Nobody has a floor area, so it is the emptiest high-priority field.
	first := report.FieldGaps[0]
	assert.Equal(t, "total_floor_area", first.Field)
	assert.Equal(t, PriorityHigh, first.Priority)
	assert.Equal(t, 0, first.Percentage)

	order := map[string]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}
	for i := 1; i < len(report.FieldGaps); i++ {
		prev, cur := report.FieldGaps[i-1], report.FieldGaps[i]
		assert.LessOrEqual(t, order[prev.Priority], order[cur.Priority])
		if prev.Priority == cur.Priority {
			assert.LessOrEqual(t, prev.Percentage, cur.Percentage)
		}
	}
}

func TestAuditEmptySnapshot(t *testing.T) {
	report := Audit(nil)

	assert.Equal(t, 0, report.Overview.TotalLocations)
	for _, g := range report.FieldGaps {
		assert.Equal(t, 100, g.Percentage)
		assert.Equal(t, 0, g.RelevantTotal)
	}
}

func TestMissingFieldLargestFirst(t *testing.T) {
	missing := MissingField(auditFixture(), "parking_spaces", 0)

	require.Len(t, missing, 2)
	assert.Equal(t, "brotherhood", missing[0].ID)
	assert.Equal(t, "bretton", missing[1].ID)
}

func TestMissingFieldHonorsLimit(t *testing.T) {
	missing := MissingField(auditFixture(), "parking_spaces", 1)

	require.Len(t, missing, 1)
	assert.Equal(t, "brotherhood", missing[0].ID)
}

func TestMissingFieldRespectsRelevance(t *testing.T) {
	// Westgate is a high street, so it never counts as missing a website.
	missing := MissingField(auditFixture(), "website", 0)

	require.Len(t, missing, 1)
	assert.Equal(t, "brotherhood", missing[0].ID)
}

func TestMissingFieldUnknown(t *testing.T) {
	assert.Nil(t, MissingField(auditFixture(), "nonsense", 0))
}
