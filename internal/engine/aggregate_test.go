package engine

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-intel/internal/db"
	"retail-intel/internal/models"
)

func tenant(name, rawCategory string) models.Tenant {
	return models.Tenant{Name: name, Category: rawCategory}
}

func normalizedTenant(name, categoryName string, tier int64, parent string) models.Tenant {
	t := models.Tenant{
		Name:         name,
		CategoryName: sql.NullString{String: categoryName, Valid: true},
		CategoryTier: sql.NullInt64{Int64: tier, Valid: true},
	}
	if parent != "" {
		t.ParentName = sql.NullString{String: parent, Valid: true}
	}
	return t
}

func TestDistributionEmpty(t *testing.T) {
	dist := Distribution(nil)
	assert.NotNil(t, dist)
	assert.Empty(t, dist)
}

func TestDistributionPercentagesSumToHundred(t *testing.T) {
	tenants := []models.Tenant{
		tenant("Next", "Clothing & Footwear"),
		tenant("H&M", "Clothing & Footwear"),
		tenant("Boots", "Health & Beauty"),
		tenant("Costa Coffee", "Cafes & Restaurants"),
		tenant("Timpson", ""),
	}

	dist := Distribution(tenants)

	sum := 0.0
	for _, d := range dist {
		sum += d.Percentage
	}
	assert.InDelta(t, 100, sum, 1e-9)
}

func TestDistributionEffectiveCategory(t *testing.T) {
	tenants := []models.Tenant{
		// Tier-3 node rolls up to its tier-2 parent.
		normalizedTenant("Costa Coffee", "Coffee Shop", 3, "Cafes & Restaurants"),
		// Tier-2 node used as-is.
		normalizedTenant("Boots", "Health & Beauty", 2, ""),
		// No normalized reference falls back to the raw string.
		tenant("Next", "Fashion"),
		// Nothing at all.
		tenant("Mystery Unit", ""),
	}

	dist := Distribution(tenants)
	names := make([]string, 0, len(dist))
	for _, d := range dist {
		names = append(names, d.CategoryName)
	}
	assert.ElementsMatch(t, names, []string{
		"Cafes & Restaurants", "Health & Beauty", "Fashion", "Uncategorized",
	})
}

func TestDistributionDeterministicOrder(t *testing.T) {
	tenants := []models.Tenant{
		tenant("a", "Beta"),
		tenant("b", "Alpha"),
		tenant("c", "Alpha"),
		tenant("d", "Gamma"),
	}

	dist := Distribution(tenants)
	require.Len(t, dist, 3)
	assert.Equal(t, "Alpha", dist[0].CategoryName)
	// Count ties break alphabetically.
	assert.Equal(t, "Beta", dist[1].CategoryName)
	assert.Equal(t, "Gamma", dist[2].CategoryName)
}

func TestLargestCategoryAggregates(t *testing.T) {
	rows := []db.LargestCategoryRow{
		{ID: "1", LargestCategory: "Clothing & Footwear", LargestCategoryPercent: 30},
		{ID: "2", LargestCategory: "Clothing & Footwear", LargestCategoryPercent: 40},
		{ID: "3", LargestCategory: "Food & Grocery", LargestCategoryPercent: 55},
		{ID: "4", LargestCategory: ""},
	}

	aggs := LargestCategoryAggregates(rows)
	require.Len(t, aggs, 2)
	assert.Equal(t, "Clothing & Footwear", aggs[0].LargestCategory)
	assert.Equal(t, 2, aggs[0].Locations)
	assert.InDelta(t, 35, aggs[0].AvgPercent, 1e-9)
	assert.Equal(t, "Food & Grocery", aggs[1].LargestCategory)
}
