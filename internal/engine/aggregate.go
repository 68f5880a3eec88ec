package engine

import (
	"sort"

	"retail-intel/internal/db"
	"retail-intel/internal/models"
)

// Distribution computes the category breakdown for a set of tenants.
// An empty tenant set yields an empty distribution, never a 100%
// "Uncategorized" row. Output is sorted descending by count, ties by name.
func Distribution(tenants []models.Tenant) []models.CategoryDistribution {
	if len(tenants) == 0 {
		return []models.CategoryDistribution{}
	}

	counts := make(map[string]int)
	for i := range tenants {
		counts[tenants[i].EffectiveCategory()]++
	}

	total := len(tenants)
	result := make([]models.CategoryDistribution, 0, len(counts))
	for name, count := range counts {
		result = append(result, models.CategoryDistribution{
			CategoryName: name,
			Count:        count,
			Percentage:   float64(count) / float64(total) * 100,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].CategoryName < result[j].CategoryName
	})
	return result
}

// LargestCategoryAggregates summarizes how often each category is the single
// largest category across a set of locations, using the pre-computed
// largest-category fields.
func LargestCategoryAggregates(rows []db.LargestCategoryRow) []models.LargestCategoryAggregate {
	type acc struct {
		count        int
		percentSum   float64
		percentCount int
	}
	byCat := make(map[string]*acc)
	for _, r := range rows {
		if r.LargestCategory == "" {
			continue
		}
		a := byCat[r.LargestCategory]
		if a == nil {
			a = &acc{}
			byCat[r.LargestCategory] = a
		}
		a.count++
		if r.LargestCategoryPercent > 0 {
			a.percentSum += r.LargestCategoryPercent
			a.percentCount++
		}
	}

	result := make([]models.LargestCategoryAggregate, 0, len(byCat))
	for name, a := range byCat {
		avg := 0.0
		if a.percentCount > 0 {
			avg = a.percentSum / float64(a.percentCount)
		}
		result = append(result, models.LargestCategoryAggregate{
			LargestCategory: name,
			Locations:       a.count,
			AvgPercent:      avg,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Locations != result[j].Locations {
			return result[i].Locations > result[j].Locations
		}
		return result[i].LargestCategory < result[j].LargestCategory
	})
	return result
}

// shareOf returns the percentage share of a category within a distribution,
// 0 when absent.
func shareOf(dist []models.CategoryDistribution, category string) float64 {
	for _, d := range dist {
		if d.CategoryName == category {
			return d.Percentage
		}
	}
	return 0
}
