package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"retail-intel/internal/models"
)

// Gap classification
const (
	GapMissing          = "missing"
	GapUnderRepresented = "under-represented"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// categoryImportance weights gap scoring by how much a category matters to a
// retail destination (canonical LDC tier-2 names).
var categoryImportance = map[string]float64{
	"Cafes & Restaurants":     10,
	"Clothing & Footwear":     9,
	"Health & Beauty":         8,
	"Food & Grocery":          8,
	"Leisure & Entertainment": 8,
	"Electrical & Technology": 7,
	"Jewellery & Watches":     7,
	"General Retail":          6,
	"Home & Garden":           6,
	"Department Stores":       6,
	"Gifts & Stationery":      5,
	"Kids & Toys":             5,
	"Financial Services":      4,
	"Services":                4,
	"Charity & Second Hand":   3,
	"Vacant":                  1,
}

const defaultImportance = 5

// Priority thresholds on the 0-10 score scale.
const (
	highThreshold   = 8
	mediumThreshold = 5
)

// underRepresentedFactor: a category counts as under-represented when the
// target's share is less than half the competitor share.
const underRepresentedFactor = 0.5

// GapRecord is one prioritized category gap.
type GapRecord struct {
	Category           string  `json:"category"`
	GapType            string  `json:"gap_type"`
	GapSize            int     `json:"gap_size"`
	TargetShare        float64 `json:"target_share"`         // 0..100
	CompetitorShare    float64 `json:"competitor_share"`     // 0..100
	CompetitorCoverage float64 `json:"competitor_coverage"`  // 0..100, percent of competitors carrying the category
	Score              float64 `json:"score"`                // 0..10
	Priority           string  `json:"priority"`
	Recommendation     string  `json:"recommendation"`
}

// TargetSummary describes the analyzed location's tenant mix.
type TargetSummary struct {
	LocationID   string                        `json:"location_id"`
	LocationName string                        `json:"location_name"`
	TotalTenants int                           `json:"total_tenants"`
	Categories   []models.CategoryDistribution `json:"categories"`
}

// CompetitorSummary describes the aggregated competitive set.
type CompetitorSummary struct {
	TotalLocations            int                           `json:"total_locations"`
	TotalTenants              int                           `json:"total_tenants"`
	AverageTenantsPerLocation float64                       `json:"average_tenants_per_location"`
	Categories                []models.CategoryDistribution `json:"categories"`
}

// BrandPresence records one competitor carrying a missing brand.
type BrandPresence struct {
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
}

// MissingBrand is a tenant name present at competitors but absent at the target.
type MissingBrand struct {
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	PresentAt []BrandPresence `json:"present_at"`
}

// GapAnalysis is the full output of a target-vs-competitors comparison.
type GapAnalysis struct {
	Target        TargetSummary     `json:"target"`
	Competitors   CompetitorSummary `json:"competitors"`
	Gaps          []GapRecord       `json:"gaps"`
	MissingBrands []MissingBrand    `json:"missing_brands,omitempty"`
	Insights      []string          `json:"insights"`
}

// analyzeGaps classifies every category in the competitor distribution
// against the target's share, scoring and prioritizing the deficits.
// competitorTenantsByLoc groups competitor tenants per location for the
// coverage computation.
func analyzeGaps(
	target TargetSummary,
	competitors CompetitorSummary,
	competitorTenantsByLoc map[string][]models.Tenant,
) []GapRecord {
	gaps := make([]GapRecord, 0)

	for _, compCat := range competitors.Categories {
		targetShare := shareOf(target.Categories, compCat.CategoryName)
		compShare := compCat.Percentage

		var gapType string
		switch {
		case targetShare == 0:
			gapType = GapMissing
		case targetShare < compShare*underRepresentedFactor:
			gapType = GapUnderRepresented
		default:
			continue
		}

		coverage := competitorCoverage(compCat.CategoryName, competitorTenantsByLoc)
		score := gapScore(compCat.CategoryName, coverage, compShare-targetShare)

		gapSize := 0
		if gapType == GapUnderRepresented {
			gapSize = int(math.Round((compShare - targetShare) * float64(target.TotalTenants) / 100))
			if gapSize < 0 {
				gapSize = 0
			}
		}

		gaps = append(gaps, GapRecord{
			Category:           compCat.CategoryName,
			GapType:            gapType,
			GapSize:            gapSize,
			TargetShare:        targetShare,
			CompetitorShare:    compShare,
			CompetitorCoverage: coverage,
			Score:              score,
			Priority:           priorityFor(score),
			Recommendation:     recommendation(compCat.CategoryName, gapType, gapSize, compShare, coverage),
		})
	}

	// High priority first, then score, then name for a total order.
	order := map[string]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}
	sort.Slice(gaps, func(i, j int) bool {
		if order[gaps[i].Priority] != order[gaps[j].Priority] {
			return order[gaps[i].Priority] < order[gaps[j].Priority]
		}
		if gaps[i].Score != gaps[j].Score {
			return gaps[i].Score > gaps[j].Score
		}
		return gaps[i].Category < gaps[j].Category
	})
	return gaps
}

// competitorCoverage is the percentage of competitor locations carrying at
// least one tenant in the category.
func competitorCoverage(category string, tenantsByLoc map[string][]models.Tenant) float64 {
	if len(tenantsByLoc) == 0 {
		return 0
	}
	carrying := 0
	for _, tenants := range tenantsByLoc {
		for i := range tenants {
			if tenants[i].EffectiveCategory() == category {
				carrying++
				break
			}
		}
	}
	return float64(carrying) / float64(len(tenantsByLoc)) * 100
}

// gapScore combines category importance, competitor coverage, and the share
// gap into a 0-10 weight: importance*0.4 + coverage*0.3 + clamped gap*0.3.
func gapScore(category string, coverage, shareGap float64) float64 {
	importance := defaultImportance
	if v, ok := categoryImportance[category]; ok {
		importance = int(v)
	}
	gap := shareGap
	if gap > 10 {
		gap = 10
	}
	if gap < 0 {
		gap = 0
	}
	return float64(importance)*0.4 + (coverage/100)*10*0.3 + gap*0.3
}

func priorityFor(score float64) string {
	switch {
	case score > highThreshold:
		return PriorityHigh
	case score > mediumThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func recommendation(category, gapType string, gapSize int, compShare, coverage float64) string {
	if gapType == GapMissing {
		return fmt.Sprintf(
			"%s is missing; %.0f%% of nearby competitors carry it (%.1f%% of their stores) - consider seeking a tenant to close this gap.",
			category, coverage, compShare,
		)
	}
	stores := "stores"
	if gapSize == 1 {
		stores = "store"
	}
	return fmt.Sprintf(
		"Add approximately %d %s in %s to match the competitor average (%.1f%%).",
		gapSize, stores, category, compShare,
	)
}

// missingBrands finds tenant names present at minPresence or more competitor
// locations and absent at the target. A brand counts as present at the
// target when any target tenant name contains it (or vice versa),
// case-insensitively, so "H&M Home" does not get recommended to a centre
// that already has "H&M". Anchor tenants are skipped as location-specific.
func missingBrands(
	targetTenants []models.Tenant,
	competitorTenantsByLoc map[string][]models.Tenant,
	competitorNames map[string]string,
	minPresence int,
) []MissingBrand {
	targetNames := make([]string, 0, len(targetTenants))
	for i := range targetTenants {
		targetNames = append(targetNames, strings.ToLower(strings.TrimSpace(targetTenants[i].Name)))
	}

	type brandKey struct{ name, category string }
	found := make(map[brandKey]*MissingBrand)
	order := make([]brandKey, 0)

	// Stable iteration: location IDs sorted, tenants already name-ordered.
	locIDs := make([]string, 0, len(competitorTenantsByLoc))
	for id := range competitorTenantsByLoc {
		locIDs = append(locIDs, id)
	}
	sort.Strings(locIDs)

	for _, locID := range locIDs {
		for _, t := range competitorTenantsByLoc[locID] {
			if t.IsAnchorTenant {
				continue
			}
			lower := strings.ToLower(strings.TrimSpace(t.Name))
			if presentAtTarget(lower, targetNames) {
				continue
			}

			key := brandKey{name: lower, category: t.EffectiveCategory()}
			b := found[key]
			if b == nil {
				b = &MissingBrand{Name: t.Name, Category: key.category}
				found[key] = b
				order = append(order, key)
			}
			b.PresentAt = append(b.PresentAt, BrandPresence{
				LocationID:   locID,
				LocationName: competitorNames[locID],
			})
		}
	}

	result := make([]MissingBrand, 0, len(order))
	for _, key := range order {
		b := found[key]
		if len(b.PresentAt) >= minPresence {
			result = append(result, *b)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return len(result[i].PresentAt) > len(result[j].PresentAt)
	})
	return result
}

func presentAtTarget(brand string, targetNames []string) bool {
	if brand == "" {
		return true
	}
	for _, name := range targetNames {
		if name == "" {
			continue
		}
		if strings.Contains(name, brand) || strings.Contains(brand, name) {
			return true
		}
	}
	return false
}

// gapInsights produces the observation strings surfaced alongside the
// structured analysis.
func gapInsights(analysis *GapAnalysis) []string {
	insights := make([]string, 0)

	if len(analysis.Gaps) > 0 {
		top := analysis.Gaps[0]
		desc := "completely missing"
		if top.GapType == GapUnderRepresented {
			desc = fmt.Sprintf("under-represented by ~%d stores", top.GapSize)
		}
		insights = append(insights, fmt.Sprintf(
			"Highest priority gap: %s is %s compared to competitors.", top.Category, desc,
		))
	}

	missing := 0
	totalGapSize := 0
	underRep := 0
	for _, g := range analysis.Gaps {
		if g.GapType == GapMissing {
			missing++
		} else {
			underRep++
			totalGapSize += g.GapSize
		}
	}
	if missing > 0 {
		insights = append(insights, fmt.Sprintf(
			"%d categories are present in competitors but missing from %s.",
			missing, analysis.Target.LocationName,
		))
	}
	if underRep > 0 {
		insights = append(insights, fmt.Sprintf(
			"%d categories are under-represented, representing an estimated %d store opportunity.",
			underRep, totalGapSize,
		))
	}

	if len(analysis.MissingBrands) > 0 {
		top := make([]string, 0, 5)
		for i, b := range analysis.MissingBrands {
			if i == 5 {
				break
			}
			top = append(top, b.Name)
		}
		insights = append(insights, fmt.Sprintf(
			"%d tenant brands found in competitors are not present in %s. Top missing brands: %s.",
			len(analysis.MissingBrands), analysis.Target.LocationName, strings.Join(top, ", "),
		))
	}

	if len(analysis.Target.Categories) > 0 && len(analysis.Competitors.Categories) > 0 {
		tc := analysis.Target.Categories[0]
		cc := analysis.Competitors.Categories[0]
		if tc.CategoryName != cc.CategoryName {
			insights = append(insights, fmt.Sprintf(
				"Target location's largest category is %s (%.1f%%), while competitors average %s (%.1f%%).",
				tc.CategoryName, tc.Percentage, cc.CategoryName, cc.Percentage,
			))
		}
	}

	return insights
}
