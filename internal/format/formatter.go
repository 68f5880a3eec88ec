// Package format renders analysis results into voice-friendly prose. Output
// is tiered: a short summary always, extra detail only when the caller's
// query asks for it.
package format

import (
	"fmt"
	"math"
	"strings"

	"retail-intel/internal/engine"
	"retail-intel/internal/models"
)

// Detail levels
const (
	DetailHigh     = "high"
	DetailDetailed = "detailed"
)

// FormattedResponse is the tiered voice payload.
type FormattedResponse struct {
	Summary  string   `json:"summary"`
	Details  string   `json:"details,omitempty"`
	Insights []string `json:"insights"`
}

var detailedKeywords = []string{
	"detailed",
	"more information",
	"tell me more",
	"explain",
	"specific",
	"breakdown",
	"list",
	"what brands",
	"which brands",
}

// DetermineDetailLevel infers the detail tier from the caller's phrasing.
func DetermineDetailLevel(query string) string {
	lower := strings.ToLower(query)
	for _, kw := range detailedKeywords {
		if strings.Contains(lower, kw) {
			return DetailDetailed
		}
	}
	return DetailHigh
}

// CategoryDistribution renders a category breakdown for the area around a
// location.
func CategoryDistribution(distribution []models.CategoryDistribution, locationName string, radiusKm float64, detailLevel string) FormattedResponse {
	if len(distribution) == 0 {
		return FormattedResponse{
			Summary: fmt.Sprintf(
				"I couldn't find tenant category data for the area around %s within %s kilometers.",
				locationName, trimFloat(radiusKm),
			),
			Insights: []string{},
		}
	}

	top := distribution
	if len(top) > 5 {
		top = top[:5]
	}
	first := top[0]

	summary := fmt.Sprintf(
		"Within %s kilometers of %s, the most common tenant category is %s, representing %.1f%% of all stores.",
		trimFloat(radiusKm), locationName, first.CategoryName, first.Percentage,
	)

	var details string
	if detailLevel == DetailDetailed {
		parts := make([]string, 0, len(top))
		for _, cat := range top {
			parts = append(parts, fmt.Sprintf("%s (%.1f%%)", cat.CategoryName, cat.Percentage))
		}
		details = fmt.Sprintf("The top %d categories in the area are: %s.", len(top), strings.Join(parts, ", "))
	}

	insights := make([]string, 0)
	if first.Percentage > 30 {
		insights = append(insights, fmt.Sprintf(
			"%s dominates the local market at %.1f%%. Consider this when planning your tenant mix.",
			first.CategoryName, first.Percentage,
		))
	}
	for _, cat := range distribution {
		lower := strings.ToLower(cat.CategoryName)
		if strings.Contains(lower, "food") || strings.Contains(lower, "restaurant") || strings.Contains(lower, "cafe") {
			if cat.Percentage < 15 {
				insights = append(insights, fmt.Sprintf(
					"Food and dining is underrepresented at %.1f%%. This category typically drives footfall, so consider adding more dining options.",
					cat.Percentage,
				))
			}
			break
		}
	}

	return FormattedResponse{Summary: summary, Details: details, Insights: insights}
}

// GapAnalysis renders a gap analysis result.
func GapAnalysis(analysis *engine.GapAnalysis, detailLevel string) FormattedResponse {
	var summary strings.Builder
	fmt.Fprintf(&summary, "I've analyzed %s compared to %d competitor location%s. ",
		analysis.Target.LocationName,
		analysis.Competitors.TotalLocations,
		plural(analysis.Competitors.TotalLocations),
	)

	if len(analysis.Gaps) == 0 {
		summary.WriteString("Your tenant mix is well-balanced compared to competitors.")
	} else {
		top := analysis.Gaps[0]
		if top.GapType == engine.GapMissing {
			fmt.Fprintf(&summary, "The highest priority gap is %s, which is completely missing.", top.Category)
		} else {
			fmt.Fprintf(&summary, "The highest priority gap is %s, which is under-represented by approximately %d store%s.",
				top.Category, top.GapSize, plural(top.GapSize))
		}
	}

	var details string
	if detailLevel == DetailDetailed {
		parts := make([]string, 0, 3)

		missing := make([]string, 0)
		underRep := make([]string, 0)
		for _, g := range analysis.Gaps {
			switch g.GapType {
			case engine.GapMissing:
				if len(missing) < 5 {
					missing = append(missing, g.Category)
				}
			case engine.GapUnderRepresented:
				if len(underRep) < 5 {
					underRep = append(underRep, fmt.Sprintf(
						"%s (%.1f%% vs %.1f%% average)", g.Category, g.TargetShare, g.CompetitorShare,
					))
				}
			}
		}
		if len(missing) > 0 {
			parts = append(parts, fmt.Sprintf("Missing categories present in competitors: %s.", strings.Join(missing, ", ")))
		}
		if len(underRep) > 0 {
			parts = append(parts, fmt.Sprintf("Under-represented categories: %s.", strings.Join(underRep, ", ")))
		}
		if len(analysis.MissingBrands) > 0 {
			brands := make([]string, 0, 5)
			for i, b := range analysis.MissingBrands {
				if i == 5 {
					break
				}
				brands = append(brands, b.Name)
			}
			parts = append(parts, fmt.Sprintf("Popular brands in competitors but not in your location: %s.", strings.Join(brands, ", ")))
		}
		details = strings.Join(parts, " ")
	}

	// Insights read better in second person over voice.
	insights := make([]string, 0, len(analysis.Insights)+1)
	for _, insight := range analysis.Insights {
		insights = append(insights, strings.ReplaceAll(insight, analysis.Target.LocationName, "your location"))
	}

	high := 0
	for _, g := range analysis.Gaps {
		if g.Priority == engine.PriorityHigh {
			high++
		}
	}
	if high > 0 {
		insights = append(insights, fmt.Sprintf(
			"I recommend focusing on %d high-priority category gap%s to improve your tenant mix.",
			high, plural(high),
		))
	}

	return FormattedResponse{Summary: summary.String(), Details: details, Insights: insights}
}

// LocalRecommendations combines a category breakdown with an optional gap
// analysis into a single response.
func LocalRecommendations(distribution []models.CategoryDistribution, analysis *engine.GapAnalysis, locationName string, radiusKm float64, detailLevel string) FormattedResponse {
	categories := CategoryDistribution(distribution, locationName, radiusKm, detailLevel)
	if analysis == nil {
		return categories
	}

	gaps := GapAnalysis(analysis, detailLevel)

	var details string
	if detailLevel == DetailDetailed {
		details = strings.TrimSpace(categories.Details + " " + gaps.Details)
	}

	seen := make(map[string]bool)
	insights := make([]string, 0, len(categories.Insights)+len(gaps.Insights))
	for _, insight := range append(categories.Insights, gaps.Insights...) {
		if !seen[insight] {
			seen[insight] = true
			insights = append(insights, insight)
		}
	}

	return FormattedResponse{
		Summary:  categories.Summary + " " + gaps.Summary,
		Details:  details,
		Insights: insights,
	}
}

// LocationDetails renders a single location's facts and health signals.
func LocationDetails(loc *models.Location, detailLevel string) FormattedResponse {
	parts := []string{fmt.Sprintf("%s is located in %s.", loc.Name, loc.City)}

	if loc.NumberOfStores.Valid && loc.NumberOfStores.Int64 > 0 {
		parts = append(parts, fmt.Sprintf("It has %d stores.", loc.NumberOfStores.Int64))
	}
	if loc.TotalFloorArea.Valid && loc.TotalFloorArea.Float64 > 0 {
		sqm := int(math.Round(loc.TotalFloorArea.Float64 / 10.764))
		parts = append(parts, fmt.Sprintf("The total floor area is approximately %s square meters.", groupThousands(sqm)))
	}
	if loc.ParkingSpaces.Valid && loc.ParkingSpaces.Int64 > 0 {
		parts = append(parts, fmt.Sprintf("There are %d parking spaces available.", loc.ParkingSpaces.Int64))
	}

	var details string
	if detailLevel == DetailDetailed {
		detailParts := make([]string, 0, 3)
		if loc.GoogleRating.Valid {
			detailParts = append(detailParts, fmt.Sprintf("Google rating: %.1f out of 5 stars.", loc.GoogleRating.Float64))
		}
		if loc.Vacancy.Valid {
			detailParts = append(detailParts, fmt.Sprintf("Vacancy rate: %.1f%%.", loc.Vacancy.Float64*100))
		}
		if loc.Footfall.Valid && loc.Footfall.Int64 > 0 {
			detailParts = append(detailParts, fmt.Sprintf(
				"Annual footfall: approximately %s visitors.", groupThousands(int(loc.Footfall.Int64)),
			))
		}
		details = strings.Join(detailParts, " ")
	}

	insights := make([]string, 0)
	if loc.Vacancy.Valid {
		pct := loc.Vacancy.Float64 * 100
		if pct > 15 {
			insights = append(insights, fmt.Sprintf(
				"The vacancy rate of %.1f%% is above the healthy threshold. Consider strategies to attract new tenants.", pct,
			))
		} else if pct < 5 {
			insights = append(insights, fmt.Sprintf(
				"Your vacancy rate of %.1f%% is excellent, indicating strong demand.", pct,
			))
		}
	}
	if loc.GoogleRating.Valid && loc.GoogleRating.Float64 < 3.5 {
		insights = append(insights, fmt.Sprintf(
			"Your Google rating of %.1f could be improved. Consider focusing on customer experience initiatives.",
			loc.GoogleRating.Float64,
		))
	}

	return FormattedResponse{Summary: strings.Join(parts, " "), Details: details, Insights: insights}
}

// NearbyCompetitors renders a competitor list.
func NearbyCompetitors(competitors []models.Competitor, locationName string, detailLevel string) FormattedResponse {
	if len(competitors) == 0 {
		return FormattedResponse{
			Summary:  fmt.Sprintf("I couldn't find any nearby competitors to %s.", locationName),
			Insights: []string{},
		}
	}

	names := make([]string, 0, 3)
	for i, c := range competitors {
		if i == 3 {
			break
		}
		names = append(names, c.Name)
	}
	more := ""
	if len(competitors) > 3 {
		more = fmt.Sprintf(", and %d more", len(competitors)-3)
	}
	summary := fmt.Sprintf("I found %d nearby competitor%s to %s: %s%s.",
		len(competitors), plural(len(competitors)), locationName, strings.Join(names, ", "), more)

	var details string
	if detailLevel == DetailDetailed {
		entries := make([]string, 0, 5)
		for i, c := range competitors {
			if i == 5 {
				break
			}
			parts := []string{c.Name}
			if c.NumberOfStores > 0 {
				parts = append(parts, fmt.Sprintf("%d stores", c.NumberOfStores))
			}
			parts = append(parts, fmt.Sprintf("%.1f km away", c.DistanceKm))
			entries = append(entries, strings.Join(parts, ", "))
		}
		details = fmt.Sprintf("Competitor details: %s.", strings.Join(entries, "; "))
	}

	insights := make([]string, 0)
	sum, counted := int64(0), 0
	for _, c := range competitors {
		if c.NumberOfStores > 0 {
			sum += c.NumberOfStores
			counted++
		}
	}
	if counted > 0 {
		avg := int(math.Round(float64(sum) / float64(counted)))
		insights = append(insights, fmt.Sprintf(
			"The average competitor has %d stores. Use this as a benchmark for your tenant mix.", avg,
		))
	}

	return FormattedResponse{Summary: summary, Details: details, Insights: insights}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// trimFloat renders 10.0 as "10" and 7.5 as "7.5".
func trimFloat(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.1f", f)
}

func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
