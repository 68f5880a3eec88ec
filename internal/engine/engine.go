package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"retail-intel/internal/db"
	"retail-intel/internal/geo"
	"retail-intel/internal/models"
)

// Store is the data access the engine needs; *db.DB satisfies it.
type Store interface {
	GetLocation(ctx context.Context, id string) (*models.Location, error)
	ListLocationsByIDs(ctx context.Context, ids []string) ([]models.LocationRef, error)
	ListGeoCandidates(ctx context.Context, minStores *int64) ([]db.GeoCandidate, error)
	ListTenantsByLocations(ctx context.Context, locationIDs []string) ([]models.Tenant, error)
	ListLargestCategories(ctx context.Context, locationIDs []string) ([]db.LargestCategoryRow, error)
}

// Options tune engine behaviour.
type Options struct {
	DefaultRadiusKm  float64
	MaxCompetitors   int
	UseSpatialIndex  bool
	MinBrandPresence int
}

func (o *Options) fill() {
	if o.DefaultRadiusKm <= 0 {
		o.DefaultRadiusKm = 10
	}
	if o.MaxCompetitors <= 0 {
		o.MaxCompetitors = 20
	}
	if o.MinBrandPresence <= 0 {
		o.MinBrandPresence = 2
	}
}

// Engine runs competitive analysis over the location snapshot.
type Engine struct {
	store Store
	opts  Options
	log   *zap.Logger
}

func New(store Store, opts Options, log *zap.Logger) *Engine {
	opts.fill()
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, opts: opts, log: log}
}

// DefaultRadiusKm exposes the configured default search radius.
func (e *Engine) DefaultRadiusKm() float64 {
	return e.opts.DefaultRadiusKm
}

// NearbyCompetitors returns locations within radiusKm of the given location,
// sorted nearest first and capped to the configured maximum. The centre
// itself is excluded. radiusKm <= 0 selects the configured default. A non-nil
// minStores restricts the candidate set before the nearest-N cap is applied,
// so a qualifying competitor is never lost to a closer one below the
// threshold.
func (e *Engine) NearbyCompetitors(ctx context.Context, locationID string, radiusKm float64, minStores *int64) ([]models.Competitor, error) {
	centre, err := e.store.GetLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, locationID)
	}
	if !centre.HasCoordinates() {
		return nil, fmt.Errorf("%w: %s", ErrMissingCoordinates, centre.Name)
	}
	if radiusKm <= 0 {
		radiusKm = e.opts.DefaultRadiusKm
	}

	candidates, err := e.store.ListGeoCandidates(ctx, minStores)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]db.GeoCandidate, len(candidates))
	geoCandidates := make([]geo.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == centre.ID {
			continue
		}
		byID[c.ID] = c
		geoCandidates = append(geoCandidates, geo.Candidate{
			ID: c.ID, Latitude: c.Latitude, Longitude: c.Longitude,
		})
	}

	var distances []geo.Distance
	if e.opts.UseSpatialIndex {
		idx := geo.NewIndex(geoCandidates)
		ids := idx.FindWithinRadius(centre.Latitude, centre.Longitude, radiusKm)
		distances = make([]geo.Distance, 0, len(ids))
		for _, id := range ids {
			c := byID[id]
			distances = append(distances, geo.Distance{
				ID:         id,
				DistanceKm: geo.Haversine(centre.Latitude, centre.Longitude, c.Latitude, c.Longitude),
			})
		}
		sortDistances(distances)
		if len(distances) > e.opts.MaxCompetitors {
			distances = distances[:e.opts.MaxCompetitors]
		}
	} else {
		distances = geo.DistancesWithinRadius(
			centre.Latitude, centre.Longitude, radiusKm, geoCandidates, e.opts.MaxCompetitors,
		)
	}

	competitors := make([]models.Competitor, 0, len(distances))
	for _, d := range distances {
		c := byID[d.ID]
		competitors = append(competitors, models.Competitor{
			ID:             c.ID,
			Name:           c.Name,
			City:           c.City,
			County:         c.County,
			NumberOfStores: c.NumberOfStores,
			DistanceKm:     roundKm(d.DistanceKm),
		})
	}

	e.log.Debug("nearby competitors computed",
		zap.String("location_id", locationID),
		zap.Float64("radius_km", radiusKm),
		zap.Int("matches", len(competitors)),
	)
	return competitors, nil
}

// CategoryDistribution returns the category breakdown of a single location's
// tenants.
func (e *Engine) CategoryDistribution(ctx context.Context, locationID string) (*TargetSummary, error) {
	loc, err := e.store.GetLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, locationID)
	}

	tenants, err := e.store.ListTenantsByLocations(ctx, []string{locationID})
	if err != nil {
		return nil, err
	}

	return &TargetSummary{
		LocationID:   loc.ID,
		LocationName: loc.Name,
		TotalTenants: len(tenants),
		Categories:   Distribution(tenants),
	}, nil
}

// AreaCategoryDistribution aggregates the category breakdown across every
// location within radiusKm of the centre, the centre included.
func (e *Engine) AreaCategoryDistribution(ctx context.Context, locationID string, radiusKm float64) ([]models.CategoryDistribution, error) {
	competitors, err := e.NearbyCompetitors(ctx, locationID, radiusKm, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(competitors)+1)
	ids = append(ids, locationID)
	for _, c := range competitors {
		ids = append(ids, c.ID)
	}

	tenants, err := e.store.ListTenantsByLocations(ctx, ids)
	if err != nil {
		return nil, err
	}
	return Distribution(tenants), nil
}

// LargestCategories aggregates the pre-computed dominant category across the
// competitors within radiusKm of the given location.
func (e *Engine) LargestCategories(ctx context.Context, locationID string, radiusKm float64) ([]models.LargestCategoryAggregate, error) {
	competitors, err := e.NearbyCompetitors(ctx, locationID, radiusKm, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(competitors))
	for _, c := range competitors {
		ids = append(ids, c.ID)
	}

	rows, err := e.store.ListLargestCategories(ctx, ids)
	if err != nil {
		return nil, err
	}
	return LargestCategoryAggregates(rows), nil
}

// PerformGapAnalysis compares the target location's tenant mix against the
// given competitor set. When competitorIDs is empty, competitors are selected
// by radius only when the caller passes radiusKm > 0; an empty list without a
// radius is ErrNoCompetitorsResolved, never an empty-comparison success. An
// analysis with no gaps is still a successful result.
func (e *Engine) PerformGapAnalysis(ctx context.Context, targetID string, competitorIDs []string, radiusKm float64, includeBrands bool) (*GapAnalysis, error) {
	target, err := e.store.GetLocation(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, targetID)
	}
	if len(competitorIDs) == 0 && radiusKm <= 0 {
		return nil, fmt.Errorf("%w: target %s", ErrNoCompetitorsResolved, target.Name)
	}

	compIDs, compNames, err := e.resolveCompetitors(ctx, target, competitorIDs, radiusKm)
	if err != nil {
		return nil, err
	}
	if len(compIDs) == 0 {
		return nil, fmt.Errorf("%w: target %s", ErrNoCompetitorsResolved, target.Name)
	}

	targetTenants, err := e.store.ListTenantsByLocations(ctx, []string{targetID})
	if err != nil {
		return nil, err
	}

	compTenants, err := e.store.ListTenantsByLocations(ctx, compIDs)
	if err != nil {
		return nil, err
	}

	tenantsByLoc := make(map[string][]models.Tenant, len(compIDs))
	for _, id := range compIDs {
		tenantsByLoc[id] = nil
	}
	for i := range compTenants {
		t := compTenants[i]
		tenantsByLoc[t.LocationID] = append(tenantsByLoc[t.LocationID], t)
	}

	avg := 0.0
	if len(compIDs) > 0 {
		avg = float64(len(compTenants)) / float64(len(compIDs))
	}

	analysis := &GapAnalysis{
		Target: TargetSummary{
			LocationID:   target.ID,
			LocationName: target.Name,
			TotalTenants: len(targetTenants),
			Categories:   Distribution(targetTenants),
		},
		Competitors: CompetitorSummary{
			TotalLocations:            len(compIDs),
			TotalTenants:              len(compTenants),
			AverageTenantsPerLocation: math.Round(avg*10) / 10,
			Categories:                Distribution(compTenants),
		},
	}

	analysis.Gaps = analyzeGaps(analysis.Target, analysis.Competitors, tenantsByLoc)

	if includeBrands {
		analysis.MissingBrands = missingBrands(
			targetTenants, tenantsByLoc, compNames, e.opts.MinBrandPresence,
		)
	}

	analysis.Insights = gapInsights(analysis)

	e.log.Info("gap analysis complete",
		zap.String("target_id", targetID),
		zap.Int("competitors", len(compIDs)),
		zap.Int("gaps", len(analysis.Gaps)),
	)
	return analysis, nil
}

// resolveCompetitors turns an explicit ID list (validated against the
// snapshot, unknown IDs dropped) or a radius selection into the competitor
// set for a gap analysis.
func (e *Engine) resolveCompetitors(ctx context.Context, target *models.Location, competitorIDs []string, radiusKm float64) ([]string, map[string]string, error) {
	if len(competitorIDs) > 0 {
		refs, err := e.store.ListLocationsByIDs(ctx, competitorIDs)
		if err != nil {
			return nil, nil, err
		}
		ids := make([]string, 0, len(refs))
		names := make(map[string]string, len(refs))
		for _, r := range refs {
			if r.ID == target.ID {
				continue
			}
			ids = append(ids, r.ID)
			names[r.ID] = r.Name
		}
		return ids, names, nil
	}

	competitors, err := e.NearbyCompetitors(ctx, target.ID, radiusKm, nil)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(competitors))
	names := make(map[string]string, len(competitors))
	for _, c := range competitors {
		ids = append(ids, c.ID)
		names[c.ID] = c.Name
	}
	return ids, names, nil
}

func sortDistances(ds []geo.Distance) {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].DistanceKm < ds[j].DistanceKm
	})
}

func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
