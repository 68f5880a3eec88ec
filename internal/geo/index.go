package geo

import (
	"math"

	"github.com/dhconnelly/rtreego"
)

const (
	rectTolerance = 0.0001
	minChildren   = 25
	maxChildren   = 50
	dimensions    = 2
)

// spatialItem wraps a Candidate for R-tree indexing
type spatialItem struct {
	Candidate
	rect *rtreego.Rect
}

func (si *spatialItem) Bounds() *rtreego.Rect {
	return si.rect
}

// Index is an R-tree backed candidate-narrowing layer. It answers the same
// radius-membership question as FindWithinRadius: a bounding-box search
// narrows the candidate set, then the haversine filter decides membership,
// so results are identical to the full scan.
type Index struct {
	tree *rtreego.Rtree
}

// NewIndex builds an index over the candidate set. Candidates without
// coordinates are never indexed.
func NewIndex(candidates []Candidate) *Index {
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for _, c := range candidates {
		if !c.HasCoordinates() {
			continue
		}
		p := rtreego.Point{c.Latitude, c.Longitude}
		rect := p.ToRect(rectTolerance)
		tree.Insert(&spatialItem{Candidate: c, rect: rect})
	}
	return &Index{tree: tree}
}

// FindWithinRadius returns the IDs of indexed candidates within radiusKm of
// the centre.
func (idx *Index) FindWithinRadius(centreLat, centreLng, radiusKm float64) []string {
	ids := make([]string, 0)
	for _, c := range idx.narrow(centreLat, centreLng, radiusKm) {
		if Haversine(centreLat, centreLng, c.Latitude, c.Longitude) <= radiusKm {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// narrow returns candidates whose bounding box intersects the radius box.
// Longitude degrees shrink with latitude; the box is widened accordingly.
func (idx *Index) narrow(centreLat, centreLng, radiusKm float64) []Candidate {
	latDeg := (radiusKm / EarthRadiusKm) * (180 / math.Pi)
	lngDeg := latDeg
	if cosLat := math.Cos(centreLat * math.Pi / 180); cosLat > 0.01 {
		lngDeg = latDeg / cosLat
	}

	bounds, err := rtreego.NewRect(
		rtreego.Point{centreLat - latDeg, centreLng - lngDeg},
		[]float64{2 * latDeg, 2 * lngDeg},
	)
	if err != nil {
		return nil
	}

	results := idx.tree.SearchIntersect(bounds)
	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		if item, ok := r.(*spatialItem); ok {
			candidates = append(candidates, item.Candidate)
		}
	}
	return candidates
}

// Size returns the number of indexed candidates.
func (idx *Index) Size() int {
	return idx.tree.Size()
}
