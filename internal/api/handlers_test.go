package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"retail-intel/internal/db"
	"retail-intel/internal/engine"
	"retail-intel/internal/models"
	"retail-intel/internal/resolver"
)

const testSecret = "test-secret"

// stubStore backs the engine in handler tests; the db-facing endpoints go
// through sqlmock instead.
type stubStore struct {
	locations  map[string]*models.Location
	candidates []db.GeoCandidate
	tenants    map[string][]models.Tenant
	largest    []db.LargestCategoryRow
}

func (s *stubStore) GetLocation(_ context.Context, id string) (*models.Location, error) {
	loc, ok := s.locations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return loc, nil
}

func (s *stubStore) ListLocationsByIDs(_ context.Context, ids []string) ([]models.LocationRef, error) {
	refs := make([]models.LocationRef, 0, len(ids))
	for _, id := range ids {
		if loc, ok := s.locations[id]; ok {
			refs = append(refs, models.LocationRef{ID: loc.ID, Name: loc.Name, City: loc.City})
		}
	}
	return refs, nil
}

func (s *stubStore) ListGeoCandidates(_ context.Context, minStores *int64) ([]db.GeoCandidate, error) {
	if minStores == nil {
		return s.candidates, nil
	}
	out := make([]db.GeoCandidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		if c.NumberOfStores >= *minStores {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubStore) ListTenantsByLocations(_ context.Context, ids []string) ([]models.Tenant, error) {
	var out []models.Tenant
	for _, id := range ids {
		out = append(out, s.tenants[id]...)
	}
	return out, nil
}

func (s *stubStore) ListLargestCategories(_ context.Context, _ []string) ([]db.LargestCategoryRow, error) {
	return s.largest, nil
}

func testLocation(id, name string, lat, lng float64, stores int64) *models.Location {
	return &models.Location{
		ID: id, Name: name, Type: models.TypeShoppingCentre,
		City: "Peterborough", County: "Cambridgeshire",
		Latitude: lat, Longitude: lng,
		NumberOfStores: sql.NullInt64{Int64: stores, Valid: stores > 0},
	}
}

func testStub() *stubStore {
	queensgate := testLocation("queensgate", "Queensgate Shopping Centre", 52.5736, -0.2478, 90)
	rivergate := testLocation("rivergate", "Rivergate Shopping Centre", 52.5702, -0.2442, 25)
	serpentine := testLocation("serpentine", "Serpentine Green Shopping Centre", 52.5369, -0.2120, 40)
	westgate := testLocation("westgate", "Westgate Arcade", 0, 0, 0)

	candidates := make([]db.GeoCandidate, 0, 3)
	for _, loc := range []*models.Location{queensgate, rivergate, serpentine} {
		candidates = append(candidates, db.GeoCandidate{
			ID: loc.ID, Name: loc.Name, City: loc.City, County: loc.County,
			Latitude: loc.Latitude, Longitude: loc.Longitude,
			NumberOfStores: loc.NumberOfStores.Int64,
		})
	}

	return &stubStore{
		locations: map[string]*models.Location{
			"queensgate": queensgate,
			"rivergate":  rivergate,
			"serpentine": serpentine,
			"westgate":   westgate,
		},
		candidates: candidates,
		tenants: map[string][]models.Tenant{
			"queensgate": {
				{ID: "t1", LocationID: "queensgate", Name: "Boots", Category: "Health & Beauty"},
				{ID: "t2", LocationID: "queensgate", Name: "Primark", Category: "Clothing & Footwear"},
			},
			"rivergate": {
				{ID: "t3", LocationID: "rivergate", Name: "Superdrug", Category: "Health & Beauty"},
			},
			"serpentine": {
				{ID: "t4", LocationID: "serpentine", Name: "Costa Coffee", Category: "Cafes & Restaurants"},
			},
		},
	}
}

func testRefs() []models.LocationRef {
	return []models.LocationRef{
		{ID: "queensgate", Name: "Queensgate Shopping Centre", City: "Peterborough", County: "Cambridgeshire", Postcode: "PE1 1NT"},
		{ID: "rivergate", Name: "Rivergate Shopping Centre", City: "Peterborough", County: "Cambridgeshire", Postcode: "PE1 1EL"},
		{ID: "westgate", Name: "Westgate Arcade", City: "Peterborough", County: "Cambridgeshire"},
	}
}

// newTestServer wires a router over a stub-backed engine and a sqlmock-backed
// db handle.
func newTestServer(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	router := NewRouter(RouterConfig{
		DB:          db.NewFromDB(sqlx.NewDb(raw, "sqlite")),
		Engine:      engine.New(testStub(), engine.Options{}, zaptest.NewLogger(t)),
		Resolver:    resolver.New(testRefs()),
		Logger:      zaptest.NewLogger(t),
		VoiceSecret: testSecret,
		SearchLimit: 5,
	})
	return router, mock
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetLocationOK(t *testing.T) {
	router, mock := newTestServer(t)
	now := time.Now()

	mock.ExpectQuery(`FROM locations WHERE id = \?`).
		WithArgs("queensgate").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "type", "address", "city", "county", "postcode",
			"latitude", "longitude", "phone", "website",
			"number_of_stores", "parking_spaces", "total_floor_area",
			"footfall", "google_rating", "vacancy",
			"largest_category", "largest_category_percent",
			"created_at", "updated_at",
		}).AddRow(
			"queensgate", "Queensgate Shopping Centre", models.TypeShoppingCentre, nil, "Peterborough", "Cambridgeshire", "PE1 1NT",
			52.5736, -0.2478, nil, nil,
			90, nil, nil,
			nil, nil, nil,
			nil, nil,
			now, now,
		))

	rec := doRequest(t, router, http.MethodGet, "/api/locations/queensgate", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, "Queensgate Shopping Centre", body["name"])
}

func TestGetLocationNotFound(t *testing.T) {
	router, mock := newTestServer(t)

	mock.ExpectQuery(`FROM locations WHERE id = \?`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	rec := doRequest(t, router, http.MethodGet, "/api/locations/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchLocationsRequiresQuery(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/locations/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchLocations(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/locations/search?q=queensgate", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.GreaterOrEqual(t, body["count"].(float64), float64(1))
	matches := body["matches"].([]interface{})
	first := matches[0].(map[string]interface{})
	assert.Equal(t, "queensgate", first["location_id"])
}

func TestGetNearbyCompetitors(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/locations/queensgate/nearby-competitors", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, float64(2), body["count"])
	competitors := body["competitors"].([]interface{})
	nearest := competitors[0].(map[string]interface{})
	assert.Equal(t, "rivergate", nearest["id"])
}

func TestGetNearbyCompetitorsMinStores(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/locations/queensgate/nearby-competitors?min_stores=30", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, float64(1), body["count"])
	competitors := body["competitors"].([]interface{})
	assert.Equal(t, "serpentine", competitors[0].(map[string]interface{})["id"])
}

func TestGetNearbyCompetitorsUnknownLocation(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/locations/nope/nearby-competitors", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetNearbyCompetitorsUngeocoded(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/locations/westgate/nearby-competitors", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetCategoryDistribution(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/locations/queensgate/category-distribution", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	distribution := body["distribution"].([]interface{})
	require.Len(t, distribution, 2)
}

func TestGetCategoryDistributionWithRadius(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/locations/queensgate/category-distribution?radius_km=10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	// Queensgate plus both geocoded competitors: 4 tenants, 3 categories.
	distribution := body["distribution"].([]interface{})
	require.Len(t, distribution, 3)
	top := distribution[0].(map[string]interface{})
	assert.Equal(t, "Health & Beauty", top["category_name"])
	assert.Equal(t, float64(50), top["percentage"])
}

func TestGapAnalysisRequiresTarget(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/gap-analysis", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGapAnalysisInvalidBody(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/gap-analysis", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGapAnalysisByRadius(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/gap-analysis", `{"target_id":"queensgate","radius_km":10}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	target := body["target"].(map[string]interface{})
	assert.Equal(t, "Queensgate Shopping Centre", target["location_name"])
	competitors := body["competitors"].(map[string]interface{})
	assert.Equal(t, float64(2), competitors["total_locations"])
}

func TestGapAnalysisNoCompetitors(t *testing.T) {
	router, _ := newTestServer(t)

	// Serpentine is alone within 1 km of itself.
	rec := doRequest(t, router, http.MethodPost, "/api/gap-analysis", `{"target_id":"serpentine","radius_km":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGapAnalysisNoCompetitorsNoRadius(t *testing.T) {
	router, _ := newTestServer(t)

	// Neither competitor ids nor a radius: nothing to compare against.
	rec := doRequest(t, router, http.MethodPost, "/api/gap-analysis", `{"target_id":"queensgate"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealth(t *testing.T) {
	router, mock := newTestServer(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM locations`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	rec := doRequest(t, router, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(4), body["locations"])
}

func TestHealthUnhealthy(t *testing.T) {
	router, mock := newTestServer(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM locations`).
		WillReturnError(sql.ErrConnDone)

	rec := doRequest(t, router, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decodeBody(t, rec)["status"])
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestServer(t)

	rec := doRequest(t, router, http.MethodOptions, "/api/locations", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
