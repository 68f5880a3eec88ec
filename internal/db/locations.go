package db

import (
	"context"
	"fmt"
	"strings"

	"retail-intel/internal/models"
)

// LocationFilter contains filter parameters for location listings
type LocationFilter struct {
	Types     []string
	City      string
	MinStores *int64
	// Pagination
	Limit  int
	Offset int
}

// ListLocations returns locations matching the given filters
func (db *DB) ListLocations(ctx context.Context, f LocationFilter) ([]models.LocationListItem, error) {
	query := `
		SELECT
			id,
			name,
			type,
			city,
			county,
			latitude,
			longitude,
			COALESCE(number_of_stores, 0) as number_of_stores
		FROM locations
		WHERE 1=1
	`

	args := make([]interface{}, 0)

	if len(f.Types) > 0 {
		placeholders := make([]string, len(f.Types))
		for i, t := range f.Types {
			placeholders[i] = "?"
			args = append(args, t)
		}
		query += fmt.Sprintf(" AND type IN (%s)", strings.Join(placeholders, ","))
	}

	if f.City != "" {
		query += " AND LOWER(city) LIKE ?"
		args = append(args, "%"+strings.ToLower(f.City)+"%")
	}

	if f.MinStores != nil {
		query += " AND number_of_stores >= ?"
		args = append(args, *f.MinStores)
	}

	query += " ORDER BY name"

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", f.Offset)
	}

	var locations []models.LocationListItem
	err := db.SelectContext(ctx, &locations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	return locations, nil
}

// GetLocation returns a single location by ID
func (db *DB) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	query := `
		SELECT
			id, name, type, address,
			COALESCE(city, '') as city,
			COALESCE(county, '') as county,
			postcode, latitude, longitude, phone, website,
			number_of_stores, parking_spaces, total_floor_area,
			footfall, google_rating, vacancy,
			largest_category, largest_category_percent,
			created_at, updated_at
		FROM locations WHERE id = ?
	`

	var loc models.Location
	if err := db.GetContext(ctx, &loc, query, id); err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", id, err)
	}
	return &loc, nil
}

// ListLocationRefs returns the identity fields fuzzy resolution matches
// against, in stable name order.
func (db *DB) ListLocationRefs(ctx context.Context) ([]models.LocationRef, error) {
	query := `
		SELECT id, name,
			COALESCE(city, '') as city,
			COALESCE(county, '') as county,
			COALESCE(postcode, '') as postcode
		FROM locations
		ORDER BY name
	`

	var refs []models.LocationRef
	if err := db.SelectContext(ctx, &refs, query); err != nil {
		return nil, fmt.Errorf("failed to list location refs: %w", err)
	}
	return refs, nil
}

// GeoCandidate is a location row carrying only what radius filtering needs.
type GeoCandidate struct {
	ID             string  `db:"id"`
	Name           string  `db:"name"`
	City           string  `db:"city"`
	County         string  `db:"county"`
	Latitude       float64 `db:"latitude"`
	Longitude      float64 `db:"longitude"`
	NumberOfStores int64   `db:"number_of_stores"`
}

// ListGeoCandidates returns all locations of the competitive types with their
// coordinates. Ungeocoded rows are included; the selector excludes them.
func (db *DB) ListGeoCandidates(ctx context.Context, minStores *int64) ([]GeoCandidate, error) {
	query := `
		SELECT id, name,
			COALESCE(city, '') as city,
			COALESCE(county, '') as county,
			latitude, longitude,
			COALESCE(number_of_stores, 0) as number_of_stores
		FROM locations
		WHERE type IN (?, ?)
	`
	args := []interface{}{models.TypeShoppingCentre, models.TypeRetailPark}

	if minStores != nil {
		query += " AND number_of_stores >= ?"
		args = append(args, *minStores)
	}

	var candidates []GeoCandidate
	if err := db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list geo candidates: %w", err)
	}
	return candidates, nil
}

// ListLocationsByIDs returns identity rows for the given location IDs, in
// the stable name order. Unknown IDs are silently skipped.
func (db *DB) ListLocationsByIDs(ctx context.Context, ids []string) ([]models.LocationRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, name,
			COALESCE(city, '') as city,
			COALESCE(county, '') as county,
			COALESCE(postcode, '') as postcode
		FROM locations
		WHERE id IN (%s)
		ORDER BY name
	`, strings.Join(placeholders, ","))

	var refs []models.LocationRef
	if err := db.SelectContext(ctx, &refs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list locations by ids: %w", err)
	}
	return refs, nil
}

// ListTenantsByLocations returns all tenants for the given location IDs, with
// their normalized category reference (and its parent) joined in.
func (db *DB) ListTenantsByLocations(ctx context.Context, locationIDs []string) ([]models.Tenant, error) {
	if len(locationIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(locationIDs))
	args := make([]interface{}, len(locationIDs))
	for i, id := range locationIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT
			t.id, t.location_id, t.name,
			COALESCE(t.category, '') as category,
			t.category_id, t.is_anchor_tenant,
			c.name as category_name,
			c.tier as category_tier,
			p.name as parent_name
		FROM tenants t
		LEFT JOIN categories c ON t.category_id = c.id
		LEFT JOIN categories p ON c.parent_category_id = p.id
		WHERE t.location_id IN (%s)
		ORDER BY t.location_id, t.name
	`, strings.Join(placeholders, ","))

	var tenants []models.Tenant
	if err := db.SelectContext(ctx, &tenants, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

// LargestCategoryRow carries the pre-computed dominant-category fields.
type LargestCategoryRow struct {
	ID                     string  `db:"id"`
	LargestCategory        string  `db:"largest_category"`
	LargestCategoryPercent float64 `db:"largest_category_percent"`
}

// ListLargestCategories returns the pre-computed largest-category fields for
// the given locations, skipping rows where the field is absent.
func (db *DB) ListLargestCategories(ctx context.Context, locationIDs []string) ([]LargestCategoryRow, error) {
	if len(locationIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(locationIDs))
	args := make([]interface{}, len(locationIDs))
	for i, id := range locationIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, largest_category,
			COALESCE(largest_category_percent, 0) as largest_category_percent
		FROM locations
		WHERE id IN (%s) AND largest_category IS NOT NULL
	`, strings.Join(placeholders, ","))

	var rows []LargestCategoryRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list largest categories: %w", err)
	}
	return rows, nil
}

// AllLocations returns every location row; used by the data-coverage audit.
func (db *DB) AllLocations(ctx context.Context) ([]models.Location, error) {
	query := `
		SELECT
			id, name, type, address,
			COALESCE(city, '') as city,
			COALESCE(county, '') as county,
			postcode, latitude, longitude, phone, website,
			number_of_stores, parking_spaces, total_floor_area,
			footfall, google_rating, vacancy,
			largest_category, largest_category_percent,
			created_at, updated_at
		FROM locations
		ORDER BY name
	`

	var locations []models.Location
	if err := db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("failed to list all locations: %w", err)
	}
	return locations, nil
}

// GetLocationCount returns total number of locations
func (db *DB) GetLocationCount(ctx context.Context) (int, error) {
	var count int
	err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM locations")
	return count, err
}

// UpsertLocation inserts or updates a location by id
func (db *DB) UpsertLocation(ctx context.Context, loc *models.Location) error {
	query := `
		INSERT INTO locations (
			id, name, type, address, city, county, postcode,
			latitude, longitude, phone, website,
			number_of_stores, parking_spaces, total_floor_area,
			footfall, google_rating, vacancy,
			largest_category, largest_category_percent,
			created_at, updated_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?,
			?, ?,
			CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			address = COALESCE(excluded.address, locations.address),
			city = excluded.city,
			county = excluded.county,
			postcode = COALESCE(excluded.postcode, locations.postcode),
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			phone = COALESCE(excluded.phone, locations.phone),
			website = COALESCE(excluded.website, locations.website),
			number_of_stores = COALESCE(excluded.number_of_stores, locations.number_of_stores),
			parking_spaces = COALESCE(excluded.parking_spaces, locations.parking_spaces),
			total_floor_area = COALESCE(excluded.total_floor_area, locations.total_floor_area),
			footfall = COALESCE(excluded.footfall, locations.footfall),
			google_rating = COALESCE(excluded.google_rating, locations.google_rating),
			vacancy = COALESCE(excluded.vacancy, locations.vacancy),
			largest_category = COALESCE(excluded.largest_category, locations.largest_category),
			largest_category_percent = COALESCE(excluded.largest_category_percent, locations.largest_category_percent),
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := db.ExecContext(ctx, query,
		loc.ID, loc.Name, loc.Type,
		loc.Address, loc.City, loc.County, loc.Postcode,
		loc.Latitude, loc.Longitude, loc.Phone, loc.Website,
		loc.NumberOfStores, loc.ParkingSpaces, loc.TotalFloorArea,
		loc.Footfall, loc.GoogleRating, loc.Vacancy,
		loc.LargestCategory, loc.LargestCategoryPercent,
	)
	return err
}

// UpsertTenant inserts or updates a tenant by (location_id, name)
func (db *DB) UpsertTenant(ctx context.Context, t *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, location_id, name, category, category_id, is_anchor_tenant)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_id, name) DO UPDATE SET
			category = excluded.category,
			category_id = COALESCE(excluded.category_id, tenants.category_id),
			is_anchor_tenant = excluded.is_anchor_tenant
	`
	_, err := db.ExecContext(ctx, query,
		t.ID, t.LocationID, t.Name, t.Category, t.CategoryID, t.IsAnchorTenant,
	)
	return err
}

// UpsertCategory inserts or updates a taxonomy node by name
func (db *DB) UpsertCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (id, name, tier, parent_category_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			tier = excluded.tier,
			parent_category_id = COALESCE(excluded.parent_category_id, categories.parent_category_id)
	`
	_, err := db.ExecContext(ctx, query, c.ID, c.Name, c.Tier, c.ParentCategoryID)
	return err
}

// GetCategoryIDByName resolves a taxonomy node id from its canonical name.
func (db *DB) GetCategoryIDByName(ctx context.Context, name string) (string, error) {
	var id string
	err := db.GetContext(ctx, &id, "SELECT id FROM categories WHERE name = ?", name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve category %q: %w", name, err)
	}
	return id, nil
}
