package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"retail-intel/internal/db"
	"retail-intel/internal/models"
)

// Two-tier slice of the LDC-style taxonomy: tier-2 categories and the
// tier-3 subcategories the sample tenants reference.
var tier2Categories = []string{
	"Cafes & Restaurants",
	"Clothing & Footwear",
	"Health & Beauty",
	"Food & Grocery",
	"Leisure & Entertainment",
	"Electrical & Technology",
	"Jewellery & Watches",
	"General Retail",
	"Home & Garden",
	"Department Stores",
	"Gifts & Stationery",
	"Kids & Toys",
	"Financial Services",
	"Services",
	"Charity & Second Hand",
	"Vacant",
}

var tier3Categories = map[string]string{
	"Coffee Shop":      "Cafes & Restaurants",
	"Fast Food":        "Cafes & Restaurants",
	"Restaurant":       "Cafes & Restaurants",
	"Bakery":           "Cafes & Restaurants",
	"Womenswear":       "Clothing & Footwear",
	"Menswear":         "Clothing & Footwear",
	"Fast Fashion":     "Clothing & Footwear",
	"Sportswear":       "Clothing & Footwear",
	"Footwear":         "Clothing & Footwear",
	"Pharmacy":         "Health & Beauty",
	"Cosmetics":        "Health & Beauty",
	"Optician":         "Health & Beauty",
	"Supermarket":      "Food & Grocery",
	"Jewellery":        "Jewellery & Watches",
	"Discount Store":   "General Retail",
	"Department Store": "Department Stores",
	"Card Shop":        "Gifts & Stationery",
	"Toy Shop":         "Kids & Toys",
	"Bank":             "Financial Services",
}

// categoryAliases maps the variant strings found in raw tenant data onto
// canonical taxonomy names.
var categoryAliases = map[string]string{
	"Fashion":                  "Clothing & Footwear",
	"Fashion & Clothing":       "Clothing & Footwear",
	"Fashion & Apparel":        "Clothing & Footwear",
	"Electronics":              "Electrical & Technology",
	"Electronics & Technology": "Electrical & Technology",
	"Entertainment":            "Leisure & Entertainment",
	"Home & Lifestyle":         "Home & Garden",
	"Homeware & Lifestyle":     "Home & Garden",
	"Jewellery & Accessories":  "Jewellery & Watches",
	"Food & Drink":             "Cafes & Restaurants",
	"Food & Beverage":          "Cafes & Restaurants",
	"Leisure":                  "Leisure & Entertainment",
}

type seedLocation struct {
	name     string
	locType  string
	address  string
	city     string
	county   string
	postcode string
	lat, lng float64
	stores   int64
	parking  int64
	area     float64
	footfall int64
	rating   float64
	vacancy  float64
	tenants  []seedTenant
}

type seedTenant struct {
	name     string
	category string
	anchor   bool
}

// Sample dataset around Peterborough, plus one Cambridge centre outside the
// default radius and one ungeocoded arcade.
var seedLocations = []seedLocation{
	{
		name: "Queensgate Shopping Centre", locType: models.TypeShoppingCentre,
		address: "Westgate", city: "Peterborough", county: "Cambridgeshire",
		postcode: "PE1 1NT", lat: 52.5736, lng: -0.2478,
		stores: 90, parking: 2300, area: 820000, footfall: 14000000, rating: 4.2, vacancy: 0.08,
		tenants: []seedTenant{
			{"John Lewis", "Department Store", true},
			{"Primark", "Fast Fashion", true},
			{"Next", "Fashion", false},
			{"H&M", "Fast Fashion", false},
			{"JD Sports", "Sportswear", false},
			{"Schuh", "Footwear", false},
			{"Boots", "Pharmacy", false},
			{"The Body Shop", "Cosmetics", false},
			{"Specsavers", "Optician", false},
			{"Costa Coffee", "Coffee Shop", false},
			{"Greggs", "Bakery", false},
			{"Pandora", "Jewellery", false},
			{"Ernest Jones", "Jewellery & Accessories", false},
			{"Currys", "Electronics", false},
			{"EE", "Electronics", false},
			{"Card Factory", "Card Shop", false},
			{"The Entertainer", "Toy Shop", false},
			{"Waterstones", "Gifts & Stationery", false},
			{"Nationwide", "Bank", false},
			{"Timpson", "Services", false},
		},
	},
	{
		name: "Rivergate Shopping Centre", locType: models.TypeShoppingCentre,
		address: "Rivergate", city: "Peterborough", county: "Cambridgeshire",
		postcode: "PE1 1EL", lat: 52.5696, lng: -0.2442,
		stores: 25, parking: 600, area: 150000, footfall: 4500000, rating: 3.9, vacancy: 0.14,
		tenants: []seedTenant{
			{"Asda", "Supermarket", true},
			{"Wilko", "Discount Store", false},
			{"Savers", "Health & Beauty", false},
			{"Costa Coffee", "Coffee Shop", false},
			{"Subway", "Fast Food", false},
			{"Peacocks", "Fashion", false},
			{"Shoe Zone", "Footwear", false},
			{"British Heart Foundation", "Charity & Second Hand", false},
		},
	},
	{
		name: "Serpentine Green Shopping Centre", locType: models.TypeShoppingCentre,
		address: "The Serpentine, Hampton", city: "Peterborough", county: "Cambridgeshire",
		postcode: "PE7 8BE", lat: 52.5399, lng: -0.2560,
		stores: 40, parking: 1700, area: 300000, footfall: 6000000, rating: 4.1, vacancy: 0.05,
		tenants: []seedTenant{
			{"Tesco Extra", "Supermarket", true},
			{"Boots", "Pharmacy", false},
			{"Next", "Fashion", false},
			{"New Look", "Fast Fashion", false},
			{"Sports Direct", "Sportswear", false},
			{"Vision Express", "Optician", false},
			{"Costa Coffee", "Coffee Shop", false},
			{"McDonald's", "Fast Food", false},
			{"Nando's", "Restaurant", false},
			{"Pizza Express", "Restaurant", false},
			{"Card Factory", "Card Shop", false},
			{"Halifax", "Bank", false},
			{"H Samuel", "Jewellery", false},
		},
	},
	{
		name: "Brotherhood Shopping Park", locType: models.TypeRetailPark,
		address: "Bretton Way", city: "Peterborough", county: "Cambridgeshire",
		postcode: "PE4 6NA", lat: 52.6043, lng: -0.2620,
		stores: 18, parking: 900, area: 200000, footfall: 3000000, rating: 4.0, vacancy: 0.06,
		tenants: []seedTenant{
			{"B&M", "Discount Store", true},
			{"Iceland", "Supermarket", false},
			{"Sports Direct", "Sportswear", false},
			{"TK Maxx", "Fashion", false},
			{"Home Bargains", "Discount Store", false},
			{"Dunelm", "Home & Lifestyle", false},
			{"Pets at Home", "General Retail", false},
			{"Costa Coffee", "Coffee Shop", false},
			{"KFC", "Fast Food", false},
		},
	},
	{
		name: "The Bretton Centre", locType: models.TypeShoppingCentre,
		address: "Bretton", city: "Peterborough", county: "Cambridgeshire",
		postcode: "PE3 8DN", lat: 52.5889, lng: -0.2982,
		stores: 15, parking: 400, area: 90000, footfall: 2000000, rating: 3.7, vacancy: 0.2,
		tenants: []seedTenant{
			{"Sainsbury's", "Supermarket", true},
			{"Boots", "Pharmacy", false},
			{"Greggs", "Bakery", false},
			{"Specsavers", "Optician", false},
			{"Betfred", "Leisure", false},
			{"Barnardo's", "Charity & Second Hand", false},
		},
	},
	{
		name: "Grand Arcade", locType: models.TypeShoppingCentre,
		address: "St Andrew's Street", city: "Cambridge", county: "Cambridgeshire",
		postcode: "CB2 3BJ", lat: 52.2035, lng: 0.1200,
		stores: 60, parking: 950, area: 450000, footfall: 10000000, rating: 4.3, vacancy: 0.04,
		tenants: []seedTenant{
			{"John Lewis", "Department Store", true},
			{"Apple", "Electronics", false},
			{"Hollister", "Fashion", false},
			{"Kiko Milano", "Cosmetics", false},
			{"Joe & The Juice", "Coffee Shop", false},
		},
	},
	{
		// Ungeocoded on purpose; radius queries must skip it.
		name: "Westgate Arcade", locType: models.TypeHighStreet,
		address: "Westgate", city: "Peterborough", county: "Cambridgeshire",
		postcode: "PE1 1PY", lat: 0, lng: 0,
		stores: 8, rating: 4.4, vacancy: 0.12,
		tenants: []seedTenant{
			{"The Beehive", "Food & Drink", false},
			{"Vinyl Revival", "Entertainment", false},
		},
	},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with the category taxonomy and sample locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			ctx := cmd.Context()

			if err := seedTaxonomy(ctx, database); err != nil {
				return err
			}
			if err := seedData(ctx, database); err != nil {
				return err
			}

			count, _ := database.GetLocationCount(ctx)
			log.Printf("Database seeded successfully! Total locations: %d", count)
			return nil
		},
	}
}

func seedTaxonomy(ctx context.Context, database *db.DB) error {
	for _, name := range tier2Categories {
		c := &models.Category{ID: uuid.NewString(), Name: name, Tier: 2}
		if err := database.UpsertCategory(ctx, c); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", name, err)
		}
	}

	for name, parent := range tier3Categories {
		parentID, err := database.GetCategoryIDByName(ctx, parent)
		if err != nil {
			return err
		}
		c := &models.Category{
			ID:               uuid.NewString(),
			Name:             name,
			Tier:             3,
			ParentCategoryID: sql.NullString{String: parentID, Valid: true},
		}
		if err := database.UpsertCategory(ctx, c); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", name, err)
		}
	}
	return nil
}

func seedData(ctx context.Context, database *db.DB) error {
	for _, sl := range seedLocations {
		loc := &models.Location{
			ID:        uuid.NewString(),
			Name:      sl.name,
			Type:      sl.locType,
			Address:   sql.NullString{String: sl.address, Valid: sl.address != ""},
			City:      sl.city,
			County:    sl.county,
			Postcode:  sql.NullString{String: sl.postcode, Valid: sl.postcode != ""},
			Latitude:  sl.lat,
			Longitude: sl.lng,
		}
		if sl.stores > 0 {
			loc.NumberOfStores = sql.NullInt64{Int64: sl.stores, Valid: true}
		}
		if sl.parking > 0 {
			loc.ParkingSpaces = sql.NullInt64{Int64: sl.parking, Valid: true}
		}
		if sl.area > 0 {
			loc.TotalFloorArea = sql.NullFloat64{Float64: sl.area, Valid: true}
		}
		if sl.footfall > 0 {
			loc.Footfall = sql.NullInt64{Int64: sl.footfall, Valid: true}
		}
		if sl.rating > 0 {
			loc.GoogleRating = sql.NullFloat64{Float64: sl.rating, Valid: true}
		}
		if sl.vacancy > 0 {
			loc.Vacancy = sql.NullFloat64{Float64: sl.vacancy, Valid: true}
		}

		if err := database.UpsertLocation(ctx, loc); err != nil {
			return fmt.Errorf("failed to seed location %q: %w", sl.name, err)
		}

		for _, st := range sl.tenants {
			tenant := &models.Tenant{
				ID:             uuid.NewString(),
				LocationID:     loc.ID,
				Name:           st.name,
				Category:       st.category,
				IsAnchorTenant: st.anchor,
			}
			if id, err := resolveCategoryID(ctx, database, st.category); err == nil {
				tenant.CategoryID = sql.NullString{String: id, Valid: true}
			}
			if err := database.UpsertTenant(ctx, tenant); err != nil {
				return fmt.Errorf("failed to seed tenant %q at %q: %w", st.name, sl.name, err)
			}
		}
	}
	return nil
}

// resolveCategoryID maps a raw category string onto the taxonomy, applying
// known aliases first.
func resolveCategoryID(ctx context.Context, database *db.DB, raw string) (string, error) {
	name := raw
	if canonical, ok := categoryAliases[raw]; ok {
		name = canonical
	}
	return database.GetCategoryIDByName(ctx, name)
}
