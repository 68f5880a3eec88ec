package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"retail-intel/internal/db"
	"retail-intel/internal/enrichment"
)

func coverageCmd() *cobra.Command {
	var missingField string
	var limit int

	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Report field fill rates across the location snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			locations, err := database.AllLocations(cmd.Context())
			if err != nil {
				return err
			}

			if missingField != "" {
				missing := enrichment.MissingField(locations, missingField, limit)
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "NAME\tTYPE\tCITY\tSTORES\n")
				for _, m := range missing {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", m.Name, m.Type, m.City, m.NumberOfStores)
				}
				return w.Flush()
			}

			report := enrichment.Audit(locations)

			fmt.Printf("Locations: %d total, %d shopping centres/retail parks, %d with websites\n\n",
				report.Overview.TotalLocations,
				report.Overview.ShoppingCentresRetailParks,
				report.Overview.LocationsWithWebsites,
			)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "FIELD\tFILLED\tMISSING\tPRIORITY\tCONTEXT\n")
			for _, g := range report.FieldGaps {
				fmt.Fprintf(w, "%s\t%d%%\t%d/%d\t%s\t%s\n",
					g.DisplayName, g.Percentage, g.TotalMissing, g.RelevantTotal, g.Priority, g.ContextNote)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\nCritical gaps:\n")
			fmt.Printf("  major locations without websites: %d\n", report.CriticalGaps.MajorLocationsWithoutWebsites)
			fmt.Printf("  ungeocoded locations:             %d\n", report.CriticalGaps.UngeocodedLocations)
			fmt.Printf("  centres without parking data:     %d\n", report.CriticalGaps.ShoppingCentresWithoutParking)
			fmt.Printf("  locations without store counts:   %d\n", report.CriticalGaps.LocationsWithoutStoreCounts)
			return nil
		},
	}

	cmd.Flags().StringVar(&missingField, "missing", "", "List locations missing the given field")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum rows for --missing output")
	return cmd
}
