// Package vehicles implements the command that lists cached vehicle
// records in a formatted table.
package vehicles

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/regcheck/cmd/common"
	"github.com/jonesrussell/regcheck/internal/database"
	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/output"
)

// defaultLimit bounds the listing when --limit is not given.
const defaultLimit = 100

// Command returns the vehicles command for use in the root command.
func Command() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List cached vehicle records",
		Long:  `List vehicle records currently held in the cache, most recently scraped first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			db, err := common.ConnectDatabase(deps)
			if err != nil {
				return fmt.Errorf("failed to connect database: %w", err)
			}
			defer db.Close()

			repo := database.NewVehicleRepository(db)
			return listVehicles(cmd.Context(), repo, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "maximum number of records to list")

	return cmd
}

// listVehicles fetches cached records and renders them.
func listVehicles(ctx context.Context, repo database.VehicleRepositoryInterface, limit int) error {
	records, err := repo.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list vehicles: %w", err)
	}

	if len(records) == 0 {
		output.Println("No cached vehicles.")
		return nil
	}

	renderVehicles(records)
	return nil
}

// renderVehicles formats and displays vehicle records in a table format.
func renderVehicles(records []*domain.VehicleRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Registration", "Make", "Model", "Color", "Fuel", "Year", "Source", "Scraped At"})

	for _, record := range records {
		t.AppendRow(table.Row{
			record.Registration,
			record.Make,
			record.Model,
			record.Color,
			record.FuelType,
			yearColumn(record.Year),
			record.Source,
			record.ScrapedAt.Format(time.RFC3339),
		})
	}

	t.Render()
}

// yearColumn renders the optional year.
func yearColumn(year *int) string {
	if year == nil {
		return ""
	}
	return fmt.Sprintf("%d", *year)
}
