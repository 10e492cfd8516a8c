// Package lookup implements the one-shot lookup command. It runs the full
// lookup pipeline for a single registration and prints the result as a
// table or raw JSON.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/regcheck/cmd/common"
	"github.com/jonesrussell/regcheck/internal/constants"
	"github.com/jonesrussell/regcheck/internal/domain"
	lookuppkg "github.com/jonesrussell/regcheck/internal/lookup"
	"github.com/jonesrussell/regcheck/internal/output"
)

// cliUserAgent identifies command-line lookups in the search history.
const cliUserAgent = "regcheck-cli"

// Command returns the lookup command for use in the root command.
func Command() *cobra.Command {
	var (
		asJSON       bool
		noAutomation bool
	)

	cmd := &cobra.Command{
		Use:   "lookup [registration]",
		Short: "Look up a vehicle registration",
		Long: `This command runs a single lookup through the full pipeline:
cache, direct scraping, then browser automation. The result is printed as a
table, or as raw JSON with --json.

The --no-automation flag disables the browser automation tier, so a lookup
that cannot be served from cache or direct scraping fails instead of
launching a browser.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			if noAutomation {
				deps.Config.Automation.Enabled = false
			}

			record, err := runLookup(cmd.Context(), deps, args[0])
			if err != nil {
				output.PrintErrorf("Lookup failed: %v", err)
				return err
			}

			if asJSON {
				return renderJSON(record)
			}
			renderRecord(record, deps.Config.Cache.TTL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw record as JSON")
	cmd.Flags().BoolVar(&noAutomation, "no-automation", false, "disable the browser automation tier")

	return cmd
}

// runLookup builds the pipeline, runs one lookup, and tears the pool down.
func runLookup(ctx context.Context, deps common.CommandDeps, registration string) (*domain.VehicleRecord, error) {
	db, err := common.ConnectDatabase(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close()

	services, err := common.BuildServices(deps, db)
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}

	if startErr := services.Pool.Start(); startErr != nil {
		return nil, fmt.Errorf("failed to start automation pool: %w", startErr)
	}
	defer stopPool(deps, services)

	return services.Lookup.Lookup(ctx, lookuppkg.Request{
		Registration: registration,
		UserAgent:    cliUserAgent,
	})
}

// stopPool drains the automation pool with a bounded timeout.
func stopPool(deps common.CommandDeps, services *common.Services) {
	stopCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()
	if err := services.Pool.Stop(stopCtx); err != nil {
		deps.Logger.Error("Failed to stop automation pool", "error", err)
	}
}

// renderJSON prints the record as indented JSON on stdout.
func renderJSON(record *domain.VehicleRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	output.Println(string(data))
	return nil
}

// renderRecord formats and displays the record in a table format.
func renderRecord(record *domain.VehicleRecord, ttl time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Field", "Value"})

	t.AppendRow(table.Row{"Registration", record.Registration})
	appendIfSet(t, "Make", record.Make)
	appendIfSet(t, "Model", record.Model)
	appendIfSet(t, "Variant", record.Variant)
	appendIfSet(t, "Description", record.Description)
	appendIfSet(t, "Color", record.Color)
	appendIfSet(t, "Fuel Type", record.FuelType)
	appendIfSet(t, "Transmission", record.Transmission)
	appendIfSet(t, "Engine Size", record.EngineSize)
	appendIfSet(t, "Body Style", record.BodyStyle)
	if record.Year != nil {
		t.AppendRow(table.Row{"Year", *record.Year})
	}

	appendDate(t, "Tax Expiry", record.TaxExpiry)
	appendDays(t, "Tax Days Left", record.TaxDaysLeft)
	appendDate(t, "MOT Expiry", record.MOTExpiry)
	appendDays(t, "MOT Days Left", record.MOTDaysLeft)

	appendIfSet(t, "Registration Date", record.RegistrationDate)
	appendIfSet(t, "Last V5C Issued", record.LastV5CIssueDate)
	if record.TotalKeepers != nil {
		t.AppendRow(table.Row{"Total Keepers", *record.TotalKeepers})
	}
	if record.V5CCertificateCount != nil {
		t.AppendRow(table.Row{"V5C Certificates", *record.V5CCertificateCount})
	}

	appendGroup(t, "Mileage", record.MileageInfo)
	appendGroup(t, "Performance", record.Performance)
	appendGroup(t, "Fuel Economy", record.FuelEconomy)
	appendGroup(t, "Safety", record.SafetyRatings)
	appendGroup(t, "Additional", record.AdditionalInfo)

	t.AppendRow(table.Row{"Source", record.Source})
	t.AppendRow(table.Row{"Scraped At", record.ScrapedAt.Format(time.RFC3339)})
	t.AppendRow(table.Row{"Fresh Until", record.CacheExpires(ttl).Format(time.RFC3339)})

	t.Render()
}

// appendIfSet adds a row only when the value is non-empty.
func appendIfSet(t table.Writer, label, value string) {
	if value == "" {
		return
	}
	t.AppendRow(table.Row{label, value})
}

// appendDate adds a date row formatted as YYYY-MM-DD.
func appendDate(t table.Writer, label string, value *time.Time) {
	if value == nil {
		return
	}
	t.AppendRow(table.Row{label, value.Format("2006-01-02")})
}

// appendDays adds a day-count row.
func appendDays(t table.Writer, label string, value *int) {
	if value == nil {
		return
	}
	t.AppendRow(table.Row{label, fmt.Sprintf("%d days", *value)})
}

// appendGroup adds one row per entry of a nested metric group, prefixed
// with the group name.
func appendGroup(t table.Writer, group string, values domain.JSONBMap) {
	for _, key := range sortedKeys(values) {
		t.AppendRow(table.Row{group + ": " + key, values[key]})
	}
}

// sortedKeys returns the map keys in a stable order for rendering.
func sortedKeys(values domain.JSONBMap) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
