// Package history implements the command that lists recent lookups from
// the search history in a formatted table.
package history

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
const defaultLimit = 50

// Command returns the history command for use in the root command.
func Command() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent vehicle lookups",
		Long:  `List the most recent lookups recorded in the search history, newest first.`,
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

			repo := database.NewSearchHistoryRepository(db)
			return listHistory(cmd.Context(), repo, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "maximum number of entries to list")

	return cmd
}

// listHistory fetches recent entries and renders them.
func listHistory(ctx context.Context, repo database.SearchHistoryRepositoryInterface, limit int) error {
	entries, err := repo.ListRecent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list search history: %w", err)
	}

	if len(entries) == 0 {
		output.Println("No lookups recorded yet.")
		return nil
	}

	renderHistory(entries)
	return nil
}

// renderHistory formats and displays history entries in a table format.
func renderHistory(entries []*domain.SearchHistoryEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Searched At", "Registration", "Result", "Source", "Duration"})

	for _, entry := range entries {
		t.AppendRow(table.Row{
			entry.SearchedAt.Format(time.RFC3339),
			entry.Registration,
			resultColumn(entry),
			entry.Source,
			fmt.Sprintf("%dms", entry.DurationMs),
		})
	}

	t.Render()
}

// resultColumn summarizes the outcome of one entry.
func resultColumn(entry *domain.SearchHistoryEntry) string {
	if entry.Success {
		return "ok"
	}
	if entry.ErrorMessage != nil {
		return "failed: " + *entry.ErrorMessage
	}
	return "failed"
}
