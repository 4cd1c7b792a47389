package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/services"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var (
	listTagFilter string
	listQuery     string
	listSortBy    string
	listReverse   bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List documents with verification and AI status",
	Aliases: []string{"ls"},
	Long: `List all documents in a table format.

Examples:
  cryptodoc list
  cryptodoc list --tag finance
  cryptodoc list --search invoice
  cryptodoc list --sort status --reverse`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listTagFilter, "tag", "", "Filter documents by tag (category)")
	listCmd.Flags().StringVarP(&listQuery, "search", "s", "", "Filter by name or hash")
	// Sort defaults to "date", but we handle config override in runList
	listCmd.Flags().StringVar(&listSortBy, "sort", "date", "Sort by field (date, name, status, size)")
	listCmd.Flags().BoolVar(&listReverse, "reverse", false, "Reverse sort order")
}

func runList(cmd *cobra.Command, args []string) error {
	// If the flag was NOT changed by the user, use the config default
	if !cmd.Flags().Changed("sort") {
		listSortBy = appConfig.DefaultSort
	}
	if !cmd.Flags().Changed("reverse") {
		listReverse = appConfig.ReverseSort
	}

	if err := loadDocuments(getContext()); err != nil {
		return err
	}

	resp := controller.List(services.ListRequest{
		TagFilter: listTagFilter,
		Query:     listQuery,
		SortBy:    listSortBy,
		Reverse:   listReverse,
	})

	// Handle empty results
	if resp.Total == 0 {
		switch {
		case listTagFilter != "":
			fmt.Println(ui.FormatWarning("No documents found with tag: " + listTagFilter))
		case listQuery != "":
			fmt.Println(ui.FormatWarning("No documents match: " + listQuery))
		default:
			fmt.Println(ui.FormatWarning("No documents found"))
			fmt.Println(ui.FormatInfo("Upload your first document with: cryptodoc upload <file>"))
		}
		return nil
	}

	if listTagFilter != "" {
		fmt.Println(ui.FormatTitle(fmt.Sprintf("Documents (filtered by tag: %s)", listTagFilter)))
	} else {
		fmt.Println(ui.FormatTitle("Documents"))
	}
	fmt.Println()

	fmt.Print(documentTable(resp.Documents, time.Now()).Render())
	fmt.Println()

	fmt.Println(ui.FormatMuted(fmt.Sprintf("Total: %d documents", resp.Total)))
	if local := countLocal(resp.Documents); local > 0 {
		fmt.Println(ui.FormatMuted(fmt.Sprintf("%s %d without a server id (read-only until the backend stores them)", ui.IconLocal, local)))
	}
	return nil
}

func documentTable(docs []domain.Document, now time.Time) *ui.Table {
	table := ui.NewTable([]ui.TableColumn{
		{Header: "", Width: 2},
		{Header: "Name", Width: 20, MaxWidth: 36},
		{Header: "Size", Width: 8, Align: ui.AlignRight},
		{Header: "Date", Width: 10},
		{Header: "Category", MaxWidth: 24},
		{Header: "Verification", Width: 12},
		{Header: "AI", Width: 10},
		{Header: "Hash", Width: 14},
	})

	for _, d := range docs {
		row := []string{
			ui.TypeIcon(d.Type),
			d.Name,
			d.Size,
			ui.FormatRelativeDate(d.Date, now),
			d.Category,
			ui.VerificationBadge(d.VerificationStatus),
			ui.AIStatusBadge(d.AIStatus),
			d.ShortHash(14),
		}
		if d.IsLocal() {
			// no server id: listed for reference only
			row[0] = ui.IconLocal
			table.AddDimRow(row)
			continue
		}
		table.AddRow(row)
	}
	return table
}

func countLocal(docs []domain.Document) int {
	n := 0
	for _, d := range docs {
		if d.IsLocal() {
			n++
		}
	}
	return n
}
