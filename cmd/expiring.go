package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var expiringOnlyUrgent bool

var expiringCmd = &cobra.Command{
	Use:     "expiring",
	Aliases: []string{"exp"},
	Short:   "Track document expiration dates",
	Long: `Show every document with a trackable validity date, most urgent first.

Documents whose validity is empty, "N/A", "Indefinite" or otherwise not a
date are left out.`,
	RunE: runExpiring,
}

func init() {
	expiringCmd.Flags().BoolVarP(&expiringOnlyUrgent, "urgent", "u", false, "Only show expired and expiring-soon documents")
}

func runExpiring(cmd *cobra.Command, args []string) error {
	if err := loadDocuments(getContext()); err != nil {
		return err
	}

	now := time.Now()
	tracked := controller.Expirations(now)
	if expiringOnlyUrgent {
		urgent := tracked[:0]
		for _, t := range tracked {
			if t.Bucket != domain.BucketValid {
				urgent = append(urgent, t)
			}
		}
		tracked = urgent
	}

	if len(tracked) == 0 {
		fmt.Println(ui.FormatSuccess("No documents with upcoming expirations"))
		return nil
	}

	fmt.Println(ui.FormatTitle("Expiration Tracker"))
	fmt.Println()
	fmt.Print(expirationTable(tracked).Render())
	fmt.Println()

	summary := controller.ExpirationSummary(now)
	fmt.Println(ui.FormatMuted(fmt.Sprintf("%d tracked, %d expired, %d require action within %d days",
		summary.Tracked, summary.Expired, summary.ActionRequired, appConfig.ActionRequiredDays)))
	return nil
}

func expirationTable(tracked []domain.TrackedDocument) *ui.Table {
	table := ui.NewTable([]ui.TableColumn{
		{Header: "Document", Width: 20, MaxWidth: 40},
		{Header: "Validity", MaxWidth: 30},
		{Header: "Remaining", Width: 10, Align: ui.AlignRight},
		{Header: "Status", Width: 13},
	})
	for _, t := range tracked {
		table.AddRow([]string{
			t.Document.Name,
			t.Document.Validity,
			t.RemainingLabel(),
			ui.BucketBadge(t.Bucket),
		})
	}
	return table
}
