package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics",
	Long: `Show the stat cards of the dashboard.

Server statistics are shown when the backend provides them. Otherwise the
cards are derived from the document list: total documents, percentage of
blockchain-verified documents and number of AI insights.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	if err := loadDocuments(getContext()); err != nil {
		return err
	}

	state := controller.Snapshot()

	fmt.Println(ui.FormatTitle("Statistics"))
	fmt.Println()
	for _, s := range state.Stats {
		fmt.Println("  " + ui.FormatStat(s))
	}
	fmt.Println()

	source := "server"
	if !state.ServerStats {
		source = "derived from documents"
	}
	fmt.Println(ui.FormatMuted("Source: " + source))

	summary := controller.ExpirationSummary(time.Now())
	if summary.Tracked > 0 {
		fmt.Println()
		fmt.Println(ui.RenderKeyValue("Tracked expirations", fmt.Sprint(summary.Tracked)))
		fmt.Println(ui.RenderKeyValue("Expired", fmt.Sprint(summary.Expired)))
		fmt.Println(ui.RenderKeyValue(
			fmt.Sprintf("Action required (%d days)", appConfig.ActionRequiredDays),
			fmt.Sprint(summary.ActionRequired)))
	}
	return nil
}
