package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var regenerateCmd = &cobra.Command{
	Use:     "regenerate [query]",
	Aliases: []string{"regen"},
	Short:   "Regenerate the AI summary of a document",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runRegenerate,
}

func runRegenerate(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	doc, err := selectDocument(ctx, args)
	if err != nil {
		return ignoreNoSelection(err)
	}

	fmt.Println(ui.FormatInfo("Regenerating summary for " + doc.Name + "..."))
	updated, err := controller.RegenerateSummary(ctx, doc.ID)
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess("Summary updated"))
	fmt.Println()
	fmt.Println(updated.Summary)
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Category", updated.Category))
	if updated.HasValidity() {
		fmt.Println(ui.RenderKeyValue("Validity", updated.Validity))
	}
	return nil
}
