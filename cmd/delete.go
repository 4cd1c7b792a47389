package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete [query]",
	Aliases: []string{"rm"},
	Short:   "Delete a document",
	Long: `Delete a document from the backend.

Without a query a fuzzy finder lists every document. Deletion always asks
for confirmation unless --yes is given.

Examples:
  cryptodoc delete
  cryptodoc delete invoice
  cryptodoc delete 42 --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	doc, err := selectDocument(ctx, args)
	if err != nil {
		return ignoreNoSelection(err)
	}

	var confirm ports.Confirmer = newStdinConfirmer()
	if deleteYes {
		confirm = ports.ConfirmFunc(func(context.Context, domain.Document) (bool, error) { return true, nil })
	}

	if err := controller.Delete(ctx, doc.ID, confirm); err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			fmt.Println("Cancelled.")
			return nil
		}
		return err
	}

	fmt.Println(ui.FormatSuccess("Document deleted: " + doc.Name))
	return nil
}
