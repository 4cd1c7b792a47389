package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var (
	previewCopy   bool
	previewNoOpen bool
)

var previewCmd = &cobra.Command{
	Use:     "preview [query]",
	Aliases: []string{"open"},
	Short:   "Open a document in the viewer",
	Long: `Resolve the viewable location of a document and open it.

Documents without an inline URL get a presigned link from the backend.
The configured pdf_viewer is used when set, otherwise the OS default.

Examples:
  cryptodoc preview invoice
  cryptodoc preview contract --copy --no-open`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().BoolVarP(&previewCopy, "copy", "c", false, "Copy the URL to the clipboard")
	previewCmd.Flags().BoolVar(&previewNoOpen, "no-open", false, "Only print the URL")
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	doc, err := selectDocument(ctx, args)
	if err != nil {
		return ignoreNoSelection(err)
	}

	var url string
	if previewNoOpen {
		url, err = controller.ResolvePreview(ctx, doc.ID)
	} else {
		url, err = controller.RequestPreview(ctx, doc.ID)
	}
	if err != nil && url == "" {
		return err
	}
	if err != nil {
		fmt.Println(ui.FormatWarning(userMessage(err)))
	} else if !previewNoOpen {
		fmt.Println(ui.FormatSuccess("Opened: " + doc.Name))
	}

	fmt.Println(ui.RenderKeyValue("URL", url))

	if previewCopy {
		if err := clipboard.WriteAll(url); err != nil {
			fmt.Println(ui.FormatMuted("(Clipboard access failed)"))
		} else {
			fmt.Println(ui.FormatMuted("(Copied to clipboard)"))
		}
	}
	return nil
}
