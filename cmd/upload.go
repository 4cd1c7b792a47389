package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/ports"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/services"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var uploadTags string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload documents for hashing, verification and AI analysis",
	Long: `Upload one or more files to the backend.

Tags are stored as the document category. When --tags is omitted they are
suggested from the file name and, for PDFs, the text of the first pages.

Examples:
  cryptodoc upload invoice-2024.pdf
  cryptodoc upload contract.docx --tags "Legal, Lease"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadTags, "tags", "t", "", "Comma-separated tags (auto-detected when empty)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	failed := 0
	for _, path := range args {
		tags := uploadTags
		if strings.TrimSpace(tags) == "" {
			tags = domain.JoinTags(tagSuggester.Suggest(path))
			fmt.Println(ui.FormatMuted("Detected tags: " + tags))
		}

		doc, err := uploadFile(ctx, path, tags)
		if err != nil {
			fmt.Println(ui.FormatError(fmt.Sprintf("%s: %s", filepath.Base(path), userMessage(err))))
			failed++
			continue
		}

		fmt.Println(ui.FormatSuccess("Uploaded: " + doc.Name))
		fmt.Println("  " + ui.RenderKeyValue("ID", doc.ID))
		fmt.Println("  " + ui.RenderKeyValue("Category", doc.Category))
		fmt.Println("  " + ui.RenderKeyValue("Hash", doc.Hash))
		fmt.Println("  " + ui.RenderKeyValue("Verification", ui.VerificationBadge(doc.VerificationStatus)))
		fmt.Println("  " + ui.RenderKeyValue("AI", ui.AIStatusBadge(doc.AIStatus)))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}

// uploadFile streams a local file through the controller
func uploadFile(ctx context.Context, path, tags string) (domain.Document, error) {
	return uploadWith(ctx, controller, path, tags)
}

// uploadWith streams a local file to the backend through ctrl
func uploadWith(ctx context.Context, ctrl *services.Controller, path, tags string) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.Document{}, fmt.Errorf("%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	return ctrl.Upload(ctx, ports.UploadRequest{
		Filename: filepath.Base(path),
		Content:  f,
		Tags:     tags,
	})
}
