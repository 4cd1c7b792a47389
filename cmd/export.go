package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/internal/adapters/export"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var (
	exportFormat string
	exportOutput string
	reportOutput string
	reportOpen   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export documents, stats and expirations (JSON, XLSX, HTML)",
	Long: `Export the current document collection to a file.

Supported Formats:
  - json (Default): documents, effective stats and the expiration tracker.
  - xlsx: a workbook with Documents, Expirations and Stats sheets.
  - html: the interactive analytics report.

Examples:
  cryptodoc export                       # JSON into the exports directory
  cryptodoc export -f xlsx -o docs.xlsx  # Excel workbook`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the analytics report as an HTML page",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format (json, xlsx, html)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: exports directory)")

	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output file (default: reports directory)")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "Open the report in the browser")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.Lookup(exportFormat)
	if err != nil {
		return err
	}

	snap, err := currentSnapshot()
	if err != nil {
		return err
	}

	path := exportOutput
	if path == "" {
		path = appVault.GetExportPath(export.FileName(format, snap.GeneratedAt))
	}

	if err := writeSnapshot(path, format, snap); err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Exported %d documents", len(snap.Documents))))
	fmt.Println(ui.RenderKeyValue("File", path))
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	format, _ := export.Lookup("html")

	snap, err := currentSnapshot()
	if err != nil {
		return err
	}

	path := reportOutput
	if path == "" {
		path = appVault.GetReportPath(export.FileName(format, snap.GeneratedAt))
	}

	if err := writeSnapshot(path, format, snap); err != nil {
		return err
	}
	fmt.Println(ui.FormatSuccess("Report written: " + path))

	if reportOpen {
		if err := OpenFile(path, ""); err != nil {
			return fmt.Errorf("failed to open report: %w", err)
		}
	}
	return nil
}

// currentSnapshot refreshes the controller and captures what the exporters need
func currentSnapshot() (export.Snapshot, error) {
	if err := loadDocuments(getContext()); err != nil {
		return export.Snapshot{}, err
	}
	state := controller.Snapshot()
	return export.Snapshot{
		Documents:   state.Documents,
		Stats:       state.Stats,
		Thresholds:  appConfig.Thresholds(),
		GeneratedAt: time.Now(),
	}, nil
}

func writeSnapshot(path string, format export.Format, snap export.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := format.Write(f, snap); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
