package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <query> <hash|file>",
	Short: "Check a file or digest against the stored document hash",
	Long: `Verify that a local copy matches the document stored on the backend.

The second argument is either a SHA-256 hex digest or the path of a local
file, which is hashed before the check.

Examples:
  cryptodoc verify invoice ./invoice-2024.pdf
  cryptodoc verify 42 9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	doc, err := selectDocument(ctx, args[:1])
	if err != nil {
		return ignoreNoSelection(err)
	}

	hash := args[1]
	if info, err := os.Stat(hash); err == nil && !info.IsDir() {
		if hash, err = hashFile(args[1]); err != nil {
			return err
		}
		fmt.Println(ui.FormatMuted("SHA-256: " + hash))
	}

	match, err := controller.Verify(ctx, doc.ID, hash)
	if err != nil {
		return err
	}

	if match {
		fmt.Println(ui.FormatSuccess("Integrity verified: " + doc.Name + " matches the stored hash"))
		return nil
	}
	fmt.Println(ui.FormatError("Mismatch: " + doc.Name + " does not match the stored hash"))
	return fmt.Errorf("verification failed for %s", doc.Name)
}

// hashFile returns the lowercase hex SHA-256 of a file
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
