package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
	"github.com/cryptodoc/cryptodoc-cli/internal/core/services"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

// errNoSelection is returned when the user backs out of a picker
var errNoSelection = errors.New("no document selected")

// selectDocument refreshes the collection and resolves a query to one document.
// Without a query a fuzzy finder is shown; an ambiguous query shows a numbered list.
func selectDocument(ctx context.Context, args []string) (domain.Document, error) {
	if err := loadDocuments(ctx); err != nil {
		return domain.Document{}, err
	}

	docs := controller.Documents()
	if len(docs) == 0 {
		fmt.Println(ui.FormatWarning("No documents found"))
		return domain.Document{}, errNoSelection
	}

	if len(args) == 0 || args[0] == "" {
		return pickDocument(docs)
	}

	doc, candidates, ok := services.Resolve(docs, args[0])
	if ok {
		return doc, nil
	}
	if len(candidates) == 0 {
		fmt.Println(ui.FormatWarning("No documents found matching: " + args[0]))
		return domain.Document{}, errNoSelection
	}
	return chooseFromList(candidates)
}

func pickDocument(docs []domain.Document) (domain.Document, error) {
	if len(docs) == 1 {
		return docs[0], nil
	}

	idx, err := fuzzyfinder.Find(
		docs,
		func(i int) string {
			return docs[i].Name
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return documentPreview(docs[i])
		}),
	)
	if err != nil {
		// User cancelled (Ctrl+C or ESC)
		fmt.Println(ui.FormatInfo("Operation cancelled."))
		return domain.Document{}, errNoSelection
	}
	return docs[idx], nil
}

func documentPreview(d domain.Document) string {
	preview := fmt.Sprintf("Name: %s\nType: %s  Size: %s\nDate: %s\nCategory: %s\nVerification: %s\nAI: %s\nHash: %s",
		d.Name, d.TypeLabel(), d.Size, d.Date, d.Category, d.VerificationStatus, d.AIStatus, d.Hash)
	if d.HasValidity() {
		preview += "\nValidity: " + d.Validity
	}
	if d.HasSummary() {
		preview += "\n\n" + d.Summary
	}
	return preview
}

func chooseFromList(matches []domain.Document) (domain.Document, error) {
	fmt.Println(ui.FormatInfo(fmt.Sprintf("Found %d matches:", len(matches))))
	fmt.Println()

	for i, d := range matches {
		fmt.Printf("  %d. %s %s\n",
			i+1,
			ui.StyleBold.Render(d.Name),
			ui.StyleMuted.Render("("+d.ID+")"))
	}
	fmt.Println()

	// Prompt for selection with retry loop
	reader := bufio.NewReader(os.Stdin)
	for {
		input, err := readLine(reader, fmt.Sprintf("Select a document (1-%d): ", len(matches)))
		if err != nil {
			return domain.Document{}, errNoSelection
		}

		selection, err := strconv.Atoi(input)
		if err != nil {
			fmt.Println(ui.FormatWarning("Invalid input. Please enter a number."))
			continue
		}
		if selection < 1 || selection > len(matches) {
			fmt.Println(ui.FormatWarning(fmt.Sprintf("Please enter a number between 1 and %d.", len(matches))))
			continue
		}

		fmt.Println()
		return matches[selection-1], nil
	}
}

// ignoreNoSelection turns a cancelled picker into a clean exit
func ignoreNoSelection(err error) error {
	if errors.Is(err, errNoSelection) {
		return nil
	}
	return err
}
