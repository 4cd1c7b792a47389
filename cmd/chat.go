package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/services"
	"github.com/cryptodoc/cryptodoc-cli/pkg/ui"
)

var chatCmd = &cobra.Command{
	Use:     "chat [query] [question]",
	Aliases: []string{"ask"},
	Short:   "Ask questions about a document",
	Long: `Chat with the AI about a single document.

With a question the answer is printed and the command exits. Without one an
interactive prompt starts; type "exit" or press Ctrl+D to leave.

Examples:
  cryptodoc chat invoice "What is the total amount?"
  cryptodoc chat contract`,
	Args: cobra.MaximumNArgs(2),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	doc, err := selectDocument(ctx, args[:min(len(args), 1)])
	if err != nil {
		return ignoreNoSelection(err)
	}

	if _, err := controller.SelectForInsights(doc.ID); err != nil {
		return err
	}
	for _, m := range controller.Transcript(doc.ID) {
		printChatMessage(m)
	}

	if len(args) == 2 {
		// Failures are already answered in the transcript
		reply, _ := controller.Chat(ctx, doc.ID, args[1])
		printChatMessage(reply)
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		question, err := readLine(reader, "you> ")
		if err != nil {
			fmt.Println()
			return nil
		}
		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit", ":q":
			return nil
		}

		// Failures are answered in the transcript, keep the loop going
		reply, _ := controller.Chat(ctx, doc.ID, question)
		printChatMessage(reply)
	}
}

func printChatMessage(m services.ChatMessage) {
	switch {
	case m.Role == services.RoleUser:
		fmt.Println(ui.StyleAccent.Render("you> ") + m.Text)
	case m.Failed:
		fmt.Println(ui.StyleError.Render("ai> ") + m.Text)
	default:
		fmt.Println(ui.StylePrimary.Render("ai> ") + m.Text)
	}
}
