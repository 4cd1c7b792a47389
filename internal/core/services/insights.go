package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

// ChatRole identifies the author of a transcript message
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleAgent ChatRole = "agent"
)

// ChatMessage is a single entry of a document conversation
type ChatMessage struct {
	Role ChatRole
	Text string
	At   time.Time
	// Failed marks agent messages standing in for a failed request
	Failed bool
}

func greeting(doc domain.Document) ChatMessage {
	return ChatMessage{
		Role: RoleAgent,
		Text: fmt.Sprintf("I'm ready to answer questions about %q.", doc.Name),
		At:   time.Now(),
	}
}

// Chat asks a question about a document and records both sides in its
// transcript. A failed request is answered in the transcript by an agent
// message; the error is returned for logging only.
func (c *Controller) Chat(ctx context.Context, id, question string) (ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return ChatMessage{}, fmt.Errorf("chat: empty question")
	}

	doc, ok := c.Document(id)
	if !ok {
		return ChatMessage{}, fmt.Errorf("chat %s: %w", id, domain.ErrNotFound)
	}
	if err := requireRemote(doc, domain.ErrChat, "chat"); err != nil {
		return ChatMessage{}, err
	}

	c.mu.Lock()
	if _, started := c.transcripts[id]; !started {
		c.transcripts[id] = []ChatMessage{greeting(doc)}
	}
	c.transcripts[id] = append(c.transcripts[id], ChatMessage{Role: RoleUser, Text: question, At: time.Now()})
	c.mu.Unlock()

	answer, err := c.api.Chat(ctx, id, question)

	reply := ChatMessage{Role: RoleAgent, Text: answer, At: time.Now()}
	if err != nil {
		slog.Warn("chat_failed", "id", id, "error", err)
		reply.Text = domain.UserMessage(domain.NewOpError(domain.ErrChat, "chat", 0, "", nil))
		reply.Failed = true
	}

	c.mu.Lock()
	c.transcripts[id] = append(c.transcripts[id], reply)
	c.mu.Unlock()

	return reply, err
}

// Transcript returns the conversation of a document, greeting first
func (c *Controller) Transcript(id string) []ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]ChatMessage(nil), c.transcripts[id]...)
}
