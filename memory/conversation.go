// Package memory holds the bounded, ordered transcript of a single
// conversation and its flat-file JSON persistence.
package memory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/m4xw311/palaver/errors"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultMaxHistory bounds the transcript when no explicit cap is given.
const DefaultMaxHistory = 10

// Message is a single transcript entry. Messages are immutable once added;
// ordering is insertion order and duplicate content is allowed.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ContextMessage is the provider-facing view of a message, timestamp
// stripped. The ordered slice produced by Context is exactly what gets sent
// to a completion provider.
type ContextMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Metadata records the conversation's lifetime.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Conversation is the bounded transcript. It has a single owner and is not
// safe for concurrent use.
type Conversation struct {
	maxHistory int
	messages   []Message
	meta       Metadata
}

// New creates an empty conversation capped at 2*maxHistory messages.
// A non-positive maxHistory falls back to DefaultMaxHistory.
func New(maxHistory int) *Conversation {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	now := time.Now()
	return &Conversation{
		maxHistory: maxHistory,
		meta:       Metadata{CreatedAt: now, UpdatedAt: now},
	}
}

// Add appends a message with the current timestamp and trims the transcript
// from the front until it holds at most 2*maxHistory entries. Trimming is
// purely positional: the system message is evicted like any other entry once
// the cap is exceeded.
func (c *Conversation) Add(role, content string) {
	c.messages = append(c.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	c.meta.UpdatedAt = time.Now()

	if limit := c.maxHistory * 2; len(c.messages) > limit {
		trimmed := make([]Message, limit)
		copy(trimmed, c.messages[len(c.messages)-limit:])
		c.messages = trimmed
	}
}

// Context returns the ordered role/content pairs for a provider call.
func (c *Conversation) Context() []ContextMessage {
	ctx := make([]ContextMessage, len(c.messages))
	for i, msg := range c.messages {
		ctx[i] = ContextMessage{Role: msg.Role, Content: msg.Content}
	}
	return ctx
}

// Messages returns a copy of the stored transcript.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of stored messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Metadata returns the conversation's lifetime metadata.
func (c *Conversation) Metadata() Metadata {
	return c.meta
}

// Clear resets the transcript to empty with fresh metadata.
func (c *Conversation) Clear() {
	now := time.Now()
	c.messages = nil
	c.meta = Metadata{CreatedAt: now, UpdatedAt: now}
}

// conversationFile is the on-disk JSON shape.
type conversationFile struct {
	Metadata Metadata  `json:"metadata"`
	Messages []Message `json:"messages"`
}

// Save writes the conversation as indented JSON to path, creating parent
// directories as needed. An existing file is overwritten.
func (c *Conversation) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "could not create conversation directory %s", dir)
		}
	}
	data, err := json.MarshalIndent(conversationFile{
		Metadata: c.meta,
		Messages: c.messages,
	}, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to serialize conversation")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "could not write conversation file %s", path)
	}
	return nil
}

// Load replaces the transcript and metadata wholesale from the file at path.
// The file is read and decoded fully before anything is swapped in, so a
// failed load leaves the conversation untouched.
func (c *Conversation) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Tagf(errors.ErrNotFound, "conversation file %s does not exist", path)
		}
		return errors.Wrapf(err, "could not read conversation file %s", path)
	}
	var f conversationFile
	if err := json.Unmarshal(data, &f); err != nil {
		return errors.Tagf(errors.ErrParse, "malformed conversation file %s: %v", path, err)
	}
	c.meta = f.Metadata
	c.messages = f.Messages
	return nil
}
