package types

import (
	"time"
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Source is one citation backing part of a bot answer.
type Source struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	URI     string `json:"uri"`
	Snippet string `json:"snippet,omitempty"`
	// Guessed marks a URI that was synthesised because the answer text carried none.
	Guessed bool `json:"guessed,omitempty"`
	// Ref is the marker number the answer text used for this source, when it differs from Number.
	Ref int `json:"ref,omitempty"`
}

// Marker returns the number the answer text refers to this source by.
func (s Source) Marker() int {
	if s.Ref > 0 {
		return s.Ref
	}
	return s.Number
}

// Footnote is an inline [n] marker bound to a ledger source.
type Footnote struct {
	ID          string `json:"id"`
	MessageID   int    `json:"message_id"`
	Number      int    `json:"number"`
	SourceIndex int    `json:"source_index"`
	URI         string `json:"uri,omitempty"`
}

type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Pages       int    `json:"pages,omitempty"`
	Data        []byte `json:"-"`
}

// RetryPayload is what a failed turn needs to be replayed verbatim.
type RetryPayload struct {
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

type Message struct {
	ID        int        `json:"id"`
	Role      Role       `json:"role"`
	Text      string     `json:"text"`
	HTML      string     `json:"html"`
	Sources   []Source   `json:"sources,omitempty"`
	Footnotes []Footnote `json:"footnotes,omitempty"`
	Failed    bool       `json:"failed,omitempty"`
	// AttachmentName is set on user messages sent with a file.
	AttachmentName string        `json:"attachment_name,omitempty"`
	Retry          *RetryPayload `json:"retry,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

type HistoryEntry struct {
	Role           string `json:"role"`
	Content        string `json:"content"`
	HasAttachment  bool   `json:"has_attachment,omitempty"`
	AttachmentName string `json:"attachment_name,omitempty"`
}

// ChatRequest is the body sent to the chat backend.
type ChatRequest struct {
	Message             string         `json:"message"`
	ConversationHistory []HistoryEntry `json:"conversation_history"`
	UserLanguage        string         `json:"user_language"`
	OutputLanguage      string         `json:"output_language"`
	Attachment          *Attachment    `json:"-"`
}

// Reply is a backend answer after shape resolution. Sources holds the raw
// citation value; Grouped is set when it uses the nested citation-group schema.
type Reply struct {
	Text    string `json:"response"`
	Sources any    `json:"sources"`
	Grouped bool   `json:"-"`
}
