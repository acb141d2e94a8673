package transport

import "context"

type UpdateKind string

const (
	UpdateMessage UpdateKind = "message"
)

type Update struct {
	Kind    UpdateKind
	Message *Message
}

type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	Text         string

	// At most one of Document/Photo is set for file updates.
	Document *Document
	Photo    *Photo
}

// Document is an inbound file attachment (Telegram document).
type Document struct {
	FileID   string
	UniqueID string
	Name     string
	MIME     string
	Size     int64
}

// Photo is an inbound photo; Telegram re-encodes photos, so MIME is implied jpeg.
type Photo struct {
	FileID   string
	UniqueID string
	Size     int64
}

type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Adapter is the chat transport seen by the core. It delivers inbound
// updates to a channel and sends outbound status text.
type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)

	// DownloadFile fetches the remote file behind fileID into dst.
	DownloadFile(ctx context.Context, fileID, dst string) error
}
