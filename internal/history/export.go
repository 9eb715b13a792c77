// Package history exports the in-memory chat transcript to files.
// Nothing is persisted unless the user asks for an export.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bizcopilot/copilot/internal/models"
)

// ExportFormat represents the format for exporting conversations
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// ExportOptions configures how transcripts are exported
type ExportOptions struct {
	Format          ExportFormat
	IncludeMetadata bool // conversation id and mode
}

// DefaultExportOptions returns sensible defaults for export
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:          ExportFormatMarkdown,
		IncludeMetadata: true,
	}
}

// Transcript is a snapshot of one chat session
type Transcript struct {
	ConversationID int64
	HasID          bool
	Mode           models.Mode
	Turns          []models.Turn
	ExportedAt     time.Time
}

const titleLimit = 50

// Title derives a title from the first user turn
func (t Transcript) Title() string {
	for _, turn := range t.Turns {
		if turn.Role != models.RoleUser {
			continue
		}
		title := strings.TrimSpace(strings.SplitN(turn.Text, "\n", 2)[0])
		if utf8.RuneCountInString(title) > titleLimit {
			title = string([]rune(title)[:titleLimit]) + "..."
		}
		return title
	}
	return "Чат " + t.ExportedAt.Format("2006-01-02 15:04")
}

// ExportToMarkdown renders the transcript as Markdown
func ExportToMarkdown(t Transcript, opts ExportOptions) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(t.Title())
	sb.WriteString("\n\n")

	if opts.IncludeMetadata {
		if t.HasID {
			sb.WriteString(fmt.Sprintf("**Диалог:** %d\n", t.ConversationID))
		}
		sb.WriteString("**Режим:** ")
		sb.WriteString(models.ModeLabel(t.Mode))
		sb.WriteString("\n")
	}
	sb.WriteString("**Экспорт:** ")
	sb.WriteString(t.ExportedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Сообщений:** %d", len(t.Turns)))
	sb.WriteString("\n\n---\n\n")

	for i, turn := range t.Turns {
		role := "Вы"
		if turn.Role == models.RoleAssistant {
			role = "Помощник"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if !turn.Timestamp.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(turn.Timestamp.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")
		sb.WriteString(turn.Text)
		sb.WriteString("\n")

		if i < len(t.Turns)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// ExportToJSON renders the transcript as indented JSON
func ExportToJSON(t Transcript, opts ExportOptions) ([]byte, error) {
	type exportTranscript struct {
		Title          string        `json:"title"`
		ConversationID *int64        `json:"conversation_id,omitempty"`
		Mode           string        `json:"mode,omitempty"`
		ExportedAt     time.Time     `json:"exported_at"`
		Turns          []models.Turn `json:"turns"`
	}

	export := exportTranscript{
		Title:      t.Title(),
		ExportedAt: t.ExportedAt,
		Turns:      t.Turns,
	}
	if export.Turns == nil {
		export.Turns = []models.Turn{}
	}
	if opts.IncludeMetadata {
		if t.HasID {
			id := t.ConversationID
			export.ConversationID = &id
		}
		export.Mode = string(t.Mode)
	}

	return json.MarshalIndent(export, "", "  ")
}

// FormatFromPath picks the export format from a file extension
func FormatFromPath(path string) ExportFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ExportFormatJSON
	}
	return ExportFormatMarkdown
}

// DefaultFileName returns a timestamped file name for format
func DefaultFileName(format ExportFormat, at time.Time) string {
	ext := ".md"
	if format == ExportFormatJSON {
		ext = ".json"
	}
	return "copilot-chat-" + at.Format("20060102-150405") + ext
}

// WriteFile exports t to path. An empty path writes a timestamped Markdown
// file under dir. The resolved path is returned.
func WriteFile(t Transcript, path, dir string) (string, error) {
	if len(t.Turns) == 0 {
		return "", fmt.Errorf("nothing to export: the conversation is empty")
	}
	if t.ExportedAt.IsZero() {
		t.ExportedAt = time.Now()
	}
	if path == "" {
		path = filepath.Join(dir, DefaultFileName(ExportFormatMarkdown, t.ExportedAt))
	}

	opts := DefaultExportOptions()
	opts.Format = FormatFromPath(path)

	var data []byte
	switch opts.Format {
	case ExportFormatJSON:
		out, err := ExportToJSON(t, opts)
		if err != nil {
			return "", fmt.Errorf("failed to marshal transcript: %w", err)
		}
		data = out
	default:
		data = []byte(ExportToMarkdown(t, opts))
	}

	if d := filepath.Dir(path); d != "" {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return "", fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}
