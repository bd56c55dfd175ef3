package core

import (
	"time"

	"github.com/vovakirdan/roomchat-server/internal/store"
)

// TimestampLayout is the ISO-8601 form used on the wire and in storage (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Message is the domain model for a chat message. Nickname is the author's
// nickname at send time and never changes afterwards.
type Message struct {
	Text      string
	UserID    string
	Nickname  string
	Timestamp time.Time
}

// FormatTime renders t in TimestampLayout.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (m Message) record() store.MessageRecord {
	return store.MessageRecord{
		Message:   m.Text,
		ID:        m.UserID,
		Nickname:  m.Nickname,
		Timestamp: FormatTime(m.Timestamp),
	}
}

func messageFromRecord(r store.MessageRecord) Message {
	return Message{
		Text:      r.Message,
		UserID:    r.ID,
		Nickname:  r.Nickname,
		Timestamp: parseTime(r.Timestamp),
	}
}
