package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Layouts accepted for stored timestamps. Zone-less values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// parseTimestamp reads an RFC 3339 string, a zone-less ISO 8601 string or a
// number of unix seconds. Empty and null values are the zero time.
func parseTimestamp(raw jsoniter.RawMessage) (time.Time, error) {
	value := strings.TrimSpace(string(raw))
	if value == "" || value == "null" {
		return time.Time{}, nil
	}
	if !strings.HasPrefix(value, `"`) {
		seconds, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp %s: %w", value, err)
		}
		return fromUnix(seconds).UTC(), nil
	}
	text, err := strconv.Unquote(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %s: %w", value, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, nil
		}
	}
	if seconds, err := strconv.ParseFloat(text, 64); err == nil {
		return fromUnix(seconds).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("timestamp %q: unknown format", text)
}

type ticketJSON struct {
	Number      int                 `json:"number"`
	ChannelID   string              `json:"channel_id"`
	CreatorID   string              `json:"creator_id"`
	Category    string              `json:"category"`
	CreatedAt   jsoniter.RawMessage `json:"created_at"`
	Status      TicketStatus        `json:"status"`
	ClosedBy    string              `json:"closed_by"`
	CloseReason string              `json:"close_reason"`
	ClosedAt    jsoniter.RawMessage `json:"closed_at"`
}

func (t *Ticket) UnmarshalJSON(data []byte) error {
	var doc ticketJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	created, err := parseTimestamp(doc.CreatedAt)
	if err != nil {
		return err
	}
	closed, err := parseTimestamp(doc.ClosedAt)
	if err != nil {
		return err
	}
	*t = Ticket{
		Number:      doc.Number,
		ChannelID:   doc.ChannelID,
		CreatorID:   doc.CreatorID,
		Category:    doc.Category,
		CreatedAt:   created,
		Status:      doc.Status,
		ClosedBy:    doc.ClosedBy,
		CloseReason: doc.CloseReason,
	}
	if !closed.IsZero() {
		t.ClosedAt = &closed
	}
	return nil
}

type panelJSON struct {
	ChannelID string              `json:"channel_id"`
	MessageID string              `json:"message_id"`
	CreatedBy string              `json:"created_by"`
	CreatedAt jsoniter.RawMessage `json:"created_at"`
}

func (p *PanelMessage) UnmarshalJSON(data []byte) error {
	var doc panelJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	created, err := parseTimestamp(doc.CreatedAt)
	if err != nil {
		return err
	}
	*p = PanelMessage{
		ChannelID: doc.ChannelID,
		MessageID: doc.MessageID,
		CreatedBy: doc.CreatedBy,
		CreatedAt: created,
	}
	return nil
}
