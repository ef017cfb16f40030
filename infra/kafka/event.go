package kafka

import (
	"encoding/json"

	"gulog/wal"
)

const (
	EventAppend    = "append"
	EventWatermark = "watermark"
)

// Event describes a record without its payload. It is what downstream
// consumers see on the append and watermark topics.
type Event struct {
	V        int    `json:"v"`
	Type     string `json:"type"`
	ID       string `json:"id"`
	Checksum string `json:"checksum"`
	Size     int    `json:"size"`
}

func NewEvent(typ string, rec *wal.Record) Event {
	return Event{
		V:        1,
		Type:     typ,
		ID:       rec.Key(),
		Checksum: rec.Checksum.String(),
		Size:     len(rec.Data),
	}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
