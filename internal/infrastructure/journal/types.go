package journal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one journaled record awaiting flush to durable storage. Data
// holds the serialized domain event; the journal itself never inspects it.
type Entry struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
}
