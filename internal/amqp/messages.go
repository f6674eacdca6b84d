package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage announces that one of the record collections changed.
// It carries no record data; consumers reload the collection they care about.
type LedgerChangedMessage struct {
	Collection string    `json:"collection"`
	Operation  string    `json:"operation"`
	ID         string    `json:"id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(collection, operation, id string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Collection: collection,
		Operation:  operation,
		ID:         id,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
