package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operations carried by LedgerChangedMessage.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationImport = "import"
)

// LedgerChangedMessage tells consumers that the ledger moved to Version.
// It carries no record data; consumers reload the ledger from storage and
// use Months to limit what they refresh.
type LedgerChangedMessage struct {
	Version   int64     `json:"version"`
	Operation string    `json:"operation"`
	RecordIDs []string  `json:"record_ids"`
	Months    []string  `json:"months"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(version int64, operation string, recordIDs, months []string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Version:   version,
		Operation: operation,
		RecordIDs: recordIDs,
		Months:    months,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode ledger changed message: %w", err)
	}
	return &msg, nil
}
