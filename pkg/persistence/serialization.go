package persistence

import (
	"encoding/json"
	"fmt"
)

// MarshalSignedRecord serializes a record to JSON for storage backends.
func MarshalSignedRecord(record *SignedRecord) ([]byte, error) {
	if record == nil {
		return nil, fmt.Errorf("cannot marshal nil SignedRecord")
	}
	return json.Marshal(record)
}

// UnmarshalSignedRecord deserializes a record from its JSON form.
func UnmarshalSignedRecord(data []byte) (*SignedRecord, error) {
	var record SignedRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal SignedRecord: %w", err)
	}
	return &record, nil
}
