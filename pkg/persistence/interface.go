package persistence

// IRecordStore defines the interface for persisting signed-envelope audit
// records. All implementations must be thread-safe; the signing CLI and any
// embedding service may record from concurrent requests.
type IRecordStore interface {
	// SaveRecord persists a signed record keyed by (sender, sequence).
	// Overwrites any existing record for the same key (idempotent).
	SaveRecord(record *SignedRecord) error

	// LoadRecord retrieves a record by sender address and sequence.
	// Returns nil if the record doesn't exist, error only on storage failure.
	LoadRecord(sender string, sequence uint64) (*SignedRecord, error)

	// ListRecords returns all records for a sender sorted by sequence
	// (ascending). Returns an empty slice if none exist.
	ListRecords(sender string) ([]*SignedRecord, error)

	// DeleteRecord removes a record. Idempotent - returns nil if the record
	// doesn't exist. Returns error only on storage failure.
	DeleteRecord(sender string, sequence uint64) error

	// Close cleanly shuts down the store. Idempotent - safe to call multiple
	// times. After Close(), all other operations return errors.
	Close() error

	// HealthCheck verifies the store is operational. Returns nil if healthy.
	HealthCheck() error
}
