package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/meridian-network/signer-go/pkg/persistence"
)

// MemoryRecordStore is an in-memory implementation of IRecordStore,
// intended for tests and throwaway CLI runs. All data is lost when the
// process exits. Thread-safe; data is deep-copied on the way in and out to
// prevent external mutation.
type MemoryRecordStore struct {
	mu sync.RWMutex

	// sender (lowercased) -> sequence -> record
	records map[string]map[uint64]*persistence.SignedRecord

	closed bool
}

var _ persistence.IRecordStore = (*MemoryRecordStore)(nil)

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		records: make(map[string]map[uint64]*persistence.SignedRecord),
	}
}

func (m *MemoryRecordStore) SaveRecord(record *persistence.SignedRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil SignedRecord")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("record store is closed")
	}

	key := strings.ToLower(record.Sender)
	if m.records[key] == nil {
		m.records[key] = make(map[uint64]*persistence.SignedRecord)
	}
	m.records[key][record.Sequence] = copyRecord(record)

	return nil
}

func (m *MemoryRecordStore) LoadRecord(sender string, sequence uint64) (*persistence.SignedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("record store is closed")
	}

	bySeq, ok := m.records[strings.ToLower(sender)]
	if !ok {
		return nil, nil // Not found is not an error
	}
	record, ok := bySeq[sequence]
	if !ok {
		return nil, nil
	}

	return copyRecord(record), nil
}

func (m *MemoryRecordStore) ListRecords(sender string) ([]*persistence.SignedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("record store is closed")
	}

	bySeq := m.records[strings.ToLower(sender)]

	sequences := make([]uint64, 0, len(bySeq))
	for seq := range bySeq {
		sequences = append(sequences, seq)
	}
	sort.Slice(sequences, func(i, j int) bool {
		return sequences[i] < sequences[j]
	})

	result := make([]*persistence.SignedRecord, 0, len(sequences))
	for _, seq := range sequences {
		result = append(result, copyRecord(bySeq[seq]))
	}

	return result, nil
}

func (m *MemoryRecordStore) DeleteRecord(sender string, sequence uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("record store is closed")
	}

	if bySeq, ok := m.records[strings.ToLower(sender)]; ok {
		delete(bySeq, sequence)
	}
	return nil
}

func (m *MemoryRecordStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

func (m *MemoryRecordStore) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("record store is closed")
	}
	return nil
}

func copyRecord(r *persistence.SignedRecord) *persistence.SignedRecord {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
