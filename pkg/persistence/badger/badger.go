package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/meridian-network/signer-go/pkg/persistence"
)

// Key layout for namespacing
const (
	keyPrefixRecord      = "record:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// BadgerRecordStore is a durable, disk-based IRecordStore backed by Badger.
type BadgerRecordStore struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

var _ persistence.IRecordStore = (*BadgerRecordStore)(nil)

// NewBadgerRecordStore opens (or creates) a Badger database at dataPath with
// SyncWrites enabled and starts a background value-log GC goroutine.
func NewBadgerRecordStore(dataPath string, logger *zap.Logger) (*BadgerRecordStore, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true // fsync on every write; a lost audit record defeats the store
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bs := &BadgerRecordStore{
		db:     db,
		logger: logger,
	}

	if err := bs.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bs.gcCancel = cancel
	bs.gcWg.Add(1)
	go bs.runGC(ctx)

	logger.Sugar().Infow("Badger record store initialized", "path", absPath)

	return bs, nil
}

func (b *BadgerRecordStore) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}
		return nil
	})
}

func (b *BadgerRecordStore) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *BadgerRecordStore) SaveRecord(record *persistence.SignedRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil SignedRecord")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("record store is closed")
	}

	data, err := persistence.MarshalSignedRecord(record)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	key := recordKey(record.Sender, record.Sequence)
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, data)
	})
}

func (b *BadgerRecordStore) LoadRecord(sender string, sequence uint64) (*persistence.SignedRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("record store is closed")
	}

	var record *persistence.SignedRecord
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(recordKey(sender, sequence))
		if err == badgerdb.ErrKeyNotFound {
			return nil // Not found is not an error
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = persistence.UnmarshalSignedRecord(val)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	return record, nil
}

func (b *BadgerRecordStore) ListRecords(sender string) ([]*persistence.SignedRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("record store is closed")
	}

	prefix := []byte(keyPrefixRecord + strings.ToLower(sender) + ":")
	result := make([]*persistence.SignedRecord, 0)

	err := b.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()

		// Sequence numbers are zero-padded in the key, so prefix iteration
		// yields records in ascending sequence order.
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				record, err := persistence.UnmarshalSignedRecord(val)
				if err != nil {
					return err
				}
				result = append(result, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return result, nil
}

func (b *BadgerRecordStore) DeleteRecord(sender string, sequence uint64) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("record store is closed")
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(recordKey(sender, sequence))
	})
}

func (b *BadgerRecordStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	b.gcCancel()
	b.gcWg.Wait()

	return b.db.Close()
}

func (b *BadgerRecordStore) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("record store is closed")
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err != nil && err != badgerdb.ErrKeyNotFound {
			return fmt.Errorf("badger health check failed: %w", err)
		}
		return nil
	})
}

// recordKey builds "record:<sender>:<sequence>" with the sender lowercased
// and the sequence zero-padded to 20 digits so lexicographic key order
// matches numeric sequence order.
func recordKey(sender string, sequence uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", keyPrefixRecord, strings.ToLower(sender), sequence))
}
