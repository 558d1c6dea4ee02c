package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meridian-network/signer-go/pkg/persistence"
)

// Key layout for namespacing in Redis
const (
	keyPrefixRecord      = "signer:record:"
	keySchemaVersion     = "signer:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Per-sender index set; Redis doesn't support prefix iteration natively,
	// so sequences are tracked in a set per sender for listing.
	keyPrefixSenderIndex = "signer:records:index:"
)

// RedisRecordStore is an IRecordStore backed by Redis, suitable for
// deployments where several signer instances share one audit trail.
type RedisRecordStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IRecordStore = (*RedisRecordStore)(nil)

// RedisConfig holds the connection settings for Redis.
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys, for multi-tenant
	// setups. If empty, keys use the default "signer:" namespace alone.
	KeyPrefix string
}

func NewRedisRecordStore(cfg *RedisConfig, logger *zap.Logger) (*RedisRecordStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rs := &RedisRecordStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rs.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis record store initialized", "address", cfg.Address)

	return rs, nil
}

func (r *RedisRecordStore) initSchema(ctx context.Context) error {
	key := r.keyPrefix + keySchemaVersion

	existing, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, key, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existing != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existing, currentSchemaVersion)
	}
	return nil
}

func (r *RedisRecordStore) SaveRecord(record *persistence.SignedRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil SignedRecord")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("record store is closed")
	}

	data, err := persistence.MarshalSignedRecord(record)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	ctx := context.Background()
	sender := strings.ToLower(record.Sender)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.recordKey(sender, record.Sequence), data, 0)
	pipe.SAdd(ctx, r.senderIndexKey(sender), record.Sequence)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

func (r *RedisRecordStore) LoadRecord(sender string, sequence uint64) (*persistence.SignedRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("record store is closed")
	}

	ctx := context.Background()
	data, err := r.client.Get(ctx, r.recordKey(strings.ToLower(sender), sequence)).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	return persistence.UnmarshalSignedRecord(data)
}

func (r *RedisRecordStore) ListRecords(sender string) ([]*persistence.SignedRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("record store is closed")
	}

	ctx := context.Background()
	sender = strings.ToLower(sender)

	sequences, err := r.client.SMembers(ctx, r.senderIndexKey(sender)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read sender index: %w", err)
	}

	parsed := make([]uint64, 0, len(sequences))
	for _, s := range sequences {
		var seq uint64
		if _, err := fmt.Sscanf(s, "%d", &seq); err != nil {
			return nil, fmt.Errorf("corrupt sequence %q in sender index: %w", s, err)
		}
		parsed = append(parsed, seq)
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i] < parsed[j] })

	result := make([]*persistence.SignedRecord, 0, len(parsed))
	for _, seq := range parsed {
		data, err := r.client.Get(ctx, r.recordKey(sender, seq)).Bytes()
		if err == redis.Nil {
			// Index entry without a record; skip rather than fail the listing.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load record for sequence %d: %w", seq, err)
		}
		record, err := persistence.UnmarshalSignedRecord(data)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, nil
}

func (r *RedisRecordStore) DeleteRecord(sender string, sequence uint64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("record store is closed")
	}

	ctx := context.Background()
	sender = strings.ToLower(sender)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.recordKey(sender, sequence))
	pipe.SRem(ctx, r.senderIndexKey(sender), sequence)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func (r *RedisRecordStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	return r.client.Close()
}

func (r *RedisRecordStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("record store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (r *RedisRecordStore) recordKey(sender string, sequence uint64) string {
	return fmt.Sprintf("%s%s%s:%d", r.keyPrefix, keyPrefixRecord, sender, sequence)
}

func (r *RedisRecordStore) senderIndexKey(sender string) string {
	return r.keyPrefix + keyPrefixSenderIndex + sender
}
