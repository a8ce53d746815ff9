package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixAccount     = "merkle:account:"
	keySchemaVersion     = "merkle:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Key set for listing operations (Redis doesn't support prefix iteration natively)
	keySetAccounts = "merkle:accounts:index"

	operationTimeout = 5 * time.Second
)

// RedisPersistence is a persistence implementation using Redis.
// Provides durable, distributed storage suitable for cloud-native deployments.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix for all keys
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys (for multi-tenant setups).
	// If set, this prefix is prepended to all keys, e.g., "myapp:" would result in
	// keys like "myapp:merkle:account:0x...". If empty, keys use the default "merkle:" prefix.
	KeyPrefix string
}

// NewRedisPersistence creates a new Redis-backed persistence layer.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
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

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)

	return rp, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisPersistence) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisPersistence) accountKey(address common.Address) string {
	return r.prefixKey(keyPrefixAccount + address.Hex())
}

// initSchema initializes or validates the schema version
func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}

	return nil
}

// CreateAccount allocates a new account with SETNX so concurrent creators race safely
func (r *RedisPersistence) CreateAccount(account *persistence.TreeAccount) error {
	if account == nil {
		return fmt.Errorf("cannot create nil TreeAccount")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	data, err := persistence.MarshalTreeAccount(account)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal TreeAccount %s", account.Address.Hex())
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	created, err := r.client.SetNX(ctx, r.accountKey(account.Address), data, 0).Result()
	if err != nil {
		return errors.Wrapf(err, "failed to create TreeAccount %s", account.Address.Hex())
	}
	if !created {
		return fmt.Errorf("%w: %s", persistence.ErrAccountExists, account.Address.Hex())
	}

	// the index is written after the value so listed members always resolve
	if err := r.client.SAdd(ctx, r.prefixKey(keySetAccounts), account.Address.Hex()).Err(); err != nil {
		return errors.Wrapf(err, "failed to index TreeAccount %s", account.Address.Hex())
	}

	return nil
}

// SaveAccount persists an account
func (r *RedisPersistence) SaveAccount(account *persistence.TreeAccount) error {
	if account == nil {
		return fmt.Errorf("cannot save nil TreeAccount")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	data, err := persistence.MarshalTreeAccount(account)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal TreeAccount %s", account.Address.Hex())
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.accountKey(account.Address), data, 0)
	pipe.SAdd(ctx, r.prefixKey(keySetAccounts), account.Address.Hex())

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to save TreeAccount %s", account.Address.Hex())
	}

	return nil
}

// LoadAccount retrieves an account
func (r *RedisPersistence) LoadAccount(address common.Address) (*persistence.TreeAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.accountKey(address)).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load TreeAccount %s", address.Hex())
	}

	account, err := persistence.UnmarshalTreeAccount(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal TreeAccount %s", address.Hex())
	}

	return account, nil
}

// ListAccounts returns all accounts sorted by address
func (r *RedisPersistence) ListAccounts() ([]*persistence.TreeAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	addresses, err := r.client.SMembers(ctx, r.prefixKey(keySetAccounts)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list TreeAccount addresses: %w", err)
	}

	accounts := []*persistence.TreeAccount{}
	if len(addresses) == 0 {
		return accounts, nil
	}

	keys := make([]string, len(addresses))
	for i, addr := range addresses {
		keys[i] = r.prefixKey(keyPrefixAccount + addr)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch TreeAccounts: %w", err)
	}

	for i, val := range values {
		if val == nil {
			// deleted between SMEMBERS and MGET
			continue
		}

		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for TreeAccount", "key", keys[i])
			continue
		}

		account, err := persistence.UnmarshalTreeAccount([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal TreeAccount, skipping",
				"key", keys[i], "error", err)
			continue
		}

		accounts = append(accounts, account)
	}

	persistence.SortAccounts(accounts)

	return accounts, nil
}

// DeleteAccount removes an account
func (r *RedisPersistence) DeleteAccount(address common.Address) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.accountKey(address))
	pipe.SRem(ctx, r.prefixKey(keySetAccounts), address.Hex())

	_, err := pipe.Exec(ctx)
	return err
}

// Close shuts down the persistence layer
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil // Already closed, idempotent
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}

	return nil
}
