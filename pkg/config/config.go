package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/Layr-Labs/merkle-tree-go/pkg/merkle"
)

// Environment variable names for merkle server configuration
const (
	EnvMerklePort            = "MERKLE_PORT"
	EnvMerkleProgramID       = "MERKLE_PROGRAM_ID"
	EnvMerkleHasher          = "MERKLE_HASHER"
	EnvMerklePersistenceType = "MERKLE_PERSISTENCE_TYPE"
	EnvMerkleDataPath        = "MERKLE_DATA_PATH"
	EnvMerkleRedisAddress    = "MERKLE_REDIS_ADDRESS"
	EnvMerkleRedisPassword   = "MERKLE_REDIS_PASSWORD"
	EnvMerkleRedisDB         = "MERKLE_REDIS_DB"
	EnvMerkleRedisKeyPrefix  = "MERKLE_REDIS_KEY_PREFIX"
	EnvMerkleRateLimit       = "MERKLE_RATE_LIMIT"
	EnvMerkleRateBurst       = "MERKLE_RATE_BURST"
	EnvMerkleVerbose         = "MERKLE_VERBOSE"

	// Client side
	EnvMerkleServerURL = "MERKLE_SERVER_URL"
	EnvMerklePayer     = "MERKLE_PAYER"
)

// DefaultProgramID is the program id used when none is configured. Tree
// addresses depend on it, so every server sharing storage must agree on it.
const DefaultProgramID = "0x6d65726b6c652d747265652d70726f6772616d00"

type PersistenceType string

func (p PersistenceType) String() string {
	return string(p)
}

const (
	PersistenceTypeMemory PersistenceType = "memory"
	PersistenceTypeBadger PersistenceType = "badger"
	PersistenceTypeRedis  PersistenceType = "redis"
)

// GetSupportedPersistenceTypes returns every persistence backend the server can run on
func GetSupportedPersistenceTypes() []PersistenceType {
	return []PersistenceType{
		PersistenceTypeMemory,
		PersistenceTypeBadger,
		PersistenceTypeRedis,
	}
}

// GetSupportedPersistenceTypesString returns supported persistence types for CLI help
func GetSupportedPersistenceTypesString() string {
	types := GetSupportedPersistenceTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

type RedisConfig struct {
	Address   string `json:"address" yaml:"address"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
}

type PersistenceConfig struct {
	Type     PersistenceType `json:"type" yaml:"type"`
	DataPath string          `json:"dataPath" yaml:"dataPath"` // badger only
	Redis    RedisConfig     `json:"redis" yaml:"redis"`
}

// ServerConfig represents the complete configuration for a merkle server
type ServerConfig struct {
	Port int `json:"port"`

	// ProgramID is mixed into every derived tree address
	ProgramID string `json:"program_id"`

	// Hasher names the hash function used by every tree this server touches
	Hasher string `json:"hasher"`

	Persistence PersistenceConfig `json:"persistence"`

	// RateLimit is the sustained requests per second accepted by the HTTP server. Zero disables limiting.
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`

	Debug bool `json:"debug"`
}

// Validate validates the server configuration, reporting every invalid field at once
func (c *ServerConfig) Validate() error {
	var allErrors field.ErrorList

	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "port must be between 1-65535"))
	}

	if c.ProgramID == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("programId"), "programId is required"))
	} else if !common.IsHexAddress(c.ProgramID) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("programId"), c.ProgramID, "programId must be a 20 byte hex address"))
	}

	if _, err := merkle.HasherByName(c.Hasher); err != nil {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("hasher"), c.Hasher, merkle.SupportedHashers()))
	}

	allErrors = append(allErrors, c.Persistence.validate(field.NewPath("persistence"))...)

	if c.RateLimit < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateLimit"), c.RateLimit, "rateLimit cannot be negative"))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateBurst"), c.RateBurst, "rateBurst must be at least 1 when rate limiting is enabled"))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func (p *PersistenceConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList

	switch p.Type {
	case PersistenceTypeMemory:
	case PersistenceTypeBadger:
		if p.DataPath == "" {
			allErrors = append(allErrors, field.Required(path.Child("dataPath"), "dataPath is required for badger persistence"))
		}
	case PersistenceTypeRedis:
		if p.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(path.Child("redis", "address"), "address is required for redis persistence"))
		}
		if p.Redis.DB < 0 || p.Redis.DB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redis", "db"), p.Redis.DB, "db must be between 0-15"))
		}
	default:
		supported := make([]string, 0, 3)
		for _, t := range GetSupportedPersistenceTypes() {
			supported = append(supported, t.String())
		}
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), p.Type, supported))
	}

	return allErrors
}

// ProgramAddress returns the parsed program id. Only meaningful after Validate succeeds.
func (c *ServerConfig) ProgramAddress() common.Address {
	return common.HexToAddress(c.ProgramID)
}

// MerkleHasher resolves the configured hasher.
func (c *ServerConfig) MerkleHasher() (merkle.Hasher, error) {
	h, err := merkle.HasherByName(c.Hasher)
	if err != nil {
		return nil, fmt.Errorf("invalid hasher: %w", err)
	}
	return h, nil
}
