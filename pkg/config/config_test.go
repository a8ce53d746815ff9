package config

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-tree-go/pkg/merkle"
)

func validConfig() *ServerConfig {
	return &ServerConfig{
		Port:      8000,
		ProgramID: DefaultProgramID,
		Hasher:    merkle.HasherSHA256,
		Persistence: PersistenceConfig{
			Type: PersistenceTypeMemory,
		},
		RateLimit: 50,
		RateBurst: 100,
	}
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ServerConfig)
		wantErr string
	}{
		{name: "valid memory", mutate: func(c *ServerConfig) {}},
		{
			name: "valid badger",
			mutate: func(c *ServerConfig) {
				c.Persistence = PersistenceConfig{Type: PersistenceTypeBadger, DataPath: "/tmp/merkle"}
			},
		},
		{
			name: "valid redis",
			mutate: func(c *ServerConfig) {
				c.Persistence = PersistenceConfig{Type: PersistenceTypeRedis, Redis: RedisConfig{Address: "localhost:6379"}}
			},
		},
		{name: "rate limit disabled", mutate: func(c *ServerConfig) { c.RateLimit = 0; c.RateBurst = 0 }},
		{name: "port zero", mutate: func(c *ServerConfig) { c.Port = 0 }, wantErr: "port"},
		{name: "port too large", mutate: func(c *ServerConfig) { c.Port = 70000 }, wantErr: "port"},
		{name: "missing program id", mutate: func(c *ServerConfig) { c.ProgramID = "" }, wantErr: "programId"},
		{name: "malformed program id", mutate: func(c *ServerConfig) { c.ProgramID = "0x1234" }, wantErr: "programId"},
		{name: "unknown hasher", mutate: func(c *ServerConfig) { c.Hasher = "md5" }, wantErr: "hasher"},
		{
			name:    "badger without path",
			mutate:  func(c *ServerConfig) { c.Persistence = PersistenceConfig{Type: PersistenceTypeBadger} },
			wantErr: "persistence.dataPath",
		},
		{
			name:    "redis without address",
			mutate:  func(c *ServerConfig) { c.Persistence = PersistenceConfig{Type: PersistenceTypeRedis} },
			wantErr: "persistence.redis.address",
		},
		{
			name: "redis db out of range",
			mutate: func(c *ServerConfig) {
				c.Persistence = PersistenceConfig{Type: PersistenceTypeRedis, Redis: RedisConfig{Address: "localhost:6379", DB: 16}}
			},
			wantErr: "persistence.redis.db",
		},
		{
			name:    "unknown persistence",
			mutate:  func(c *ServerConfig) { c.Persistence.Type = "postgres" },
			wantErr: "persistence.type",
		},
		{name: "negative rate limit", mutate: func(c *ServerConfig) { c.RateLimit = -1 }, wantErr: "rateLimit"},
		{name: "zero burst", mutate: func(c *ServerConfig) { c.RateBurst = 0 }, wantErr: "rateBurst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServerConfig_Validate_ReportsAllErrors(t *testing.T) {
	c := validConfig()
	c.Port = 0
	c.Hasher = "md5"

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "hasher")
}

func TestServerConfig_Accessors(t *testing.T) {
	c := validConfig()
	c.Hasher = merkle.HasherKeccak256

	h, err := c.MerkleHasher()
	require.NoError(t, err)
	assert.Equal(t, merkle.HasherKeccak256, h.ID())
	assert.Equal(t, common.HexToAddress(DefaultProgramID), c.ProgramAddress())
}

func TestGetSupportedPersistenceTypesString(t *testing.T) {
	assert.Equal(t, "memory, badger, redis", GetSupportedPersistenceTypesString())
}
