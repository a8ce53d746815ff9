package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-tree-go/pkg/config"
	"github.com/Layr-Labs/merkle-tree-go/pkg/logger"
	"github.com/Layr-Labs/merkle-tree-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence/badger"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence/memory"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence/redis"
	"github.com/Layr-Labs/merkle-tree-go/pkg/program"
	"github.com/Layr-Labs/merkle-tree-go/pkg/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "merkle-server",
		Usage: "Fixed depth merkle tree program server",
		Description: `Serves fixed depth merkle trees over HTTP.

Each payer owns one tree with 8 leaf slots at an address derived from the
payer and the program id. Leaves are appended one at a time and every insert
returns the new root. Proofs can be folded and checked against a root
without touching any tree.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8000,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvMerklePort},
			},
			&cli.StringFlag{
				Name:    "program-id",
				Usage:   "Program id mixed into derived tree addresses",
				Value:   config.DefaultProgramID,
				EnvVars: []string{config.EnvMerkleProgramID},
			},
			&cli.StringFlag{
				Name:    "hasher",
				Usage:   fmt.Sprintf("Hash function for every tree: %v", merkle.SupportedHashers()),
				Value:   merkle.HasherSHA256,
				EnvVars: []string{config.EnvMerkleHasher},
			},
			&cli.StringFlag{
				Name:    "persistence-type",
				Usage:   fmt.Sprintf("Account storage backend: %s", config.GetSupportedPersistenceTypesString()),
				Value:   config.PersistenceTypeBadger.String(),
				EnvVars: []string{config.EnvMerklePersistenceType},
			},
			&cli.StringFlag{
				Name:    "data-path",
				Usage:   "Badger data directory",
				Value:   "./data/merkle",
				EnvVars: []string{config.EnvMerkleDataPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis server address (host:port)",
				EnvVars: []string{config.EnvMerkleRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvMerkleRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				EnvVars: []string{config.EnvMerkleRedisDB},
			},
			&cli.StringFlag{
				Name:    "redis-key-prefix",
				Usage:   "Prefix prepended to every Redis key",
				EnvVars: []string{config.EnvMerkleRedisKeyPrefix},
			},
			&cli.Float64Flag{
				Name:    "rate-limit",
				Usage:   "Sustained requests per second, 0 disables limiting",
				Value:   100,
				EnvVars: []string{config.EnvMerkleRateLimit},
			},
			&cli.IntFlag{
				Name:    "rate-burst",
				Usage:   "Requests allowed above the sustained rate",
				Value:   200,
				EnvVars: []string{config.EnvMerkleRateBurst},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvMerkleVerbose},
			},
		},
		Action: runMerkleServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runMerkleServer(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	serverConfig := parseServerConfig(c)
	if err := serverConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	hasher, err := serverConfig.MerkleHasher()
	if err != nil {
		return err
	}

	store, err := newPersistence(&serverConfig.Persistence, l)
	if err != nil {
		return fmt.Errorf("failed to create persistence: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Sugar().Errorw("Failed to close persistence", "error", err)
		}
	}()

	proc, err := program.NewProcessor(&program.Config{
		ProgramID: serverConfig.ProgramAddress(),
		Hasher:    hasher,
	}, store, l)
	if err != nil {
		return fmt.Errorf("failed to create processor: %w", err)
	}

	srv, err := server.NewServer(&server.Config{
		Port:      serverConfig.Port,
		RateLimit: serverConfig.RateLimit,
		RateBurst: serverConfig.RateBurst,
	}, proc, l)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if serverConfig.Debug {
		l.Sugar().Infow("Merkle Server Configuration",
			"port", serverConfig.Port,
			"program_id", serverConfig.ProgramID,
			"hasher", serverConfig.Hasher,
			"persistence", serverConfig.Persistence.Type,
			"rate_limit", serverConfig.RateLimit,
			"rate_burst", serverConfig.RateBurst)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	l.Sugar().Infow("Merkle Server running", "port", serverConfig.Port, "program_id", serverConfig.ProgramID)
	l.Sugar().Infow("Available endpoints",
		"instructions", "POST /v1/instructions",
		"trees", "GET /v1/trees/{address}",
		"proof", "GET /v1/trees/{address}/proof/{index}",
		"address", "GET /v1/address?payer=",
		"health", "GET /health")
	l.Sugar().Info("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	l.Sugar().Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func parseServerConfig(c *cli.Context) *config.ServerConfig {
	return &config.ServerConfig{
		Port:      c.Int("port"),
		ProgramID: c.String("program-id"),
		Hasher:    c.String("hasher"),
		Persistence: config.PersistenceConfig{
			Type:     config.PersistenceType(c.String("persistence-type")),
			DataPath: c.String("data-path"),
			Redis: config.RedisConfig{
				Address:   c.String("redis-address"),
				Password:  c.String("redis-password"),
				DB:        c.Int("redis-db"),
				KeyPrefix: c.String("redis-key-prefix"),
			},
		},
		RateLimit: c.Float64("rate-limit"),
		RateBurst: c.Int("rate-burst"),
		Debug:     c.Bool("verbose"),
	}
}

func newPersistence(cfg *config.PersistenceConfig, l *zap.Logger) (persistence.IAccountPersistence, error) {
	switch cfg.Type {
	case config.PersistenceTypeMemory:
		return memory.NewMemoryPersistence(), nil
	case config.PersistenceTypeBadger:
		return badger.NewBadgerPersistence(cfg.DataPath, l)
	case config.PersistenceTypeRedis:
		return redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, l)
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s", cfg.Type)
	}
}
