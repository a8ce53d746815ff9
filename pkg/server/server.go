package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Layr-Labs/merkle-tree-go/pkg/program"
)

/*
Server exposes the merkle tree program over HTTP.

Instruction Flow:
  POST /v1/instructions:
    - Request: { payer, tree, data } with data the hex encoded instruction bytes
    - Tag 0 initializes the tree account derived for payer
    - Tag 1 appends a 32 byte leaf to tree and returns the new root
    - Tags 2 and 3 fold a proof without touching any account
    - Response: { instruction, tree, root, nextLeafIndex, computedRoot, logs }

Query Flow:
  GET /v1/trees                           every stored tree
  GET /v1/trees/{address}                 nodes, root and next leaf index of one tree
  GET /v1/trees/{address}/proof/{index}   authentication path of a populated leaf
  GET /v1/address?payer=0x...             tree address derived for a payer
  GET /health                             persistence health

Errors:
  Malformed payloads map to 400, full or already initialized trees to 409,
  unknown trees to 404 and proofs that do not reproduce the root to 422.
  Every response carries an X-Request-Id header.
*/

const (
	readHeaderTimeout = 5 * time.Second
	maxBodyBytes      = 64 << 10
)

// Config holds the HTTP server settings
type Config struct {
	Port int

	// RateLimit is the sustained requests per second across all clients. Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Server handles HTTP requests for the program
type Server struct {
	processor  *program.Processor
	logger     *zap.Logger
	limiter    *rate.Limiter
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(cfg *Config, processor *program.Processor, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Server{
		processor: processor,
		logger:    logger,
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/v1/instructions", s.handleInstruction)

	mux.HandleFunc("/v1/trees", s.handleListTrees)
	mux.HandleFunc("/v1/trees/{address}", s.handleGetTree)
	mux.HandleFunc("/v1/trees/{address}/proof/{index}", s.handleGetProof)

	mux.HandleFunc("/v1/address", s.handleDeriveAddress)

	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.withRequestID(s.withLogging(s.withRateLimit(mux))),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server", "port", s.httpServer.Addr, "program_id", s.processor.ProgramID().Hex())
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx is done
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Stop stops the HTTP server immediately
func (s *Server) Stop() error {
	return s.httpServer.Close()
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
