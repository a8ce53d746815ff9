package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-tree-go/pkg/logger"
	"github.com/Layr-Labs/merkle-tree-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence/memory"
	"github.com/Layr-Labs/merkle-tree-go/pkg/program"
	"github.com/Layr-Labs/merkle-tree-go/pkg/server"
)

// TestProgramID is the program id used by test servers unless overridden
var TestProgramID = common.HexToAddress("0x5b5cf7d5c8e1a9b3e2f4d6c8a0b2c4e6f8a0b2c4")

// TestServer is a merkle server running on an httptest listener
type TestServer struct {
	HTTP      *httptest.Server
	URL       string
	Processor *program.Processor
	Store     persistence.IAccountPersistence
	logger    *zap.Logger
}

type testServerOptions struct {
	programID common.Address
	hasher    merkle.Hasher
	store     persistence.IAccountPersistence
	server    server.Config
}

// Option customizes NewTestServer
type Option func(*testServerOptions)

// WithHasher selects the hasher of every tree on the server
func WithHasher(h merkle.Hasher) Option {
	return func(o *testServerOptions) { o.hasher = h }
}

// WithPersistence runs the server on store. The caller keeps ownership and closes it.
func WithPersistence(store persistence.IAccountPersistence) Option {
	return func(o *testServerOptions) { o.store = store }
}

// WithProgramID overrides TestProgramID
func WithProgramID(id common.Address) Option {
	return func(o *testServerOptions) { o.programID = id }
}

// WithRateLimit enables the server rate limiter
func WithRateLimit(limit float64, burst int) Option {
	return func(o *testServerOptions) {
		o.server.RateLimit = limit
		o.server.RateBurst = burst
	}
}

// NewTestServer starts a merkle server backed by in-memory persistence unless
// WithPersistence is given. It is shut down when the test ends.
func NewTestServer(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	o := &testServerOptions{programID: TestProgramID, hasher: merkle.SHA256()}
	for _, opt := range opts {
		opt(o)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	store := o.store
	if store == nil {
		mem := memory.NewMemoryPersistence()
		t.Cleanup(func() { _ = mem.Close() })
		store = mem
	}

	proc, err := program.NewProcessor(&program.Config{ProgramID: o.programID, Hasher: o.hasher}, store, l)
	if err != nil {
		t.Fatalf("Failed to create processor: %v", err)
	}

	srv, err := server.NewServer(&o.server, proc, l)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	httpServer := httptest.NewServer(srv.GetHandler())
	ts := &TestServer{
		HTTP:      httpServer,
		URL:       httpServer.URL,
		Processor: proc,
		Store:     store,
		logger:    l,
	}
	t.Cleanup(ts.Close)

	l.Sugar().Debugw("Started test server", "url", ts.URL, "hasher", o.hasher.ID())
	return ts
}

// Close shuts down the HTTP listener. It does not close the store.
func (ts *TestServer) Close() {
	ts.HTTP.Close()
}

// Logger returns the logger the server was built with
func (ts *TestServer) Logger() *zap.Logger {
	return ts.logger
}
