package badger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-tree-go/pkg/logger"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-tree-go/pkg/persistence/persistencetest"
)

func newTestBadger(t *testing.T, dir string) *BadgerPersistence {
	t.Helper()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	bp, err := NewBadgerPersistence(dir, testLogger)
	require.NoError(t, err)
	return bp
}

func TestBadgerPersistence_Compliance(t *testing.T) {
	persistencetest.TestPersistenceCompliance(t, func(t *testing.T) persistence.IAccountPersistence {
		return newTestBadger(t, t.TempDir())
	})
}

func TestBadgerPersistence_Persistence_AcrossRestarts(t *testing.T) {
	tmpDir := t.TempDir()

	// First instance - save data
	bp1 := newTestBadger(t, tmpDir)
	account := persistencetest.NewAccount(481)
	require.NoError(t, bp1.CreateAccount(account))
	require.NoError(t, bp1.Close())

	// Second instance - verify data persisted
	bp2 := newTestBadger(t, tmpDir)
	defer func() { _ = bp2.Close() }()

	loaded, err := bp2.LoadAccount(account.Address)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []byte(account.Data), []byte(loaded.Data))

	// allocation is still enforced after restart
	err = bp2.CreateAccount(account)
	assert.ErrorIs(t, err, persistence.ErrAccountExists)
}

func TestBadgerPersistence_HealthCheck(t *testing.T) {
	bp := newTestBadger(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	require.NoError(t, bp.HealthCheck())
}
