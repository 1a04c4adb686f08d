package cache

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umakantv/go-utils/cache"
	"github.com/umakantv/go-utils/logger"
)

func TestMain(m *testing.M) {
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})
	os.Exit(m.Run())
}

func newMemoryCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.New(cache.Config{Type: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func present(c cache.Cache, key string) bool {
	v, err := c.Get(key)
	return err == nil && v != nil
}

func TestNewCodeLedger_NilCache(t *testing.T) {
	assert.Nil(t, NewCodeLedger(nil))
}

func TestCodeLedger_SeenAfterRemember(t *testing.T) {
	ledger := NewCodeLedger(newMemoryCache(t))

	assert.False(t, ledger.Seen("4/0AX4XfWh-code"))
	require.NoError(t, ledger.Remember("4/0AX4XfWh-code"))
	assert.True(t, ledger.Seen("4/0AX4XfWh-code"))
	assert.False(t, ledger.Seen("4/0AX4XfWh-other"))
}

func TestCodeLedger_StoresDigestOnly(t *testing.T) {
	c := newMemoryCache(t)
	ledger := NewCodeLedger(c)
	require.NoError(t, ledger.Remember("raw-code"))

	assert.True(t, present(c, codeKey("raw-code")))
	assert.False(t, present(c, "raw-code"))
	assert.False(t, present(c, codeKeyPrefix+"raw-code"))

	key := codeKey("raw-code")
	assert.NotContains(t, key, "raw-code")
	assert.Len(t, key, len(codeKeyPrefix)+64)
}
