package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-ledger/internal/config"
)

func testConfig(t *testing.T, store string) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:   t.TempDir(),
		Store:     store,
		EBooksDir: "ebooks",
		LogLevel:  "error",
		LogFormat: "text",
		LoanDays:  10,
		FineRate:  3,
	}
}

func TestContainerWiresServices(t *testing.T) {
	for _, store := range []string{"file", "sqlite"} {
		t.Run(store, func(t *testing.T) {
			a := New(testConfig(t, store))
			t.Cleanup(func() { a.Close() })

			lib, err := a.Library()
			require.NoError(t, err)
			assert.Equal(t, 10, lib.Policy().LoanDays)
			assert.Equal(t, 3, lib.Policy().FineRate)
			assert.True(t, lib.Policy().OneLoanPerPair)

			acc, err := a.Access()
			require.NoError(t, err)

			// Both services share one store.
			require.NoError(t, acc.Register("ada", "pw", "admin"))
			id, err := lib.AddBook("Shared", "Store", 1)
			require.NoError(t, err)
			assert.Equal(t, int64(1), id)

			again, err := a.Library()
			require.NoError(t, err)
			assert.Same(t, lib, again)
		})
	}
}

func TestLoggerIsShared(t *testing.T) {
	a := New(testConfig(t, "file"))
	assert.Same(t, a.Logger(), a.Logger())
}

func TestCloseWithoutStore(t *testing.T) {
	a := New(testConfig(t, "file"))
	assert.NoError(t, a.Close())
}

func TestUnknownStoreBackend(t *testing.T) {
	a := New(testConfig(t, "postgres"))
	_, err := a.Library()
	assert.Error(t, err)
}
