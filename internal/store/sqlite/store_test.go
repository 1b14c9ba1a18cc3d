package sqlite

import (
	"testing"

	"github.com/psimmons86/playdates-server/internal/store"
	"github.com/psimmons86/playdates-server/internal/store/storetest"
)

func TestSQLiteStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(":memory:")
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		return s
	})
}
