package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/psimmons86/playdates-server/internal/store"
	"github.com/psimmons86/playdates-server/internal/store/storetest"
)

func makeMongoStore(t *testing.T) store.Store {
	t.Helper()
	uri := os.Getenv("PLAYDATES_MONGO_URI")
	if uri == "" {
		t.Skip("PLAYDATES_MONGO_URI not set; skipping mongo store integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := Open(ctx, uri)
	if err != nil {
		t.Fatalf("mongo open: %v", err)
	}
	// One database per suite run keeps tests isolated.
	dbName := "playdates_test_" + uuid.New().String()[:8]
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Database(dbName).Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return NewWithClient(client, dbName)
}

func TestMongoStore_Compliance(t *testing.T) {
	storetest.Run(t, makeMongoStore)
}
