package storage

import (
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	raw, err := openBolt(filepath.Join(t.TempDir(), "nested", "journal.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := raw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func (b *boltStore) count(t *testing.T) int {
	t.Helper()
	var n int
	if err := b.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(deliveryBucket)).Stats().KeyN
		return nil
	}); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestBoltStoreMarksAndExpiresDeliveries(t *testing.T) {
	store := openTestStore(t, Options{EntryTTL: time.Minute, CleanupInterval: time.Hour})
	clock := time.Now()
	store.now = func() time.Time { return clock }

	delivered, err := store.Delivered("greeting")
	if err != nil || delivered {
		t.Fatalf("expected undelivered entry, delivered=%v err=%v", delivered, err)
	}

	if err := store.MarkDelivered("greeting"); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}

	delivered, err = store.Delivered("greeting")
	if err != nil || !delivered {
		t.Fatalf("expected entry delivered, got delivered=%v err=%v", delivered, err)
	}

	clock = clock.Add(2 * time.Minute)
	delivered, err = store.Delivered("greeting")
	if err != nil {
		t.Fatalf("Delivered after expiry: %v", err)
	}
	if delivered {
		t.Fatalf("expected entry to expire")
	}
	if n := store.count(t); n != 0 {
		t.Fatalf("expected expired key removed, %d left", n)
	}
}

func TestBoltStoreCleanupSweepsAdjacentExpiredKeys(t *testing.T) {
	store := openTestStore(t, Options{EntryTTL: time.Minute, CleanupInterval: time.Minute})
	clock := time.Now()
	store.now = func() time.Time { return clock }

	for _, id := range []string{"a", "b", "c", "d"} {
		if err := store.MarkDelivered(id); err != nil {
			t.Fatalf("MarkDelivered(%s): %v", id, err)
		}
	}

	clock = clock.Add(5 * time.Minute)
	if err := store.MarkDelivered("fresh"); err != nil {
		t.Fatalf("MarkDelivered(fresh): %v", err)
	}
	if n := store.count(t); n != 1 {
		t.Fatalf("expected only the fresh key after cleanup, got %d", n)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkDelivered("x"); err != nil {
		t.Fatalf("noop store MarkDelivered: %v", err)
	}
	if delivered, _ := store.Delivered("x"); delivered {
		t.Fatalf("noop store should never report deliveries")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
