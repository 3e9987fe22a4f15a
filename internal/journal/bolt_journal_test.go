package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/item-relay/pkg/publishers"
)

func TestBoltJournalReturnsNewestFirst(t *testing.T) {
	j, err := openBolt(filepath.Join(t.TempDir(), "journal.db"), normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer j.Close()

	base := time.Now().UTC()
	for i, op := range []string{"get_call_obj", "get_call_list", "post_call"} {
		evt := publishers.Event{Operation: op, Status: 200, OccurredAt: base.Add(time.Duration(i) * time.Millisecond)}
		if err := j.Publish(context.Background(), evt); err != nil {
			t.Fatalf("Publish %s: %v", op, err)
		}
	}

	events, err := j.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Operation != "post_call" || events[1].Operation != "get_call_list" {
		t.Fatalf("unexpected order: %+v", events)
	}
}

func TestBoltJournalExpiresOldEvents(t *testing.T) {
	opts := Options{TTL: time.Hour, CleanupInterval: time.Minute}
	j, err := openBolt(filepath.Join(t.TempDir(), "journal.db"), opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer j.Close()

	now := time.Now()
	j.now = func() time.Time { return now }

	stale := publishers.Event{Operation: "stale", OccurredAt: now.Add(-2 * time.Hour)}
	if err := j.Publish(context.Background(), stale); err != nil {
		t.Fatalf("Publish stale: %v", err)
	}

	events, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected stale event hidden, got %+v", events)
	}

	// Fast-forward the cleanup cadence so the next publish purges the stale entry.
	j.lastCleanup.Store(now.Add(-2 * time.Minute).Unix())
	fresh := publishers.Event{Operation: "fresh", OccurredAt: now}
	if err := j.Publish(context.Background(), fresh); err != nil {
		t.Fatalf("Publish fresh: %v", err)
	}

	var stored int
	if err := j.db.View(func(tx *bolt.Tx) error {
		stored = tx.Bucket([]byte(eventBucket)).Stats().KeyN
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if stored != 1 {
		t.Fatalf("expected 1 stored event after cleanup, got %d", stored)
	}
}

func TestOpenSupportsNoop(t *testing.T) {
	j, err := Open("none", "", Options{})
	if err != nil {
		t.Fatalf("Open none: %v", err)
	}
	if Enabled(j) {
		t.Fatalf("noop journal should not report enabled")
	}
	if err := j.Publish(context.Background(), publishers.Event{}); err != nil {
		t.Fatalf("noop Publish: %v", err)
	}
}

func TestOpenRejectsUnknownType(t *testing.T) {
	if _, err := Open("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := Open("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
