package episode

import (
	"context"
	"testing"
)

func TestMemoryStoreAppendAndByTree(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()

	id, err := store.Append(ctx, Record{
		TreeID:  "tree-1",
		Event:   "failure_raised",
		Path:    "/deliver/grasp",
		Kind:    "grasp-lost",
		Message: "gripper slipped",
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty record ID")
	}

	store.Append(ctx, Record{TreeID: "tree-1", Event: "scope_retry", Message: "retrying"})
	store.Append(ctx, Record{TreeID: "tree-2", Event: "run_started", Message: "other run"})

	records, err := store.ByTree(ctx, "tree-1")
	if err != nil {
		t.Fatalf("ByTree failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ByTree returned %d records, want 2", len(records))
	}
	if records[0].Event != "failure_raised" || records[1].Event != "scope_retry" {
		t.Errorf("records out of order: %v, %v", records[0].Event, records[1].Event)
	}
	if records[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not assigned")
	}
}

func TestMemoryStoreSearch(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	store.Append(ctx, Record{TreeID: "t", Event: "failure_raised", Kind: "grasp-lost", Message: "gripper slipped"})
	store.Append(ctx, Record{TreeID: "t", Event: "failure_raised", Kind: "nav-stuck", Message: "no route"})
	store.Append(ctx, Record{TreeID: "t", Event: "scope_retry", Message: "retrying grasp"})

	hits, err := store.Search(ctx, "grasp", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("Search returned %d hits, want 2", len(hits))
	}

	hits, _ = store.Search(ctx, "grasp retry", 10)
	if len(hits) != 1 || hits[0].Event != "scope_retry" {
		t.Errorf("multi-term search = %v", hits)
	}

	if hits, _ := store.Search(ctx, "", 10); len(hits) != 0 {
		t.Errorf("empty query returned %d hits", len(hits))
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	store := NewMemoryStore()
	store.Close()

	if _, err := store.Append(context.Background(), Record{TreeID: "t"}); err != ErrClosed {
		t.Errorf("Append after Close = %v, want ErrClosed", err)
	}
	if _, err := store.ByTree(context.Background(), "t"); err != ErrClosed {
		t.Errorf("ByTree after Close = %v, want ErrClosed", err)
	}
}

func TestScopeRecordsToOwnTree(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	scope := NewScope(store, "tree-9")
	ctx := context.Background()

	if err := scope.Record(ctx, "run_started", "/", "", "top level entered"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	scope.Record(ctx, "failure_raised", "/nav", "nav-stuck", "no route")

	history, err := scope.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History returned %d records, want 2", len(history))
	}
	for _, rec := range history {
		if rec.TreeID != "tree-9" {
			t.Errorf("record tree = %s, want tree-9", rec.TreeID)
		}
	}
}

func TestNilScopeIsInert(t *testing.T) {
	var scope *Scope
	if err := scope.Record(context.Background(), "e", "", "", ""); err != nil {
		t.Errorf("nil scope Record = %v", err)
	}
	if recs, err := scope.History(context.Background()); err != nil || recs != nil {
		t.Errorf("nil scope History = (%v, %v)", recs, err)
	}
}

func TestBleveStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping bleve index test in short mode")
	}

	store, err := NewBleveStore(BleveStoreConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("NewBleveStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.Append(ctx, Record{
		TreeID:  "tree-1",
		Event:   "failure_raised",
		Path:    "/deliver/grasp",
		Kind:    "grasp-lost",
		Message: "gripper slipped on wet surface",
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	store.Append(ctx, Record{TreeID: "tree-1", Event: "run_finished", Message: "recovered"})

	records, err := store.ByTree(ctx, "tree-1")
	if err != nil {
		t.Fatalf("ByTree failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ByTree returned %d records, want 2", len(records))
	}

	hits, err := store.Search(ctx, "slipped", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Kind != "grasp-lost" {
		t.Errorf("Search = %v", hits)
	}
}
