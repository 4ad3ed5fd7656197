package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.WithWriter(io.Discard))
	os.Exit(m.Run())
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	// Missing document
	if _, ok, err := s.Get(ctx, model.CollectionBookings, "nope"); err != nil || ok {
		t.Fatalf("expected missing document, got ok=%v err=%v", ok, err)
	}

	// Insert then overwrite
	first := model.Document{"valueWt": 100.0, "stage": "S", "extra": "gone after overwrite"}
	if err := s.Set(ctx, model.CollectionBookings, "A", first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := model.Document{"valueWt": 50.5, "stage": "X"}
	if err := s.Set(ctx, model.CollectionBookings, "A", second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := s.Get(ctx, model.CollectionBookings, "A")
	if err != nil || !ok {
		t.Fatalf("expected document, got ok=%v err=%v", ok, err)
	}
	if got["valueWt"] != 50.5 || got["stage"] != "X" {
		t.Errorf("unexpected document: %#v", got)
	}
	if _, exists := got["extra"]; exists {
		t.Errorf("set must fully overwrite, found stale field")
	}

	// Same key in another collection is independent
	if _, ok, _ := s.Get(ctx, model.CollectionProposals, "A"); ok {
		t.Error("collections must not share keys")
	}

	// Null values survive the round trip
	if err := s.Set(ctx, model.CollectionOverall, "bookings", model.Document{"soldPercent": nil, "soldPercentAvailable": false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	overall, _, _ := s.Get(ctx, model.CollectionOverall, "bookings")
	if v, exists := overall["soldPercent"]; !exists || v != nil {
		t.Errorf("expected explicit null, got %#v", overall)
	}

	// Delete, twice
	if err := s.Delete(ctx, model.CollectionBookings, "A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Delete(ctx, model.CollectionBookings, "A"); err != nil {
		t.Fatalf("deleting a missing document should not fail: %v", err)
	}
	if _, ok, _ := s.Get(ctx, model.CollectionBookings, "A"); ok {
		t.Error("expected document to be deleted")
	}

	// Concurrent writes to distinct keys
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			if err := s.Set(ctx, model.CollectionProposals, key, model.Document{"n": float64(i)}); err != nil {
				t.Errorf("concurrent set %s: %v", key, err)
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < 20; i++ {
		doc, ok, err := s.Get(ctx, model.CollectionProposals, string(rune('a'+i)))
		if err != nil || !ok || doc["n"] != float64(i) {
			t.Errorf("key %d: ok=%v err=%v doc=%v", i, ok, err, doc)
		}
	}

	// Closed store is unavailable
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Set(ctx, model.CollectionBookings, "B", model.Document{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable after close, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	doc := model.Document{"stage": "S"}
	if err := s.Set(ctx, "c", "k", doc); err != nil {
		t.Fatal(err)
	}
	doc["stage"] = "mutated"

	got, _, _ := s.Get(ctx, "c", "k")
	if got["stage"] != "S" {
		t.Errorf("store must not alias caller documents, got %v", got["stage"])
	}
	got["stage"] = "mutated again"
	again, _, _ := s.Get(ctx, "c", "k")
	if again["stage"] != "S" {
		t.Errorf("store must not alias returned documents, got %v", again["stage"])
	}
	if s.Count("c") != 1 {
		t.Errorf("expected count 1, got %d", s.Count("c"))
	}
}

func TestMemoryStore_TimesBecomeStrings(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ts := time.Date(2021, time.March, 4, 0, 0, 0, 0, time.UTC)
	if err := s.Set(ctx, "c", "k", model.Document{"cttSignDate": ts}); err != nil {
		t.Fatal(err)
	}
	got, _, _ := s.Get(ctx, "c", "k")
	if got["cttSignDate"] != "2021-03-04T00:00:00Z" {
		t.Errorf("unexpected encoded time %#v", got["cttSignDate"])
	}
}

func TestMemoryStore_InvalidDocument(t *testing.T) {
	s := NewMemoryStore()
	err := s.Set(context.Background(), "c", "k", model.Document{"bad": make(chan int)})
	if !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bizboard.db")
	s, err := NewSQLiteStore(context.Background(), path, WithTable("docs_test"), WithMaxOpenConns(2))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	exerciseStore(t, s)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bizboard.db")

	s, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := s.Set(ctx, model.CollectionConstants, model.ConstantsBookings, model.Document{model.FieldTarget: 200.0}); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer func() { _ = s.Close() }()
	doc, ok, err := s.Get(ctx, model.CollectionConstants, model.ConstantsBookings)
	if err != nil || !ok || doc[model.FieldTarget] != 200.0 {
		t.Errorf("expected persisted target, got ok=%v err=%v doc=%v", ok, err, doc)
	}
}

func TestSQLiteStore_MemoryDatabase(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	exerciseStore(t, s)
}

func TestSQLiteStore_Unopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "nested", "bizboard.db")
	_, err := NewSQLiteStore(context.Background(), path)
	if err == nil {
		t.Fatal("expected an error for an unopenable path")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("BIZBOARD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BIZBOARD_TEST_POSTGRES_DSN not set")
	}
	s, err := NewPostgresStore(context.Background(), dsn, WithTable("documents_test"))
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	exerciseStore(t, s)
}

func TestValidIdent(t *testing.T) {
	cases := map[string]bool{"documents": true, "docs_2": true, "": false, "drop table;": false, "a-b": false}
	for in, want := range cases {
		if got := validIdent(in); got != want {
			t.Errorf("validIdent(%q) = %v, want %v", in, got, want)
		}
	}
}
