package fts

import (
	"context"
	"math"
	"testing"

	"github.com/viant/sqlite-fts4rank/engine"
	"github.com/viant/sqlite-fts4rank/matchinfo"
	"github.com/viant/sqlite-fts4rank/rank"
)

var corpus = []Document{
	{ID: "d1", Fields: map[string]string{"c0": "this is about a dog", "c1": "more about that dog dog"}},
	{ID: "d2", Fields: map[string]string{"c0": "this is about a cat", "c1": "stuff on that cat cat"}},
	{ID: "d3", Fields: map[string]string{"c0": "something about a ferret", "c1": "yeah a ferret ferret"}},
	{ID: "d4", Fields: map[string]string{"c0": "both of them", "c1": "both dog dog and cat here"}},
	{ID: "d5", Fields: map[string]string{"c0": "not mammals", "c1": "maybe birds"}},
}

func newStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	db, err := engine.Open(":memory:")
	if err != nil {
		t.Fatalf("engine.Open(:memory:) failed: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteStore(db, Schema{Table: "search", Columns: []string{"c0", "c1"}}, opts...)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	ids, err := store.AddDocuments(context.Background(), corpus)
	if err != nil {
		t.Fatalf("AddDocuments failed: %v", err)
	}
	if len(ids) != len(corpus) {
		t.Fatalf("AddDocuments returned %d ids, want %d", len(ids), len(corpus))
	}
	return store
}

func hitIDs(hits []Hit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

func TestSQLiteStore_SearchBM25(t *testing.T) {
	store := newStore(t)
	hits, err := store.Search(context.Background(), "dog", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	want := []struct {
		id    string
		score float64
	}{{"d1", -2.382359}, {"d4", -1.055360}}
	if len(hits) != len(want) {
		t.Fatalf("Search returned %v, want 2 hits", hitIDs(hits))
	}
	for i, w := range want {
		if hits[i].ID != w.id || !hits[i].Scored || math.Abs(hits[i].Score-w.score) > 1e-6 {
			t.Errorf("hit[%d] = %s %.6f (scored=%v), want %s %.6f", i, hits[i].ID, hits[i].Score, hits[i].Scored, w.id, w.score)
		}
	}
	if hits[0].Fields["c1"] != "more about that dog dog" {
		t.Errorf("hit[0] fields = %v", hits[0].Fields)
	}
}

func TestSQLiteStore_SearchOrdersByScore(t *testing.T) {
	store := newStore(t, WithRanker(rank.NaiveRanker{}))
	// "cat": row 2 scores 1/1 + 2/3, row 4 scores 1/3.
	hits, err := store.Search(context.Background(), "cat", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if ids := hitIDs(hits); len(ids) != 2 || ids[0] != "d2" || ids[1] != "d4" {
		t.Fatalf("Search order = %v, want [d2 d4]", ids)
	}
	if math.Abs(hits[0].Score-(-(1.0+2.0/3))) > 1e-9 {
		t.Errorf("d2 score = %v", hits[0].Score)
	}

	hits, err = store.Search(context.Background(), "cat", 1)
	if err != nil {
		t.Fatalf("Search(k=1) failed: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "d2" {
		t.Fatalf("Search(k=1) = %v, want [d2]", hitIDs(hits))
	}
	if hits, _ := store.Search(context.Background(), "cat", 0); hits != nil {
		t.Fatalf("Search(k=0) = %v, want nil", hitIDs(hits))
	}
}

func TestSQLiteStore_RemoveAndUpdate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if err := store.Remove(ctx, "d1"); err != nil {
		t.Fatalf("Remove(d1) failed: %v", err)
	}
	hits, err := store.Search(ctx, "dog", 10)
	if err != nil {
		t.Fatalf("Search after remove failed: %v", err)
	}
	if ids := hitIDs(hits); len(ids) != 1 || ids[0] != "d4" {
		t.Fatalf("Search after remove = %v, want [d4]", ids)
	}

	if _, err := store.db.ExecContext(ctx, `UPDATE search_content SET c1 = 'a hamster' WHERE id = 'd5'`); err != nil {
		t.Fatalf("update content failed: %v", err)
	}
	if hits, _ = store.Search(ctx, "birds", 10); len(hits) != 0 {
		t.Fatalf("stale index entry after update: %v", hitIDs(hits))
	}
	if hits, _ = store.Search(ctx, "hamster", 10); len(hits) != 1 || hits[0].ID != "d5" {
		t.Fatalf("Search(hamster) = %v, want [d5]", hitIDs(hits))
	}
	if err := store.Remove(ctx, ""); err == nil {
		t.Fatalf("Remove with empty id should fail")
	}
}

func TestSQLiteStore_AddDocumentsErrors(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if _, err := store.AddDocuments(ctx, []Document{{Fields: map[string]string{"c0": "x"}}}); err == nil {
		t.Errorf("AddDocuments without ID should fail")
	}
	if _, err := store.AddDocuments(ctx, []Document{{ID: "d9", Fields: map[string]string{"title": "x"}}}); err == nil {
		t.Errorf("AddDocuments with unknown column should fail")
	}
	if _, err := store.AddDocuments(ctx, []Document{{ID: "d1"}}); err == nil {
		t.Errorf("AddDocuments with duplicate ID should fail")
	}
}

func TestSQLiteStore_Annotate(t *testing.T) {
	store := newStore(t)
	rows, err := store.Annotate(context.Background(), "dog", "pcnalx")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "d1" || rows[1].ID != "d4" {
		t.Fatalf("Annotate returned %d rows", len(rows))
	}
	n, err := rows[0].Annotation.Count(matchinfo.FieldRows)
	if err != nil || n != 5 {
		t.Fatalf("n = %d, %v; want 5", n, err)
	}
	lengths, err := rows[1].Annotation.ColumnValues(matchinfo.FieldLengths)
	if err != nil {
		t.Fatalf("ColumnValues(l) failed: %v", err)
	}
	if v, _ := lengths.At(1); v != 6 {
		t.Fatalf("l[1] for d4 = %d, want 6", v)
	}
}
