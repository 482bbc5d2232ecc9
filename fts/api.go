package fts

import (
	"context"

	"github.com/viant/sqlite-fts4rank/matchinfo"
)

// Document is a row of the content table. Fields maps FTS column names to
// their text; columns absent from Fields are stored as empty text.
type Document struct {
	// ID is the logical identifier of the document and must be unique.
	ID string

	// Fields holds the indexed text per column.
	Fields map[string]string
}

// Hit is a search result.
type Hit struct {
	Document

	// Score is the ranker's score; lower is more relevant.
	Score float64

	// Scored is false when the ranker had no relevance data for the row.
	Scored bool
}

// RowAnnotation pairs a matching document ID with its annotated matchinfo.
type RowAnnotation struct {
	ID         string
	Annotation *matchinfo.Annotation
}

// Store defines the application-level full-text store API.
type Store interface {
	// AddDocuments inserts documents and returns their IDs.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search runs an FTS4 MATCH query and returns up to k hits ordered from
	// most to least relevant.
	Search(ctx context.Context, query string, k int) ([]Hit, error)

	// Remove deletes the document with the given ID from the content table
	// and, through the sync triggers, from the index.
	Remove(ctx context.Context, id string) error
}
