package fts

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/viant/sqlite-fts4rank/matchinfo"
	"github.com/viant/sqlite-fts4rank/rank"
)

// SQLiteStore implements Store over an FTS4 table with external content.
// Matching rows are ranked in Go from their matchinfo() buffers, so any
// rank.Ranker can be used without registering SQL functions.
type SQLiteStore struct {
	db     *sql.DB
	schema Schema
	ranker rank.Ranker
	logger *slog.Logger
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithRanker sets the ranker used by Search. The default is BM25 with
// k1=1.2, b=0.75.
func WithRanker(r rank.Ranker) Option {
	return func(s *SQLiteStore) { s.ranker = r }
}

// WithLogger sets the store logger. Without it slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) { s.logger = logger }
}

// NewSQLiteStore creates a store for schema, creating its tables and
// triggers if needed.
func NewSQLiteStore(db *sql.DB, schema Schema, opts ...Option) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("fts: db is nil")
	}
	s := &SQLiteStore{db: db, schema: schema, ranker: rank.DefaultBM25Params()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if err := EnsureSchema(db, schema); err != nil {
		return nil, err
	}
	return s, nil
}

// Ranker returns the ranker used by Search.
func (s *SQLiteStore) Ranker() rank.Ranker { return s.ranker }

// AddDocuments inserts documents into the content table inside a single
// transaction; the sync triggers index them. Document.ID must be set.
func (s *SQLiteStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	columns := make(map[string]bool, len(s.schema.Columns))
	for _, c := range s.schema.Columns {
		columns[c] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(s.schema.Columns)+1), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s(id, %s) VALUES(%s)`,
		s.schema.ContentTable(), strings.Join(s.schema.Columns, ", "), placeholders))
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return nil, fmt.Errorf("fts: Document.ID must be set in AddDocuments")
		}
		for name := range d.Fields {
			if !columns[name] {
				return nil, fmt.Errorf("fts: document %s has unknown column %q", d.ID, name)
			}
		}
		args := make([]any, 0, len(s.schema.Columns)+1)
		args = append(args, d.ID)
		for _, c := range s.schema.Columns {
			args = append(args, d.Fields[c])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return nil, err
		}
		ids = append(ids, d.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

type scoredRow struct {
	docid  int64
	score  float64
	scored bool
}

// Search returns up to k documents matching query, ordered by ascending
// score. Rows the ranker could not score come last. A ranker failure fails
// the whole search.
//
// The ranker reads the x block column by column, phrase within column. SQLite
// writes it phrase by phrase, so for a query of several phrases over several
// columns a hit is scored with the length statistics of the column its
// position maps to under that reading, not necessarily the column it came
// from. Single-phrase queries and single-column tables are unaffected.
func (s *SQLiteStore) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var scored []scoredRow
	err := s.scan(ctx, query, s.ranker.Format(), func(docid int64, buf []byte) error {
		score, ok, err := s.ranker.Score(buf)
		if err != nil {
			s.logger.Error("fts: ranking failed", "table", s.schema.Table, "ranker", s.ranker.Name(), "docid", docid, "error", err)
			return fmt.Errorf("fts: rank docid %d: %w", docid, err)
		}
		scored = append(scored, scoredRow{docid: docid, score: score, scored: ok})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.scored != b.scored {
			return a.scored
		}
		if a.score != b.score {
			return a.score < b.score
		}
		return a.docid < b.docid
	})
	if len(scored) > k {
		scored = scored[:k]
	}

	out := make([]Hit, 0, len(scored))
	for _, r := range scored {
		doc, err := s.load(ctx, r.docid)
		if err != nil {
			return nil, err
		}
		out = append(out, Hit{Document: doc, Score: r.score, Scored: r.scored})
	}
	s.logger.Debug("fts: search", "table", s.schema.Table, "query", query, "matches", len(scored), "returned", len(out))
	return out, nil
}

// Annotate returns the annotated matchinfo of every row matching query,
// produced with format, in docid order.
func (s *SQLiteStore) Annotate(ctx context.Context, query, format string) ([]RowAnnotation, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	type row struct {
		docid int64
		ann   *matchinfo.Annotation
	}
	var rows []row
	err := s.scan(ctx, query, format, func(docid int64, buf []byte) error {
		ann, err := matchinfo.AnnotateBuffer(buf, format)
		if err != nil {
			return fmt.Errorf("fts: annotate docid %d: %w", docid, err)
		}
		rows = append(rows, row{docid: docid, ann: ann})
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]RowAnnotation, 0, len(rows))
	for _, r := range rows {
		doc, err := s.load(ctx, r.docid)
		if err != nil {
			return nil, err
		}
		out = append(out, RowAnnotation{ID: doc.ID, Annotation: r.ann})
	}
	return out, nil
}

// scan calls fn with the docid and matchinfo buffer of every row matching
// query. The result set is fully read before scan returns.
func (s *SQLiteStore) scan(ctx context.Context, query, format string, fn func(docid int64, buf []byte) error) error {
	q := fmt.Sprintf(`SELECT docid, matchinfo(%[1]s, ?) FROM %[1]s WHERE %[1]s MATCH ? ORDER BY docid`, s.schema.Table)
	rows, err := s.db.QueryContext(ctx, q, format, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var docid int64
		var buf []byte
		if err := rows.Scan(&docid, &buf); err != nil {
			return err
		}
		if err := fn(docid, buf); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) load(ctx context.Context, docid int64) (Document, error) {
	q := fmt.Sprintf(`SELECT id, %s FROM %s WHERE rowid = ?`, strings.Join(s.schema.Columns, ", "), s.schema.ContentTable())
	values := make([]sql.NullString, len(s.schema.Columns)+1)
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.db.QueryRowContext(ctx, q, docid).Scan(dest...); err != nil {
		return Document{}, fmt.Errorf("fts: load docid %d: %w", docid, err)
	}
	doc := Document{ID: values[0].String, Fields: make(map[string]string, len(s.schema.Columns))}
	for i, c := range s.schema.Columns {
		doc.Fields[c] = values[i+1].String
	}
	return doc, nil
}

// Remove deletes a document by ID.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("fts: Remove called with empty id")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.schema.ContentTable()), id)
	return err
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
