// ftsrank indexes documents into a SQLite FTS4 table and searches it with
// relevance ranking computed from matchinfo().
//
//	ftsrank [flags] <query>
//	ftsrank --index docs.yaml <query>
//	ftsrank --annotate pcnalx <query>
//	ftsrank --admin optimize
//	ftsrank --sql "SELECT rank_bm25(matchinfo(docs, 'pcnalx')) FROM docs WHERE docs MATCH 'dog'"
//
// Settings come from a YAML file (--config or FTSRANK_CONFIG); flags override
// the file. A .env file in the working directory is loaded first.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/viant/sqlite-fts4rank/engine"
	"github.com/viant/sqlite-fts4rank/fts"
	"github.com/viant/sqlite-fts4rank/ftsadmin"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	config   string
	db       string
	table    string
	columns  []string
	ranker   string
	k1       float64
	b        float64
	limit    int
	annotate string
	index    string
	sql      string
	admin    string
	verbose  bool
}

func run(args []string, stdout, stderr io.Writer) error {
	_ = godotenv.Load()

	var f flags
	flagSet := pflag.NewFlagSet("ftsrank", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&f.config, "config", "", "YAML config file (default: $FTSRANK_CONFIG)")
	flagSet.StringVar(&f.db, "db", "", "SQLite database path")
	flagSet.StringVar(&f.table, "table", "", "FTS4 table name")
	flagSet.StringSliceVar(&f.columns, "columns", nil, "indexed column names")
	flagSet.StringVar(&f.ranker, "ranker", "", "ranking function: bm25 or naive")
	flagSet.Float64Var(&f.k1, "k1", 0, "BM25 term frequency saturation")
	flagSet.Float64Var(&f.b, "b", 0, "BM25 length normalization")
	flagSet.IntVarP(&f.limit, "limit", "n", 0, "maximum number of hits")
	flagSet.StringVar(&f.annotate, "annotate", "", "print annotated matchinfo for this format instead of ranking")
	flagSet.StringVar(&f.index, "index", "", "YAML file of documents to add before searching")
	flagSet.StringVar(&f.sql, "sql", "", "run a SQL query with the ranking functions registered")
	flagSet.StringVar(&f.admin, "admin", "", "run an FTS4 maintenance command (optimize, rebuild, integrity-check, merge=X,Y) through fts_admin")
	flagSet.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := Load(f.config)
	if err != nil {
		return err
	}
	applyFlags(cfg, flagSet, &f)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := engine.RegisterRankFunctions(nil, engine.WithLogger(logger)); err != nil {
		return err
	}
	ftsadmin.Register()
	db, err := engine.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	if strings.Contains(cfg.DB, ":memory:") {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	ctx := context.Background()
	if f.sql != "" {
		return runSQL(ctx, db, f.sql, stdout)
	}

	ranker, err := cfg.ranker()
	if err != nil {
		return err
	}
	store, err := fts.NewSQLiteStore(db, cfg.Schema, fts.WithRanker(ranker), fts.WithLogger(logger))
	if err != nil {
		return err
	}
	if f.index != "" {
		docs, err := loadDocuments(f.index)
		if err != nil {
			return err
		}
		ids, err := store.AddDocuments(ctx, docs)
		if err != nil {
			return err
		}
		logger.Info("indexed documents", "count", len(ids), "table", cfg.Schema.Table)
	}

	if f.admin != "" {
		op := cfg.Schema.Table + ":" + f.admin
		return runSQL(ctx, db, fmt.Sprintf(`SELECT %s(?) AS op`, ftsadmin.FunctionName), stdout, op)
	}

	query := strings.Join(flagSet.Args(), " ")
	if query == "" {
		if f.index != "" {
			return nil
		}
		return fmt.Errorf("missing query")
	}

	enc := json.NewEncoder(stdout)
	if f.annotate != "" {
		rows, err := store.Annotate(ctx, query, f.annotate)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if err := enc.Encode(map[string]any{"id": r.ID, "matchinfo": r.Annotation}); err != nil {
				return err
			}
		}
		return nil
	}

	hits, err := store.Search(ctx, query, cfg.Limit)
	if err != nil {
		return err
	}
	for _, h := range hits {
		out := map[string]any{"id": h.ID, "fields": h.Fields, "score": nil}
		if h.Scored {
			out["score"] = h.Score
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cfg *Config, flagSet *pflag.FlagSet, f *flags) {
	if flagSet.Changed("db") {
		cfg.DB = f.db
	}
	if flagSet.Changed("table") {
		cfg.Schema.Table = f.table
	}
	if flagSet.Changed("columns") {
		cfg.Schema.Columns = f.columns
	}
	if flagSet.Changed("ranker") {
		cfg.Ranker = f.ranker
	}
	if flagSet.Changed("k1") {
		cfg.BM25.K1 = f.k1
	}
	if flagSet.Changed("b") {
		cfg.BM25.B = f.b
	}
	if flagSet.Changed("limit") {
		cfg.Limit = f.limit
	}
}

func runSQL(ctx context.Context, db *sql.DB, query string, stdout io.Writer, args ...any) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		out := make(map[string]any, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = fmt.Sprintf("%x", b)
			}
			out[c] = values[i]
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return rows.Err()
}
