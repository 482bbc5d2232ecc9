package main

import (
	"fmt"
	"os"

	"github.com/viant/sqlite-fts4rank/fts"
	"github.com/viant/sqlite-fts4rank/rank"
	"gopkg.in/yaml.v3"
)

// Config is the ftsrank configuration file.
type Config struct {
	// DB is the SQLite database path.
	DB string `yaml:"db"`

	// Schema names the FTS4 table and its columns.
	Schema fts.Schema `yaml:"schema"`

	// Ranker is "bm25" or "naive".
	Ranker string `yaml:"ranker"`

	// BM25 holds the BM25 parameters used when Ranker is bm25.
	BM25 rank.BM25Params `yaml:"bm25"`

	// Limit caps the number of hits printed.
	Limit int `yaml:"limit"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DB:     "ftsrank.sqlite",
		Schema: fts.Schema{Table: "docs", Columns: []string{"title", "body"}},
		Ranker: "bm25",
		BM25:   rank.DefaultBM25Params(),
		Limit:  10,
	}
}

// Load reads the file named by path, or by FTSRANK_CONFIG when path is
// empty. With neither set it returns Default(). The result is not
// validated so that flags can still override it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("FTSRANK_CONFIG")
	}
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if db := os.Getenv("FTSRANK_DB"); db != "" {
		cfg.DB = db
	}
	return cfg, nil
}

// Validate checks the schema, ranker and limit.
func (c *Config) Validate() error {
	if err := c.Schema.Validate(); err != nil {
		return err
	}
	if _, err := c.ranker(); err != nil {
		return err
	}
	if c.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", c.Limit)
	}
	return nil
}

func (c *Config) ranker() (rank.Ranker, error) {
	r, err := rank.ByName(c.Ranker)
	if err != nil {
		return nil, err
	}
	if _, ok := r.(rank.BM25Params); ok {
		if c.BM25.K1 < 0 || c.BM25.B < 0 || c.BM25.B > 1 {
			return nil, fmt.Errorf("bm25 parameters out of range: k1=%v b=%v", c.BM25.K1, c.BM25.B)
		}
		return c.BM25, nil
	}
	return r, nil
}

// documentEntry is one document of an --index file.
type documentEntry struct {
	ID     string            `yaml:"id"`
	Fields map[string]string `yaml:"fields"`
}

func loadDocuments(path string) ([]fts.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading documents %s: %w", path, err)
	}
	var entries []documentEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing documents %s: %w", path, err)
	}
	docs := make([]fts.Document, len(entries))
	for i, e := range entries {
		docs[i] = fts.Document{ID: e.ID, Fields: e.Fields}
	}
	return docs, nil
}
