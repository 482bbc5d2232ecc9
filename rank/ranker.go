package rank

import (
	"fmt"
	"strings"
)

// Ranker scores one matchinfo buffer produced with Format.
type Ranker interface {
	// Name identifies the ranker in configuration.
	Name() string
	// Format is the matchinfo format string the buffer must be produced with.
	Format() string
	// Score returns the score of a row. ok is false when the row carries no
	// relevance data at all.
	Score(buf []byte) (score float64, ok bool, err error)
}

// ByName resolves "naive" or "bm25" (the default for an empty name).
func ByName(name string) (Ranker, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bm25":
		return DefaultBM25Params(), nil
	case "naive", "rank_score":
		return NaiveRanker{}, nil
	}
	return nil, fmt.Errorf("rank: unknown ranker %q", name)
}
