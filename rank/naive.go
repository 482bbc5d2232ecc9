package rank

import (
	"github.com/viant/sqlite-fts4rank/matchinfo"
)

// NaiveFormat is the matchinfo format Naive expects.
const NaiveFormat = "pcx"

// Naive scores a row as the sum, over every phrase/column pair that hit this
// row, of hits in this row divided by hits across all rows. This is the
// example rank function from the SQLite FTS3/4 documentation. The result is
// negated. An empty buffer, as returned for rows selected without MATCH,
// scores zero.
func Naive(buf []byte) (float64, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	ann, err := matchinfo.AnnotateBuffer(buf, NaiveFormat)
	if err != nil {
		return 0, err
	}
	hits, err := ann.Hits()
	if err != nil {
		return 0, err
	}
	score := 0.0
	for _, h := range hits {
		if h.HitsThisRow > 0 {
			score += float64(h.HitsThisRow) / float64(h.HitsAllRows)
		}
	}
	return -score, nil
}

// NaiveRanker adapts Naive to Ranker.
type NaiveRanker struct{}

func (NaiveRanker) Name() string   { return "naive" }
func (NaiveRanker) Format() string { return NaiveFormat }

func (NaiveRanker) Score(buf []byte) (float64, bool, error) {
	score, err := Naive(buf)
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}
