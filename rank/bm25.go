package rank

import (
	"errors"
	"fmt"
	"math"

	"github.com/viant/sqlite-fts4rank/matchinfo"
)

// BM25Format is the matchinfo format BM25 expects.
const BM25Format = "pcnalx"

const (
	// DefaultK1 controls term frequency saturation.
	DefaultK1 = 1.2
	// DefaultB controls document length normalization.
	DefaultB = 0.75
)

// ErrZeroAverageLength reports a column with hits whose average length is
// zero, which leaves length normalization undefined.
var ErrZeroAverageLength = errors.New("rank: zero average column length")

// BM25Params holds the free parameters of Okapi BM25.
type BM25Params struct {
	K1 float64 `yaml:"k1"`
	B  float64 `yaml:"b"`
}

// DefaultBM25Params returns k1=1.2, b=0.75.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: DefaultK1, B: DefaultB}
}

// BM25 scores a row with the default parameters. ok is false when the row has
// no phrase data, either because the buffer is empty (no MATCH) or because
// the x block is empty; callers should distinguish that from a zero score.
func BM25(buf []byte) (score float64, ok bool, err error) {
	return DefaultBM25Params().Score(buf)
}

func (p BM25Params) Name() string   { return "bm25" }
func (p BM25Params) Format() string { return BM25Format }

// Score implements Ranker. Each phrase/column pair contributes
//
//	idf * tf*(k1+1) / (tf + k1*(1 - b + b*dl/avgdl))
//
// with idf = ln((N - df + 0.5)/(df + 0.5) + 1). The sum is negated.
func (p BM25Params) Score(buf []byte) (float64, bool, error) {
	if len(buf) == 0 {
		return 0, false, nil
	}
	ann, err := matchinfo.AnnotateBuffer(buf, BM25Format)
	if err != nil {
		return 0, false, err
	}
	hits, err := ann.Hits()
	if err != nil {
		return 0, false, err
	}
	if len(hits) == 0 {
		return 0, false, nil
	}
	rows, err := ann.Count(matchinfo.FieldRows)
	if err != nil {
		return 0, false, err
	}
	avg, err := ann.ColumnValues(matchinfo.FieldAverageLengths)
	if err != nil {
		return 0, false, err
	}
	lengths, err := ann.ColumnValues(matchinfo.FieldLengths)
	if err != nil {
		return 0, false, err
	}

	n := float64(rows)
	score := 0.0
	for _, h := range hits {
		if h.HitsThisRow == 0 {
			continue
		}
		avgdl, _ := avg.At(h.ColumnIndex)
		dl, _ := lengths.At(h.ColumnIndex)
		if avgdl == 0 {
			return 0, false, fmt.Errorf("%w: column %d", ErrZeroAverageLength, h.ColumnIndex)
		}
		tf := float64(h.HitsThisRow)
		df := float64(h.DocsWithHits)
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		norm := 1 - p.B + p.B*(float64(dl)/float64(avgdl))
		score += idf * (tf * (p.K1 + 1)) / (tf + p.K1*norm)
	}
	return -score, true, nil
}
