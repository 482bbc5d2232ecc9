package matchinfo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"
)

// ErrMissingGroup reports that an annotation lacks a field a caller needs.
var ErrMissingGroup = errors.New("matchinfo: missing group")

// Annotation is the ordered result of Annotate, keyed by format character.
// Groups appear in format-string order; a character repeated in the format
// replaces its earlier group without moving it.
type Annotation struct {
	groups []Group
	index  map[Field]int
}

func newAnnotation() *Annotation {
	return &Annotation{index: make(map[Field]int)}
}

func (a *Annotation) set(g Group) {
	if i, ok := a.index[g.Field]; ok {
		a.groups[i] = g
		return
	}
	a.index[g.Field] = len(a.groups)
	a.groups = append(a.groups, g)
}

// Len is the number of distinct groups.
func (a *Annotation) Len() int { return len(a.groups) }

// Groups returns the groups in order.
func (a *Annotation) Groups() []Group {
	out := make([]Group, len(a.groups))
	copy(out, a.groups)
	return out
}

// Group returns the group for f, if the format string contained it.
func (a *Annotation) Group(f Field) (Group, bool) {
	i, ok := a.index[f]
	if !ok {
		return Group{}, false
	}
	return a.groups[i], true
}

func (a *Annotation) value(f Field) (Value, error) {
	g, ok := a.Group(f)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrMissingGroup, f)
	}
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Value, nil
}

// Count returns the scalar of a p, c or n group.
func (a *Annotation) Count(f Field) (uint32, error) {
	v, err := a.value(f)
	if err != nil {
		return 0, err
	}
	c, ok := v.(Count)
	if !ok {
		return 0, fmt.Errorf("matchinfo: '%s' is not a count", f)
	}
	return c.Value, nil
}

// Hits returns the x block.
func (a *Annotation) Hits() (Hits, error) {
	v, err := a.value(FieldHits)
	if err != nil {
		return nil, err
	}
	return v.(Hits), nil
}

// UsableHits returns the y block.
func (a *Annotation) UsableHits() (UsableHits, error) {
	v, err := a.value(FieldUsableHits)
	if err != nil {
		return nil, err
	}
	return v.(UsableHits), nil
}

// Bitfield returns the b block.
func (a *Annotation) Bitfield() (Bitfield, error) {
	v, err := a.value(FieldBitfield)
	if err != nil {
		return nil, err
	}
	return v.(Bitfield), nil
}

// ColumnValues returns an a, l or s block.
func (a *Annotation) ColumnValues(f Field) (ColumnValues, error) {
	v, err := a.value(f)
	if err != nil {
		return ColumnValues{}, err
	}
	c, ok := v.(ColumnValues)
	if !ok {
		return ColumnValues{}, fmt.Errorf("matchinfo: '%s' is not a per-column block", f)
	}
	return c, nil
}

// MarshalJSON renders the annotation as a JSON object whose keys are the
// format characters in format order.
func (a *Annotation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range a.groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(g.Field.String())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		data, err := json.Marshal(g)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AnnotateBuffer decodes buf and annotates it with format.
func AnnotateBuffer(buf []byte, format string) (*Annotation, error) {
	values, err := Decode(buf)
	if err != nil {
		return nil, err
	}
	return Annotate(values, format)
}

// Annotate groups decoded matchinfo values according to format. Characters
// matchinfo does not define are skipped. A character whose prerequisites are
// missing produces a group with an *OrderError and consumes nothing. Running
// out of values is an error: the format does not describe the buffer.
func Annotate(values []uint32, format string) (*Annotation, error) {
	a := &annotator{cursor: NewCursor(values)}
	ann := newAnnotation()
	for i := 0; i < len(format); i++ {
		f, ok := ParseField(format[i])
		if !ok {
			continue
		}
		info := fields[f]
		if !a.satisfies(info.needs) {
			ann.set(Group{Field: f, Title: info.title, Err: &OrderError{Field: f, Requires: info.needs.fields()}})
			continue
		}
		v, err := a.read(f)
		if err != nil {
			return nil, fmt.Errorf("matchinfo: field '%s': %w", f, err)
		}
		ann.set(Group{Field: f, Title: info.title, Value: v})
	}
	return ann, nil
}

type annotator struct {
	cursor     *Cursor
	phrases    int
	columns    int
	hasPhrases bool
	hasColumns bool
}

func (a *annotator) satisfies(r requirement) bool {
	switch r {
	case needColumns:
		return a.hasColumns
	case needPhrasesAndColumns:
		return a.hasPhrases && a.hasColumns
	}
	return true
}

// reserve fails early when a block would need more values than remain, so a
// corrupt count never drives a large allocation.
func (a *annotator) reserve(factors ...uint64) error {
	n := uint64(1)
	for _, f := range factors {
		hi, lo := bits.Mul64(n, f)
		if hi != 0 {
			return fmt.Errorf("%w: block size overflows at index %d", ErrTruncated, a.cursor.Pos())
		}
		n = lo
	}
	if n > uint64(a.cursor.Remaining()) {
		return fmt.Errorf("%w: need %d values at index %d, have %d", ErrTruncated, n, a.cursor.Pos(), a.cursor.Remaining())
	}
	return nil
}

func (a *annotator) read(f Field) (Value, error) {
	switch f {
	case FieldPhrases, FieldColumns, FieldRows:
		v, idx, err := a.cursor.Next()
		if err != nil {
			return nil, err
		}
		switch f {
		case FieldPhrases:
			a.phrases, a.hasPhrases = int(v), true
		case FieldColumns:
			a.columns, a.hasColumns = int(v), true
		}
		return Count{Value: v, Idx: idx}, nil
	case FieldHits:
		return a.readHits()
	case FieldUsableHits:
		return a.readUsableHits()
	case FieldBitfield:
		return a.readBitfield()
	case FieldAverageLengths:
		return a.readColumns("average_num_tokens")
	case FieldLengths:
		return a.readColumns("num_tokens")
	case FieldSubsequence:
		return a.readColumns("length_phrase_subsequence_match")
	}
	return nil, fmt.Errorf("matchinfo: unsupported field '%s'", f)
}

func (a *annotator) readHits() (Value, error) {
	if err := a.reserve(3, uint64(a.phrases), uint64(a.columns)); err != nil {
		return nil, err
	}
	hits := make(Hits, 0, a.phrases*a.columns)
	for col := 0; col < a.columns; col++ {
		for phrase := 0; phrase < a.phrases; phrase++ {
			h := Hit{ColumnIndex: col, PhraseIndex: phrase}
			var err error
			if h.HitsThisRow, h.Idx[0], err = a.cursor.Next(); err != nil {
				return nil, err
			}
			if h.HitsAllRows, h.Idx[1], err = a.cursor.Next(); err != nil {
				return nil, err
			}
			if h.DocsWithHits, h.Idx[2], err = a.cursor.Next(); err != nil {
				return nil, err
			}
			hits = append(hits, h)
		}
	}
	return hits, nil
}

func (a *annotator) readUsableHits() (Value, error) {
	if err := a.reserve(uint64(a.phrases), uint64(a.columns)); err != nil {
		return nil, err
	}
	out := make(UsableHits, 0, a.phrases*a.columns)
	for col := 0; col < a.columns; col++ {
		for phrase := 0; phrase < a.phrases; phrase++ {
			v, idx, err := a.cursor.Next()
			if err != nil {
				return nil, err
			}
			out = append(out, UsableHit{ColumnIndex: col, PhraseIndex: phrase, Hits: v, Idx: idx})
		}
	}
	return out, nil
}

func (a *annotator) readBitfield() (Value, error) {
	words := (a.columns + 31) / 32
	if err := a.reserve(uint64(words), uint64(a.phrases)); err != nil {
		return nil, err
	}
	if words == 0 {
		return Bitfield{}, nil
	}
	out := make(Bitfield, 0, a.phrases)
	for phrase := 0; phrase < a.phrases; phrase++ {
		pb := PhraseBits{PhraseIndex: phrase, Words: make([]uint32, words), Idx: make([]int, words)}
		for w := 0; w < words; w++ {
			v, idx, err := a.cursor.Next()
			if err != nil {
				return nil, err
			}
			pb.Words[w], pb.Idx[w] = v, idx
		}
		pb.Bits = renderBits(pb.Words)
		out = append(out, pb)
	}
	return out, nil
}

func (a *annotator) readColumns(key string) (Value, error) {
	if err := a.reserve(uint64(a.columns)); err != nil {
		return nil, err
	}
	out := ColumnValues{Key: key, Columns: make([]ColumnValue, 0, a.columns)}
	for col := 0; col < a.columns; col++ {
		v, idx, err := a.cursor.Next()
		if err != nil {
			return nil, err
		}
		out.Columns = append(out.Columns, ColumnValue{ColumnIndex: col, Value: v, Idx: idx})
	}
	return out, nil
}
