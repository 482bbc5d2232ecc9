package matchinfo

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Value is the decoded payload of one Group. The concrete type depends on the
// field: Count for p, c and n; Hits for x; UsableHits for y; Bitfield for b;
// ColumnValues for a, l and s.
type Value interface {
	isValue()
}

// Group is the annotation of a single format character. Exactly one of Value
// and Err is set.
type Group struct {
	Field Field
	Title string
	Value Value
	Err   error
}

// Count is a single scalar such as the phrase, column or row count.
type Count struct {
	Value uint32
	Idx   int
}

// Hit holds the three x-values of one phrase/column pair.
type Hit struct {
	ColumnIndex  int    `json:"column_index"`
	PhraseIndex  int    `json:"phrase_index"`
	HitsThisRow  uint32 `json:"hits_this_row"`
	HitsAllRows  uint32 `json:"hits_all_rows"`
	DocsWithHits uint32 `json:"docs_with_hits"`
	Idx          [3]int `json:"idx"`
}

// Hits is the x block.
type Hits []Hit

// UsableHit is the y-value of one phrase/column pair.
type UsableHit struct {
	ColumnIndex int    `json:"column_index"`
	PhraseIndex int    `json:"phrase_index"`
	Hits        uint32 `json:"hits_for_phrase_in_col"`
	Idx         int    `json:"idx"`
}

// UsableHits is the y block.
type UsableHits []UsableHit

// PhraseBits is the b-value of one phrase: the raw words and their rendering
// as a '0'/'1' string where column 0 is the leftmost character.
type PhraseBits struct {
	PhraseIndex int      `json:"phrase_index"`
	Words       []uint32 `json:"words"`
	Bits        string   `json:"bits"`
	Idx         []int    `json:"idx"`
}

// Matches reports whether the phrase has a usable match in column.
func (p PhraseBits) Matches(column int) bool {
	if column < 0 || column >= len(p.Words)*32 {
		return false
	}
	return p.Words[column/32]>>(uint(column)%32)&1 == 1
}

// Bitfield is the b block, one entry per phrase.
type Bitfield []PhraseBits

// ColumnValue is one per-column value of an a, l or s block.
type ColumnValue struct {
	ColumnIndex int
	Value       uint32
	Idx         int
}

// ColumnValues is an a, l or s block. Key names the value in JSON output.
type ColumnValues struct {
	Key     string
	Columns []ColumnValue
}

// At returns the value for column i.
func (c ColumnValues) At(i int) (uint32, bool) {
	if i < 0 || i >= len(c.Columns) {
		return 0, false
	}
	return c.Columns[i].Value, true
}

func (Count) isValue()        {}
func (Hits) isValue()         {}
func (UsableHits) isValue()   {}
func (Bitfield) isValue()     {}
func (ColumnValues) isValue() {}

// MarshalJSON renders each column as {"column_index", <Key>, "idx"}.
func (c ColumnValues) MarshalJSON() ([]byte, error) {
	key, err := json.Marshal(c.Key)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, col := range c.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"column_index":`)
		writeInt(&buf, col.ColumnIndex)
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatUint(uint64(col.Value), 10))
		buf.WriteString(`,"idx":`)
		writeInt(&buf, col.Idx)
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

type groupJSON struct {
	Value any    `json:"value"`
	Title string `json:"title"`
	Idx   *int   `json:"idx,omitempty"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// MarshalJSON renders {"value", "title"[, "idx"]} or {"error"}.
func (g Group) MarshalJSON() ([]byte, error) {
	if g.Err != nil {
		return json.Marshal(errorJSON{Error: g.Err.Error()})
	}
	out := groupJSON{Value: g.Value, Title: g.Title}
	if c, ok := g.Value.(Count); ok {
		idx := c.Idx
		out.Value = c.Value
		out.Idx = &idx
	}
	return json.Marshal(out)
}

func writeInt(buf *bytes.Buffer, v int) {
	buf.WriteString(strconv.Itoa(v))
}

func renderBits(words []uint32) string {
	var sb strings.Builder
	sb.Grow(len(words) * 32)
	for _, w := range words {
		for bit := 0; bit < 32; bit++ {
			if w>>uint(bit)&1 == 1 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String()
}
