package matchinfo

import (
	"fmt"
	"strings"
)

// Field identifies one matchinfo format character.
type Field byte

const (
	FieldPhrases        Field = 'p'
	FieldColumns        Field = 'c'
	FieldHits           Field = 'x'
	FieldUsableHits     Field = 'y'
	FieldBitfield       Field = 'b'
	FieldRows           Field = 'n'
	FieldAverageLengths Field = 'a'
	FieldLengths        Field = 'l'
	FieldSubsequence    Field = 's'
)

// requirement lists what a field needs earlier in the format string.
type requirement uint8

const (
	needNothing requirement = iota
	needColumns
	needPhrasesAndColumns
)

type fieldInfo struct {
	title string
	needs requirement
}

var fields = map[Field]fieldInfo{
	FieldPhrases:        {title: "Number of matchable phrases in the query"},
	FieldColumns:        {title: "Number of user defined columns in the FTS table"},
	FieldHits:           {title: "Details for each phrase/column combination", needs: needPhrasesAndColumns},
	FieldUsableHits:     {title: "Usable phrase matches for each phrase/column combination", needs: needPhrasesAndColumns},
	FieldBitfield:       {title: "More compact form of option 'y'", needs: needPhrasesAndColumns},
	FieldRows:           {title: "Number of rows in the FTS4 table"},
	FieldAverageLengths: {title: "Average number of tokens in the text values stored in each column", needs: needColumns},
	FieldLengths:        {title: "Length of value stored in current row of the FTS4 table in tokens for each column", needs: needColumns},
	FieldSubsequence:    {title: "Length of longest subsequence of phrase matching each column", needs: needColumns},
}

// ParseField maps a format character to its Field. The boolean is false for
// characters matchinfo does not define.
func ParseField(ch byte) (Field, bool) {
	f := Field(ch)
	_, ok := fields[f]
	return f, ok
}

// Title is the human readable meaning of the field.
func (f Field) Title() string { return fields[f].title }

// String returns the format character.
func (f Field) String() string { return string(rune(f)) }

// OrderError reports a format character that appeared before the characters
// its layout depends on.
type OrderError struct {
	Field    Field
	Requires []Field
}

func (e *OrderError) Error() string {
	quoted := make([]string, len(e.Requires))
	for i, r := range e.Requires {
		quoted[i] = fmt.Sprintf("'%s'", r)
	}
	return fmt.Sprintf("'%s' must be preceded by %s", e.Field, strings.Join(quoted, " and "))
}

func (r requirement) fields() []Field {
	switch r {
	case needColumns:
		return []Field{FieldColumns}
	case needPhrasesAndColumns:
		return []Field{FieldPhrases, FieldColumns}
	}
	return nil
}
