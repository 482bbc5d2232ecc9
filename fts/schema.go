package fts

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// Schema names an FTS4 table and its indexed columns. The backing content
// table is Table + "_content".
type Schema struct {
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns"`
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that the table and column names are plain identifiers.
func (s Schema) Validate() error {
	if !identifier.MatchString(s.Table) {
		return fmt.Errorf("fts: invalid table name %q", s.Table)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("fts: table %s has no columns", s.Table)
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if !identifier.MatchString(c) {
			return fmt.Errorf("fts: invalid column name %q", c)
		}
		key := strings.ToLower(c)
		if key == "id" || key == "docid" || key == "rowid" || seen[key] {
			return fmt.Errorf("fts: column name %q is reserved or duplicated", c)
		}
		seen[key] = true
	}
	return nil
}

// ContentTable is the name of the external content table.
func (s Schema) ContentTable() string { return s.Table + "_content" }

// ContentTableDDL returns the DDL of the content table. Its rowid doubles as
// the FTS docid.
func ContentTableDDL(s Schema) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(s.ContentTable())
	sb.WriteString(" (\n    id TEXT NOT NULL UNIQUE")
	for _, c := range s.Columns {
		sb.WriteString(",\n    ")
		sb.WriteString(c)
		sb.WriteString(" TEXT")
	}
	sb.WriteString("\n);")
	return sb.String()
}

// FTSTableDDL returns the DDL of the FTS4 table reading its text from the
// content table.
func FTSTableDDL(s Schema) string {
	return fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING fts4(content="%s", %s);`,
		s.Table, s.ContentTable(), strings.Join(s.Columns, ", "))
}

// ContentTriggers returns the trigger DDL that keeps an external content FTS4
// table in sync with its content table. Index entries must be removed before
// the content row changes, since FTS4 reads the old text back from the content
// table to delete them; new entries are added after the change.
func ContentTriggers(contentTable, ftsTable string, columns []string) []string {
	base := sanitizeIdentifier(contentTable)
	newValues := make([]string, len(columns))
	for i, c := range columns {
		newValues[i] = "new." + c
	}
	cols := strings.Join(columns, ", ")
	vals := strings.Join(newValues, ", ")

	deleteTrig := func(suffix, event string) string {
		return fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_%s BEFORE %s ON %s
BEGIN
    DELETE FROM %s WHERE docid = old.rowid;
END;`, base, suffix, event, contentTable, ftsTable)
	}
	insertTrig := func(suffix, event string) string {
		return fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_%s AFTER %s ON %s
BEGIN
    INSERT INTO %s(docid, %s) VALUES (new.rowid, %s);
END;`, base, suffix, event, contentTable, ftsTable, cols, vals)
	}
	return []string{
		deleteTrig("bu", "UPDATE"),
		deleteTrig("bd", "DELETE"),
		insertTrig("au", "UPDATE"),
		insertTrig("ai", "INSERT"),
	}
}

// EnsureSchema creates the content table, the FTS4 table and the sync
// triggers if they do not already exist.
func EnsureSchema(db *sql.DB, s Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	stmts := append([]string{ContentTableDDL(s), FTSTableDDL(s)}, ContentTriggers(s.ContentTable(), s.Table, s.Columns)...)
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("fts: %w", err)
		}
	}
	return nil
}

var mergeCommand = regexp.MustCompile(`^(merge=\d+(,\d+)?|automerge=\d+)$`)

// CommandSQL validates an FTS4 special command for table and returns the
// statement that runs it. The command text is bound as the single argument.
// Supported commands are optimize, rebuild, integrity-check, merge=X[,Y] and
// automerge=N.
func CommandSQL(table, command string) (string, error) {
	if !identifier.MatchString(table) {
		return "", fmt.Errorf("fts: invalid table name %q", table)
	}
	switch command {
	case "optimize", "rebuild", "integrity-check":
	default:
		if !mergeCommand.MatchString(command) {
			return "", fmt.Errorf("fts: unsupported command %q", command)
		}
	}
	return fmt.Sprintf(`INSERT INTO %[1]s(%[1]s) VALUES(?)`, table), nil
}

// RunCommand executes an FTS4 special command against table.
func RunCommand(ctx context.Context, db *sql.DB, table, command string) error {
	stmt, err := CommandSQL(table, command)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, stmt, command)
	return err
}

func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	replacer := strings.NewReplacer(".", "_", "-", "_")
	return replacer.Replace(name)
}
