package warehouse

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

// stagingOrdinal records batch order in the staging table so the last
// occurrence of a duplicated key wins.
const stagingOrdinal = "_batch_row"

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = ident(n)
	}
	return strings.Join(quoted, ", ")
}

func nonKeyColumns(columns, keys []string) []string {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	var out []string
	for _, c := range columns {
		if !isKey[c] {
			out = append(out, c)
		}
	}
	return out
}

func buildStagingSQL(staging, dest string) []string {
	return []string{
		"CREATE TEMP TABLE " + staging + " (LIKE " + dest + " INCLUDING DEFAULTS) ON COMMIT DROP",
		"ALTER TABLE " + staging + " ADD COLUMN " + ident(stagingOrdinal) + " BIGINT",
	}
}

// dedupedStaging selects the last staged row per key.
func dedupedStaging(staging string, columns, keys []string) string {
	return "SELECT DISTINCT ON (" + identList(keys) + ") " + identList(columns) +
		" FROM " + staging +
		" ORDER BY " + identList(keys) + ", " + ident(stagingOrdinal) + " DESC"
}

// buildUpsertSQL inserts staged rows and overwrites every non-key column
// of rows whose key already exists.
func buildUpsertSQL(dest, staging string, columns, keys []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(dest)
	b.WriteString(" (")
	b.WriteString(identList(columns))
	b.WriteString(")\n")
	b.WriteString(dedupedStaging(staging, columns, keys))
	b.WriteString("\nON CONFLICT (")
	b.WriteString(identList(keys))
	b.WriteString(") ")

	update := nonKeyColumns(columns, keys)
	if len(update) == 0 {
		b.WriteString("DO NOTHING")
		return b.String()
	}
	b.WriteString("DO UPDATE SET ")
	for i, c := range update {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ident(c))
		b.WriteString(" = EXCLUDED.")
		b.WriteString(ident(c))
	}
	return b.String()
}

// buildUpdateOnlySQL updates matched rows only. A null staged value keeps
// the existing value; the insertion time is always refreshed.
func buildUpdateOnlySQL(dest, staging string, columns, keys []string) string {
	update := nonKeyColumns(columns, keys)
	if len(update) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(dest)
	b.WriteString(" AS target SET ")
	for i, c := range update {
		if i > 0 {
			b.WriteString(", ")
		}
		col := ident(c)
		b.WriteString(col)
		if c == InsertionColumn {
			b.WriteString(" = source." + col)
			continue
		}
		b.WriteString(" = COALESCE(source." + col + ", target." + col + ")")
	}
	b.WriteString("\nFROM (")
	b.WriteString(dedupedStaging(staging, columns, keys))
	b.WriteString(") AS source\nWHERE ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(" AND ")
		}
		col := ident(k)
		b.WriteString("target." + col + " = source." + col)
	}
	return b.String()
}
