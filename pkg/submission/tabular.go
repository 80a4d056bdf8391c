package submission

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Datatable widgets flatten each cell into a runtime key of the form
// `<table>__<column>_<row>`, e.g. "inventory__col1_1". One schema field fans
// out into many such keys, so they bypass field resolution entirely and are
// carried verbatim in the normalized state.

var flattenedRowSuffix = regexp.MustCompile(`_(\d+)$`)

// IsFlattenedKey reports whether a submission key matches the flattened
// datatable cell pattern. This check runs before any field resolution.
func IsFlattenedKey(key string) bool {
	return strings.Contains(key, "__") && flattenedRowSuffix.MatchString(key)
}

// ParseFlattenedKey splits a flattened cell key into its table name, column
// name, and 1-based row number. Keys with an empty table or column segment
// report ok=false even though IsFlattenedKey may accept them; the walker only
// needs the looser membership test.
func ParseFlattenedKey(key string) (table, column string, row int, ok bool) {
	sep := strings.Index(key, "__")
	if sep <= 0 {
		return "", "", 0, false
	}
	rest := key[sep+2:]

	match := flattenedRowSuffix.FindStringSubmatchIndex(rest)
	if match == nil {
		return "", "", 0, false
	}
	column = rest[:match[0]]
	if column == "" {
		return "", "", 0, false
	}

	row, err := strconv.Atoi(rest[match[2]:match[3]])
	if err != nil {
		return "", "", 0, false
	}
	return key[:sep], column, row, true
}

// FlattenTable produces the runtime cell keys for a datatable value. Rows are
// numbered from 1 to match the keys historical submissions contain.
func FlattenTable(table string, rows []map[string]any) map[string]any {
	table = strings.TrimSpace(table)
	if table == "" || len(rows) == 0 {
		return nil
	}
	out := make(map[string]any)
	for i, rowData := range rows {
		for column, value := range rowData {
			column = strings.TrimSpace(column)
			if column == "" {
				continue
			}
			out[fmt.Sprintf("%s__%s_%d", table, column, i+1)] = value
		}
	}
	return out
}

// CollectTable gathers the flattened cells belonging to one table out of a
// normalized state, rebuilding rows in row-number order. Row numbers with no
// surviving cells are skipped.
func CollectTable(state State, table string) []map[string]any {
	table = strings.TrimSpace(table)
	if table == "" || len(state) == 0 {
		return nil
	}

	rows := make(map[int]map[string]any)
	maxRow := 0
	for key, value := range state {
		keyTable, column, row, ok := ParseFlattenedKey(key)
		if !ok || keyTable != table {
			continue
		}
		if rows[row] == nil {
			rows[row] = make(map[string]any)
		}
		rows[row][column] = value
		if row > maxRow {
			maxRow = row
		}
	}
	if len(rows) == 0 {
		return nil
	}

	out := make([]map[string]any, 0, len(rows))
	for row := 1; row <= maxRow; row++ {
		if cells, ok := rows[row]; ok {
			out = append(out, cells)
		}
	}
	return out
}
