package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// MissingColumns returns the required columns that the table does not have.
// A missing table reports every required column as missing.
func MissingColumns(db *gorm.DB, table string, required []string) ([]string, error) {
	if !db.Migrator().HasTable(table) {
		return append([]string(nil), required...), nil
	}

	columnTypes, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}

	present := make(map[string]struct{}, len(columnTypes))
	for _, col := range columnTypes {
		present[strings.ToLower(col.Name())] = struct{}{}
	}

	var missing []string
	for _, name := range required {
		if _, ok := present[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
