package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"storefront/internal/utils"
)

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// HasTable reports whether table exists in the current schema. Lookup
// errors read as absent.
func HasTable(ctx context.Context, q QueryRower, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

var schema = []struct {
	table string
	ddl   string
}{
	{"products", `CREATE TABLE IF NOT EXISTS products (
		id             BIGINT AUTO_INCREMENT PRIMARY KEY,
		external_id    BIGINT NULL,
		category       VARCHAR(32) NOT NULL,
		title          VARCHAR(255) NOT NULL,
		description    TEXT NULL,
		image          VARCHAR(1024) NULL,
		images         JSON NOT NULL,
		price          DECIMAL(12,2) NOT NULL,
		original_price DECIMAL(12,2) NULL,
		fabrics        JSON NOT NULL,
		sizes          JSON NOT NULL,
		colors         JSON NOT NULL,
		is_new         TINYINT(1) NOT NULL DEFAULT 0,
		is_active      TINYINT(1) NOT NULL DEFAULT 1,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL,
		KEY idx_products_category (category, is_active, created_at),
		KEY idx_products_price (category, price)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"filter_options", `CREATE TABLE IF NOT EXISTS filter_options (
		id        BIGINT AUTO_INCREMENT PRIMARY KEY,
		category  VARCHAR(32) NOT NULL,
		dimension VARCHAR(16) NOT NULL,
		value     VARCHAR(255) NOT NULL,
		position  INT NOT NULL DEFAULT 0,
		UNIQUE KEY uq_filter_options (category, dimension, value)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// EnsureSchema creates the catalog tables that do not exist yet and returns
// the names it created.
func EnsureSchema(ctx context.Context, db *sql.DB) ([]string, error) {
	var created []string
	for _, t := range schema {
		if HasTable(ctx, db, t.table) {
			continue
		}
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return created, fmt.Errorf("create %s: %w", t.table, err)
		}
		utils.LogEvent("", "schema", "create", "table created")
		created = append(created, t.table)
	}
	return created, nil
}
