package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/query"
)

const productColumns = `p.id, p.external_id, p.category, p.title, p.description, p.image, p.images,
	p.price, p.original_price, p.fabrics, p.sizes, p.colors, p.is_new, p.is_active, p.created_at`

// CatalogRepository reads and maintains the products and filter_options
// tables. Tag columns (fabrics, sizes, colors, images) are JSON string arrays.
type CatalogRepository struct {
	DB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

// FindItems returns every product matching q in q's order.
func (r CatalogRepository) FindItems(ctx context.Context, q query.Query) ([]models.CatalogItem, error) {
	rendered, err := query.RenderSQL(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products p WHERE `+rendered.Where+` ORDER BY `+rendered.OrderBy,
		rendered.Args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	items := []models.CatalogItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountOptions counts, per dimension, how many products matching q carry
// each lower-cased option value.
func (r CatalogRepository) CountOptions(ctx context.Context, q query.Query) (models.OptionCounts, error) {
	rendered, err := query.RenderSQL(q)
	if err != nil {
		return nil, err
	}

	counts := models.NewOptionCounts()
	for _, d := range domain.Dimensions() {
		col, _ := query.SQLColumn(query.TagField(d))
		stmt := `SELECT LOWER(opt.tag), COUNT(DISTINCT p.id)
			FROM products p
			JOIN JSON_TABLE(` + col + `, '$[*]' COLUMNS (tag VARCHAR(255) PATH '$')) AS opt
			WHERE ` + rendered.Where + `
			GROUP BY LOWER(opt.tag)`

		rows, err := r.DB.QueryContext(ctx, stmt, rendered.Args...)
		if err != nil {
			return nil, fmt.Errorf("count %s options: %w", d, err)
		}
		for rows.Next() {
			var (
				tag string
				n   int
			)
			if err := rows.Scan(&tag, &n); err != nil {
				rows.Close()
				return nil, err
			}
			counts[d][tag] = n
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return counts, nil
}

// GetItem loads one active product by id.
func (r CatalogRepository) GetItem(ctx context.Context, id string) (models.CatalogItem, error) {
	pid, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || pid <= 0 {
		return models.CatalogItem{}, domain.NotFoundError{Resource: "product"}
	}

	row := r.DB.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.id = ? AND p.is_active = 1`, pid)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CatalogItem{}, domain.NotFoundError{Resource: "product", Err: err}
		}
		return models.CatalogItem{}, err
	}
	return it, nil
}

// FilterConfig loads the option lists of category from filter_options and
// its price bounds from active products. Unknown bounds fall back to the
// default range.
func (r CatalogRepository) FilterConfig(ctx context.Context, category domain.Category) (models.FilterConfig, error) {
	cfg := models.FilterConfig{
		Category: category,
		Fabrics:  []string{},
		Colors:   []string{},
		Sizes:    []string{},
		Price:    models.DefaultPriceBounds,
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT dimension, value FROM filter_options WHERE category = ? ORDER BY dimension, position, id`,
		string(category))
	if err != nil {
		return cfg, fmt.Errorf("query filter options: %w", err)
	}
	for rows.Next() {
		var dim, value string
		if err := rows.Scan(&dim, &value); err != nil {
			rows.Close()
			return cfg, err
		}
		switch domain.Dimension(dim) {
		case domain.DimensionFabric:
			cfg.Fabrics = append(cfg.Fabrics, value)
		case domain.DimensionColor:
			cfg.Colors = append(cfg.Colors, value)
		case domain.DimensionSize:
			cfg.Sizes = append(cfg.Sizes, value)
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return cfg, err
	}

	var lo, hi sql.NullFloat64
	if err := r.DB.QueryRowContext(ctx,
		`SELECT MIN(price), MAX(price) FROM products WHERE category = ? AND is_active = 1`,
		string(category)).Scan(&lo, &hi); err != nil {
		return cfg, fmt.Errorf("query price bounds: %w", err)
	}
	if lo.Valid && hi.Valid && lo.Float64 < hi.Float64 {
		cfg.Price = models.PriceBounds{Min: lo.Float64, Max: hi.Float64}
	}
	return cfg, nil
}

// UpsertItem inserts it when it has no id yet, otherwise updates the row.
func (r CatalogRepository) UpsertItem(ctx context.Context, it models.CatalogItem) (models.CatalogItem, error) {
	images, _ := json.Marshal(nonNil(it.Images))
	fabrics, _ := json.Marshal(nonNil(it.Fabrics))
	sizes, _ := json.Marshal(nonNil(it.Sizes))
	colors, _ := json.Marshal(nonNil(it.Colors))

	var external any
	if it.ExternalID > 0 {
		external = it.ExternalID
	}
	var original any
	if it.OriginalPrice != nil {
		original = *it.OriginalPrice
	}
	now := time.Now()

	if strings.TrimSpace(it.ID) == "" {
		res, err := r.DB.ExecContext(ctx, `INSERT INTO products
			(external_id, category, title, description, image, images, price, original_price,
			 fabrics, sizes, colors, is_new, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			external, string(it.Category), it.Title, it.Description, it.Image, string(images), it.Price, original,
			string(fabrics), string(sizes), string(colors), it.IsNew, now, now)
		if err != nil {
			return it, fmt.Errorf("insert product: %w", err)
		}
		id, _ := res.LastInsertId()
		it.ID = strconv.FormatInt(id, 10)
		it.Active = true
		it.CreatedAt = now
		return it, nil
	}

	pid, err := strconv.ParseInt(it.ID, 10, 64)
	if err != nil {
		return it, domain.ValidationError{Field: "id", Msg: "must be numeric"}
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE products SET
			external_id = ?, category = ?, title = ?, description = ?, image = ?, images = ?, price = ?,
			original_price = ?, fabrics = ?, sizes = ?, colors = ?, is_new = ?, is_active = 1, updated_at = ?
			WHERE id = ?`,
		external, string(it.Category), it.Title, it.Description, it.Image, string(images), it.Price,
		original, string(fabrics), string(sizes), string(colors), it.IsNew, now, pid)
	if err != nil {
		return it, fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return it, domain.NotFoundError{Resource: "product"}
	}
	it.Active = true
	return it, nil
}

// DeactivateItem hides a product from every listing.
func (r CatalogRepository) DeactivateItem(ctx context.Context, id string) error {
	pid, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || pid <= 0 {
		return domain.NotFoundError{Resource: "product"}
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE products SET is_active = 0, updated_at = ? WHERE id = ?`, time.Now(), pid)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "product"}
	}
	return nil
}

// ReplaceFilterOptions swaps the option lists of cfg.Category in one
// transaction. Price bounds are derived from products and not stored.
func (r CatalogRepository) ReplaceFilterOptions(ctx context.Context, cfg models.FilterConfig) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM filter_options WHERE category = ?`, string(cfg.Category)); err != nil {
		return fmt.Errorf("clear filter options: %w", err)
	}
	for _, d := range domain.Dimensions() {
		for i, v := range domain.NormalizeTags(cfg.Options(d)) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO filter_options (category, dimension, value, position) VALUES (?, ?, ?, ?)`,
				string(cfg.Category), string(d), v, i); err != nil {
				return fmt.Errorf("insert filter option: %w", err)
			}
		}
	}
	return tx.Commit()
}

func scanItem(s rowScanner) (models.CatalogItem, error) {
	var (
		it                             models.CatalogItem
		id                             int64
		external                       sql.NullInt64
		category                       string
		description, image             sql.NullString
		images, fabrics, sizes, colors []byte
		original                       sql.NullFloat64
	)
	if err := s.Scan(&id, &external, &category, &it.Title, &description, &image, &images,
		&it.Price, &original, &fabrics, &sizes, &colors, &it.IsNew, &it.Active, &it.CreatedAt); err != nil {
		return it, err
	}

	it.ID = strconv.FormatInt(id, 10)
	it.ExternalID = external.Int64
	it.Category = domain.Category(category)
	it.Description = description.String
	it.Image = image.String
	if original.Valid {
		v := original.Float64
		it.OriginalPrice = &v
	}

	for _, col := range []struct {
		name string
		raw  []byte
		dst  *[]string
	}{
		{"images", images, &it.Images},
		{"fabrics", fabrics, &it.Fabrics},
		{"sizes", sizes, &it.Sizes},
		{"colors", colors, &it.Colors},
	} {
		values, err := decodeTags(col.raw)
		if err != nil {
			return it, domain.InternalError{Msg: fmt.Sprintf("product %d has malformed %s", id, col.name), Err: err}
		}
		*col.dst = values
	}
	if it.Image == "" && len(it.Images) > 0 {
		it.Image = it.Images[0]
	}
	return it, nil
}

func decodeTags(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
