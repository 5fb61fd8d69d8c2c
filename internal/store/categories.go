package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
)

const categoryColumns = `id, name, color, icon, is_default`

func scanCategory(r rowScanner) (*model.Category, error) {
	var c model.Category
	var isDefault int
	if err := r.Scan(&c.ID, &c.Name, &c.Color, &c.Icon, &isDefault); err != nil {
		return nil, err
	}
	c.IsDefault = isDefault != 0
	return &c, nil
}

// Category loads a category by id.
func (q *Queries) Category(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	c, err := scanCategory(q.row(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFound("category", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading category %s: %w", id, err)
	}
	return c, nil
}

// CategoryByName looks a category up by its (case-insensitive) name.
func (q *Queries) CategoryByName(ctx context.Context, name string) (*model.Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	c, err := scanCategory(q.row(ctx, `SELECT `+categoryColumns+` FROM categories WHERE LOWER(name) = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "category", ID: name}
	}
	if err != nil {
		return nil, fmt.Errorf("loading category %q: %w", name, err)
	}
	return c, nil
}

// Categories lists every category by name.
func (q *Queries) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := q.query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// InsertCategory adds a user category. Names are unique.
func (q *Queries) InsertCategory(ctx context.Context, c *model.Category) error {
	_, err := q.exec(ctx, `INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Color, c.Icon, boolInt(c.IsDefault))
	if err != nil {
		return fmt.Errorf("inserting category: %w", mapErr(err, "categories.name"))
	}
	return nil
}
