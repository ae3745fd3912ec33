package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/custodia-labs/galassia/internal/core/domain"
	"github.com/custodia-labs/galassia/internal/core/ports/driven"
)

// GraphStore returns the dish graph backed by this store.
func (s *Store) GraphStore() *GraphStore {
	return &GraphStore{store: s}
}

// GraphStore implements driven.GraphStore over dish, ingredient and
// technique tables. Names are compared case-insensitively.
type GraphStore struct {
	store *Store
}

var (
	_ driven.GraphStore           = (*GraphStore)(nil)
	_ driven.GraphSchemaDescriber = (*GraphStore)(nil)
)

// expressionSchema describes the tables of 003_dish_graph for generated queries.
const expressionSchema = `dishes(id INTEGER PRIMARY KEY, name TEXT, restaurant TEXT, chef TEXT, planet TEXT)
dish_ingredients(dish_id INTEGER REFERENCES dishes(id), ingredient TEXT)
dish_techniques(dish_id INTEGER REFERENCES dishes(id), technique TEXT)`

// ExpressionSchema describes the tables QueryByRawExpression can read.
func (g *GraphStore) ExpressionSchema() string {
	return expressionSchema
}

// AddDishes stores dishes with their ingredient and technique edges.
// A dish is identified by name and restaurant; re-adding replaces its edges.
func (g *GraphStore) AddDishes(ctx context.Context, dishes []domain.Dish) error {
	tx, err := g.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, d := range dishes {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("%w: dish without name", domain.ErrInvalidInput)
		}

		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO dishes (name, restaurant, chef, planet)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(name, restaurant) DO UPDATE SET
				chef = excluded.chef,
				planet = excluded.planet
			RETURNING id
		`, d.Name, d.Restaurant, d.Chef, d.Planet).Scan(&id)
		if err != nil {
			return fmt.Errorf("saving dish %q: %w", d.Name, err)
		}

		if err := replaceEdges(ctx, tx, "dish_ingredients", "ingredient", id, d.Ingredients); err != nil {
			return err
		}
		if err := replaceEdges(ctx, tx, "dish_techniques", "technique", id, d.Techniques); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func replaceEdges(ctx context.Context, tx *sql.Tx, table, column string, dishID int64, values []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE dish_id = ?", dishID); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}
	for _, v := range values {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO "+table+" (dish_id, "+column+") VALUES (?, ?)", dishID, v); err != nil {
			return fmt.Errorf("saving %s: %w", table, err)
		}
	}
	return nil
}

// QueryByIngredients returns dishes containing every ingredient.
func (g *GraphStore) QueryByIngredients(ctx context.Context, ingredients []string) ([]domain.Dish, error) {
	wanted := make(map[string]struct{}, len(ingredients))
	for _, ing := range ingredients {
		if ing = strings.ToLower(strings.TrimSpace(ing)); ing != "" {
			wanted[ing] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return nil, fmt.Errorf("%w: no ingredients", domain.ErrInvalidInput)
	}

	args := make([]any, 0, len(wanted)+1)
	for ing := range wanted {
		args = append(args, ing)
	}
	args = append(args, len(wanted))

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(wanted)), ", ")
	return g.queryDishes(ctx, `
		SELECT d.id, d.name, d.restaurant, d.chef, d.planet
		FROM dishes d
		WHERE (
			SELECT COUNT(DISTINCT lower(i.ingredient))
			FROM dish_ingredients i
			WHERE i.dish_id = d.id AND lower(i.ingredient) IN (`+placeholders+`)
		) = ?
		ORDER BY d.id
	`, args...)
}

// QueryByLocation returns dishes served on a planet.
func (g *GraphStore) QueryByLocation(ctx context.Context, planet string) ([]domain.Dish, error) {
	return g.queryDishes(ctx, `
		SELECT id, name, restaurant, chef, planet
		FROM dishes WHERE lower(planet) = lower(?)
		ORDER BY id
	`, strings.TrimSpace(planet))
}

// QueryByRawExpression runs a read-only SQL query with named parameters
// (:name) and returns each row as a column map.
func (g *GraphStore) QueryByRawExpression(
	ctx context.Context, expr string, params map[string]any,
) ([]map[string]any, error) {
	if !isReadOnly(expr) {
		return nil, fmt.Errorf("%w: only SELECT queries are allowed", domain.ErrInvalidInput)
	}

	args := make([]any, 0, len(params))
	for name, value := range params {
		args = append(args, sql.Named(name, value))
	}

	rows, err := g.store.db.QueryContext(ctx, expr, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreQuery, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

// Close is a no-op; the owning Store closes the connection.
func (g *GraphStore) Close() error {
	return nil
}

func isReadOnly(expr string) bool {
	fields := strings.Fields(strings.ToUpper(expr))
	if len(fields) == 0 {
		return false
	}
	if fields[0] != "SELECT" && fields[0] != "WITH" {
		return false
	}
	for _, f := range fields {
		switch strings.Trim(f, "(;") {
		case "INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE", "REPLACE", "ATTACH", "PRAGMA":
			return false
		}
	}
	return true
}

func (g *GraphStore) queryDishes(ctx context.Context, query string, args ...any) ([]domain.Dish, error) {
	rows, err := g.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying dishes: %w: %w", domain.ErrStoreUnavailable, err)
	}

	var (
		ids    []int64
		dishes []domain.Dish
	)
	for rows.Next() {
		var (
			id int64
			d  domain.Dish
		)
		if err := rows.Scan(&id, &d.Name, &d.Restaurant, &d.Chef, &d.Planet); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning dish: %w", err)
		}
		ids = append(ids, id)
		dishes = append(dishes, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating dishes: %w", err)
	}
	rows.Close()

	for i, id := range ids {
		if dishes[i].Ingredients, err = g.edges(ctx, "dish_ingredients", "ingredient", id); err != nil {
			return nil, err
		}
		if dishes[i].Techniques, err = g.edges(ctx, "dish_techniques", "technique", id); err != nil {
			return nil, err
		}
	}
	return dishes, nil
}

func (g *GraphStore) edges(ctx context.Context, table, column string, dishID int64) ([]string, error) {
	rows, err := g.store.db.QueryContext(ctx,
		"SELECT "+column+" FROM "+table+" WHERE dish_id = ? ORDER BY rowid", dishID)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
