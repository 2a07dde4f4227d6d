// Package sqlite provides a SQLite implementation of store.Store.
//
// It uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. The schema is managed through versioned migrations embedded from
// the migrations/ directory; each migration is a pair of .up.sql and
// .down.sql files and applied versions are recorded in schema_migrations.
//
// The store keeps a single open connection, so writes are serialized inside
// the process and like toggles never race each other.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/fairyhunter13/recipe-box-service/internal/model"
	"github.com/fairyhunter13/recipe-box-service/internal/store"
	"github.com/fairyhunter13/recipe-box-service/internal/store/sqlite/migrations"
)

var _ store.Store = (*Store)(nil)

// Store is a SQLite-backed store.Store.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the database file at path and applies
// pending migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	current, err := s.SchemaVersion(context.Background())
	if err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}
	return nil
}

const recipeColumns = `id, title, description, ingredients, instructions, servings, time_to_cook, diets, image_url, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (model.Recipe, error) {
	var (
		r                  model.Recipe
		ingJSON, dietsJSON string
		created            string
	)
	err := row.Scan(&r.ID, &r.Title, &r.Description, &ingJSON, &r.Instructions, &r.Servings,
		&r.TimeToCook, &dietsJSON, &r.ImageURL, &created)
	if err != nil {
		return model.Recipe{}, err
	}
	if err := json.Unmarshal([]byte(ingJSON), &r.Ingredients); err != nil {
		return model.Recipe{}, fmt.Errorf("decoding ingredients of recipe %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(dietsJSON), &r.Diets); err != nil {
		return model.Recipe{}, fmt.Errorf("decoding diets of recipe %d: %w", r.ID, err)
	}
	if len(r.Diets) == 0 {
		r.Diets = nil
	}
	r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return model.Recipe{}, fmt.Errorf("parsing created_at of recipe %d: %w", r.ID, err)
	}
	return r, nil
}

func (s *Store) CreateRecipe(ctx context.Context, r model.Recipe) (model.Recipe, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	ingJSON, err := json.Marshal(r.Ingredients)
	if err != nil {
		return model.Recipe{}, fmt.Errorf("marshalling ingredients: %w", err)
	}
	diets := r.Diets
	if diets == nil {
		diets = []string{}
	}
	dietsJSON, err := json.Marshal(diets)
	if err != nil {
		return model.Recipe{}, fmt.Errorf("marshalling diets: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recipes (title, description, ingredients, instructions, servings, time_to_cook, diets, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Title, r.Description, string(ingJSON), r.Instructions, r.Servings, r.TimeToCook,
		string(dietsJSON), r.ImageURL, r.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Recipe{}, store.ErrDuplicateTitle
		}
		return model.Recipe{}, fmt.Errorf("inserting recipe: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return model.Recipe{}, fmt.Errorf("reading recipe id: %w", err)
	}
	return r, nil
}

func (s *Store) GetRecipe(ctx context.Context, id int64) (model.Recipe, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recipeColumns+" FROM recipes WHERE id = ?", id)
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Recipe{}, store.ErrNotFound
	}
	if err != nil {
		return model.Recipe{}, fmt.Errorf("getting recipe %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) ListRecipes(ctx context.Context) ([]model.Recipe, error) {
	return s.queryRecipes(ctx, "SELECT "+recipeColumns+" FROM recipes ORDER BY id DESC")
}

func (s *Store) DeleteRecipe(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting recipe %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SearchRecipes(ctx context.Context, terms []string) ([]model.Recipe, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	var (
		conds []string
		args  []any
	)
	for _, t := range terms {
		p := "%" + escapeLike(t) + "%"
		conds = append(conds, `(title LIKE ? ESCAPE '\' OR instructions LIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM json_each(recipes.ingredients) j
			           WHERE json_extract(j.value, '$.name') LIKE ? ESCAPE '\'))`)
		args = append(args, p, p, p)
	}
	q := "SELECT " + recipeColumns + " FROM recipes WHERE " + strings.Join(conds, " OR ") + " ORDER BY id DESC"
	return s.queryRecipes(ctx, q, args...)
}

func (s *Store) queryRecipes(ctx context.Context, q string, args ...any) ([]model.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying recipes: %w", err)
	}
	defer rows.Close()
	var out []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ToggleLike(ctx context.Context, visitorID string, recipeID int64) (bool, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := recipeExists(ctx, tx, recipeID); err != nil {
		return false, 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM likes WHERE visitor_id = ? AND recipe_id = ?", visitorID, recipeID)
	if err != nil {
		return false, 0, fmt.Errorf("removing like: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, 0, err
	}
	liked := removed == 0
	if liked {
		if _, err := tx.ExecContext(ctx, "INSERT INTO likes (visitor_id, recipe_id) VALUES (?, ?)", visitorID, recipeID); err != nil {
			return false, 0, fmt.Errorf("adding like: %w", err)
		}
	}
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM likes WHERE recipe_id = ?", recipeID).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("counting likes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("committing like: %w", err)
	}
	return liked, count, nil
}

func (s *Store) LikeCount(ctx context.Context, recipeID int64) (int, error) {
	if err := recipeExists(ctx, s.db, recipeID); err != nil {
		return 0, err
	}
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM likes WHERE recipe_id = ?", recipeID).Scan(&count)
	return count, err
}

func (s *Store) LikedBy(ctx context.Context, visitorID string, recipeID int64) (bool, error) {
	if err := recipeExists(ctx, s.db, recipeID); err != nil {
		return false, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM likes WHERE visitor_id = ? AND recipe_id = ?", visitorID, recipeID).Scan(&n)
	return n > 0, err
}

func (s *Store) SaveNutrition(ctx context.Context, recipeID int64, facts []model.NutritionFact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := recipeExists(ctx, tx, recipeID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM nutrition_facts WHERE recipe_id = ?", recipeID); err != nil {
		return fmt.Errorf("clearing nutrition: %w", err)
	}
	for _, f := range facts {
		var dv sql.NullInt64
		if f.DailyValuePercent != nil {
			dv = sql.NullInt64{Int64: int64(*f.DailyValuePercent), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO nutrition_facts (recipe_id, nutrient, label, amount, unit, daily_value_percent)
			VALUES (?, ?, ?, ?, ?, ?)`, recipeID, f.Nutrient, f.Label, f.Amount, f.Unit, dv)
		if err != nil {
			return fmt.Errorf("inserting nutrient %s: %w", f.Nutrient, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Nutrition(ctx context.Context, recipeID int64) ([]model.NutritionFact, error) {
	if err := recipeExists(ctx, s.db, recipeID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT nutrient, label, amount, unit, daily_value_percent
		FROM nutrition_facts WHERE recipe_id = ? ORDER BY id`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("querying nutrition: %w", err)
	}
	defer rows.Close()
	var out []model.NutritionFact
	for rows.Next() {
		f := model.NutritionFact{RecipeID: recipeID}
		var dv sql.NullInt64
		if err := rows.Scan(&f.Nutrient, &f.Label, &f.Amount, &f.Unit, &dv); err != nil {
			return nil, err
		}
		if dv.Valid {
			v := int(dv.Int64)
			f.DailyValuePercent = &v
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func recipeExists(ctx context.Context, q querier, id int64) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM recipes WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
