package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/nikbrunner/linkhub/internal/model"
)

//go:embed migrations
var migrations embed.FS

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

const linkColumns = `id, title, url, created_at, category, is_favorite, click_count, last_opened, notes, favicon_url`

// SQLiteStore implements Store using a SQLite database.
type SQLiteStore struct {
	db   *sqlx.DB
	path string

	mu       sync.Mutex // serializes writes
	watchers watchers
}

// NewSQLiteStore opens (or creates) the database at path and migrates it.
// Pass ":memory:" for a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, model.WrapStorage("open", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, model.WrapStorage("open", err)
	}
	// One connection keeps pragmas and in-memory databases consistent.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, model.WrapStorage("open", err)
		}
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, model.WrapStorage("migrate", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Migrate runs all pending goose migrations from the embedded SQL files.
func Migrate(db *sqlx.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("sub migrations fs: %w", err)
	}

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.Up(db.DB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// gooseLogger sends migration output to slog instead of stdout.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "migrate")
}

func (gooseLogger) Fatalf(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...), "component", "migrate")
	os.Exit(1)
}

// SchemaVersion returns the applied migration version.
func (s *SQLiteStore) SchemaVersion() (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(s.db.DB)
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Watch implements Store.
func (s *SQLiteStore) Watch(fn func()) func() {
	return s.watchers.add(fn)
}

func (s *SQLiteStore) list(ctx context.Context, op, where string, args ...any) ([]model.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links ` + where + ` ORDER BY created_at DESC, id DESC`
	links := []model.Link{}
	if err := s.db.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, model.WrapStorage(op, err)
	}
	return links, nil
}

// All returns every link, newest first.
func (s *SQLiteStore) All(ctx context.Context) ([]model.Link, error) {
	return s.list(ctx, "all", "")
}

// Favorites returns favorite links, newest first.
func (s *SQLiteStore) Favorites(ctx context.Context) ([]model.Link, error) {
	return s.list(ctx, "favorites", "WHERE is_favorite = 1")
}

// ByCategory returns links in category, newest first.
func (s *SQLiteStore) ByCategory(ctx context.Context, category string) ([]model.Link, error) {
	return s.list(ctx, "by category", "WHERE category = ?", category)
}

// Categories returns the distinct categories in ascending order.
func (s *SQLiteStore) Categories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := s.db.SelectContext(ctx, &categories, `SELECT DISTINCT category FROM links ORDER BY category ASC`)
	if err != nil {
		return nil, model.WrapStorage("categories", err)
	}
	return categories, nil
}

// Get returns the link with id, or model.ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (model.Link, error) {
	var link model.Link
	err := s.db.GetContext(ctx, &link, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Link{}, model.ErrNotFound
	}
	if err != nil {
		return model.Link{}, model.WrapStorage("get", err)
	}
	return link, nil
}

// Insert stores link under a new AUTOINCREMENT id, so ids are never reused.
func (s *SQLiteStore) Insert(ctx context.Context, link model.Link) (model.Link, error) {
	s.mu.Lock()
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO links (title, url, created_at, category, is_favorite, click_count, last_opened, notes, favicon_url)
		VALUES (:title, :url, :created_at, :category, :is_favorite, :click_count, :last_opened, :notes, :favicon_url)
	`, link)
	s.mu.Unlock()
	if err != nil {
		return model.Link{}, model.WrapStorage("insert", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Link{}, model.WrapStorage("insert", err)
	}
	link.ID = id

	s.watchers.notify()
	return link, nil
}

// Update replaces the editable fields of an existing link.
func (s *SQLiteStore) Update(ctx context.Context, link model.Link) error {
	s.mu.Lock()
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE links
		SET title = :title, url = :url, category = :category, is_favorite = :is_favorite,
		    notes = :notes, favicon_url = :favicon_url
		WHERE id = :id
	`, link)
	s.mu.Unlock()

	if err := requireRow("update", res, err); err != nil {
		return err
	}
	s.watchers.notify()
	return nil
}

// Delete removes the link with id.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	s.mu.Unlock()

	if err := requireRow("delete", res, err); err != nil {
		return err
	}
	s.watchers.notify()
	return nil
}

// RecordOpen bumps the click counter and last-opened time in one statement.
// A row deleted concurrently simply reports model.ErrNotFound.
func (s *SQLiteStore) RecordOpen(ctx context.Context, id int64, atMillis int64) error {
	s.mu.Lock()
	res, err := s.db.ExecContext(ctx, `
		UPDATE links SET click_count = click_count + 1, last_opened = ? WHERE id = ?
	`, atMillis, id)
	s.mu.Unlock()

	if err := requireRow("record open", res, err); err != nil {
		return err
	}
	s.watchers.notify()
	return nil
}

// requireRow maps a zero-row statement to model.ErrNotFound.
func requireRow(op string, res sql.Result, err error) error {
	if err != nil {
		return model.WrapStorage(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.WrapStorage(op, err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
