package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/capitalize-ai/sales-deck/internal/deck"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSQLite opens (creating if needed) the database at dbPath.
func NewSQLite(dbPath string, log *logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.Global()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: log}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		picture TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_sessions (
		session_token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON user_sessions(expires_at);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		industry TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_clients_user ON clients(user_id, created_at);

	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		content TEXT NOT NULL,
		file_url TEXT NOT NULL DEFAULT '',
		file_name TEXT NOT NULL DEFAULT '',
		file_data TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_assets_user ON assets(user_id, type, created_at);

	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		client_name TEXT NOT NULL,
		project_scope TEXT NOT NULL,
		notes TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_leads_user ON leads(user_id, created_at);

	CREATE TABLE IF NOT EXISTS decks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		lead_id TEXT NOT NULL,
		lead_name TEXT NOT NULL,
		content_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_decks_user ON decks(user_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (s *SQLiteStore) closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		s.logger.Warn("failed to close rows", zap.String("query", what), zap.Error(err))
	}
}

// requireAffected maps a zero-row write to ErrNotFound.
func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// UpsertUserByEmail stores u unless its email is already registered.
func (s *SQLiteStore) UpsertUserByEmail(ctx context.Context, u *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (id, email, name, picture, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(email) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Email, u.Name, u.Picture, millis(u.CreatedAt)); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, picture, created_at FROM users WHERE email = ?`, u.Email)
	return scanUser(row)
}

// GetUser retrieves a user by id.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, picture, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var createdAt int64
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

// CreateSession stores a session.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *model.Session) error {
	query := `
	INSERT INTO user_sessions (session_token, user_id, expires_at, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(session_token) DO UPDATE SET
		user_id = excluded.user_id,
		expires_at = excluded.expires_at`

	_, err := s.db.ExecContext(ctx, query, sess.Token, sess.UserID, millis(sess.ExpiresAt), millis(sess.CreatedAt))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by token.
func (s *SQLiteStore) GetSession(ctx context.Context, token string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_token, user_id, expires_at, created_at FROM user_sessions WHERE session_token = ?`, token)

	var sess model.Session
	var expiresAt, createdAt int64
	err := row.Scan(&sess.Token, &sess.UserID, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	sess.ExpiresAt = fromMillis(expiresAt)
	sess.CreatedAt = fromMillis(createdAt)
	return &sess, nil
}

// DeleteSession removes a session.
func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE session_token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before now.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at < ?`, millis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// CreateClient stores a client.
func (s *SQLiteStore) CreateClient(ctx context.Context, c *model.Client) error {
	query := `
	INSERT INTO clients (id, user_id, name, industry, description, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, c.ID, c.UserID, c.Name, c.Industry, c.Description, millis(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

const clientColumns = `id, user_id, name, industry, description, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (*model.Client, error) {
	var c model.Client
	var createdAt int64
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Industry, &c.Description, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(createdAt)
	return &c, nil
}

// ListClients returns a user's clients oldest first.
func (s *SQLiteStore) ListClients(ctx context.Context, userID string) ([]model.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer s.closeRows(rows, "clients")

	out := []model.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client row: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return out, nil
}

// GetClient retrieves one of a user's clients.
func (s *SQLiteStore) GetClient(ctx context.Context, userID, id string) (*model.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan client row: %w", err)
	}
	return c, nil
}

// UpdateClient overwrites the mutable fields of a client.
func (s *SQLiteStore) UpdateClient(ctx context.Context, c *model.Client) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE clients SET name = ?, industry = ?, description = ? WHERE id = ? AND user_id = ?`,
		c.Name, c.Industry, c.Description, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return requireAffected(res, "update client")
}

// DeleteClient removes one of a user's clients.
func (s *SQLiteStore) DeleteClient(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return requireAffected(res, "delete client")
}

// CreateAsset stores an asset.
func (s *SQLiteStore) CreateAsset(ctx context.Context, a *model.Asset) error {
	query := `
	INSERT INTO assets (id, user_id, type, name, content, file_url, file_name, file_data, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.UserID, string(a.Type), a.Name, a.Content,
		a.FileURL, a.FileName, a.FileData, millis(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// ListAssets returns a user's assets oldest first, optionally filtered by type.
func (s *SQLiteStore) ListAssets(ctx context.Context, userID string, assetType model.AssetType) ([]model.Asset, error) {
	query := `SELECT id, user_id, type, name, content, file_url, file_name, file_data, created_at
		FROM assets WHERE user_id = ?`
	args := []any{userID}
	if assetType != "" {
		query += ` AND type = ?`
		args = append(args, string(assetType))
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer s.closeRows(rows, "assets")

	out := []model.Asset{}
	for rows.Next() {
		var a model.Asset
		var typ string
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.UserID, &typ, &a.Name, &a.Content,
			&a.FileURL, &a.FileName, &a.FileData, &createdAt); err != nil {
			return nil, fmt.Errorf("scan asset row: %w", err)
		}
		a.Type = model.AssetType(typ)
		a.CreatedAt = fromMillis(createdAt)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return out, nil
}

// DeleteAsset removes one of a user's assets.
func (s *SQLiteStore) DeleteAsset(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return requireAffected(res, "delete asset")
}

const leadColumns = `id, user_id, client_id, client_name, project_scope, notes, status, created_at`

func scanLead(row scanner) (*model.Lead, error) {
	var l model.Lead
	var status string
	var createdAt int64
	if err := row.Scan(&l.ID, &l.UserID, &l.ClientID, &l.ClientName,
		&l.ProjectScope, &l.Notes, &status, &createdAt); err != nil {
		return nil, err
	}
	l.Status = model.LeadStatus(status)
	l.CreatedAt = fromMillis(createdAt)
	return &l, nil
}

// CreateLead stores a lead.
func (s *SQLiteStore) CreateLead(ctx context.Context, l *model.Lead) error {
	query := `
	INSERT INTO leads (id, user_id, client_id, client_name, project_scope, notes, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		l.ID, l.UserID, l.ClientID, l.ClientName, l.ProjectScope, l.Notes, string(l.Status), millis(l.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// ListLeads returns a user's leads oldest first.
func (s *SQLiteStore) ListLeads(ctx context.Context, userID string) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer s.closeRows(rows, "leads")

	out := []model.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead row: %w", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return out, nil
}

// GetLead retrieves one of a user's leads.
func (s *SQLiteStore) GetLead(ctx context.Context, userID, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ? AND user_id = ?`, id, userID)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lead %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead row: %w", err)
	}
	return l, nil
}

// UpdateLead overwrites the mutable fields of a lead.
func (s *SQLiteStore) UpdateLead(ctx context.Context, l *model.Lead) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leads SET client_id = ?, client_name = ?, project_scope = ?, notes = ?, status = ?
		WHERE id = ? AND user_id = ?`,
		l.ClientID, l.ClientName, l.ProjectScope, l.Notes, string(l.Status), l.ID, l.UserID)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return requireAffected(res, "update lead")
}

// DeleteLead removes one of a user's leads.
func (s *SQLiteStore) DeleteLead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return requireAffected(res, "delete lead")
}

// CreateDeck stores a generated deck.
func (s *SQLiteStore) CreateDeck(ctx context.Context, d *model.Deck) error {
	content, err := json.Marshal(d.Content)
	if err != nil {
		return fmt.Errorf("encode deck content: %w", err)
	}

	query := `
	INSERT INTO decks (id, user_id, lead_id, lead_name, content_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query,
		d.ID, d.UserID, d.LeadID, d.LeadName, string(content), millis(d.CreatedAt)); err != nil {
		return fmt.Errorf("insert deck: %w", err)
	}
	return nil
}

const deckColumns = `id, user_id, lead_id, lead_name, content_json, created_at`

func scanDeck(row scanner) (*model.Deck, error) {
	var d model.Deck
	var content string
	var createdAt int64
	if err := row.Scan(&d.ID, &d.UserID, &d.LeadID, &d.LeadName, &content, &createdAt); err != nil {
		return nil, err
	}
	// Content decoding is lenient and never fails.
	var c deck.Content
	_ = json.Unmarshal([]byte(content), &c)
	d.Content = c
	d.CreatedAt = fromMillis(createdAt)
	return &d, nil
}

// ListDecks returns a user's decks oldest first.
func (s *SQLiteStore) ListDecks(ctx context.Context, userID string) ([]model.Deck, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE user_id = ? ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("query decks: %w", err)
	}
	defer s.closeRows(rows, "decks")

	out := []model.Deck{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deck row: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decks: %w", err)
	}
	return out, nil
}

// GetDeck retrieves one of a user's decks.
func (s *SQLiteStore) GetDeck(ctx context.Context, userID, id string) (*model.Deck, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deckColumns+` FROM decks WHERE id = ? AND user_id = ?`, id, userID)
	d, err := scanDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deck %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan deck row: %w", err)
	}
	return d, nil
}

var _ Repository = (*SQLiteStore)(nil)
