package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"orgmind/internal/domain"
)

// SQLiteAgentStore implements domain.AgentStore using SQLite.
type SQLiteAgentStore struct {
	db *sql.DB
}

// NewSQLiteAgentStore opens (or creates) a SQLite database at dbPath
// and runs the schema migration.
func NewSQLiteAgentStore(dbPath string) (*SQLiteAgentStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open agent db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate agent db: %w", err)
	}
	return &SQLiteAgentStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS agent_profiles (
			id                  TEXT PRIMARY KEY,
			org_id              TEXT NOT NULL,
			name                TEXT NOT NULL,
			role                TEXT NOT NULL,
			specialist_key      TEXT NOT NULL DEFAULT '',
			provider            TEXT NOT NULL,
			model               TEXT NOT NULL,
			temperature         REAL NOT NULL DEFAULT 0,
			max_tokens          INTEGER NOT NULL DEFAULT 0,
			system_prompt       TEXT NOT NULL DEFAULT '',
			custom_instructions TEXT NOT NULL DEFAULT '',
			context_scopes      TEXT NOT NULL DEFAULT '[]',
			personality         TEXT NOT NULL DEFAULT '{}',
			active              INTEGER NOT NULL DEFAULT 1,
			deleted_at          TEXT,
			created_at          TEXT NOT NULL,
			updated_at          TEXT NOT NULL,
			UNIQUE(org_id, name)
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteAgentStore) Close() error {
	return s.db.Close()
}

var _ domain.AgentStore = (*SQLiteAgentStore)(nil)

const agentColumns = `id, org_id, name, role, specialist_key, provider, model,
	temperature, max_tokens, system_prompt, custom_instructions,
	context_scopes, personality, active, deleted_at, created_at, updated_at`

func (s *SQLiteAgentStore) Create(_ context.Context, p *domain.AgentProfile) error {
	scopesJSON, err := json.Marshal(p.ContextScopes)
	if err != nil {
		return fmt.Errorf("marshal context scopes: %w", err)
	}
	persJSON, err := json.Marshal(p.Personality)
	if err != nil {
		return fmt.Errorf("marshal personality: %w", err)
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err = s.db.Exec(
		`INSERT INTO agent_profiles (id, org_id, name, role, specialist_key, provider, model,
			temperature, max_tokens, system_prompt, custom_instructions,
			context_scopes, personality, active, deleted_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		p.ID, p.OrgID, p.Name, p.Role, p.SpecialistKey, string(p.Provider), p.Model,
		p.Temperature, p.MaxTokens, p.SystemPrompt, p.CustomInstructions,
		string(scopesJSON), string(persJSON), boolToInt(p.Active),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDomainError("AgentStore.Create", domain.ErrDuplicate,
				fmt.Sprintf("org %s agent %q", p.OrgID, p.Name))
		}
		return err
	}
	return nil
}

func (s *SQLiteAgentStore) Update(_ context.Context, p *domain.AgentProfile) error {
	scopesJSON, err := json.Marshal(p.ContextScopes)
	if err != nil {
		return fmt.Errorf("marshal context scopes: %w", err)
	}
	persJSON, err := json.Marshal(p.Personality)
	if err != nil {
		return fmt.Errorf("marshal personality: %w", err)
	}
	now := time.Now().UTC()
	p.UpdatedAt = now
	res, err := s.db.Exec(
		`UPDATE agent_profiles SET name = ?, role = ?, specialist_key = ?, provider = ?,
			model = ?, temperature = ?, max_tokens = ?, system_prompt = ?,
			custom_instructions = ?, context_scopes = ?, personality = ?, active = ?,
			updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Role, p.SpecialistKey, string(p.Provider),
		p.Model, p.Temperature, p.MaxTokens, p.SystemPrompt,
		p.CustomInstructions, string(scopesJSON), string(persJSON), boolToInt(p.Active),
		now.Format(time.RFC3339Nano), p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDomainError("AgentStore.Update", domain.ErrDuplicate,
				fmt.Sprintf("org %s agent %q", p.OrgID, p.Name))
		}
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.NewDomainError("AgentStore.Update", domain.ErrNotFound, p.ID)
	}
	return nil
}

// GetByKey returns the profile with the given specialist key, including
// soft-deleted ones so seeding can restore them.
func (s *SQLiteAgentStore) GetByKey(_ context.Context, orgID, specialistKey string) (*domain.AgentProfile, error) {
	row := s.db.QueryRow(
		"SELECT "+agentColumns+" FROM agent_profiles WHERE org_id = ? AND specialist_key = ?",
		orgID, specialistKey,
	)
	return scanAgent(row.Scan)
}

// GetByName returns the profile with the given name, including soft-deleted
// ones; the unique constraint spans both.
func (s *SQLiteAgentStore) GetByName(_ context.Context, orgID, name string) (*domain.AgentProfile, error) {
	row := s.db.QueryRow(
		"SELECT "+agentColumns+" FROM agent_profiles WHERE org_id = ? AND name = ?",
		orgID, name,
	)
	return scanAgent(row.Scan)
}

func (s *SQLiteAgentStore) ListActive(_ context.Context, orgID string) ([]domain.AgentProfile, error) {
	rows, err := s.db.Query(
		"SELECT "+agentColumns+" FROM agent_profiles WHERE org_id = ? AND active = 1 AND deleted_at IS NULL ORDER BY created_at",
		orgID,
	)
	if err != nil {
		return nil, err
	}
	return collectAgents(rows)
}

func (s *SQLiteAgentStore) ListActiveByKeys(_ context.Context, orgID string, keys []string) ([]domain.AgentProfile, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(keys))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(keys)+1)
	args = append(args, orgID)
	for _, k := range keys {
		args = append(args, k)
	}

	rows, err := s.db.Query(
		"SELECT "+agentColumns+" FROM agent_profiles WHERE org_id = ? AND active = 1 AND deleted_at IS NULL AND specialist_key IN ("+placeholders+") ORDER BY created_at",
		args...,
	)
	if err != nil {
		return nil, err
	}
	return collectAgents(rows)
}

// Restore clears the soft-delete marker and reactivates the profile.
func (s *SQLiteAgentStore) Restore(_ context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.Exec(
		"UPDATE agent_profiles SET deleted_at = NULL, active = 1, updated_at = ? WHERE id = ?",
		now, id,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.NewDomainError("AgentStore.Restore", domain.ErrNotFound, id)
	}
	return nil
}

// SoftDelete marks the profile deleted without removing the row, keeping
// the name reserved for a later restore.
func (s *SQLiteAgentStore) SoftDelete(_ context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.Exec(
		"UPDATE agent_profiles SET deleted_at = ?, active = 0, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.NewDomainError("AgentStore.SoftDelete", domain.ErrNotFound, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanAgent(scan func(dest ...any) error) (*domain.AgentProfile, error) {
	var p domain.AgentProfile
	var provider, scopesStr, persStr, createdStr, updatedStr string
	var deletedStr sql.NullString
	var active int
	err := scan(&p.ID, &p.OrgID, &p.Name, &p.Role, &p.SpecialistKey, &provider, &p.Model,
		&p.Temperature, &p.MaxTokens, &p.SystemPrompt, &p.CustomInstructions,
		&scopesStr, &persStr, &active, &deletedStr, &createdStr, &updatedStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewDomainError("AgentStore", domain.ErrNotFound, "agent profile")
		}
		return nil, err
	}
	p.Provider = domain.Provider(provider)
	p.Active = active == 1
	if err := json.Unmarshal([]byte(scopesStr), &p.ContextScopes); err != nil {
		return nil, fmt.Errorf("unmarshal context scopes: %w", err)
	}
	if err := json.Unmarshal([]byte(persStr), &p.Personality); err != nil {
		return nil, fmt.Errorf("unmarshal personality: %w", err)
	}
	if deletedStr.Valid {
		t, err := time.Parse(time.RFC3339Nano, deletedStr.String)
		if err == nil {
			p.DeletedAt = &t
		}
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
	return &p, nil
}

func collectAgents(rows *sql.Rows) ([]domain.AgentProfile, error) {
	defer rows.Close()

	var agents []domain.AgentProfile
	for rows.Next() {
		p, err := scanAgent(rows.Scan)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *p)
	}
	return agents, rows.Err()
}
