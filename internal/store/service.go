package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reframe/reframe/backend-go/internal/document"
	"github.com/reframe/reframe/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("layout not found")
	ErrForbidden = errors.New("forbidden")
)

// Service persists layout definitions. The definition is stored as JSON so
// stored layouts round-trip byte-for-byte through export.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Summary is the listing view of a stored layout.
type Summary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Version   int      `json:"version"`
	UpdatedAt string   `json:"updatedAt"`
}

func (s *Service) Create(ctx context.Context, ownerID string, doc *document.LayoutDefinition) (*document.LayoutDefinition, error) {
	if doc.ID == "" {
		doc.ID = typeid.NewLayoutID()
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	now := time.Now().UTC().Format(time.RFC3339)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO layouts (id, owner_id, name, category, version, definition)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, ownerID, doc.Name, doc.Category, doc.Version, docJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("create layout: %w", err)
	}
	return doc, nil
}

func (s *Service) Get(ctx context.Context, layoutID string) (*document.LayoutDefinition, error) {
	raw, err := s.GetRaw(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	var doc document.LayoutDefinition
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	return &doc, nil
}

// GetRaw returns the stored definition bytes unmodified.
func (s *Service) GetRaw(ctx context.Context, layoutID string) (json.RawMessage, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT definition FROM layouts WHERE id = $1`,
		layoutID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get layout: %w", err)
	}
	return raw, nil
}

// Save stores a new revision of an existing layout, bumping its version.
func (s *Service) Save(ctx context.Context, doc *document.LayoutDefinition) (*document.LayoutDefinition, error) {
	var version int
	err := s.pool.QueryRow(ctx,
		`SELECT version FROM layouts WHERE id = $1`,
		doc.ID,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get layout version: %w", err)
	}

	doc.Version = version + 1
	doc.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE layouts
		 SET name = $2, category = $3, version = $4, definition = $5, updated_at = now()
		 WHERE id = $1`,
		doc.ID, doc.Name, doc.Category, doc.Version, docJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("update layout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context, ownerID, category string) ([]Summary, error) {
	query := `SELECT id, name, category, version, definition, updated_at
	          FROM layouts WHERE owner_id = $1`
	args := []any{ownerID}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			raw       []byte
			updatedAt time.Time
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Category, &sum.Version, &raw, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		sum.UpdatedAt = updatedAt.UTC().Format(time.RFC3339)

		var doc document.LayoutDefinition
		if err := json.Unmarshal(raw, &doc); err == nil {
			sum.Tags = doc.Tags
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *Service) Delete(ctx context.Context, ownerID, layoutID string) error {
	var storedOwner string
	err := s.pool.QueryRow(ctx,
		`SELECT owner_id FROM layouts WHERE id = $1`,
		layoutID,
	).Scan(&storedOwner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get layout: %w", err)
	}
	if storedOwner != ownerID {
		return ErrForbidden
	}

	_, err = s.pool.Exec(ctx, `DELETE FROM layouts WHERE id = $1`, layoutID)
	return err
}

// Import validates raw definition JSON and stores it under a fresh id.
func (s *Service) Import(ctx context.Context, ownerID string, raw json.RawMessage) (*document.LayoutDefinition, error) {
	var doc document.LayoutDefinition
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid layout definition: %w", err)
	}
	doc.ID = typeid.NewLayoutID()
	doc.Version = 1
	return s.Create(ctx, ownerID, &doc)
}
