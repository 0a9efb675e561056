// Package store persists accepted statement mappings and inference run
// history. It is a hybrid vault: Postgres is the primary store when a
// pool is configured, with a file-system fallback for local runs.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"statement_engine/pkg/models"
)

// MappingCache stores mappings keyed by (workbook digest, statement
// type). A re-upload of a byte-identical workbook hits the cache and
// skips inference entirely; the caller then replays the cached mapping.
type MappingCache struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewMappingCache creates a cache instance. If pool is nil it falls
// back to a file cache in dir; an empty dir defaults to .cache/mappings.
func NewMappingCache(pool *pgxpool.Pool, dir string) *MappingCache {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "mappings")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("[WARNING] Check MappingCache dir: %v\n", err)
		}
	}
	return &MappingCache{pool: pool, fileDir: dir}
}

// WorkbookDigest returns the cache key component for raw workbook bytes.
func WorkbookDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// cacheEntry is the file-cache wrapper around a mapping.
type cacheEntry struct {
	Digest        string               `json:"digest"`
	StatementType models.StatementType `json:"statement_type"`
	Mapping       *models.Mapping      `json:"mapping"`
	SavedAt       time.Time            `json:"saved_at"`
}

// Get returns the cached mapping for a workbook digest, or nil on miss.
func (c *MappingCache) Get(ctx context.Context, digest string, t models.StatementType) (*models.Mapping, error) {
	if c.pool != nil {
		query := `
			SELECT mapping
			FROM statement_mappings
			WHERE digest = $1 AND statement_type = $2
			LIMIT 1
		`
		var mappingJSON []byte
		err := c.pool.QueryRow(ctx, query, digest, string(t)).Scan(&mappingJSON)
		if err != nil {
			return nil, nil // miss
		}
		var m models.Mapping
		if err := json.Unmarshal(mappingJSON, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached mapping: %w", err)
		}
		return &m, nil
	}

	if c.fileDir != "" {
		return c.loadFromFile(c.entryPath(digest, t))
	}
	return nil, nil
}

// Save stores (or replaces) the mapping for a workbook digest.
func (c *MappingCache) Save(ctx context.Context, digest string, m *models.Mapping) error {
	if m == nil {
		return fmt.Errorf("nil mapping")
	}
	mappingJSON, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	if c.pool != nil {
		query := `
			INSERT INTO statement_mappings (
				digest, statement_type, mapping, provenance, confidence
			) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (digest, statement_type)
			DO UPDATE SET
				mapping = EXCLUDED.mapping,
				provenance = EXCLUDED.provenance,
				confidence = EXCLUDED.confidence,
				updated_at = NOW()
		`
		_, err = c.pool.Exec(ctx, query,
			digest, string(m.StatementType), mappingJSON, string(m.Provenance), m.Confidence)
		if err != nil {
			return fmt.Errorf("failed to save mapping to db: %w", err)
		}
	}

	if c.fileDir != "" {
		entry := cacheEntry{
			Digest:        digest,
			StatementType: m.StatementType,
			Mapping:       m,
			SavedAt:       time.Now(),
		}
		fileBytes, _ := json.MarshalIndent(entry, "", "  ")
		path := c.entryPath(digest, m.StatementType)
		if err := os.WriteFile(path, fileBytes, 0644); err != nil {
			return fmt.Errorf("failed to save mapping to file cache: %w", err)
		}
	}

	return nil
}

// Exists reports whether a mapping is cached for this digest and type.
func (c *MappingCache) Exists(ctx context.Context, digest string, t models.StatementType) bool {
	if c.pool != nil {
		query := `SELECT 1 FROM statement_mappings WHERE digest = $1 AND statement_type = $2 LIMIT 1`
		var exists int
		if err := c.pool.QueryRow(ctx, query, digest, string(t)).Scan(&exists); err == nil {
			return true
		}
	}
	if c.fileDir != "" {
		if _, err := os.Stat(c.entryPath(digest, t)); err == nil {
			return true
		}
	}
	return false
}

// Delete drops a cached mapping; used when a replay fails validation and
// the workbook must go through inference again.
func (c *MappingCache) Delete(ctx context.Context, digest string, t models.StatementType) error {
	if c.pool != nil {
		query := `DELETE FROM statement_mappings WHERE digest = $1 AND statement_type = $2`
		if _, err := c.pool.Exec(ctx, query, digest, string(t)); err != nil {
			return fmt.Errorf("failed to delete mapping from db: %w", err)
		}
	}
	if c.fileDir != "" {
		if err := os.Remove(c.entryPath(digest, t)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete mapping from file cache: %w", err)
		}
	}
	return nil
}

func (c *MappingCache) entryPath(digest string, t models.StatementType) string {
	return filepath.Join(c.fileDir, fmt.Sprintf("%s_%s.json", digest, t))
}

func (c *MappingCache) loadFromFile(path string) (*models.Mapping, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, nil // not found
	}
	var entry cacheEntry
	if err := json.Unmarshal(bytes, &entry); err == nil && entry.Mapping != nil {
		return entry.Mapping, nil
	}

	// Older entries may be a raw mapping without the wrapper.
	var m models.Mapping
	if err := json.Unmarshal(bytes, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
