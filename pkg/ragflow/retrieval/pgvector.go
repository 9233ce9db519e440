package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PGVectorStore stores chunks in Postgres and searches them with the
// pgvector cosine distance operator.
type PGVectorStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PGVectorStore)(nil)

// NewPGVectorStore connects to databaseURL and ensures the schema exists.
// The vector extension must be installable by the connecting role.
func NewPGVectorStore(ctx context.Context, databaseURL string) (*PGVectorStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	s := &PGVectorStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PGVectorStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS ragflow_chunks (
			id BIGSERIAL PRIMARY KEY,
			collection TEXT NOT NULL,
			source TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ragflow_chunks_collection ON ragflow_chunks(collection)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate vector store: %w", err)
		}
	}
	return nil
}

// Add implements Store.
func (s *PGVectorStore) Add(ctx context.Context, collection string, chunks []Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range chunks {
		if _, err := tx.Exec(ctx,
			"INSERT INTO ragflow_chunks (collection, source, content, embedding) VALUES ($1, $2, $3, $4)",
			collection, c.Source, c.Content, pgvector.NewVector(c.Embedding)); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit chunks: %w", err)
	}
	return nil
}

// Search implements Store.
func (s *PGVectorStore) Search(ctx context.Context, collection string, query []float32, k int) ([]Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT source, content, 1 - (embedding <=> $2) AS score
		 FROM ragflow_chunks
		 WHERE collection = $1
		 ORDER BY embedding <=> $2, id
		 LIMIT $3`,
		collection, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Source, &m.Content, &m.Score); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return matches, nil
}

// Exists implements Store.
func (s *PGVectorStore) Exists(ctx context.Context, collection string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM ragflow_chunks WHERE collection = $1)",
		collection).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check collection: %w", err)
	}
	return exists, nil
}

// DeleteCollection implements Store.
func (s *PGVectorStore) DeleteCollection(ctx context.Context, collection string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM ragflow_chunks WHERE collection = $1", collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *PGVectorStore) Close() error {
	s.pool.Close()
	return nil
}
