// Package retrieval finds document context for a query.
//
// A Store holds embedded text chunks grouped into named collections.
// Service embeds the query with the collection's embedding model and returns
// the closest chunks joined by blank lines. Collections are filled with
// Service.Index, which splits text into overlapping chunks first.
package retrieval

import (
	"context"
	"errors"
)

// Chunk is one embedded piece of a source document.
type Chunk struct {
	Source    string
	Content   string
	Embedding []float32
}

// Match is a chunk returned by a similarity search.
type Match struct {
	Source  string
	Content string
	// Score is cosine similarity; higher is closer.
	Score float64
}

// Store persists chunks and answers nearest-neighbour queries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Add appends chunks to a collection, creating it if needed.
	Add(ctx context.Context, collection string, chunks []Chunk) error

	// Search returns up to k chunks ordered by descending similarity.
	// An unknown collection yields an empty slice.
	Search(ctx context.Context, collection string, query []float32, k int) ([]Match, error)

	// Exists reports whether a collection holds at least one chunk.
	Exists(ctx context.Context, collection string) (bool, error)

	// DeleteCollection removes every chunk in a collection.
	// Returns nil if the collection doesn't exist.
	DeleteCollection(ctx context.Context, collection string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("vector store closed")

	// ErrDimensionMismatch indicates a query and a stored chunk differ in length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
