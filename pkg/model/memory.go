package model

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// Memory is a single stored unit of text plus its embedding, owned by one user.
// Content is immutable after creation; only Metadata may be amended later by an
// external sync process, which is the only path that moves UpdatedAt.
type Memory struct {
	ID        MemoryID
	UserID    string
	Content   string
	Embedding firestore.Vector32

	// Metadata carries provenance tags (source system, importance, title).
	// String keys, JSON-compatible values.
	Metadata map[string]any

	Importance float64
	Source     string
	SourceURL  string
	Title      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WithoutEmbedding returns a shallow copy with the embedding stripped.
// Callers of create/list operations never need raw vector data.
func (m *Memory) WithoutEmbedding() *Memory {
	c := *m
	c.Embedding = nil
	return &c
}

// ScoredMemory pairs a memory with its similarity score for a query.
// Similarity is 1 - cosine distance; expected in [-1, 1] for well-formed
// embeddings and deliberately not clamped.
type ScoredMemory struct {
	Memory     *Memory
	Similarity float64
}
