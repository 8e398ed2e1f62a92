package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mizuage/kioku/pkg/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const collectionMemories = "memories"

// distanceField receives the cosine distance computed by Firestore's vector
// search for each returned document.
const distanceField = "vector_distance"

// Firestore implements Repository on Cloud Firestore. Vector ranking is done
// by Firestore's FindNearest; this type only maps documents and orders ties.
type Firestore struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore-backed repository.
func NewFirestore(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.T(model.TagStore), goerr.V("project", projectID), goerr.V("database", databaseID))
	}
	return &Firestore{client: client}, nil
}

type memoryDoc struct {
	ID         string             `firestore:"id"`
	UserID     string             `firestore:"user_id"`
	Content    string             `firestore:"content"`
	Embedding  firestore.Vector32 `firestore:"embedding"`
	Metadata   map[string]any     `firestore:"metadata"`
	Importance float64            `firestore:"importance"`
	Source     string             `firestore:"source"`
	SourceURL  string             `firestore:"source_url"`
	Title      string             `firestore:"title"`
	CreatedAt  time.Time          `firestore:"created_at"`
	UpdatedAt  time.Time          `firestore:"updated_at"`

	// Populated only by vector search results.
	VectorDistance float64 `firestore:"vector_distance"`
}

func toDoc(m *model.Memory) *memoryDoc {
	return &memoryDoc{
		ID:         string(m.ID),
		UserID:     m.UserID,
		Content:    m.Content,
		Embedding:  m.Embedding,
		Metadata:   m.Metadata,
		Importance: m.Importance,
		Source:     m.Source,
		SourceURL:  m.SourceURL,
		Title:      m.Title,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (d *memoryDoc) toModel() *model.Memory {
	return &model.Memory{
		ID:         model.MemoryID(d.ID),
		UserID:     d.UserID,
		Content:    d.Content,
		Embedding:  d.Embedding,
		Metadata:   d.Metadata,
		Importance: d.Importance,
		Source:     d.Source,
		SourceURL:  d.SourceURL,
		Title:      d.Title,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (r *Firestore) PutMemory(ctx context.Context, memory *model.Memory) error {
	_, err := r.client.Collection(collectionMemories).Doc(string(memory.ID)).Set(ctx, toDoc(memory))
	if err != nil {
		return goerr.Wrap(err, "failed to put memory",
			goerr.T(model.TagStore), goerr.V("memory_id", memory.ID))
	}
	return nil
}

func (r *Firestore) GetMemory(ctx context.Context, userID string, id model.MemoryID) (*model.Memory, error) {
	snap, err := r.client.Collection(collectionMemories).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrMemoryNotFound, "memory does not exist", goerr.V("memory_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get memory",
			goerr.T(model.TagStore), goerr.V("memory_id", id))
	}

	var doc memoryDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory document",
			goerr.T(model.TagStore), goerr.V("memory_id", id))
	}
	if doc.UserID != userID {
		return nil, goerr.Wrap(model.ErrMemoryNotFound, "memory owned by another user", goerr.V("memory_id", id))
	}

	return doc.toModel(), nil
}

func (r *Firestore) ListMemories(ctx context.Context, userID string) ([]*model.Memory, error) {
	snaps, err := r.client.Collection(collectionMemories).
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories",
			goerr.T(model.TagStore), goerr.V("user_id", userID))
	}

	memories := make([]*model.Memory, 0, len(snaps))
	for _, snap := range snaps {
		var doc memoryDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory document", goerr.T(model.TagStore))
		}
		memories = append(memories, doc.toModel())
	}
	return memories, nil
}

func (r *Firestore) SearchSimilarMemories(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.ScoredMemory, error) {
	if limit <= 0 {
		return nil, nil
	}

	vq := r.client.Collection(collectionMemories).
		Where("user_id", "==", userID).
		FindNearest("embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine, &firestore.FindNearestOptions{
			DistanceResultField: distanceField,
		})

	snaps, err := vq.Documents(ctx).GetAll()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search similar memories",
			goerr.T(model.TagStore), goerr.V("user_id", userID))
	}

	results := make([]*model.ScoredMemory, 0, len(snaps))
	for _, snap := range snaps {
		var doc memoryDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory document", goerr.T(model.TagStore))
		}
		results = append(results, &model.ScoredMemory{
			Memory:     doc.toModel(),
			Similarity: 1 - doc.VectorDistance,
		})
	}

	rankScored(results)
	return results, nil
}

func (r *Firestore) AmendMetadata(ctx context.Context, userID string, id model.MemoryID, metadata map[string]any) (*model.Memory, error) {
	// Ownership check first; Update would silently create-or-fail otherwise.
	if _, err := r.GetMemory(ctx, userID, id); err != nil {
		return nil, err
	}

	_, err := r.client.Collection(collectionMemories).Doc(string(id)).Update(ctx, []firestore.Update{
		{Path: "metadata", Value: metadata},
		{Path: "updated_at", Value: touch()},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to amend metadata",
			goerr.T(model.TagStore), goerr.V("memory_id", id))
	}

	return r.GetMemory(ctx, userID, id)
}

func (r *Firestore) Close() error {
	return r.client.Close()
}
