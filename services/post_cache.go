package services

import (
	"context"

	"kblog/models"
)

// PostCache holds each owner's post list. Invalidate bumps the owner's
// generation; SetList must drop the write when the generation no longer
// matches the one read before the database query. Implementations must be
// safe for concurrent use; errors are treated as misses by PostService.
type PostCache interface {
	Generation(ctx context.Context, ownerID uint) (int64, error)
	GetList(ctx context.Context, ownerID uint) ([]models.Post, bool, error)
	SetList(ctx context.Context, ownerID uint, generation int64, posts []models.Post) error
	Invalidate(ctx context.Context, ownerID uint) error
}

type nopPostCache struct{}

func (nopPostCache) Generation(context.Context, uint) (int64, error) { return 0, nil }

func (nopPostCache) GetList(context.Context, uint) ([]models.Post, bool, error) {
	return nil, false, nil
}

func (nopPostCache) SetList(context.Context, uint, int64, []models.Post) error { return nil }

func (nopPostCache) Invalidate(context.Context, uint) error { return nil }

// EventPublisher delivers post events to a user's live connections.
type EventPublisher interface {
	BroadcastToUser(userID uint, messageType string, data interface{})
}

type nopPublisher struct{}

func (nopPublisher) BroadcastToUser(uint, string, interface{}) {}
