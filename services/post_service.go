package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"kblog/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PostService struct {
	db     *gorm.DB
	cache  PostCache
	events EventPublisher
	log    *logrus.Logger
}

// NewPostService wires the content store. cache and events may be nil.
func NewPostService(db *gorm.DB, cache PostCache, events EventPublisher, log *logrus.Logger) *PostService {
	if cache == nil {
		cache = nopPostCache{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &PostService{db: db, cache: cache, events: events, log: log}
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", ErrValidation, models.MaxTitleLength)
	}
	return nil
}

func (s *PostService) Create(ctx context.Context, ownerID uint, title, content string) (*models.Post, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	post := &models.Post{
		Title:   title,
		Content: content,
		UserID:  ownerID,
	}
	err := s.db.WithContext(ctx).Create(post).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	s.changed(ctx, ownerID, models.EventPostCreated, post.Response())
	return post, nil
}

// ListByOwner returns the owner's posts in insertion order, never nil.
func (s *PostService) ListByOwner(ctx context.Context, ownerID uint) ([]models.Post, error) {
	// The generation is read before the database so a write that commits
	// in between makes the SetList below a no-op.
	generation, genErr := s.cache.Generation(ctx, ownerID)
	if genErr != nil {
		s.log.WithError(genErr).WithField("owner_id", ownerID).Warn("post cache generation read failed")
	} else {
		posts, ok, err := s.cache.GetList(ctx, ownerID)
		if err != nil {
			s.log.WithError(err).WithField("owner_id", ownerID).Warn("post cache read failed")
		}
		if ok {
			return nonNil(posts), nil
		}
	}

	posts := []models.Post{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("id ASC").
		Find(&posts).Error; err != nil {
		return nil, err
	}

	if genErr == nil {
		if err := s.cache.SetList(ctx, ownerID, generation, posts); err != nil {
			s.log.WithError(err).WithField("owner_id", ownerID).Warn("post cache write failed")
		}
	}
	return posts, nil
}

// Update applies the non-nil fields of req to a post owned by ownerID.
func (s *PostService) Update(ctx context.Context, postID, ownerID uint, req *models.UpdatePostRequest) (*models.Post, error) {
	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Content != nil && *req.Content == "" {
		return nil, fmt.Errorf("%w: content must not be empty", ErrValidation)
	}

	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", postID, ownerID).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		if req.Title != nil {
			post.Title = *req.Title
		}
		if req.Content != nil {
			post.Content = *req.Content
		}
		return tx.Save(&post).Error
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, ownerID, models.EventPostUpdated, post.Response())
	return &post, nil
}

func (s *PostService) Delete(ctx context.Context, postID, ownerID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", postID, ownerID).
		Delete(&models.Post{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}

	s.changed(ctx, ownerID, models.EventPostDeleted, map[string]uint{"id": postID})
	return nil
}

func (s *PostService) changed(ctx context.Context, ownerID uint, event string, data interface{}) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.log.WithError(err).WithField("owner_id", ownerID).Warn("post cache invalidation failed")
	}
	s.events.BroadcastToUser(ownerID, event, data)
}

func nonNil(posts []models.Post) []models.Post {
	if posts == nil {
		return []models.Post{}
	}
	return posts
}
