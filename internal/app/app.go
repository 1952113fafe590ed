package app

import (
	"context"
	"fmt"

	"github.com/gwientjes/wall-cli/internal/feed"
	"github.com/gwientjes/wall-cli/internal/wall"
)

// DefaultCacheLimit bounds the warm-start read from the local cache.
const DefaultCacheLimit = feed.FetchWindow

type WallClient interface {
	ListPosts(ctx context.Context, limit int) ([]wall.Post, error)
	InsertPost(ctx context.Context, author, message, image string) error
}

type Repository interface {
	SavePosts(ctx context.Context, posts []wall.Post) error
	ListPosts(ctx context.Context, limit int) ([]wall.Post, error)
}

// Service coordinates the backend client and the local cache. Submission
// never appends a post locally: the canonical append path is the realtime
// insert stream, which keeps the list free of optimistic duplicates.
type Service struct {
	client WallClient
	repo   Repository
	author string

	encodeImage func(path string) (string, error)
}

func NewService(client WallClient, repo Repository, author string) *Service {
	return &Service{
		client:      client,
		repo:        repo,
		author:      author,
		encodeImage: wall.EncodeImageFile,
	}
}

// LoadWall performs the initial bulk fetch and refreshes the local cache
// with the returned window.
func (s *Service) LoadWall(ctx context.Context, limit int) ([]wall.Post, error) {
	posts, err := s.client.ListPosts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch posts from wall: %w", err)
	}
	if err := s.repo.SavePosts(ctx, posts); err != nil {
		return nil, fmt.Errorf("save posts to cache: %w", err)
	}
	return posts, nil
}

// ListCached returns the locally cached window, newest first.
func (s *Service) ListCached(ctx context.Context, limit int) ([]wall.Post, error) {
	posts, err := s.repo.ListPosts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load posts from cache: %w", err)
	}
	return posts, nil
}

// SharePost validates the draft and writes it to the backend. Validation
// failures (wall.ErrMessageRequired, wall.ErrMessageTooLong) are returned
// before any network contact; the caller keeps the draft on any error.
func (s *Service) SharePost(ctx context.Context, draft wall.Draft) error {
	if err := wall.ValidateMessage(draft.Message); err != nil {
		return err
	}

	image := ""
	if draft.ImagePath != "" {
		encoded, err := s.encodeImage(draft.ImagePath)
		if err != nil {
			return fmt.Errorf("encode attached image: %w", err)
		}
		image = encoded
	}

	if err := s.client.InsertPost(ctx, s.author, draft.Message, image); err != nil {
		return fmt.Errorf("share post: %w", err)
	}
	return nil
}

// CachePost persists a post that arrived over the realtime stream so a
// restart seeds with it.
func (s *Service) CachePost(ctx context.Context, post wall.Post) error {
	if err := s.repo.SavePosts(ctx, []wall.Post{post}); err != nil {
		return fmt.Errorf("cache live post: %w", err)
	}
	return nil
}
