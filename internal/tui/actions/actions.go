package actions

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gwientjes/wall-cli/internal/supabase"
	"github.com/gwientjes/wall-cli/internal/wall"
)

type Service interface {
	LoadWall(ctx context.Context, limit int) ([]wall.Post, error)
	SharePost(ctx context.Context, draft wall.Draft) error
	CachePost(ctx context.Context, post wall.Post) error
}

type LoadSuccessMsg struct {
	Posts    []wall.Post
	Duration time.Duration
	Source   string
}

type LoadErrorMsg struct {
	Err      error
	Duration time.Duration
	Source   string
}

type ShareSuccessMsg struct{}

type ShareErrorMsg struct {
	Err error
}

// PostArrivedMsg carries one insert notification from the realtime
// stream. OK is false when the stream channel closed.
type PostArrivedMsg struct {
	Post wall.Post
	OK   bool
}

// StreamStatusMsg carries a connection state transition from the
// realtime subscriber. OK is false when the status channel closed.
type StreamStatusMsg struct {
	Status supabase.StreamStatus
	OK     bool
}

type CacheWriteErrorMsg struct {
	Err error
}

type ClearStatusMsg struct {
	ID int
}

type ImageRenderedMsg struct {
	PostID  string
	Preview string
}

type ImageRenderErrorMsg struct {
	PostID string
	Err    error
}

func LoadWallCmd(service Service, limit int, source string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		start := time.Now()

		posts, err := service.LoadWall(ctx, limit)
		if err != nil {
			return LoadErrorMsg{Err: err, Duration: time.Since(start), Source: source}
		}
		return LoadSuccessMsg{Posts: posts, Duration: time.Since(start), Source: source}
	}
}

func ShareCmd(service Service, draft wall.Draft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := service.SharePost(ctx, draft); err != nil {
			return ShareErrorMsg{Err: err}
		}
		return ShareSuccessMsg{}
	}
}

// WaitForPostCmd blocks on the realtime stream for the next inserted
// post. The model re-issues it after handling each PostArrivedMsg, so
// notifications are applied one at a time inside the update loop.
func WaitForPostCmd(posts <-chan wall.Post) tea.Cmd {
	return func() tea.Msg {
		post, ok := <-posts
		return PostArrivedMsg{Post: post, OK: ok}
	}
}

func WaitForStreamStatusCmd(status <-chan supabase.StreamStatus) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-status
		return StreamStatusMsg{Status: st, OK: ok}
	}
}

func CachePostCmd(service Service, post wall.Post) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := service.CachePost(ctx, post); err != nil {
			return CacheWriteErrorMsg{Err: err}
		}
		return nil
	}
}

func ClearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return ClearStatusMsg{ID: id}
	})
}

func RenderImageCmd(postID, imageRef string, width, height int, renderFn func(string, int, int) (string, error)) tea.Cmd {
	return func() tea.Msg {
		preview, err := renderFn(imageRef, width, height)
		if err != nil {
			return ImageRenderErrorMsg{PostID: postID, Err: err}
		}
		return ImageRenderedMsg{PostID: postID, Preview: preview}
	}
}
