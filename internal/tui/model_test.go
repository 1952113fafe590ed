package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gwientjes/wall-cli/internal/supabase"
	"github.com/gwientjes/wall-cli/internal/tui/actions"
	"github.com/gwientjes/wall-cli/internal/wall"
)

type fakeService struct {
	loadPosts []wall.Post
	loadErr   error

	shareErr   error
	shareCalls int

	cacheCalls int
}

func (f *fakeService) LoadWall(ctx context.Context, limit int) ([]wall.Post, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.loadPosts, nil
}

func (f *fakeService) SharePost(ctx context.Context, draft wall.Draft) error {
	f.shareCalls++
	return f.shareErr
}

func (f *fakeService) CachePost(ctx context.Context, post wall.Post) error {
	f.cacheCalls++
	return nil
}

func newTestModel(service actions.Service) Model {
	return NewModel(service, wall.SidebarProfile{Name: "Greg Wientjes"}, nil, nil, nil)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func post(id string, createdAt time.Time) wall.Post {
	return wall.Post{ID: id, Message: "post " + id, CreatedAt: createdAt}
}

func TestLoadSuccess_ReplacesListAndClearsLoading(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	m := newTestModel(&fakeService{})
	updated, _ := m.Update(actions.LoadSuccessMsg{Posts: []wall.Post{post("2", t2), post("1", t1)}})
	m = updated.(Model)

	if m.loading {
		t.Fatal("loading should be cleared")
	}
	if m.errText != "" {
		t.Fatalf("unexpected error text: %q", m.errText)
	}
	got := m.Posts()
	if len(got) != 2 || got[0].ID != "2" {
		t.Fatalf("unexpected posts: %+v", got)
	}
	if m.Marker() != "2" {
		t.Fatalf("unexpected marker: %q", m.Marker())
	}
}

func TestLoadSuccess_EmptyFeed(t *testing.T) {
	m := newTestModel(&fakeService{})
	updated, _ := m.Update(actions.LoadSuccessMsg{Posts: nil})
	m = updated.(Model)

	if m.loading || m.errText != "" || len(m.Posts()) != 0 {
		t.Fatalf("empty fetch should leave an empty, settled model: loading=%v err=%q len=%d",
			m.loading, m.errText, len(m.Posts()))
	}
}

func TestLoadError_SetsErrorText(t *testing.T) {
	m := newTestModel(&fakeService{})
	updated, _ := m.Update(actions.LoadErrorMsg{Err: errors.New("backend down")})
	m = updated.(Model)

	if m.loading {
		t.Fatal("loading should be cleared on error")
	}
	if !strings.Contains(m.errText, "backend down") {
		t.Fatalf("error not surfaced: %q", m.errText)
	}
}

func TestPostArrived_AppliesOnceAndCaches(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t2.Add(time.Minute)

	service := &fakeService{}
	stream := make(chan wall.Post)
	m := NewModel(service, wall.SidebarProfile{}, nil, stream, nil)
	updated, _ := m.Update(actions.LoadSuccessMsg{Posts: []wall.Post{post("2", t2), post("1", t1)}})
	m = updated.(Model)

	updated, cmd := m.Update(actions.PostArrivedMsg{Post: post("3", t3), OK: true})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected re-arm and cache commands")
	}
	got := m.Posts()
	if len(got) != 3 || got[0].ID != "3" || m.Marker() != "3" {
		t.Fatalf("post not reconciled: %v marker=%q", got, m.Marker())
	}

	// Duplicate delivery of the same id must not change the list.
	updated, _ = m.Update(actions.PostArrivedMsg{Post: post("3", t3), OK: true})
	m = updated.(Model)
	if len(m.Posts()) != 3 {
		t.Fatalf("duplicate changed list: %d", len(m.Posts()))
	}
}

func TestPostArrived_ChannelClosedMarksStreamOffline(t *testing.T) {
	m := newTestModel(&fakeService{})
	updated, cmd := m.Update(actions.PostArrivedMsg{OK: false})
	m = updated.(Model)

	if cmd != nil {
		t.Fatal("closed stream must not re-arm the wait")
	}
	if m.streamState != supabase.StreamClosed {
		t.Fatalf("unexpected stream state: %v", m.streamState)
	}
}

func TestPostArrived_WhileScrolledDownShowsBannerAndKeepsSelection(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	m := newTestModel(&fakeService{})
	updated, _ := m.Update(actions.LoadSuccessMsg{Posts: []wall.Post{post("2", t1.Add(time.Minute)), post("1", t1)}})
	m = updated.(Model)

	updated, _ = m.Update(keyMsg("j"))
	m = updated.(Model)
	selected := m.Posts()[m.cursor].ID

	updated, _ = m.Update(actions.PostArrivedMsg{Post: post("3", t1.Add(2 * time.Minute)), OK: true})
	m = updated.(Model)

	if !m.hasNewPosts {
		t.Fatal("expected new-posts banner while scrolled down")
	}
	if m.Posts()[m.cursor].ID != selected {
		t.Fatalf("selection moved: want %s, got %s", selected, m.Posts()[m.cursor].ID)
	}

	updated, _ = m.Update(keyMsg("g"))
	m = updated.(Model)
	if m.hasNewPosts || m.cursor != 0 {
		t.Fatal("jump to top should clear the banner")
	}
}

func TestComposer_SubmitEmptyMessageIsLocalValidationError(t *testing.T) {
	service := &fakeService{}
	m := newTestModel(service)

	updated, _ := m.Update(keyMsg("c"))
	m = updated.(Model)
	updated, cmd := m.Update(keyMsg("enter"))
	m = updated.(Model)

	if cmd != nil {
		t.Fatal("validation failure must not issue a command")
	}
	if service.shareCalls != 0 {
		t.Fatal("validation failure must not reach the service")
	}
	if m.draftErr == "" {
		t.Fatal("expected inline validation error")
	}
}

func TestComposer_TypingIsHardCappedAtLimit(t *testing.T) {
	m := newTestModel(&fakeService{})
	updated, _ := m.Update(keyMsg("c"))
	m = updated.(Model)

	m.draft.Message = strings.Repeat("a", wall.MaxMessageChars)
	updated, _ = m.Update(keyMsg("b"))
	m = updated.(Model)

	if got := len([]rune(m.Draft().Message)); got != wall.MaxMessageChars {
		t.Fatalf("edit surface exceeded the cap: %d", got)
	}
	if m.Draft().Message[len(m.Draft().Message)-1] != 'a' {
		t.Fatal("overflow rune was appended")
	}
}

func TestComposer_ShareSuccessClearsDraft(t *testing.T) {
	m := newTestModel(&fakeService{})
	m.composing = true
	m.draft = wall.Draft{Message: "hello wall", ImagePath: "pic.png"}
	m.sharing = true

	updated, _ := m.Update(actions.ShareSuccessMsg{})
	m = updated.(Model)

	if m.sharing || m.composing {
		t.Fatal("sharing/composing flags should clear")
	}
	if m.Draft().Message != "" || m.Draft().ImagePath != "" {
		t.Fatalf("draft not cleared: %+v", m.Draft())
	}
	if m.status == "" {
		t.Fatal("expected success acknowledgment")
	}
}

func TestComposer_ShareErrorPreservesDraft(t *testing.T) {
	m := newTestModel(&fakeService{})
	m.composing = true
	m.draft = wall.Draft{Message: "hello wall", ImagePath: "pic.png"}
	m.sharing = true

	updated, _ := m.Update(actions.ShareErrorMsg{Err: errors.New("backend rejected it")})
	m = updated.(Model)

	if m.sharing {
		t.Fatal("sharing flag should clear on failure")
	}
	if m.Draft().Message != "hello wall" || m.Draft().ImagePath != "pic.png" {
		t.Fatalf("draft must survive a failed share: %+v", m.Draft())
	}
	if !strings.Contains(m.draftErr, "backend rejected it") {
		t.Fatalf("backend message not surfaced: %q", m.draftErr)
	}
}

func TestComposer_ReentrantSubmitRejected(t *testing.T) {
	service := &fakeService{}
	m := newTestModel(service)
	m.composing = true
	m.draft = wall.Draft{Message: "hello"}
	m.sharing = true

	_, cmd := m.Update(keyMsg("enter"))
	if cmd != nil {
		t.Fatal("submit while sharing must be rejected, not queued")
	}
}

func TestView_PlaceholdersOnlyWhileLoadingEmpty(t *testing.T) {
	m := newTestModel(&fakeService{})
	if !m.loading {
		t.Fatal("fresh model should be loading")
	}
	out := m.View()
	if !strings.Contains(out, "█") {
		t.Fatal("expected placeholder bars during initial load")
	}

	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	updated, _ := m.Update(actions.LoadSuccessMsg{Posts: []wall.Post{post("1", t1)}})
	m = updated.(Model)
	out = m.View()
	if !strings.Contains(out, "post 1") {
		t.Fatal("expected real post after load")
	}
}

func TestView_StackedAndTiledModes(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	m := newTestModel(&fakeService{})
	updated, _ := m.Update(actions.LoadSuccessMsg{Posts: []wall.Post{post("1", t1)}})
	m = updated.(Model)

	if m.viewMode != ViewStacked {
		t.Fatalf("default mode should be stacked, got %s", m.viewMode)
	}
	updated, _ = m.Update(keyMsg("v"))
	m = updated.(Model)
	if m.viewMode != ViewTiled {
		t.Fatalf("v should toggle to tiled, got %s", m.viewMode)
	}
}

func TestStreamStatus_UpdatesFooterState(t *testing.T) {
	status := make(chan supabase.StreamStatus)
	m := NewModel(&fakeService{}, wall.SidebarProfile{}, nil, nil, status)

	updated, cmd := m.Update(actions.StreamStatusMsg{
		Status: supabase.StreamStatus{State: supabase.StreamReconnecting, Err: errors.New("conn reset")},
		OK:     true,
	})
	m = updated.(Model)

	if cmd == nil {
		t.Fatal("expected status wait to re-arm")
	}
	if m.streamState != supabase.StreamReconnecting {
		t.Fatalf("unexpected state: %v", m.streamState)
	}
	if !strings.Contains(m.View(), "reconnecting") {
		t.Fatal("stream state not visible")
	}
}

func TestFullscreen_OpensOnlyForPostsWithImages(t *testing.T) {
	t1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	withImage := wall.Post{ID: "2", Message: "look", CreatedAt: t1.Add(time.Minute), Image: "data:image/png;base64,AA=="}

	m := newTestModel(&fakeService{})
	m.renderImageFn = func(ref string, w, h int) (string, error) { return "ascii-art", nil }
	updated, _ := m.Update(actions.LoadSuccessMsg{Posts: []wall.Post{withImage, post("1", t1)}})
	m = updated.(Model)

	// Cursor on the image post.
	updated, cmd := m.Update(keyMsg("enter"))
	m = updated.(Model)
	if !m.inFullscreen || cmd == nil {
		t.Fatal("expected fullscreen overlay with a render command")
	}

	updated, _ = m.Update(actions.ImageRenderedMsg{PostID: "2", Preview: "ascii-art"})
	m = updated.(Model)
	if !strings.Contains(m.View(), "ascii-art") {
		t.Fatal("rendered image not shown")
	}

	updated, _ = m.Update(keyMsg("esc"))
	m = updated.(Model)
	if m.inFullscreen {
		t.Fatal("esc should dismiss the overlay")
	}

	// Text-only post must not open the overlay.
	updated, _ = m.Update(keyMsg("j"))
	m = updated.(Model)
	updated, _ = m.Update(keyMsg("enter"))
	m = updated.(Model)
	if m.inFullscreen {
		t.Fatal("text-only post opened the overlay")
	}
}
