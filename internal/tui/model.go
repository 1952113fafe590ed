package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gwientjes/wall-cli/internal/feed"
	"github.com/gwientjes/wall-cli/internal/supabase"
	"github.com/gwientjes/wall-cli/internal/tui/actions"
	tuitheme "github.com/gwientjes/wall-cli/internal/tui/theme"
	"github.com/gwientjes/wall-cli/internal/tui/view"
	"github.com/gwientjes/wall-cli/internal/wall"
)

// ViewMode selects how the feed list renders.
const (
	ViewStacked = "stacked"
	ViewTiled   = "tiled"
)

type Model struct {
	service actions.Service
	posts   *feed.List
	profile wall.SidebarProfile
	theme   tuitheme.Theme

	postStream   <-chan wall.Post
	statusStream <-chan supabase.StreamStatus
	streamState  supabase.StreamState
	streamErr    error

	loading bool
	errText string

	// composer draft state; the draft survives failed submissions.
	composing    bool
	draft        wall.Draft
	draftErr     string
	sharing      bool
	pickingImage bool
	imageInput   string

	viewMode    string
	cursor      int
	hasNewPosts bool

	inFullscreen   bool
	overlayPostID  string
	overlayPreview string
	overlayErr     string
	overlayLoading bool
	renderImageFn  func(string, int, int) (string, error)

	showSidebar bool
	showHelp    bool
	width       int
	height      int
	status      string
	statusID    int
	nowFn       func() time.Time
}

// NewModel builds the page shell. cached seeds the feed before the
// initial fetch completes; postStream and statusStream come from the
// realtime subscriber.
func NewModel(service actions.Service, profile wall.SidebarProfile, cached []wall.Post, postStream <-chan wall.Post, statusStream <-chan supabase.StreamStatus) Model {
	posts := feed.NewList()
	posts.Replace(cached)
	return Model{
		service:       service,
		posts:         posts,
		profile:       profile,
		theme:         tuitheme.Default(),
		postStream:    postStream,
		statusStream:  statusStream,
		streamState:   supabase.StreamConnecting,
		loading:       true,
		viewMode:      ViewStacked,
		showSidebar:   true,
		renderImageFn: view.RenderImage,
		nowFn:         time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{actions.LoadWallCmd(m.service, feed.FetchWindow, "init")}
	if m.postStream != nil {
		cmds = append(cmds, actions.WaitForPostCmd(m.postStream))
	}
	if m.statusStream != nil {
		cmds = append(cmds, actions.WaitForStreamStatusCmd(m.statusStream))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case actions.LoadSuccessMsg:
		m.loading = false
		m.errText = ""
		m.posts.Replace(msg.Posts)
		m.clampCursor()
		m.setStatus(fmt.Sprintf("Loaded %d posts in %s", len(msg.Posts), msg.Duration.Round(time.Millisecond)))
		return m, actions.ClearStatusCmd(m.statusID, 3*time.Second)
	case actions.LoadErrorMsg:
		m.loading = false
		m.errText = "Failed to fetch posts: " + msg.Err.Error()
		return m, nil
	case actions.PostArrivedMsg:
		return m.handlePostArrived(msg)
	case actions.StreamStatusMsg:
		if !msg.OK {
			m.streamState = supabase.StreamClosed
			return m, nil
		}
		m.streamState = msg.Status.State
		m.streamErr = msg.Status.Err
		return m, actions.WaitForStreamStatusCmd(m.statusStream)
	case actions.ShareSuccessMsg:
		m.sharing = false
		m.draft = wall.Draft{}
		m.draftErr = ""
		m.composing = false
		m.setStatus("Thought shared successfully!")
		return m, actions.ClearStatusCmd(m.statusID, 3*time.Second)
	case actions.ShareErrorMsg:
		// Draft stays untouched so the user can retry.
		m.sharing = false
		m.draftErr = shareErrorText(msg.Err)
		return m, nil
	case actions.CacheWriteErrorMsg:
		m.setStatus("Warning: could not cache post: " + msg.Err.Error())
		return m, actions.ClearStatusCmd(m.statusID, 4*time.Second)
	case actions.ClearStatusMsg:
		if msg.ID == m.statusID {
			m.status = ""
		}
		return m, nil
	case actions.ImageRenderedMsg:
		if m.inFullscreen && msg.PostID == m.overlayPostID {
			m.overlayLoading = false
			m.overlayPreview = msg.Preview
			m.overlayErr = ""
		}
		return m, nil
	case actions.ImageRenderErrorMsg:
		if m.inFullscreen && msg.PostID == m.overlayPostID {
			m.overlayLoading = false
			m.overlayErr = msg.Err.Error()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handlePostArrived(msg actions.PostArrivedMsg) (tea.Model, tea.Cmd) {
	if !msg.OK {
		m.streamState = supabase.StreamClosed
		return m, nil
	}

	cmds := []tea.Cmd{actions.WaitForPostCmd(m.postStream)}
	if m.posts.Apply(msg.Post) {
		if m.cursor > 0 {
			// Keep the selection on the same post and flag the banner.
			m.cursor++
			m.hasNewPosts = true
		}
		m.clampCursor()
		cmds = append(cmds, actions.CachePostCmd(m.service, msg.Post))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "esc", "?":
			m.showHelp = false
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m, nil
	}

	if m.inFullscreen {
		switch msg.String() {
		case "esc", "backspace", "enter", "q":
			m.inFullscreen = false
			m.overlayPostID = ""
			m.overlayPreview = ""
			m.overlayErr = ""
			m.overlayLoading = false
		case "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	if m.pickingImage {
		return m.handleImageInputKey(msg)
	}
	if m.composing {
		return m.handleComposerKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "c":
		m.composing = true
		return m, nil
	case "v":
		if m.viewMode == ViewStacked {
			m.viewMode = ViewTiled
		} else {
			m.viewMode = ViewStacked
		}
		return m, nil
	case "s":
		m.showSidebar = !m.showSidebar
		return m, nil
	case "r":
		m.loading = true
		m.errText = ""
		return m, actions.LoadWallCmd(m.service, feed.FetchWindow, "manual")
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < m.posts.Len()-1 {
			m.cursor++
		}
		return m, nil
	case "g":
		m.cursor = 0
		m.hasNewPosts = false
		return m, nil
	case "G":
		if m.posts.Len() > 0 {
			m.cursor = m.posts.Len() - 1
		}
		return m, nil
	case "enter":
		return m.openFullscreenImage()
	}
	return m, nil
}

func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		// Leave compose mode; the draft is preserved.
		m.composing = false
		return m, nil
	case "enter":
		return m.submitDraft()
	case "ctrl+a":
		m.pickingImage = true
		m.imageInput = m.draft.ImagePath
		return m, nil
	case "ctrl+x":
		m.draft.ImagePath = ""
		return m, nil
	case "backspace":
		if m.draft.Message != "" {
			runes := []rune(m.draft.Message)
			m.draft.Message = string(runes[:len(runes)-1])
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		text := string(msg.Runes)
		if msg.Type == tea.KeySpace {
			text = " "
		}
		// Hard cap at the edit surface; validation still rechecks.
		budget := wall.MaxMessageChars - utf8.RuneCountInString(m.draft.Message)
		if budget <= 0 {
			return m, nil
		}
		if utf8.RuneCountInString(text) > budget {
			text = string([]rune(text)[:budget])
		}
		m.draft.Message += text
		m.draftErr = ""
	}
	return m, nil
}

func (m Model) handleImageInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.pickingImage = false
		m.imageInput = ""
		return m, nil
	case "enter":
		// Selecting a new file replaces any previous attachment.
		m.draft.ImagePath = strings.TrimSpace(m.imageInput)
		m.pickingImage = false
		m.imageInput = ""
		return m, nil
	case "backspace":
		if m.imageInput != "" {
			runes := []rune(m.imageInput)
			m.imageInput = string(runes[:len(runes)-1])
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		if msg.Type == tea.KeySpace {
			m.imageInput += " "
		} else {
			m.imageInput += string(msg.Runes)
		}
	}
	return m, nil
}

func (m Model) submitDraft() (tea.Model, tea.Cmd) {
	if m.sharing {
		// A submission is already in flight; re-entrant submits are
		// rejected, not queued.
		return m, nil
	}
	if err := wall.ValidateMessage(m.draft.Message); err != nil {
		m.draftErr = shareErrorText(err)
		return m, nil
	}
	m.sharing = true
	m.draftErr = ""
	return m, actions.ShareCmd(m.service, m.draft)
}

func (m Model) openFullscreenImage() (tea.Model, tea.Cmd) {
	posts := m.posts.Posts()
	if m.cursor >= len(posts) {
		return m, nil
	}
	post := posts[m.cursor]
	if !post.HasImage() {
		return m, nil
	}
	m.inFullscreen = true
	m.overlayPostID = post.ID
	m.overlayPreview = ""
	m.overlayErr = ""
	m.overlayLoading = true
	return m, actions.RenderImageCmd(post.ID, post.Image, m.contentWidth(), m.overlayHeight(), m.renderImageFn)
}

func (m Model) View() string {
	var b strings.Builder
	m.writeHeader(&b)

	if m.showHelp {
		b.WriteString(m.helpView())
		b.WriteString("\n")
		m.writeFooter(&b)
		return b.String()
	}
	if m.inFullscreen {
		b.WriteString(m.fullscreenView())
		b.WriteString("\n")
		m.writeFooter(&b)
		return b.String()
	}

	if m.showSidebar {
		m.writeSidebar(&b)
	}
	m.writeComposer(&b)

	if m.hasNewPosts && m.cursor > 0 {
		b.WriteString(m.theme.Banner.Render("✨ New thoughts available - press g to view"))
		b.WriteString("\n\n")
	}

	m.writeFeed(&b)
	m.writeFooter(&b)
	return b.String()
}

func (m Model) writeHeader(b *strings.Builder) {
	mode := m.theme.ModePill.Render(m.viewMode)
	b.WriteString(m.theme.Title.Render("The Wall"))
	b.WriteString("  ")
	b.WriteString(mode)
	b.WriteString("  ")
	b.WriteString(m.streamLabel())
	b.WriteString("\n\n")
}

func (m Model) streamLabel() string {
	switch m.streamState {
	case supabase.StreamLive:
		return m.theme.StateIdle.Render("● live")
	case supabase.StreamReconnecting:
		return m.theme.StateWarn.Render("● reconnecting")
	case supabase.StreamConnecting:
		return m.theme.StateLoad.Render("● connecting")
	default:
		return m.theme.StateWarn.Render("● offline")
	}
}

func (m Model) writeSidebar(b *strings.Builder) {
	th := m.theme
	b.WriteString(th.Section.Render(m.profile.Name))
	b.WriteString("\n")
	b.WriteString(th.MetaValue.Render(m.profile.Subtitle))
	b.WriteString("\n")
	if m.profile.Info != "" {
		b.WriteString(th.MetaLabel.Render("Info: "))
		b.WriteString(th.MetaValue.Render(m.profile.Info))
		b.WriteString("\n")
	}
	if len(m.profile.Networks) > 0 {
		b.WriteString(th.MetaLabel.Render("Networks: "))
		b.WriteString(th.MetaValue.Render(strings.Join(m.profile.Networks, ", ")))
		b.WriteString("\n")
	}
	if m.profile.City != "" {
		b.WriteString(th.MetaLabel.Render("City: "))
		b.WriteString(th.MetaValue.Render(m.profile.City))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m Model) writeComposer(b *strings.Builder) {
	th := m.theme
	b.WriteString(th.Section.Render("Share your thoughts..."))
	b.WriteString("\n")

	if m.pickingImage {
		b.WriteString(th.MetaLabel.Render("Image path: "))
		b.WriteString(m.imageInput)
		b.WriteString("█\n")
		b.WriteString(th.MetaLabel.Render("enter: attach | esc: cancel"))
		b.WriteString("\n\n")
		return
	}

	if m.composing {
		message := m.draft.Message
		if message == "" {
			message = th.MetaLabel.Render("What's inspiring you today?")
		}
		b.WriteString(message)
		b.WriteString("█\n")

		left := wall.CharsLeft(m.draft.Message)
		b.WriteString(th.StyleCharsLeft(left).Render(fmt.Sprintf("%d characters remaining", left)))
		if m.draft.ImagePath != "" {
			b.WriteString("  ")
			b.WriteString(th.MetaLabel.Render("[image: " + m.draft.ImagePath + "]"))
		}
		b.WriteString("\n")

		hint := "enter: share | ctrl+a: add image | ctrl+x: remove image | esc: close"
		if m.sharing {
			hint = "Sharing..."
		}
		b.WriteString(th.MetaLabel.Render(hint))
		b.WriteString("\n")
	} else {
		preview := strings.TrimSpace(m.draft.Message)
		if preview != "" {
			b.WriteString(th.MetaValue.Render("Draft: " + truncateForHint(preview, 40)))
			b.WriteString("\n")
		}
		b.WriteString(th.MetaLabel.Render("press c to compose"))
		b.WriteString("\n")
	}

	if m.draftErr != "" {
		b.WriteString(th.StateWarn.Render(m.draftErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m Model) writeFeed(b *strings.Builder) {
	th := m.theme
	posts := m.posts.Posts()

	if m.loading && len(posts) == 0 {
		for i := 0; i < view.PlaceholderCount; i++ {
			for _, line := range view.RenderPlaceholderCard(m.contentWidth(), th) {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
		return
	}

	if len(posts) == 0 {
		b.WriteString(th.MetaLabel.Render("No posts yet. Be the first to share a thought."))
		b.WriteString("\n")
		return
	}

	now := m.nowFn()
	for i, post := range posts {
		params := view.PostCardParams{
			Post:   post,
			Now:    now,
			Active: i == m.cursor,
			Width:  m.contentWidth(),
		}
		if m.viewMode == ViewTiled {
			b.WriteString(view.RenderPostRow(params, th))
			b.WriteString("\n")
		} else {
			for _, line := range view.RenderPostCard(params, th) {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
	}
}

func (m Model) fullscreenView() string {
	if m.overlayLoading {
		return "Rendering image...\n"
	}
	if m.overlayErr != "" {
		return m.theme.StateWarn.Render("Image unavailable: "+m.overlayErr) + "\n"
	}
	return m.overlayPreview + "\n\n" + m.theme.MetaLabel.Render("esc: close")
}

func (m Model) helpView() string {
	lines := []string{
		"c        compose a post",
		"enter    share (in composer) / view image (in feed)",
		"ctrl+a   attach image to draft",
		"ctrl+x   remove draft image",
		"v        toggle stacked/tiled feed",
		"s        toggle sidebar",
		"j/k      move through the feed",
		"g/G      jump to newest/oldest",
		"r        refetch the feed",
		"?        toggle this help",
		"q        quit",
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m Model) writeFooter(b *strings.Builder) {
	th := m.theme
	b.WriteString("\n")
	if m.errText != "" {
		b.WriteString(th.StateWarn.Render(m.errText))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(th.StateIdle.Render(m.status))
		b.WriteString("\n")
	}
	if m.streamState == supabase.StreamReconnecting && m.streamErr != nil {
		b.WriteString(th.MetaLabel.Render("stream: " + m.streamErr.Error()))
		b.WriteString("\n")
	}
	counts := fmt.Sprintf("%d posts", m.posts.Len())
	if m.loading {
		counts += " | loading..."
	}
	b.WriteString(th.MetaLabel.Render(counts + " | ? for help"))
	b.WriteString("\n")
}

func (m *Model) setStatus(status string) {
	m.status = status
	m.statusID++
}

func (m *Model) clampCursor() {
	if m.posts.Len() == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= m.posts.Len() {
		m.cursor = m.posts.Len() - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor == 0 {
		m.hasNewPosts = false
	}
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	if m.width > 100 {
		return 100
	}
	return m.width
}

func (m Model) overlayHeight() int {
	if m.height <= 8 {
		return 18
	}
	return m.height - 6
}

func truncateForHint(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func shareErrorText(err error) string {
	switch {
	case errors.Is(err, wall.ErrMessageRequired):
		return "Message is required."
	case errors.Is(err, wall.ErrMessageTooLong):
		return fmt.Sprintf("Message must be %d characters or less.", wall.MaxMessageChars)
	default:
		return "Failed to share post: " + err.Error()
	}
}

// Draft exposes the composer draft for tests.
func (m Model) Draft() wall.Draft { return m.draft }

// Posts exposes the reconciled feed for tests.
func (m Model) Posts() []wall.Post { return m.posts.Posts() }

// Marker exposes the last-seen post id for tests.
func (m Model) Marker() string { return m.posts.Marker() }
