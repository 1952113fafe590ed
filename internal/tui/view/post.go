package view

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	tuitheme "github.com/gwientjes/wall-cli/internal/tui/theme"

	"github.com/gwientjes/wall-cli/internal/wall"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// PlaceholderCount is how many skeleton cards render while the initial
// fetch is in flight. Placeholders never mix with real posts.
const PlaceholderCount = 3

type PostCardParams struct {
	Post   wall.Post
	Now    time.Time
	Active bool
	Width  int
}

// RenderPostCard renders one post in stacked mode: author and relative
// time on the header line, the message with line breaks preserved, and an
// image marker when the post carries one.
func RenderPostCard(p PostCardParams, th tuitheme.Theme) []string {
	width := p.Width
	if width < 20 {
		width = 20
	}

	cursorMarker := "  "
	if p.Active {
		cursorMarker = "> "
	}

	header := cursorMarker + th.Author.Render(p.Post.DisplayAuthor()) +
		"  " + th.Timestamp.Render(TimeAgo(p.Now, p.Post.CreatedAt))

	lines := []string{th.RenderActiveLine(p.Active, padLine(header, width))}
	for _, raw := range strings.Split(p.Post.Message, "\n") {
		for _, wrapped := range wrapRunes(raw, width-4) {
			lines = append(lines, "    "+th.Message.Render(wrapped))
		}
	}
	if p.Post.HasImage() {
		marker := "    " + th.MetaLabel.Render("[image]") + " " + th.MetaValue.Render("enter to view")
		lines = append(lines, marker)
	}
	lines = append(lines, "")
	return lines
}

// RenderPostRow renders one post as a single dense line for tiled mode.
func RenderPostRow(p PostCardParams, th tuitheme.Theme) string {
	width := p.Width
	if width < 20 {
		width = 20
	}

	cursorMarker := " "
	if p.Active {
		cursorMarker = ">"
	}

	imageMarker := "  "
	if p.Post.HasImage() {
		imageMarker = "▣ "
	}

	prefix := fmt.Sprintf(" %s %s", cursorMarker, imageMarker)
	dateLabel := "[" + TimeAgo(p.Now, p.Post.CreatedAt) + "]"
	author := p.Post.DisplayAuthor()

	message := strings.ReplaceAll(p.Post.Message, "\n", " ")
	available := width - visibleLen(prefix) - visibleLen(author) - 3 - visibleLen(dateLabel)
	if available < 1 {
		available = 1
	}
	message = truncateRunes(strings.TrimSpace(message), available)

	body := th.Author.Render(author) + ": " + th.Message.Render(message)
	gap := width - visibleLen(prefix) - visibleLen(author) - 2 - visibleLen(message) - visibleLen(dateLabel)
	if gap < 1 {
		gap = 1
	}
	return th.RenderActiveLine(p.Active, prefix+body+strings.Repeat(" ", gap)+th.Timestamp.Render(dateLabel))
}

// RenderPlaceholderCard renders one skeleton card shown during the
// initial fetch.
func RenderPlaceholderCard(width int, th tuitheme.Theme) []string {
	if width < 20 {
		width = 20
	}
	bar := func(n int) string {
		if n > width-4 {
			n = width - 4
		}
		return "    " + th.Placeholder.Render(strings.Repeat("█", n))
	}
	return []string{
		bar(18),
		bar(width - 8),
		bar(width - 14),
		"",
	}
}

// TimeAgo formats the age of a post: seconds, minutes, or hours for
// anything younger than a day, the calendar date otherwise.
func TimeAgo(now, then time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	if then.IsZero() {
		return "unknown"
	}
	d := now.Sub(then)
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d/time.Second))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	}
	return then.Format(time.DateOnly)
}

func wrapRunes(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	if s == "" {
		return []string{""}
	}
	runes := []rune(s)
	lines := make([]string, 0, len(runes)/width+1)
	for len(runes) > width {
		lines = append(lines, string(runes[:width]))
		runes = runes[width:]
	}
	return append(lines, string(runes))
}

func padLine(s string, width int) string {
	gap := width - visibleLen(s)
	if gap < 1 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return strings.Repeat(".", maxLen)
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(stripANSIText(s))
}

func stripANSIText(s string) string {
	return reANSICodes.ReplaceAllString(s, "")
}
