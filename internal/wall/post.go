package wall

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageChars is the composer's message length limit.
const MaxMessageChars = 500

// AnonymousAuthor is the display name used when a post carries no author.
// It is applied at render time only; stored posts keep the author absent.
const AnonymousAuthor = "Anonymous"

var (
	ErrMessageRequired = errors.New("message is required")
	ErrMessageTooLong  = errors.New("message is too long")
)

// Post is one wall entry. Posts are immutable once created; ID and
// CreatedAt are assigned by the backend at insert time.
type Post struct {
	ID        string
	Author    string
	Message   string
	CreatedAt time.Time
	Image     string
}

// DisplayAuthor returns the author name to render, falling back to
// AnonymousAuthor when the post has none.
func (p Post) DisplayAuthor() string {
	if strings.TrimSpace(p.Author) == "" {
		return AnonymousAuthor
	}
	return p.Author
}

// HasImage reports whether the post carries an inline image payload.
func (p Post) HasImage() bool {
	return p.Image != ""
}

// SidebarProfile is the static description of the wall owner. It is never
// mutated at runtime.
type SidebarProfile struct {
	Name     string
	Subtitle string
	Photo    string
	Networks []string
	City     string
	Info     string
}

// Draft is the composer's in-progress post content.
type Draft struct {
	Message   string
	ImagePath string
}

// ValidateMessage checks a draft message, first failure wins: a trimmed
// message must be non-empty and at most MaxMessageChars runes.
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrMessageRequired
	}
	if utf8.RuneCountInString(message) > MaxMessageChars {
		return ErrMessageTooLong
	}
	return nil
}

// CharsLeft returns the remaining character budget for a message. The
// result goes negative when the message is over the limit.
func CharsLeft(message string) int {
	return MaxMessageChars - utf8.RuneCountInString(message)
}
