package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the maximum board title length in characters.
const MaxTitleLength = 255

// Title is a validated title value object.
type Title struct {
	value string
}

// NewTitle creates a new Title of at most MaxTitleLength characters.
func NewTitle(s string) (Title, error) {
	return NewBoundedTitle(s, MaxTitleLength)
}

// NewBoundedTitle creates a new Title of at most maxLen characters.
func NewBoundedTitle(s string, maxLen int) (Title, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Title{}, ErrTitleRequired
	}

	if utf8.RuneCountInString(s) > maxLen {
		return Title{}, fmt.Errorf("%w: at most %d characters", ErrTitleTooLong, maxLen)
	}

	return Title{value: s}, nil
}

// CheckDescription rejects descriptions longer than maxLen characters.
func CheckDescription(s string, maxLen int) error {
	if utf8.RuneCountInString(s) > maxLen {
		return fmt.Errorf("%w: at most %d characters", ErrDescriptionTooLong, maxLen)
	}
	return nil
}

// NewSearchTerm trims term and rejects it when nothing is left.
func NewSearchTerm(term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", ErrSearchTermRequired
	}
	return term, nil
}

// String returns the title value.
func (t Title) String() string {
	return t.value
}

// ParseEtag converts an etag into the version it encodes.
// Surrounding quotes are accepted so raw If-Match header values can be passed through.
func ParseEtag(etag string) (int, error) {
	v, err := strconv.Atoi(strings.Trim(strings.TrimSpace(etag), `"`))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidEtag, etag)
	}
	return v, nil
}
