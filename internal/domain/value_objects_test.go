package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTitle(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"trims whitespace", "  Backlog  ", "Backlog", nil},
		{"empty", "", "", ErrTitleRequired},
		{"only spaces", "   ", "", ErrTitleRequired},
		{"max length", strings.Repeat("a", MaxTitleLength), strings.Repeat("a", MaxTitleLength), nil},
		{"too long", strings.Repeat("a", MaxTitleLength+1), "", ErrTitleTooLong},
		{"multibyte counted as characters", strings.Repeat("é", MaxTitleLength), strings.Repeat("é", MaxTitleLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, err := NewTitle(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, title.String())
		})
	}
}

func TestNewBoundedTitle(t *testing.T) {
	_, err := NewBoundedTitle(strings.Repeat("a", 101), DefaultMaxListTitleLength)
	assert.ErrorIs(t, err, ErrTitleTooLong)
	assert.Contains(t, err.Error(), "at most 100")

	title, err := NewBoundedTitle(" "+strings.Repeat("b", 100)+" ", DefaultMaxListTitleLength)
	require.NoError(t, err)
	assert.Len(t, title.String(), 100)
}

func TestCheckDescription(t *testing.T) {
	assert.NoError(t, CheckDescription("", 5))
	assert.NoError(t, CheckDescription("ééééé", 5))
	assert.ErrorIs(t, CheckDescription("toolong", 5), ErrDescriptionTooLong)
}

func TestNewSearchTerm(t *testing.T) {
	term, err := NewSearchTerm("  deploy ")
	require.NoError(t, err)
	assert.Equal(t, "deploy", term)

	_, err = NewSearchTerm(" \t")
	assert.ErrorIs(t, err, ErrSearchTermRequired)
}

func TestTextLimits_WithDefaults(t *testing.T) {
	l := TextLimits{CardTitle: 50, Description: -1}.WithDefaults()
	assert.Equal(t, TextLimits{
		ListTitle:     DefaultMaxListTitleLength,
		CardTitle:     50,
		Description:   DefaultMaxDescriptionLength,
		SearchResults: DefaultMaxSearchResults,
	}, l)
}

func TestParseEtag(t *testing.T) {
	v, err := ParseEtag(`"7"`)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = ParseEtag("3")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	for _, bad := range []string{"", "abc", "-1", `"x"`} {
		_, err := ParseEtag(bad)
		assert.ErrorIs(t, err, ErrInvalidEtag, bad)
	}
}

func TestCapacityStatus(t *testing.T) {
	assert.True(t, CapacityNormal.CanCreate())
	assert.True(t, CapacityWarning.CanCreate())
	assert.False(t, CapacityLimitReached.CanCreate())

	assert.False(t, CapacityAboveRecommended.RequiresNotification())
	assert.True(t, CapacityWarning.RequiresNotification())
	assert.True(t, CapacityLimitReached.RequiresNotification())
}

func TestCard_Clone(t *testing.T) {
	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	card := &Card{
		ID:          "c1",
		ListID:      "l1",
		Title:       "Write tests",
		Description: "cover every shift",
		Completed:   true,
		DueAt:       &due,
		Position:    4,
		Version:     9,
	}

	clone := card.Clone("c2", "Write tests (copy)", "l2", 0)

	assert.Equal(t, "c2", clone.ID)
	assert.Equal(t, "l2", clone.ListID)
	assert.Equal(t, "Write tests (copy)", clone.Title)
	assert.Equal(t, card.Description, clone.Description)
	assert.False(t, clone.Completed)
	assert.Zero(t, clone.Version)
	require.NotNil(t, clone.DueAt)
	assert.Equal(t, due, *clone.DueAt)
	assert.NotSame(t, card.DueAt, clone.DueAt)
}

func TestPositioned_PlaceAndSlot(t *testing.T) {
	var p Positioned = &BoardList{ID: "l1", BoardID: "b1", Position: 2, Version: 1}
	p.Place("b2", 0)
	p.SetVersion(2)

	assert.Equal(t, Slot{ID: "l1", ParentID: "b2", Position: 0, Version: 2}, p.Slot())
}

func TestTypedErrors_MatchSentinels(t *testing.T) {
	var err error = &LimitExceededError{Kind: KindCards, ParentID: "l1", Max: 2, Current: 2}
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Equal(t, "list l1 already holds 2 of at most 2 cards", err.Error())

	err = &PositionError{Position: 5, Max: 3}
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	assert.False(t, errors.Is(err, ErrPositionInvalid))
}
