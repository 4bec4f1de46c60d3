// Package capacity holds the container limits the ordering engine enforces.
package capacity

import (
	"fmt"

	"github.com/rezkam/boardly/internal/domain"
)

// Default thresholds for lists per board.
const (
	DefaultRecommendedListsPerBoard = 10
	DefaultWarningListsPerBoard     = 15
)

// Limits configures container capacity. Zero fields fall back to defaults.
type Limits struct {
	MaxListsPerBoard         int `yaml:"max_lists_per_board"`
	RecommendedListsPerBoard int `yaml:"recommended_lists_per_board"`
	WarningListsPerBoard     int `yaml:"warning_lists_per_board"`
	MaxCardsPerList          int `yaml:"max_cards_per_list"`

	MaxListTitleLength   int `yaml:"max_list_title_length"`
	MaxCardTitleLength   int `yaml:"max_card_title_length"`
	MaxDescriptionLength int `yaml:"max_description_length"`
	MaxSearchResults     int `yaml:"max_search_results"`
}

// Defaults returns the documented default limits.
func Defaults() Limits {
	return Limits{
		MaxListsPerBoard:         domain.DefaultMaxListsPerBoard,
		RecommendedListsPerBoard: DefaultRecommendedListsPerBoard,
		WarningListsPerBoard:     DefaultWarningListsPerBoard,
		MaxCardsPerList:          domain.DefaultMaxCardsPerList,
		MaxListTitleLength:       domain.DefaultMaxListTitleLength,
		MaxCardTitleLength:       domain.DefaultMaxCardTitleLength,
		MaxDescriptionLength:     domain.DefaultMaxDescriptionLength,
		MaxSearchResults:         domain.DefaultMaxSearchResults,
	}
}

func (l Limits) withDefaults() Limits {
	d := Defaults()
	if l.MaxListsPerBoard <= 0 {
		l.MaxListsPerBoard = d.MaxListsPerBoard
	}
	if l.RecommendedListsPerBoard <= 0 {
		l.RecommendedListsPerBoard = min(d.RecommendedListsPerBoard, l.MaxListsPerBoard)
	}
	if l.WarningListsPerBoard <= 0 {
		l.WarningListsPerBoard = min(d.WarningListsPerBoard, l.MaxListsPerBoard)
	}
	if l.MaxCardsPerList <= 0 {
		l.MaxCardsPerList = d.MaxCardsPerList
	}
	text := l.TextLimits()
	l.MaxListTitleLength = text.ListTitle
	l.MaxCardTitleLength = text.CardTitle
	l.MaxDescriptionLength = text.Description
	l.MaxSearchResults = text.SearchResults
	return l
}

// TextLimits returns the content length limits, with defaults applied.
func (l Limits) TextLimits() domain.TextLimits {
	return domain.TextLimits{
		ListTitle:     l.MaxListTitleLength,
		CardTitle:     l.MaxCardTitleLength,
		Description:   l.MaxDescriptionLength,
		SearchResults: l.MaxSearchResults,
	}.WithDefaults()
}

// Validate checks that thresholds are ordered recommended <= warning <= max.
func (l Limits) Validate() error {
	l = l.withDefaults()
	if l.RecommendedListsPerBoard > l.WarningListsPerBoard {
		return fmt.Errorf("recommended lists per board (%d) exceeds warning threshold (%d)",
			l.RecommendedListsPerBoard, l.WarningListsPerBoard)
	}
	if l.WarningListsPerBoard > l.MaxListsPerBoard {
		return fmt.Errorf("warning threshold (%d) exceeds max lists per board (%d)",
			l.WarningListsPerBoard, l.MaxListsPerBoard)
	}
	return nil
}

// MaxChildren returns the maximum number of children for kind.
func (l Limits) MaxChildren(kind domain.ContainerKind) int {
	l = l.withDefaults()
	if kind == domain.KindBoardLists {
		return l.MaxListsPerBoard
	}
	return l.MaxCardsPerList
}

// Status classifies count for kind. Cards only distinguish full from not full.
func (l Limits) Status(kind domain.ContainerKind, count int) domain.CapacityStatus {
	l = l.withDefaults()
	if count >= l.MaxChildren(kind) {
		return domain.CapacityLimitReached
	}
	if kind != domain.KindBoardLists {
		return domain.CapacityNormal
	}
	switch {
	case count >= l.WarningListsPerBoard:
		return domain.CapacityWarning
	case count > l.RecommendedListsPerBoard:
		return domain.CapacityAboveRecommended
	default:
		return domain.CapacityNormal
	}
}
