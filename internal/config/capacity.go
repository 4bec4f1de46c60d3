package config

import "github.com/rezkam/boardly/internal/capacity"

// CapacityConfig holds container limits. File, when set, is a YAML file
// that overrides these values and is reloaded on change.
type CapacityConfig struct {
	File                     string `env:"BOARDLY_CAPACITY_FILE"`
	MaxListsPerBoard         int    `env:"BOARDLY_MAX_LISTS_PER_BOARD"`
	RecommendedListsPerBoard int    `env:"BOARDLY_RECOMMENDED_LISTS_PER_BOARD"`
	WarningListsPerBoard     int    `env:"BOARDLY_WARNING_LISTS_PER_BOARD"`
	MaxCardsPerList          int    `env:"BOARDLY_MAX_CARDS_PER_LIST"`
	MaxListTitleLength       int    `env:"BOARDLY_MAX_LIST_TITLE_LENGTH"`
	MaxCardTitleLength       int    `env:"BOARDLY_MAX_CARD_TITLE_LENGTH"`
	MaxDescriptionLength     int    `env:"BOARDLY_MAX_DESCRIPTION_LENGTH"`
	MaxSearchResults         int    `env:"BOARDLY_MAX_SEARCH_RESULTS"`
}

// Limits converts the env values into capacity limits.
func (c *CapacityConfig) Limits() capacity.Limits {
	return capacity.Limits{
		MaxListsPerBoard:         c.MaxListsPerBoard,
		RecommendedListsPerBoard: c.RecommendedListsPerBoard,
		WarningListsPerBoard:     c.WarningListsPerBoard,
		MaxCardsPerList:          c.MaxCardsPerList,
		MaxListTitleLength:       c.MaxListTitleLength,
		MaxCardTitleLength:       c.MaxCardTitleLength,
		MaxDescriptionLength:     c.MaxDescriptionLength,
		MaxSearchResults:         c.MaxSearchResults,
	}
}

// Validate checks threshold ordering.
func (c *CapacityConfig) Validate() error {
	return c.Limits().Validate()
}
