package domain

// CapacityStatus classifies how full a container is relative to its limits.
// Value object - immutable string enum.
type CapacityStatus string

const (
	CapacityNormal           CapacityStatus = "NORMAL"
	CapacityAboveRecommended CapacityStatus = "ABOVE_RECOMMENDED"
	CapacityWarning          CapacityStatus = "WARNING"
	CapacityLimitReached     CapacityStatus = "LIMIT_REACHED"
)

// CanCreate reports whether another child may still be added.
func (s CapacityStatus) CanCreate() bool {
	return s != CapacityLimitReached
}

// RequiresNotification reports whether clients should surface the status to the user.
func (s CapacityStatus) RequiresNotification() bool {
	return s == CapacityWarning || s == CapacityLimitReached
}

// Capacity is a point-in-time report for one container.
type Capacity struct {
	Kind      ContainerKind
	ParentID  string
	Count     int
	Max       int
	Available int
	Status    CapacityStatus
}

// Default content limits.
const (
	DefaultMaxListTitleLength   = 100
	DefaultMaxCardTitleLength   = 200
	DefaultMaxDescriptionLength = 2000
	DefaultMaxSearchResults     = 50
)

// TextLimits bounds list and card content. Zero fields fall back to defaults.
type TextLimits struct {
	ListTitle     int
	CardTitle     int
	Description   int
	SearchResults int
}

// WithDefaults fills zero or negative fields with the default limits.
func (l TextLimits) WithDefaults() TextLimits {
	if l.ListTitle <= 0 {
		l.ListTitle = DefaultMaxListTitleLength
	}
	if l.CardTitle <= 0 {
		l.CardTitle = DefaultMaxCardTitleLength
	}
	if l.Description <= 0 {
		l.Description = DefaultMaxDescriptionLength
	}
	if l.SearchResults <= 0 {
		l.SearchResults = DefaultMaxSearchResults
	}
	return l
}
