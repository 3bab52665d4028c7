package model

// SortOption controls the order of the derived link list.
type SortOption int

const (
	SortDateDesc    SortOption = iota // newest first
	SortDateAsc                       // oldest first
	SortTitleAsc                      // A-Z, case-insensitive
	SortMostVisited                   // highest click count first
)

var sortNames = map[SortOption]string{
	SortDateDesc:    "date_desc",
	SortDateAsc:     "date_asc",
	SortTitleAsc:    "title_asc",
	SortMostVisited: "most_visited",
}

// String returns the option's stable name.
func (s SortOption) String() string {
	if name, ok := sortNames[s]; ok {
		return name
	}
	return "unknown"
}

// Label returns a short human-readable label.
func (s SortOption) Label() string {
	switch s {
	case SortDateAsc:
		return "oldest"
	case SortTitleAsc:
		return "title"
	case SortMostVisited:
		return "most visited"
	default:
		return "newest"
	}
}

// Next cycles to the following sort option.
func (s SortOption) Next() SortOption {
	return (s + 1) % 4
}

// ParseSortOption parses a name produced by String.
func ParseSortOption(name string) (SortOption, bool) {
	for opt, n := range sortNames {
		if n == name {
			return opt, true
		}
	}
	return SortDateDesc, false
}

// FilterOption selects the base set of links.
type FilterOption int

const (
	FilterAll FilterOption = iota
	FilterFavorites
	FilterCategory
)

var filterNames = map[FilterOption]string{
	FilterAll:       "all",
	FilterFavorites: "favorites",
	FilterCategory:  "category",
}

func (f FilterOption) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFilterOption parses a name produced by String.
func ParseFilterOption(name string) (FilterOption, bool) {
	for opt, n := range filterNames {
		if n == name {
			return opt, true
		}
	}
	return FilterAll, false
}
