package settings

import "strings"

// OpenMode selects where a newly created tab is placed.
type OpenMode string

const (
	OpenDefault  OpenMode = "d"
	OpenLeftEnd  OpenMode = "L"
	OpenLeft     OpenMode = "l"
	OpenRight    OpenMode = "r"
	OpenRightEnd OpenMode = "R"
)

func (m OpenMode) Valid() bool {
	switch m {
	case OpenDefault, OpenLeftEnd, OpenLeft, OpenRight, OpenRightEnd:
		return true
	}
	return false
}

func (m OpenMode) Name() string {
	switch m {
	case OpenDefault:
		return "default"
	case OpenLeftEnd:
		return "left-end"
	case OpenLeft:
		return "left"
	case OpenRight:
		return "right"
	case OpenRightEnd:
		return "right-end"
	}
	return "invalid(" + string(m) + ")"
}

// CloseMode selects which tab is activated after the active tab closes.
type CloseMode string

const (
	CloseDefault   CloseMode = "d"
	CloseLeftmost  CloseMode = "L"
	CloseLeft      CloseMode = "l"
	CloseRight     CloseMode = "r"
	CloseRightmost CloseMode = "R"
	CloseOrder     CloseMode = "o"
)

func (m CloseMode) Valid() bool {
	switch m {
	case CloseDefault, CloseLeftmost, CloseLeft, CloseRight, CloseRightmost, CloseOrder:
		return true
	}
	return false
}

func (m CloseMode) Name() string {
	switch m {
	case CloseDefault:
		return "default"
	case CloseLeftmost:
		return "leftmost"
	case CloseLeft:
		return "left"
	case CloseRight:
		return "right"
	case CloseRightmost:
		return "rightmost"
	case CloseOrder:
		return "order"
	}
	return "invalid(" + string(m) + ")"
}

// PopupPolicy controls redirection of popup windows into normal-window tabs.
type PopupPolicy struct {
	Enabled       bool     `yaml:"enabled" json:"enabled"`
	ExclusionList []string `yaml:"exclusionList" json:"exclusionList"`
}

// Excludes reports whether url starts with any exclusion prefix.
func (p PopupPolicy) Excludes(url string) bool {
	for _, prefix := range p.ExclusionList {
		if prefix != "" && strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return false
}

// ParseExclusionList splits free-form text (one prefix per line or separated
// by any whitespace) into prefixes.
func ParseExclusionList(text string) []string {
	fields := strings.Fields(text)
	if fields == nil {
		return []string{}
	}
	return fields
}
