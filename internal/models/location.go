package models

import "strings"

// LocationType classifies where a reference link points.
type LocationType int

const (
	// LocSameFile is an empty link; the target is the referring file itself.
	LocSameFile LocationType = iota
	// LocRelative is a path resolved against the referring file's directory.
	LocRelative
	// LocAbsolute is a path resolved against the repository root.
	LocAbsolute
	// LocExternal is a URL with a protocol, verified over the network.
	LocExternal
	// LocOther is a non-web scheme such as mailto:, never verified.
	LocOther
)

func (t LocationType) String() string {
	switch t {
	case LocSameFile:
		return "current file"
	case LocRelative:
		return "relative"
	case LocAbsolute:
		return "absolute"
	case LocExternal:
		return "external"
	case LocOther:
		return "other"
	default:
		return "unknown"
	}
}

// ClassifyLocation determines the LocationType of a link. Only the first ten
// characters are consulted when looking for a scheme, so a colon deep inside
// a long relative path does not turn it into a URL.
func ClassifyLocation(link string) LocationType {
	if link == "" {
		return LocSameFile
	}
	head := link
	if runes := []rune(head); len(runes) > 10 {
		head = string(runes[:10])
	}
	switch {
	case strings.Contains(head, "://"):
		return LocExternal
	case strings.Contains(head, ":"):
		return LocOther
	case strings.HasPrefix(link, "/"):
		return LocAbsolute
	default:
		return LocRelative
	}
}
