package models

import "fmt"

// AnchorType distinguishes how an anchor came to exist in a document.
type AnchorType int

const (
	// AnchorHeader is derived from a heading; its name is the heading slug.
	AnchorHeader AnchorType = iota
	// AnchorHandmade comes from an explicit <a name="..."> or <a id="...">.
	AnchorHandmade
	// AnchorBiblio comes from a link reference definition ([label]: url).
	AnchorBiblio
)

func (t AnchorType) String() string {
	switch t {
	case AnchorHeader:
		return "header"
	case AnchorHandmade:
		return "handmade"
	case AnchorBiblio:
		return "biblio"
	default:
		return "unknown"
	}
}

// Anchor is a named location inside a document that references can target.
type Anchor struct {
	Kind AnchorType
	Name string
	// Level is the heading level for AnchorHeader anchors, zero otherwise.
	Level    int
	Position Position
}

// Describe renders the anchor for reports, e.g. `intro (header level 2) at 3:1`.
func (a Anchor) Describe() string {
	kind := a.Kind.String()
	if a.Kind == AnchorHeader {
		kind = fmt.Sprintf("header level %d", a.Level)
	}
	if a.Position.Line == 0 {
		return fmt.Sprintf("%s (%s)", a.Name, kind)
	}
	return fmt.Sprintf("%s (%s) at %s", a.Name, kind, a.Position)
}
