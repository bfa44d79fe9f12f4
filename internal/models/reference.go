package models

// Reference is a single outgoing link found in a document.
type Reference struct {
	// Text is the rendered link text.
	Text string
	// Link is the target without its fragment. Empty for in-document
	// anchor links like [intro](#intro).
	Link string
	// Anchor is the fragment after '#', URL-decoded. Empty when absent.
	Anchor string

	Position Position

	// CopyPasteCheck opts the reference into duplicate-name detection.
	CopyPasteCheck bool

	// Ignored marks references excluded from verification by an ignore
	// annotation. They stay recorded so verbose output can show them.
	Ignored bool
}

// LocationType classifies the reference's link.
func (r Reference) LocationType() LocationType {
	return ClassifyLocation(r.Link)
}

// Target renders link and fragment together for display.
func (r Reference) Target() string {
	if r.Anchor == "" {
		return r.Link
	}
	return r.Link + "#" + r.Anchor
}
