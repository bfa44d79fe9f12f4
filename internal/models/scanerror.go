package models

import "fmt"

// ParseErrorKind enumerates the malformed-annotation conditions the scanner
// reports without aborting the file.
type ParseErrorKind int

const (
	// ParseErrLinkExpected: "ignore link" was not followed by a link.
	ParseErrLinkExpected ParseErrorKind = iota
	// ParseErrParagraphExpected: "ignore paragraph" was not followed by a
	// paragraph.
	ParseErrParagraphExpected
	// ParseErrIgnoreAllMisplaced: "ignore all" occurred below the top of
	// the file.
	ParseErrIgnoreAllMisplaced
	// ParseErrUnrecognisedOption: unknown text inside an annotation comment.
	ParseErrUnrecognisedOption
)

// ParseError is a positioned scanner complaint, not yet tied to a file.
type ParseError struct {
	Kind     ParseErrorKind
	Position Position
	// Detail carries the found node kind for ParseErrParagraphExpected and
	// the offending option text for ParseErrUnrecognisedOption.
	Detail string
}

// Description renders the complaint the way reports print it.
func (e ParseError) Description() string {
	switch e.Kind {
	case ParseErrLinkExpected:
		return `Expected a LINK after "ignore link" annotation`
	case ParseErrParagraphExpected:
		return fmt.Sprintf(`Expected a PARAGRAPH after "ignore paragraph" annotation, but found %s`, e.Detail)
	case ParseErrIgnoreAllMisplaced:
		return `Annotation "ignore all" must be at the top of markdown or right after comments at the top`
	case ParseErrUnrecognisedOption:
		return fmt.Sprintf(`Unrecognised option "%s", perhaps you meant <"ignore link"|"ignore paragraph"|"ignore all">`, e.Detail)
	default:
		return "unknown scan error"
	}
}

// ScanError is a ParseError gathered under the file it came from.
type ScanError struct {
	File string
	ParseError
}
