package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/andreasabel/xrefcheck/internal/anchor"
	"github.com/andreasabel/xrefcheck/internal/models"
)

// MarkdownScanner extracts references and anchors from Markdown documents
// using the goldmark AST. Linkify is enabled so bare URLs in running text
// count as references, matching how the hosting platforms render them.
type MarkdownScanner struct {
	md     goldmark.Markdown
	slug   anchor.SlugFunc
	biblio bool
}

// NewMarkdownScanner creates a scanner for the given Markdown flavor.
func NewMarkdownScanner(flavor anchor.Flavor) *MarkdownScanner {
	return &MarkdownScanner{
		md:     goldmark.New(goldmark.WithExtensions(extension.Linkify)),
		slug:   flavor.Slugger(),
		biblio: flavor.BiblioAnchors(),
	}
}

// Scan implements Scanner.
func (s *MarkdownScanner) Scan(path string) (*models.FileInfo, []models.ParseError, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	info, errs := s.ScanDocument(source)
	return info, errs, nil
}

// ScanDocument parses source and collects references, anchors and parse
// errors. It never fails outright: malformed annotations turn into parse
// errors and the rest of the document is still scanned.
func (s *MarkdownScanner) ScanDocument(source []byte) (*models.FileInfo, []models.ParseError) {
	pctx := gparser.NewContext()
	doc := s.md.Parser().Parse(text.NewReader(source), gparser.WithContext(pctx))

	w := &mdWalker{
		source:     source,
		lines:      newLineIndex(source),
		slug:       s.slug,
		lastOffset: -1,
	}
	_ = ast.Walk(doc, w.visit)
	w.resolvePending("end of file")

	if s.biblio {
		w.anchors = append(w.anchors, biblioAnchors(source, pctx)...)
	}
	sortAnchors(w.anchors)
	anchor.NumberDuplicates(w.anchors)

	return &models.FileInfo{References: w.refs, Anchors: w.anchors}, w.errs
}

type ignoreMode int

const (
	ignoreLink ignoreMode = iota
	ignoreParagraph
)

// pendingIgnore is an annotation still waiting for the node it applies to.
type pendingIgnore struct {
	mode ignoreMode
	pos  models.Position
}

// mdWalker carries the state of one document traversal.
type mdWalker struct {
	source []byte
	lines  *lineIndex
	slug   anchor.SlugFunc

	refs    []models.Reference
	anchors []models.Anchor
	errs    []models.ParseError

	pending     *pendingIgnore
	ignoreAll   bool
	ignoredPara ast.Node
	sawContent  bool
	lastOffset  int
}

func (w *mdWalker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		if n == w.ignoredPara {
			w.ignoredPara = nil
		}
		return ast.WalkContinue, nil
	}

	switch t := n.(type) {
	case *ast.Document:
		return ast.WalkContinue, nil

	case *ast.Heading:
		w.meaningful(n)
		w.anchors = append(w.anchors, models.Anchor{
			Kind:     models.AnchorHeader,
			Name:     w.slug(nodeText(n, w.source)),
			Level:    t.Level,
			Position: w.nodePosition(n),
		})
		return ast.WalkContinue, nil

	case *ast.Paragraph:
		if w.pending != nil && w.pending.mode == ignoreParagraph {
			w.ignoredPara = n
			w.pending = nil
		}
		return ast.WalkContinue, nil

	case *ast.Link:
		w.addReference(n, string(t.Destination), nodeText(n, w.source))
		return ast.WalkContinue, nil

	case *ast.Image:
		w.addReference(n, string(t.Destination), nodeText(n, w.source))
		return ast.WalkContinue, nil

	case *ast.AutoLink:
		link := string(t.URL(w.source))
		if t.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(link), "mailto:") {
			link = "mailto:" + link
		}
		w.addReference(n, link, string(t.Label(w.source)))
		return ast.WalkContinue, nil

	case *ast.Text:
		if len(bytes.TrimSpace(t.Segment.Value(w.source))) > 0 {
			w.meaningful(n)
		}
		w.lastOffset = t.Segment.Stop
		return ast.WalkContinue, nil

	case *ast.String:
		if len(bytes.TrimSpace(t.Value)) > 0 {
			w.meaningful(n)
		}
		return ast.WalkContinue, nil

	case *ast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < t.Segments.Len(); i++ {
			seg := t.Segments.At(i)
			buf.Write(seg.Value(w.source))
		}
		w.handleHTML(n, buf.Bytes())
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock:
		var buf bytes.Buffer
		for i := 0; i < t.Lines().Len(); i++ {
			seg := t.Lines().At(i)
			buf.Write(seg.Value(w.source))
		}
		if t.HasClosure() {
			buf.Write(t.ClosureLine.Value(w.source))
		}
		w.handleHTML(n, buf.Bytes())
		return ast.WalkSkipChildren, nil

	default:
		switch n.Kind() {
		case ast.KindTextBlock, ast.KindEmphasis:
			// Transparent wrappers: an annotation may still reach a link
			// inside them.
		default:
			w.meaningful(n)
		}
		return ast.WalkContinue, nil
	}
}

// addReference records one outgoing reference, applying whatever ignore
// state is currently active.
func (w *mdWalker) addReference(n ast.Node, dest, label string) {
	w.sawContent = true

	ignored := w.ignoreAll || w.ignoredPara != nil
	if w.pending != nil {
		if w.pending.mode == ignoreLink {
			ignored = true
			w.pending = nil
		} else {
			w.resolvePending(n.Kind().String())
		}
	}

	link, frag := splitFragment(dest)
	w.refs = append(w.refs, models.Reference{
		Text:           label,
		Link:           link,
		Anchor:         frag,
		Position:       w.nodePosition(n),
		CopyPasteCheck: !ignored,
		Ignored:        ignored,
	})
}

// meaningful marks that real document content was seen. It resolves a
// pending annotation, which expected something else at this point, and it
// ends the zone at the top of the file where "ignore all" may appear.
func (w *mdWalker) meaningful(n ast.Node) {
	w.sawContent = true
	if w.pending != nil {
		w.resolvePending(n.Kind().String())
	}
}

// resolvePending flushes a pending annotation whose expectation was not
// met. The found argument names what showed up instead.
func (w *mdWalker) resolvePending(found string) {
	if w.pending == nil {
		return
	}
	p := *w.pending
	w.pending = nil
	switch p.mode {
	case ignoreLink:
		w.errs = append(w.errs, models.ParseError{Kind: models.ParseErrLinkExpected, Position: p.pos})
	case ignoreParagraph:
		w.errs = append(w.errs, models.ParseError{Kind: models.ParseErrParagraphExpected, Position: p.pos, Detail: found})
	}
}

var annotationRe = regexp.MustCompile(`^\s*xrefcheck:\s*(.*?)\s*$`)

// handleHTML processes one raw HTML chunk: annotation comments drive the
// ignore state machine, plain comments stay inert, and anything else is
// searched for handmade anchors.
func (w *mdWalker) handleHTML(n ast.Node, html []byte) {
	pos := w.nodePosition(n)

	body, isComment := commentBody(html)
	if !isComment {
		w.meaningful(n)
		for _, name := range handmadeAnchors(html) {
			w.anchors = append(w.anchors, models.Anchor{
				Kind:     models.AnchorHandmade,
				Name:     name,
				Position: pos,
			})
		}
		return
	}

	m := annotationRe.FindStringSubmatch(body)
	if m == nil {
		return
	}

	// A fresh annotation closes out any annotation still waiting for its
	// target.
	if w.pending != nil {
		w.resolvePending(n.Kind().String())
	}

	switch option := strings.Join(strings.Fields(m[1]), " "); option {
	case "ignore link":
		w.pending = &pendingIgnore{mode: ignoreLink, pos: pos}
	case "ignore paragraph":
		w.pending = &pendingIgnore{mode: ignoreParagraph, pos: pos}
	case "ignore all":
		if w.sawContent {
			w.errs = append(w.errs, models.ParseError{Kind: models.ParseErrIgnoreAllMisplaced, Position: pos})
		} else {
			w.ignoreAll = true
		}
	default:
		w.errs = append(w.errs, models.ParseError{Kind: models.ParseErrUnrecognisedOption, Position: pos, Detail: option})
	}
}

// commentBody extracts the text between <!-- and --> when the chunk is an
// HTML comment.
func commentBody(html []byte) (string, bool) {
	t := bytes.TrimSpace(html)
	if !bytes.HasPrefix(t, []byte("<!--")) {
		return "", false
	}
	rest := t[4:]
	if end := bytes.Index(rest, []byte("-->")); end >= 0 {
		rest = rest[:end]
	}
	return string(rest), true
}

var anchorTagRe = regexp.MustCompile(`(?is)<a\s+[^>]*?(?:name|id)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>"']+))`)

// handmadeAnchors returns the names of explicit <a name=...> and
// <a id=...> anchor tags in an HTML chunk.
func handmadeAnchors(html []byte) []string {
	var names []string
	for _, m := range anchorTagRe.FindAllSubmatch(html, -1) {
		for _, group := range m[1:] {
			if len(group) > 0 {
				names = append(names, string(group))
				break
			}
		}
	}
	return names
}

// splitFragment splits a link destination at the first unescaped '#'. The
// fragment is URL-decoded; fragments that fail to decode are kept raw so
// the verifier still has something to report.
func splitFragment(dest string) (string, string) {
	escaped := false
	for i := 0; i < len(dest); i++ {
		switch dest[i] {
		case '\\':
			escaped = !escaped
			continue
		case '#':
			if !escaped {
				frag := dest[i+1:]
				if decoded, err := url.PathUnescape(frag); err == nil {
					frag = decoded
				}
				return unescapeHashes(dest[:i]), frag
			}
		}
		escaped = false
	}
	return unescapeHashes(dest), ""
}

func unescapeHashes(s string) string {
	return strings.ReplaceAll(s, `\#`, "#")
}

// nodeText extracts the plain text rendered for a node's subtree.
func nodeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	collectText(n, source, &buf)
	return buf.String()
}

func collectText(n ast.Node, source []byte, buf *bytes.Buffer) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			collectText(c, source, buf)
		}
	}
}

// lineIndex converts byte offsets into line and column numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(source []byte) *lineIndex {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (ix *lineIndex) position(offset int) models.Position {
	i := sort.Search(len(ix.starts), func(k int) bool { return ix.starts[k] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return models.Position{Line: i + 1, Column: offset - ix.starts[i] + 1}
}

// nodePosition locates n as precisely as the AST allows: its own first
// segment, else the nearest enclosing block line or the end of the last
// text seen, whichever is later.
func (w *mdWalker) nodePosition(n ast.Node) models.Position {
	if off, ok := nodeOffset(n); ok {
		return w.lines.position(off)
	}
	off := -1
	for p := n.Parent(); p != nil; p = p.Parent() {
		if po, ok := nodeOffset(p); ok {
			off = po
			break
		}
	}
	if w.lastOffset > off {
		off = w.lastOffset
	}
	if off < 0 {
		return models.Position{}
	}
	return w.lines.position(off)
}

func nodeOffset(n ast.Node) (int, bool) {
	switch t := n.(type) {
	case *ast.Text:
		return t.Segment.Start, true
	case *ast.RawHTML:
		if t.Segments.Len() > 0 {
			return t.Segments.At(0).Start, true
		}
	case *ast.HTMLBlock:
		if t.Lines().Len() > 0 {
			return t.Lines().At(0).Start, true
		}
		if t.HasClosure() {
			return t.ClosureLine.Start, true
		}
	default:
		if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
			return n.Lines().At(0).Start, true
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := nodeOffset(c); ok {
			return off, true
		}
	}
	return 0, false
}

var biblioDefRe = regexp.MustCompile(`^ {0,3}\[([^\]]+)\]:`)

// biblioAnchors turns the document's link reference definitions into
// anchors. Definition lines are located by a best-effort scan of the
// source, since goldmark keeps no positions for them.
func biblioAnchors(source []byte, pctx gparser.Context) []models.Anchor {
	refs := pctx.References()
	if len(refs) == 0 {
		return nil
	}

	positions := make(map[string]models.Position)
	for i, line := range bytes.Split(source, []byte("\n")) {
		m := biblioDefRe.FindSubmatch(line)
		if m == nil {
			continue
		}
		label := normalizeLabel(m[1])
		if _, ok := positions[label]; !ok {
			positions[label] = models.Position{Line: i + 1, Column: bytes.IndexByte(line, '[') + 1}
		}
	}

	anchors := make([]models.Anchor, 0, len(refs))
	for _, ref := range refs {
		name := normalizeLabel(ref.Label())
		anchors = append(anchors, models.Anchor{
			Kind:     models.AnchorBiblio,
			Name:     name,
			Position: positions[name],
		})
	}
	sort.Slice(anchors, func(i, j int) bool {
		if anchors[i].Position != anchors[j].Position {
			return positionLess(anchors[i].Position, anchors[j].Position)
		}
		return anchors[i].Name < anchors[j].Name
	})
	return anchors
}

// normalizeLabel collapses a reference label the way the goldmark refmap
// keys it: trimmed, inner whitespace folded, lowercased.
func normalizeLabel(label []byte) string {
	return strings.ToLower(strings.Join(strings.Fields(string(label)), " "))
}

// positionLess orders positions, placing unknown ones last.
func positionLess(p, q models.Position) bool {
	if p.Line == 0 {
		return false
	}
	if q.Line == 0 {
		return true
	}
	return p.Before(q)
}

// sortAnchors restores document order after biblio anchors were appended.
func sortAnchors(anchors []models.Anchor) {
	sort.SliceStable(anchors, func(i, j int) bool {
		return positionLess(anchors[i].Position, anchors[j].Position)
	})
}
