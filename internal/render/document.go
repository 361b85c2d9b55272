// Package render turns a decoded service reply into a view-independent
// document tree. Rendering is pure: the same response always yields the same
// tree, and every piece of server or user text in it has passed through
// Sanitize.
package render

// Kind labels a block so a view layer can pick its presentation.
type Kind string

const (
	KindError       Kind = "error"
	KindCard        Kind = "card"
	KindHeader      Kind = "header"
	KindScore       Kind = "score"
	KindBadge       Kind = "badge"
	KindSection     Kind = "section"
	KindParagraph   Kind = "paragraph"
	KindList        Kind = "list"
	KindItem        Kind = "item"
	KindCollapsible Kind = "collapsible"
	KindField       Kind = "field"
	KindLink        Kind = "link"
	KindExpandable  Kind = "expandable"
	KindMessage     Kind = "message"
	KindCode        Kind = "code"
)

// Variant records which rendering path produced a document.
type Variant string

const (
	VariantError       Variant = "error"
	VariantAnalysis    Variant = "analysis"
	VariantTranscripts Variant = "transcripts"
	VariantAnswer      Variant = "answer"
	VariantDiagnostic  Variant = "diagnostic"
)

// Block is one node of the document tree. Label is a fixed caption chosen by
// the renderer; Text and Preview carry sanitized content.
type Block struct {
	Kind     Kind
	ID       string
	Label    string
	Class    string
	Text     Text
	Preview  Text
	Children []Block
}

// Expandable reports whether the block hides part of its text until toggled.
func (b Block) Expandable() bool {
	return b.Kind == KindExpandable && !b.Preview.Empty()
}

// Document is the rendered form of one assistant reply.
type Document struct {
	Variant Variant
	Blocks  []Block
	// Summary is a one-line plain description used where the tree cannot be
	// shown, such as history files and status lines.
	Summary Text
}

// Walk visits every block depth first. Returning false from fn stops the walk.
func (d *Document) Walk(fn func(Block) bool) {
	if d == nil {
		return
	}
	var visit func(blocks []Block) bool
	visit = func(blocks []Block) bool {
		for _, b := range blocks {
			if !fn(b) {
				return false
			}
			if !visit(b.Children) {
				return false
			}
		}
		return true
	}
	visit(d.Blocks)
}

// Find returns every block of the given kind in document order.
func (d *Document) Find(kind Kind) []Block {
	var found []Block
	d.Walk(func(b Block) bool {
		if b.Kind == kind {
			found = append(found, b)
		}
		return true
	})
	return found
}

// Lookup returns the first block with the given ID.
func (d *Document) Lookup(id string) (Block, bool) {
	var (
		match Block
		ok    bool
	)
	d.Walk(func(b Block) bool {
		if b.ID == id {
			match, ok = b, true
			return false
		}
		return true
	})
	return match, ok
}

// ToggleIDs lists the blocks a viewer can open or close, in document order.
func (d *Document) ToggleIDs() []string {
	var ids []string
	d.Walk(func(b Block) bool {
		if b.Kind == KindCollapsible || b.Expandable() {
			ids = append(ids, b.ID)
		}
		return true
	})
	return ids
}
