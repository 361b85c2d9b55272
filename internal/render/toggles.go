package render

// Toggles tracks which collapsible or expandable blocks a viewer has opened.
// Toggling only changes visibility; the document itself is never modified.
type Toggles map[string]bool

// Toggle flips the open state of id.
func (t Toggles) Toggle(id string) {
	t[id] = !t[id]
}

// Open reports whether id is currently open. A nil Toggles has nothing open.
func (t Toggles) Open(id string) bool {
	return t[id]
}

// Visible returns the text a viewer should show for b: the preview while an
// expandable block is closed, the full text otherwise.
func (t Toggles) Visible(b Block) Text {
	if b.Expandable() && !t.Open(b.ID) {
		return b.Preview
	}
	return b.Text
}
