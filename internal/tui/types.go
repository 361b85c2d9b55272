package tui

type stage int

const (
	stageIdle stage = iota
	stageLoading
)

const heroTagline = "Spot the accounts that are about to walk with ChurnScout."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	composerCharLimit         = 500
	statusPreviewLimit        = 60
)

const (
	composerPlaceholder        = "Ask about a customer, e.g. Analyze churn risk for Acme Co"
	composerLoadingPlaceholder = "Analyzing…"
)

// focusTarget addresses one toggleable block inside one assistant turn.
type focusTarget struct {
	TurnID  string
	BlockID string
}

func (f focusTarget) key() string {
	return f.TurnID + "/" + f.BlockID
}
