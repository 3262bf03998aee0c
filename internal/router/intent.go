package router

// Intent is a request from a leaf screen to change the view state.
type Intent interface {
	apply(ViewState) ViewState
}

type SelectTabIntent struct{ Tab Tab }

type OpenOverlayIntent struct{ Overlay Overlay }

type CloseOverlayIntent struct{}

type HeaderIntent struct{ Hidden bool }

func (i SelectTabIntent) apply(v ViewState) ViewState   { return v.SelectTab(i.Tab) }
func (i OpenOverlayIntent) apply(v ViewState) ViewState { return v.OpenOverlay(i.Overlay) }
func (CloseOverlayIntent) apply(v ViewState) ViewState  { return v.CloseOverlay() }
func (i HeaderIntent) apply(v ViewState) ViewState      { return v.SetHeaderHidden(i.Hidden) }

// Apply folds intents into the state in order. Nil intents are skipped.
func (v ViewState) Apply(intents ...Intent) ViewState {
	for _, in := range intents {
		if in == nil {
			continue
		}
		v = in.apply(v)
	}
	return v
}
