package auth

// Gate holds the single deferred action and the login-required prompt flag.
type Gate struct {
	pending func()
	prompt  bool
}

// Require runs action now when loggedIn. Otherwise it replaces any earlier
// pending action and raises the prompt.
func (g *Gate) Require(loggedIn bool, action func()) {
	if action == nil {
		return
	}
	if loggedIn {
		action()
		return
	}
	g.pending = action
	g.prompt = true
}

func (g *Gate) PromptOpen() bool { return g.prompt }

func (g *Gate) HasPending() bool { return g.pending != nil }

func (g *Gate) ClosePrompt() { g.prompt = false }

// Dismiss closes the prompt and abandons the pending action.
func (g *Gate) Dismiss() {
	g.prompt = false
	g.pending = nil
}

// Take returns the pending action and clears it.
func (g *Gate) Take() func() {
	act := g.pending
	g.pending = nil
	return act
}
