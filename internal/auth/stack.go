package auth

// Screen is one frame of the auth navigation stack.
type Screen int

const (
	ScreenNone Screen = iota
	ScreenLogin
	ScreenSignupRole
	ScreenSignupForm
)

func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenSignupRole:
		return "signup-role"
	case ScreenSignupForm:
		return "signup-form"
	default:
		return "none"
	}
}

// Stack is never empty; its zero value behaves as [none].
type Stack struct {
	frames []Screen
}

func (s *Stack) ensure() {
	if len(s.frames) == 0 {
		s.frames = []Screen{ScreenNone}
	}
}

func (s *Stack) Current() Screen {
	s.ensure()
	return s.frames[len(s.frames)-1]
}

// Push is a no-op when next is already on top.
func (s *Stack) Push(next Screen) {
	s.ensure()
	if s.Current() == next {
		return
	}
	s.frames = append(s.frames, next)
}

// Pop removes the top frame. Popping the last frame leaves [none].
func (s *Stack) Pop() {
	s.ensure()
	if len(s.frames) <= 1 {
		s.frames = []Screen{ScreenNone}
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *Stack) Reset() {
	s.frames = []Screen{ScreenNone}
}

func (s *Stack) Frames() []Screen {
	s.ensure()
	out := make([]Screen, len(s.frames))
	copy(out, s.frames)
	return out
}
