package display

const (
	AlphaStart = 255
	AlphaStep  = 10
)

// Frame is an opaque captured image owned by the Renderer.
type Frame any

type TransitionKind string

const TransitionFade TransitionKind = "fade"

// TransitionState is a fade of the outgoing frame over the new screen.
type TransitionState struct {
	Kind  TransitionKind
	Alpha int
	Frame Frame
}

func NewFade(frame Frame) *TransitionState {
	return &TransitionState{Kind: TransitionFade, Alpha: AlphaStart, Frame: frame}
}

// Step lowers alpha by AlphaStep, never below zero.
func (t *TransitionState) Step() {
	t.Alpha = max(t.Alpha-AlphaStep, 0)
	if t.Alpha == 0 {
		t.Frame = nil
	}
}

func (t *TransitionState) Done() bool {
	return t.Alpha <= 0
}

func (t *TransitionState) RemainingTicks() int {
	return (t.Alpha + AlphaStep - 1) / AlphaStep
}
