package display

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bobby-s-dev/weatherstar/internal/models"
)

type fakeRenderer struct {
	mu         sync.Mutex
	drawn      []ScreenID
	composites []int
	captures   int
	presents   int
	failOn     map[ScreenID]error
	panicOn    map[ScreenID]bool
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{failOn: map[ScreenID]error{}, panicOn: map[ScreenID]bool{}}
}

func (r *fakeRenderer) DrawScreen(id ScreenID, data ScreenData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawn = append(r.drawn, id)
	if r.panicOn[id] {
		panic(fmt.Sprintf("boom on %s", id))
	}
	return r.failOn[id]
}

func (r *fakeRenderer) Capture() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captures++
	return fmt.Sprintf("frame-%d", r.captures)
}

func (r *fakeRenderer) Composite(frame Frame, alpha int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.composites = append(r.composites, alpha)
}

func (r *fakeRenderer) PresentFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presents++
	return nil
}

type fakeRefresher struct {
	mu       sync.Mutex
	requests int
}

func (f *fakeRefresher) RequestRefresh() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return true
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

type fakeRecorder struct {
	changes  map[string]int
	failures map[string]int
	current  string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{changes: map[string]int{}, failures: map[string]int{}}
}

func (f *fakeRecorder) IncScreenChange(reason string)  { f.changes[reason]++ }
func (f *fakeRecorder) IncRenderFailure(screen string) { f.failures[screen]++ }
func (f *fakeRecorder) SetCurrentScreen(screen string) { f.current = screen }

type staticData struct {
	snap models.WeatherSnapshot
}

func (d staticData) ScreenData() ScreenData {
	return ScreenData{Snapshot: d.snap}
}

var errDraw = errors.New("draw failed")
