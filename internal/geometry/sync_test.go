package geometry

import (
	"math"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/illumiterm/backend/internal/term"
)

// fakeTerminal models a widget whose cell size scales with the font scale,
// rounded to whole pixels the way a real renderer would.
type fakeTerminal struct {
	rows, cols   int
	baseW, baseH int
	scale        float64
	resetCalls   int
}

func newFakeTerminal() *fakeTerminal {
	return &fakeTerminal{rows: 24, cols: 80, baseW: 8, baseH: 16, scale: 1.0}
}

func (f *fakeTerminal) Metrics() term.CellMetrics {
	return term.CellMetrics{
		Rows:       f.rows,
		Columns:    f.cols,
		CellWidth:  int(math.Round(float64(f.baseW) * f.scale)),
		CellHeight: int(math.Round(float64(f.baseH) * f.scale)),
	}
}

func (f *fakeTerminal) FontScale() float64         { return f.scale }
func (f *fakeTerminal) SetFontScale(scale float64) { f.scale = scale }
func (f *fakeTerminal) ResetFontSize()             { f.resetCalls++ }
func (f *fakeTerminal) Selection() string          { return "" }

type fakeWindow struct {
	w, h    int
	resizes [][2]int
}

func (f *fakeWindow) Size() (int, int) { return f.w, f.h }

func (f *fakeWindow) Resize(w, h int) {
	f.w, f.h = w, h
	f.resizes = append(f.resizes, [2]int{w, h})
}

func TestZoomInResizesToGridBoundary(t *testing.T) {
	ft := newFakeTerminal()
	// Content is 640x384; 12px of chrome on each axis.
	fw := &fakeWindow{w: 652, h: 396}
	s := New(ft, fw)

	s.ZoomIn()

	if ft.scale != 1.125 {
		t.Fatalf("scale = %v, want 1.125", ft.scale)
	}
	// Cells become 9x18, content 720x432, chrome preserved.
	if fw.w != 732 || fw.h != 444 {
		t.Errorf("window = %dx%d, want 732x444", fw.w, fw.h)
	}
}

func TestZoomOutShrinksWindow(t *testing.T) {
	ft := newFakeTerminal()
	fw := &fakeWindow{w: 652, h: 396}
	s := New(ft, fw)

	s.ZoomOut()

	if fw.w >= 652 || fw.h >= 396 {
		t.Errorf("window = %dx%d, want smaller than 652x396", fw.w, fw.h)
	}
}

func TestChromeOffsetReadFreshEachTime(t *testing.T) {
	ft := newFakeTerminal()
	fw := &fakeWindow{w: 652, h: 396}
	s := New(ft, fw)

	// The window manager moves the goalposts between operations.
	s.ZoomIn()
	fw.w += 100
	s.ZoomOut()

	// After zoom-out the scale is back near 1.0, so content is 640x384
	// again; the extra 100px of "chrome" from the external resize must be
	// preserved, not silently discarded.
	if fw.w != 652+100 || fw.h != 396 {
		t.Errorf("window = %dx%d, want %dx%d", fw.w, fw.h, 752, 396)
	}
}

func TestConcurrentZoomPairsKeepGeometryConsistent(t *testing.T) {
	ft := newFakeTerminal()
	fw := &fakeWindow{w: 652, h: 396}
	s := New(ft, fw)

	// Zoom steps arriving from different connections must not interleave
	// the chrome-offset read with another step's resize.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ZoomIn()
			s.ZoomOut()
		}()
	}
	wg.Wait()

	if fw.w != 652 || fw.h != 396 {
		t.Errorf("window = %dx%d, want 652x396", fw.w, fw.h)
	}
	m := ft.Metrics()
	if m.CellWidth != 8 || m.CellHeight != 16 {
		t.Errorf("cells = %dx%d, want 8x16", m.CellWidth, m.CellHeight)
	}
}

func TestResetRestoresScaleAndDefaultWindowSize(t *testing.T) {
	ft := newFakeTerminal()
	fw := &fakeWindow{w: 652, h: 396}
	s := New(ft, fw)

	s.ZoomIn()
	s.ZoomIn()
	s.Reset()

	if ft.scale != 1.0 {
		t.Errorf("scale = %v, want 1.0", ft.scale)
	}
	if ft.resetCalls != 1 {
		t.Errorf("ResetFontSize called %d times, want 1", ft.resetCalls)
	}

	last := fw.resizes[len(fw.resizes)-1]
	if last != [2]int{DefaultWindowWidth, DefaultWindowHeight} {
		t.Errorf("final resize = %v, want [%d %d]", last, DefaultWindowWidth, DefaultWindowHeight)
	}

	// The metric-derived resize happens before the fixed fallback.
	if len(fw.resizes) < 2 {
		t.Fatalf("expected a metric resize before the default, got %v", fw.resizes)
	}
	metric := fw.resizes[len(fw.resizes)-2]
	if metric == last {
		t.Errorf("metric resize %v equals the fallback, expected the grid-derived size first", metric)
	}
}

func TestBalancedZoomRestoresWindowSize(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("n zoom-ins followed by n zoom-outs restore the window size", prop.ForAll(
		func(n int) bool {
			ft := newFakeTerminal()
			fw := &fakeWindow{w: 652, h: 396}
			s := New(ft, fw)

			for i := 0; i < n; i++ {
				s.ZoomIn()
			}
			for i := 0; i < n; i++ {
				s.ZoomOut()
			}

			return fw.w == 652 && fw.h == 396
		},
		gen.IntRange(1, 10),
	))

	properties.Property("chrome offset survives any zoom sequence", prop.ForAll(
		func(steps []bool) bool {
			ft := newFakeTerminal()
			fw := &fakeWindow{w: 652, h: 396}
			s := New(ft, fw)

			for _, in := range steps {
				if in {
					s.ZoomIn()
				} else {
					s.ZoomOut()
				}
				m := ft.Metrics()
				if fw.w-m.Columns*m.CellWidth != 12 || fw.h-m.Rows*m.CellHeight != 12 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
