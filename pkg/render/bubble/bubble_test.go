package bubble

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/matzehuels/inkframe/pkg/geom"
	"github.com/matzehuels/inkframe/pkg/page"
)

var testPanel = geom.PixelRect{X: 30, Y: 30, Width: 565, Height: 865}

func assertContained(t *testing.T, b page.RenderedBubble, panel geom.PixelRect) {
	t.Helper()
	if b.Box.X < panel.X || b.Box.Right() > panel.Right()+1e-9 ||
		b.Box.Y < panel.Y || b.Box.Bottom() > panel.Bottom()+1e-9 {
		t.Errorf("bubble %q box %+v escapes panel %+v", b.ID, b.Box, panel)
	}
}

func TestPlaceGeometrySources(t *testing.T) {
	tests := []struct {
		name   string
		bubble page.SpeechBubble
		want   geom.PixelRect
	}{
		{
			name: "relative",
			bubble: page.SpeechBubble{
				ID:        "rel",
				RelativeX: page.Float(0.2), RelativeY: page.Float(0.4),
				RelativeWidth: page.Float(0.4), RelativeHeight: page.Float(0.1),
			},
			want: geom.PixelRect{X: 30 + 113, Y: 30 + 346, Width: 226, Height: 86.5},
		},
		{
			name: "absolute panel-local",
			bubble: page.SpeechBubble{
				ID: "abs",
				X:  page.Float(50), Y: page.Float(60), Width: page.Float(200), Height: page.Float(80),
			},
			want: geom.PixelRect{X: 80, Y: 90, Width: 200, Height: 80},
		},
		{
			name: "relative preferred over absolute",
			bubble: page.SpeechBubble{
				ID:        "both",
				RelativeX: page.Float(0), RelativeY: page.Float(0.5),
				RelativeWidth: page.Float(0.5), RelativeHeight: page.Float(0.2),
				X: page.Float(50), Y: page.Float(60), Width: page.Float(200), Height: page.Float(80),
			},
			want: geom.PixelRect{X: 35, Y: 462.5, Width: 282.5, Height: 173},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Place(testPanel, []page.SpeechBubble{tt.bubble})
			if len(got) != 1 {
				t.Fatalf("Place() returned %d bubbles, want 1", len(got))
			}
			if !geom.ApproxEqual(got[0].Box, tt.want, 1e-9) {
				t.Errorf("Box = %+v, want %+v", got[0].Box, tt.want)
			}
			assertContained(t, got[0], testPanel)
		})
	}
}

func TestClamp(t *testing.T) {
	panel := geom.PixelRect{X: 100, Y: 100, Width: 200, Height: 100}
	tests := []struct {
		name string
		in   geom.PixelRect
		want geom.PixelRect
	}{
		{"inside", geom.PixelRect{X: 120, Y: 120, Width: 50, Height: 20}, geom.PixelRect{X: 120, Y: 120, Width: 50, Height: 20}},
		{"left of panel", geom.PixelRect{X: 0, Y: 120, Width: 50, Height: 20}, geom.PixelRect{X: 105, Y: 120, Width: 50, Height: 20}},
		{"past right edge", geom.PixelRect{X: 280, Y: 120, Width: 50, Height: 20}, geom.PixelRect{X: 245, Y: 120, Width: 50, Height: 20}},
		{"below bottom", geom.PixelRect{X: 120, Y: 500, Width: 50, Height: 20}, geom.PixelRect{X: 120, Y: 175, Width: 50, Height: 20}},
		{"too large", geom.PixelRect{X: 0, Y: 0, Width: 1000, Height: 1000}, geom.PixelRect{X: 105, Y: 105, Width: 190, Height: 90}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.in, panel); got != tt.want {
				t.Errorf("Clamp() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestContainmentRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	panels := []geom.PixelRect{
		testPanel,
		{X: 0, Y: 0, Width: 1200, Height: 1800},
		{X: 600, Y: 910, Width: 150, Height: 120},
		{X: 20, Y: 20, Width: 40, Height: 30},
	}
	for _, panel := range panels {
		t.Run(fmt.Sprintf("%vx%v", panel.Width, panel.Height), func(t *testing.T) {
			var bubbles []page.SpeechBubble
			for i := range 12 {
				b := page.SpeechBubble{ID: fmt.Sprint(i), Text: strings.Repeat("word ", rng.IntN(40))}
				switch i % 4 {
				case 0:
					b.RelativeX, b.RelativeY = page.Float(rng.Float64()*2-0.5), page.Float(rng.Float64()*2-0.5)
					b.RelativeWidth, b.RelativeHeight = page.Float(rng.Float64()*1.5), page.Float(rng.Float64()*1.5)
				case 1:
					b.X, b.Y = page.Float(rng.Float64()*3000-1000), page.Float(rng.Float64()*3000-1000)
					b.Width, b.Height = page.Float(rng.Float64()*2000), page.Float(rng.Float64()*2000)
				case 2:
					b.Type = page.BubbleNarration
				}
				bubbles = append(bubbles, b)
			}
			for _, b := range Place(panel, bubbles) {
				assertContained(t, b, panel)
			}
		})
	}
}

func TestResolveConverges(t *testing.T) {
	panel := geom.PixelRect{X: 0, Y: 0, Width: 400, Height: 400}
	boxes := []geom.PixelRect{
		{X: 10, Y: 10, Width: 100, Height: 50},
		{X: 20, Y: 20, Width: 100, Height: 50},
	}
	if !geom.Overlaps(boxes[0], boxes[1]) {
		t.Fatal("fixture boxes do not overlap")
	}

	passes, converged := New().Resolve(boxes, panel)
	if !converged {
		t.Fatalf("Resolve() converged = false after %d passes", passes)
	}
	if passes > MaxIterations {
		t.Errorf("Resolve() passes = %d, want <= %d", passes, MaxIterations)
	}
	if geom.Overlaps(boxes[0], boxes[1]) {
		t.Errorf("boxes still overlap: %+v %+v", boxes[0], boxes[1])
	}
	if boxes[1].Y != 60 {
		t.Errorf("boxes[1].Y = %v, want 60", boxes[1].Y)
	}
	if boxes[0] != (geom.PixelRect{X: 10, Y: 10, Width: 100, Height: 50}) {
		t.Errorf("boxes[0] moved to %+v", boxes[0])
	}
}

func TestResolveBoundedWithoutRoom(t *testing.T) {
	panel := geom.PixelRect{X: 0, Y: 0, Width: 200, Height: 60}
	boxes := []geom.PixelRect{
		{X: 5, Y: 5, Width: 190, Height: 50},
		{X: 5, Y: 5, Width: 190, Height: 50},
		{X: 5, Y: 5, Width: 190, Height: 50},
	}

	passes, converged := New().Resolve(boxes, panel)
	if passes != MaxIterations {
		t.Errorf("Resolve() passes = %d, want %d", passes, MaxIterations)
	}
	if converged {
		t.Error("Resolve() converged = true, want false")
	}
	for i, b := range boxes {
		if b.Bottom() > panel.Bottom() {
			t.Errorf("boxes[%d] = %+v escapes panel", i, b)
		}
	}

	passes, _ = New(WithMaxIterations(3)).Resolve(boxes, panel)
	if passes != 3 {
		t.Errorf("Resolve() with limit 3 passes = %d, want 3", passes)
	}
}

func TestResolveNoOverlapSinglePass(t *testing.T) {
	boxes := []geom.PixelRect{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 10, Y: 0, Width: 10, Height: 10},
	}
	passes, converged := New().Resolve(boxes, geom.PixelRect{Width: 100, Height: 100})
	if passes != 1 || !converged {
		t.Errorf("Resolve() = %d, %v, want 1, true", passes, converged)
	}
}

func TestPlaceOverlappingBubbles(t *testing.T) {
	bubbles := []page.SpeechBubble{
		{ID: "a", Text: "Hi", X: page.Float(20), Y: page.Float(20), Width: page.Float(200), Height: page.Float(60)},
		{ID: "b", Text: "Hello", X: page.Float(40), Y: page.Float(30), Width: page.Float(200), Height: page.Float(60)},
	}
	res := New().PlacePanel(context.Background(), "p", testPanel, bubbles)
	if !res.Converged {
		t.Fatalf("PlacePanel() converged = false after %d passes", res.Passes)
	}
	if geom.Overlaps(res.Bubbles[0].Box, res.Bubbles[1].Box) {
		t.Errorf("bubbles overlap: %+v %+v", res.Bubbles[0].Box, res.Bubbles[1].Box)
	}
}

func TestTailDirection(t *testing.T) {
	panel := geom.PixelRect{X: 0, Y: 0, Width: 100, Height: 100}
	tests := []struct {
		name   string
		bubble geom.PixelRect
		want   page.TailDirection
	}{
		{"top-left", geom.PixelRect{X: 5, Y: 5, Width: 20, Height: 10}, page.TailBottomRight},
		{"top-right", geom.PixelRect{X: 70, Y: 5, Width: 20, Height: 10}, page.TailBottomLeft},
		{"bottom-left", geom.PixelRect{X: 5, Y: 80, Width: 20, Height: 10}, page.TailTopRight},
		{"bottom-right", geom.PixelRect{X: 70, Y: 80, Width: 20, Height: 10}, page.TailTopLeft},
		{"centered", geom.PixelRect{X: 40, Y: 40, Width: 20, Height: 20}, page.TailBottomRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TailDirection(tt.bubble, panel); got != tt.want {
				t.Errorf("TailDirection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTailTarget(t *testing.T) {
	got := Place(testPanel, []page.SpeechBubble{
		{ID: "a", Text: "default"},
		{ID: "b", Text: "explicit", TailTarget: &geom.Point{X: 10, Y: 20}},
	})
	want := geom.Point{X: testPanel.CenterX(), Y: 30 + 0.7*865}
	if tt := got[0].TailTarget; tt == nil || math.Abs(tt.X-want.X) > 1e-9 || math.Abs(tt.Y-want.Y) > 1e-9 {
		t.Errorf("default TailTarget = %+v, want %+v", tt, want)
	}
	if tt := got[1].TailTarget; tt == nil || *tt != (geom.Point{X: 40, Y: 50}) {
		t.Errorf("explicit TailTarget = %+v, want {40 50}", tt)
	}
}

func TestValidSuggestion(t *testing.T) {
	tests := []struct {
		name string
		r    geom.NormalizedRect
		want bool
	}{
		{"ok", geom.NormalizedRect{X: 0.1, Y: 0.1, Width: 0.3, Height: 0.1}, true},
		{"edge fit", geom.NormalizedRect{X: 0.5, Y: 0.5, Width: 0.5, Height: 0.5}, true},
		{"negative", geom.NormalizedRect{X: -0.1, Y: 0.1, Width: 0.3, Height: 0.1}, false},
		{"overflow x", geom.NormalizedRect{X: 0.8, Y: 0.1, Width: 0.3, Height: 0.1}, false},
		{"overflow y", geom.NormalizedRect{X: 0.1, Y: 0.95, Width: 0.3, Height: 0.1}, false},
		{"too narrow", geom.NormalizedRect{X: 0.1, Y: 0.1, Width: 0.05, Height: 0.1}, false},
		{"too short", geom.NormalizedRect{X: 0.1, Y: 0.1, Width: 0.3, Height: 0.01}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidSuggestion(tt.r); got != tt.want {
				t.Errorf("ValidSuggestion(%+v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestSuggester(t *testing.T) {
	panel := geom.PixelRect{X: 0, Y: 0, Width: 1000, Height: 1000}
	bubbles := []page.SpeechBubble{
		{ID: "good", Text: "a"},
		{ID: "bad", Text: "b", RelativeX: page.Float(0.5), RelativeY: page.Float(0.8), RelativeWidth: page.Float(0.2), RelativeHeight: page.Float(0.1)},
	}
	s := SuggesterFunc(func(_ context.Context, panelID string, _ []page.SpeechBubble) (map[string]geom.NormalizedRect, error) {
		if panelID != "p1" {
			t.Errorf("panelID = %q, want p1", panelID)
		}
		return map[string]geom.NormalizedRect{
			"good": {X: 0.1, Y: 0.1, Width: 0.3, Height: 0.1},
			"bad":  {X: 0.9, Y: 0.1, Width: 0.3, Height: 0.1},
		}, nil
	})

	res := New(WithSuggester(s)).PlacePanel(context.Background(), "p1", panel, bubbles)
	if want := (geom.PixelRect{X: 100, Y: 100, Width: 300, Height: 100}); !geom.ApproxEqual(res.Bubbles[0].Box, want, 1e-9) {
		t.Errorf("suggested Box = %+v, want %+v", res.Bubbles[0].Box, want)
	}
	anchor := Clamp(geom.RelativeToAbsolute(AnchorRect(&bubbles[1], 1, panel), panel), panel)
	if !geom.ApproxEqual(res.Bubbles[1].Box, anchor, 1e-9) {
		t.Errorf("invalid suggestion Box = %+v, want anchor %+v", res.Bubbles[1].Box, anchor)
	}
}

func TestSuggesterOmittedKeepsOwnRect(t *testing.T) {
	panel := geom.PixelRect{X: 0, Y: 0, Width: 1000, Height: 1000}
	bubbles := []page.SpeechBubble{
		{ID: "own", Text: "b", RelativeX: page.Float(0.5), RelativeY: page.Float(0.8), RelativeWidth: page.Float(0.2), RelativeHeight: page.Float(0.1)},
	}
	s := SuggesterFunc(func(context.Context, string, []page.SpeechBubble) (map[string]geom.NormalizedRect, error) {
		return map[string]geom.NormalizedRect{}, nil
	})

	res := New(WithSuggester(s)).PlacePanel(context.Background(), "p1", panel, bubbles)
	if want := (geom.PixelRect{X: 500, Y: 800, Width: 200, Height: 100}); !geom.ApproxEqual(res.Bubbles[0].Box, want, 1e-9) {
		t.Errorf("Box = %+v, want own rect %+v", res.Bubbles[0].Box, want)
	}
}

func TestSuggesterError(t *testing.T) {
	s := SuggesterFunc(func(context.Context, string, []page.SpeechBubble) (map[string]geom.NormalizedRect, error) {
		return nil, fmt.Errorf("model unavailable")
	})
	bubbles := []page.SpeechBubble{{ID: "a", Text: "hello"}}

	got := New(WithSuggester(s)).PlacePanel(context.Background(), "p", testPanel, bubbles)
	want := Place(testPanel, bubbles)
	if got.Bubbles[0].Box != want[0].Box {
		t.Errorf("Box = %+v, want anchor fallback %+v", got.Bubbles[0].Box, want[0].Box)
	}
}

func TestAnchorRect(t *testing.T) {
	panel := geom.PixelRect{Width: 1000, Height: 1000}

	narr := page.SpeechBubble{Type: page.BubbleNarration, Text: "Meanwhile"}
	r := AnchorRect(&narr, 0, panel)
	if r.X != NarrationAnchor.X || r.Y != NarrationAnchor.Y {
		t.Errorf("narration anchor = %+v, want origin at %v,%v", r, NarrationAnchor.X, NarrationAnchor.Y)
	}

	b := page.SpeechBubble{Text: "short"}
	upper := AnchorRect(&b, 0, panel)
	mid := AnchorRect(&b, 1, panel)
	lower := AnchorRect(&b, 2, panel)
	again := AnchorRect(&b, 3, panel)

	if upper.X+upper.Width < 0.9 || upper.Y > 0.1 {
		t.Errorf("slot 0 = %+v, want upper-right", upper)
	}
	if mid.X > 0.1 || mid.Y < 0.3 || mid.Y > 0.4 {
		t.Errorf("slot 1 = %+v, want mid-left", mid)
	}
	if lower.X+lower.Width < 0.9 || lower.Y < 0.6 {
		t.Errorf("slot 2 = %+v, want lower-right", lower)
	}
	if again != upper {
		t.Errorf("slot 3 = %+v, want cycle to %+v", again, upper)
	}
	for _, r := range []geom.NormalizedRect{upper, mid, lower} {
		if !r.Valid() {
			t.Errorf("anchor %+v not inside the unit square", r)
		}
	}
}

func TestAnchorUsesExplicitSize(t *testing.T) {
	panel := geom.PixelRect{Width: 500, Height: 400}
	b := page.SpeechBubble{Text: "x", Width: page.Float(100), Height: page.Float(40)}
	r := AnchorRect(&b, 1, panel)
	if math.Abs(r.Width-0.2) > 1e-9 || math.Abs(r.Height-0.1) > 1e-9 {
		t.Errorf("AnchorRect() size = %vx%v, want 0.2x0.1", r.Width, r.Height)
	}
}

func TestEstimateSize(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		typ   page.BubbleType
		wantW float64
		wantH float64
	}{
		{"narration short", "Later.", page.BubbleNarration, 0.4, 0.08},
		{"narration long", strings.Repeat("x", 100), page.BubbleNarration, 100.0 / 80, 0},
		{"narration very long", strings.Repeat("x", 400), page.BubbleNarration, 0.8, 0.15},
		{"dialogue short", "Hi", page.BubbleStandard, math.Sqrt(0.08 * 1.5), math.Sqrt(0.08 / 1.5)},
		{"dialogue medium", strings.Repeat("x", 75), page.BubbleShout, math.Sqrt(0.15 * 1.5), math.Sqrt(0.15 / 1.5)},
		{"dialogue long", strings.Repeat("x", 500), page.BubbleThought, math.Sqrt(0.25 * 1.5), math.Sqrt(0.25 / 1.5)},
		{"runes not bytes", strings.Repeat("é", 75), page.BubbleWhisper, math.Sqrt(0.15 * 1.5), math.Sqrt(0.15 / 1.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := EstimateSize(tt.text, tt.typ)
			wantW := min(0.8, tt.wantW)
			if tt.typ != page.BubbleNarration {
				wantW = tt.wantW
			}
			if math.Abs(w-wantW) > 1e-9 {
				t.Errorf("EstimateSize() w = %v, want %v", w, wantW)
			}
			if tt.wantH != 0 && math.Abs(h-tt.wantH) > 1e-9 {
				t.Errorf("EstimateSize() h = %v, want %v", h, tt.wantH)
			}
		})
	}
}

func TestPlaceTypesAndOrder(t *testing.T) {
	bubbles := []page.SpeechBubble{
		{ID: "n", Text: "Meanwhile...", Type: page.BubbleNarration},
		{ID: "a", Text: "Hey!", Type: "bogus"},
		{ID: "b", Text: "What?", Type: page.BubbleThought},
	}
	got := Place(testPanel, bubbles)
	if len(got) != 3 {
		t.Fatalf("Place() = %d bubbles, want 3", len(got))
	}
	for i, id := range []string{"n", "a", "b"} {
		if got[i].ID != id {
			t.Errorf("Place()[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
	if got[1].Type != page.BubbleStandard {
		t.Errorf("unknown type resolved to %q, want %q", got[1].Type, page.BubbleStandard)
	}
	if got[0].Text != "Meanwhile..." {
		t.Errorf("Text = %q", got[0].Text)
	}
}

func TestPlaceEmpty(t *testing.T) {
	if got := Place(testPanel, nil); got != nil {
		t.Errorf("Place(nil) = %v, want nil", got)
	}
}
