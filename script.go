package reveal

import (
	"encoding/json"
	"fmt"
)

// scriptStep represents a single action in a scroll script.
type scriptStep struct {
	Action   string  `json:"action"`
	Selector string  `json:"selector,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Duration float64 `json:"duration,omitempty"` // seconds, for scrollTo
	Frames   int     `json:"frames,omitempty"`
}

// scrollScript is the top-level JSON structure for a scroll script.
type scrollScript struct {
	Steps []scriptStep `json:"steps"`
}

// ScrollScript sequences scrolling, resizing, and structural changes across
// frames for automated runs. Attach to a Document via SetScript.
//
// Actions:
//
//	scroll    jump to (x, y)
//	scrollTo  animate to (x, y) over duration seconds
//	resize    set the viewport to width x height
//	remove    detach every element matching selector
//	load      fire the load signal
//	wait      idle for frames frames
type ScrollScript struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScrollScript parses a JSON scroll script and returns a ScrollScript
// ready to be attached to a Document via SetScript.
func LoadScrollScript(jsonData []byte) (*ScrollScript, error) {
	var script scrollScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse scroll script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse scroll script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "scroll", "scrollTo", "resize", "remove", "load", "wait":
		default:
			return nil, fmt.Errorf("parse scroll script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScrollScript{steps: script.Steps}, nil
}

// SetScript attaches a ScrollScript to the document. The script advances
// at the start of every Step.
func (d *Document) SetScript(s *ScrollScript) {
	d.script = s
}

// Done reports whether all steps in the script have been executed.
func (s *ScrollScript) Done() bool {
	return s.done
}

// step advances the script by one frame. Called from Document.Step.
func (s *ScrollScript) step(d *Document) {
	if s.done {
		return
	}
	// Wait for an animated scroll to settle before advancing.
	if d.viewport.Scrolling() {
		return
	}
	if s.waitCount > 0 {
		s.waitCount--
		return
	}
	if s.cursor >= len(s.steps) {
		s.done = true
		return
	}

	st := s.steps[s.cursor]
	s.cursor++

	switch st.Action {
	case "scroll":
		d.viewport.ScrollTo(st.X, st.Y)
	case "scrollTo":
		d.viewport.AnimateScroll(st.X, st.Y, float32(st.Duration), nil)
	case "resize":
		d.viewport.Resize(st.Width, st.Height)
	case "remove":
		for _, el := range d.Query(st.Selector) {
			el.RemoveFromParent()
		}
	case "load":
		d.MarkLoaded()
	case "wait":
		if st.Frames > 0 {
			s.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	// Check if we've reached the end after executing.
	if s.cursor >= len(s.steps) && s.waitCount == 0 && !d.viewport.Scrolling() {
		s.done = true
	}
}
