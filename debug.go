package reveal

import (
	"github.com/sirupsen/logrus"
)

// SetLogger routes engine logs to l. Every entry carries component=reveal.
// SetDebugMode has no effect on the level of a caller-supplied logger.
func (e *Engine) SetLogger(l logrus.FieldLogger) {
	if l == nil {
		return
	}
	e.logger = nil
	e.log = l.WithField("component", "reveal")
}

// SetDebugMode enables debug logging (lazy-init slices, frame-rate windows,
// strategy fallbacks) and the registration sanity checks below.
func (e *Engine) SetDebugMode(on bool) {
	e.debug = on
	if e.logger == nil {
		return
	}
	if on {
		e.logger.SetLevel(logrus.DebugLevel)
	} else {
		e.logger.SetLevel(logrus.WarnLevel)
	}
}

// debugMaxBatch is the registration size above which debug mode warns.
const debugMaxBatch = 1000

// debugCheckBatch warns about very large registration calls.
func (e *Engine) debugCheckBatch(n int) {
	if e.debug && n > debugMaxBatch {
		e.log.WithField("count", n).WithField("threshold", debugMaxBatch).
			Warn("reveal: large registration; consider virtualization")
	}
}

// debugCheckElements warns about disposed or detached elements passed to
// RevealElements; they are skipped either way.
func (e *Engine) debugCheckElements(els []*Element) {
	if !e.debug {
		return
	}
	for _, el := range els {
		switch {
		case el == nil:
			e.log.Warn("reveal: nil element")
		case el.IsDisposed():
			e.log.WithField("element", el.Name).WithField("id", el.ID).Warn("reveal: disposed element")
		case !el.Connected():
			e.log.WithField("element", el.Name).WithField("id", el.ID).Warn("reveal: detached element")
		}
	}
}
