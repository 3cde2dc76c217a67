package reveal

import "time"

// strictCooldown is how long strict virtualization lasts once triggered.
const strictCooldown = 2 * time.Second

// virtualize suspends tracking of hidden targets far outside the viewport
// and resumes the ones that came back in range. It returns the number of
// targets whose status changed.
func (e *Engine) virtualize() int {
	if e.destroyed || !e.perf.Virtualize {
		return 0
	}
	targets := e.ordered()
	active := 0
	for _, t := range targets {
		if e.det.tracking(t) {
			active++
		}
	}
	if active > e.perf.MaxActive {
		e.enterStrict(active)
	}

	vp := e.host.Viewport()
	margin := e.perf.VirtualMargin * vp.Height
	if e.strict {
		margin /= 2
	}
	top, bottom := vp.Y-margin, vp.Bottom()+margin

	changed := 0
	for _, t := range targets {
		if t.state != StateHidden {
			continue
		}
		b := t.el.Bounds()
		far := b.Bottom() < top || b.Y > bottom
		switch {
		case far && t.status == StatusTracked:
			e.suspend(t)
			changed++
		case !far && t.status == StatusVirtualized:
			e.retrack(t)
			changed++
		}
	}
	return changed
}

func (e *Engine) suspend(t *target) {
	e.det.untrack(t)
	t.status = StatusVirtualized
	t.el.RemoveAttr(AttrObserved)
	t.el.SetAttr(AttrVirtualized, "")
}

// enterStrict halves the virtualization margin and doubles the polling
// interval until the cooldown expires.
func (e *Engine) enterStrict(active int) {
	if e.strict {
		return
	}
	e.strict = true
	e.throttleMul = 2
	e.strictTimer = e.host.AfterFunc(strictCooldown, func() {
		e.strictTimer = 0
		e.strict = false
		e.throttleMul = 1
	})
	e.log.WithField("active", active).WithField("max", e.perf.MaxActive).
		Debug("reveal: too many active targets, strict virtualization")
}
