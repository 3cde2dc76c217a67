package reveal

import (
	"testing"
	"time"
)

type entryLog struct {
	entries []IntersectionEntry
}

func (l *entryLog) record(batch []IntersectionEntry) {
	l.entries = append(l.entries, batch...)
}

func (l *entryLog) take() []IntersectionEntry {
	out := l.entries
	l.entries = nil
	return out
}

func TestObserverInitialEntry(t *testing.T) {
	doc := NewDocument(100, 100)
	in := NewBox("in", 0, 0, 10, 10)
	out := NewBox("out", 0, 500, 10, 10)
	doc.Root().AddChild(in)
	doc.Root().AddChild(out)

	var log entryLog
	o := doc.NewIntersectionObserver(IntersectionConfig{}, log.record)
	o.Observe(in)
	o.Observe(out)
	o.Observe(in)
	if o.Len() != 2 {
		t.Errorf("Len = %d, want 2", o.Len())
	}

	doc.Step(time.Millisecond)
	got := log.take()
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].Target != in || !got[0].IsIntersecting {
		t.Errorf("entry 0 = %+v", got[0])
	}
	if got[1].Target != out || got[1].IsIntersecting {
		t.Errorf("entry 1 = %+v", got[1])
	}

	doc.Step(time.Millisecond)
	if len(log.take()) != 0 {
		t.Error("no change, no entries")
	}
}

func TestObserverReportsChanges(t *testing.T) {
	doc := NewDocument(100, 100)
	el := NewBox("el", 0, 150, 10, 10)
	doc.Root().AddChild(el)
	var log entryLog
	o := doc.NewIntersectionObserver(IntersectionConfig{}, log.record)
	o.Observe(el)
	doc.Step(time.Millisecond)
	log.take()

	doc.Window().ScrollTo(0, 100)
	doc.Step(time.Millisecond)
	got := log.take()
	if len(got) != 1 || !got[0].IsIntersecting {
		t.Fatalf("entries = %+v, want one intersecting", got)
	}
	if got[0].Time != 2*time.Millisecond {
		t.Errorf("Time = %v", got[0].Time)
	}

	doc.Window().ScrollTo(0, 0)
	doc.Step(time.Millisecond)
	got = log.take()
	if len(got) != 1 || got[0].IsIntersecting {
		t.Fatalf("entries = %+v, want one not intersecting", got)
	}
}

func TestObserverThreshold(t *testing.T) {
	doc := NewDocument(100, 100)
	el := NewBox("el", 0, 80, 10, 40) // half visible
	doc.Root().AddChild(el)

	var low, high entryLog
	doc.NewIntersectionObserver(IntersectionConfig{Threshold: 0.5}, low.record).Observe(el)
	doc.NewIntersectionObserver(IntersectionConfig{Threshold: 0.6}, high.record).Observe(el)
	doc.Step(time.Millisecond)

	if got := low.take(); len(got) != 1 || !got[0].IsIntersecting {
		t.Errorf("threshold 0.5: %+v", got)
	}
	if got := high.take(); len(got) != 1 || got[0].IsIntersecting {
		t.Errorf("threshold 0.6: %+v", got)
	}
}

func TestObserverMargins(t *testing.T) {
	doc := NewDocument(100, 100)
	el := NewBox("el", 0, 95, 10, 5)
	doc.Root().AddChild(el)
	var log entryLog
	doc.NewIntersectionObserver(IntersectionConfig{Margins: Margins{Bottom: 10}}, log.record).Observe(el)
	doc.Step(time.Millisecond)
	if got := log.take(); len(got) != 1 || got[0].IsIntersecting {
		t.Errorf("element inside the bottom margin should not intersect: %+v", got)
	}
}

func TestObserverDetachedElementNotIntersecting(t *testing.T) {
	doc := NewDocument(100, 100)
	el := NewBox("el", 0, 0, 10, 10)
	doc.Root().AddChild(el)
	var log entryLog
	o := doc.NewIntersectionObserver(IntersectionConfig{}, log.record)
	o.Observe(el)
	doc.Step(time.Millisecond)
	log.take()

	el.RemoveFromParent()
	doc.Step(time.Millisecond)
	got := log.take()
	if len(got) != 1 || got[0].IsIntersecting || got[0].Ratio != 0 {
		t.Errorf("entries = %+v", got)
	}
}

func TestObserverUnobserveAndReobserve(t *testing.T) {
	doc := NewDocument(100, 100)
	el := NewBox("el", 0, 0, 10, 10)
	doc.Root().AddChild(el)
	var log entryLog
	o := doc.NewIntersectionObserver(IntersectionConfig{}, log.record)
	o.Observe(el)
	doc.Step(time.Millisecond)
	log.take()

	o.Unobserve(el)
	o.Observe(el)
	doc.Step(time.Millisecond)
	if got := log.take(); len(got) != 1 {
		t.Errorf("re-observing should produce a fresh initial entry, got %d", len(got))
	}
}

func TestObserverDisconnect(t *testing.T) {
	doc := NewDocument(100, 100)
	el := NewBox("el", 0, 0, 10, 10)
	doc.Root().AddChild(el)
	var log entryLog
	o := doc.NewIntersectionObserver(IntersectionConfig{}, log.record)
	o.Observe(el)
	o.Disconnect()
	o.Observe(el)
	doc.Step(time.Millisecond)
	if len(log.take()) != 0 || o.Len() != 0 {
		t.Error("disconnected observer should be inert")
	}
}
