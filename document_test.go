package reveal

import (
	"testing"
	"time"
)

func TestNowAccumulates(t *testing.T) {
	doc := NewDocument(100, 100)
	doc.StepN(3, 10*time.Millisecond)
	if doc.Now() != 30*time.Millisecond {
		t.Errorf("Now = %v, want 30ms", doc.Now())
	}
}

func TestTimersFireInDueOrder(t *testing.T) {
	doc := NewDocument(100, 100)
	var got []int
	doc.AfterFunc(30*time.Millisecond, func() { got = append(got, 3) })
	doc.AfterFunc(10*time.Millisecond, func() { got = append(got, 1) })
	doc.AfterFunc(10*time.Millisecond, func() { got = append(got, 2) })
	if doc.PendingTimers() != 3 {
		t.Errorf("PendingTimers = %d, want 3", doc.PendingTimers())
	}
	doc.Step(50 * time.Millisecond)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("fire order = %v, want [1 2 3]", got)
	}
	if doc.PendingTimers() != 0 {
		t.Errorf("PendingTimers = %d, want 0", doc.PendingTimers())
	}
}

func TestTimerNotDueYet(t *testing.T) {
	doc := NewDocument(100, 100)
	fired := false
	doc.AfterFunc(100*time.Millisecond, func() { fired = true })
	doc.Step(99 * time.Millisecond)
	if fired {
		t.Error("timer fired early")
	}
	doc.Step(time.Millisecond)
	if !fired {
		t.Error("timer should fire once due")
	}
}

func TestCancelTimer(t *testing.T) {
	doc := NewDocument(100, 100)
	fired := false
	id := doc.AfterFunc(10*time.Millisecond, func() { fired = true })
	doc.CancelTimer(id)
	doc.CancelTimer(TimerID(9999))
	doc.Step(20 * time.Millisecond)
	if fired {
		t.Error("canceled timer fired")
	}
}

func TestZeroDelayTimerFromTimerFiresSameStep(t *testing.T) {
	doc := NewDocument(100, 100)
	n := 0
	doc.AfterFunc(0, func() {
		n++
		doc.AfterFunc(0, func() { n++ })
	})
	doc.Step(time.Millisecond)
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
}

func TestFramesRunNextStep(t *testing.T) {
	doc := NewDocument(100, 100)
	var seen []time.Duration
	var tick func(now time.Duration)
	tick = func(now time.Duration) {
		seen = append(seen, now)
		if len(seen) < 3 {
			doc.RequestFrame(tick)
		}
	}
	doc.RequestFrame(tick)
	if len(seen) != 0 {
		t.Fatal("frame ran before Step")
	}
	doc.StepN(5, 10*time.Millisecond)
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}
	if len(seen) != len(want) {
		t.Fatalf("frames = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("frame %d at %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestCancelFrame(t *testing.T) {
	doc := NewDocument(100, 100)
	ran := false
	id := doc.RequestFrame(func(time.Duration) { ran = true })
	doc.CancelFrame(id)
	doc.Step(time.Millisecond)
	if ran {
		t.Error("canceled frame ran")
	}
}

func TestScrollListener(t *testing.T) {
	doc := NewDocument(100, 100)
	n := 0
	cancel := doc.On(EventScroll, func() { n++ })

	doc.Window().ScrollTo(0, 50)
	doc.Window().ScrollTo(0, 60)
	doc.Step(time.Millisecond)
	if n != 1 {
		t.Errorf("scroll events = %d, want 1 per frame", n)
	}

	doc.Step(time.Millisecond)
	if n != 1 {
		t.Error("no scroll, no event")
	}

	cancel()
	doc.Window().ScrollBy(0, 10)
	doc.Step(time.Millisecond)
	if n != 1 {
		t.Error("canceled listener fired")
	}
}

func TestResizeListener(t *testing.T) {
	doc := NewDocument(100, 100)
	n := 0
	doc.On(EventResize, func() { n++ })
	doc.Window().Resize(100, 100)
	doc.Step(time.Millisecond)
	if n != 0 {
		t.Error("same-size resize should not fire")
	}
	doc.Window().Resize(200, 100)
	doc.Step(time.Millisecond)
	if n != 1 {
		t.Errorf("resize events = %d, want 1", n)
	}
	if doc.Viewport().Width != 200 {
		t.Errorf("Viewport width = %v", doc.Viewport().Width)
	}
}

func TestLoadFiresOnce(t *testing.T) {
	doc := NewDocument(100, 100)
	n := 0
	doc.On(EventLoad, func() { n++ })
	doc.MarkLoaded()
	doc.MarkLoaded()
	doc.StepN(3, time.Millisecond)
	if n != 1 {
		t.Errorf("load events = %d, want 1", n)
	}
}

func TestRemovalObserverBatchesPerFrame(t *testing.T) {
	doc := NewDocument(100, 100)
	a := NewElement("a")
	b := NewElement("b")
	child := NewElement("child")
	b.AddChild(child)
	doc.Root().AddChild(a)
	doc.Root().AddChild(b)

	var batches [][]*Element
	doc.ObserveRemovals(func(removed []*Element) { batches = append(batches, removed) })

	a.RemoveFromParent()
	b.RemoveFromParent()
	if len(batches) != 0 {
		t.Fatal("removals delivered before the frame")
	}
	doc.Step(time.Millisecond)
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(batches))
	}
	if len(batches[0]) != 3 {
		t.Errorf("batch has %d elements, want 3 (descendants included)", len(batches[0]))
	}
}

func TestRemovalObserverSkipsReattached(t *testing.T) {
	doc := NewDocument(100, 100)
	a := NewElement("a")
	doc.Root().AddChild(a)
	n := 0
	doc.ObserveRemovals(func(removed []*Element) { n += len(removed) })
	a.RemoveFromParent()
	doc.Root().AddChild(a)
	doc.Step(time.Millisecond)
	if n != 0 {
		t.Errorf("re-attached element reported as removed")
	}
}

func TestRemovalObserverIncludesDisposedDescendants(t *testing.T) {
	doc := NewDocument(100, 100)
	box := NewElement("box")
	child := NewElement("child")
	grandchild := NewElement("grandchild")
	child.AddChild(grandchild)
	box.AddChild(child)
	doc.Root().AddChild(box)

	var removed []*Element
	doc.ObserveRemovals(func(els []*Element) { removed = append(removed, els...) })
	box.Dispose()
	doc.Step(time.Millisecond)

	if len(removed) != 3 {
		t.Fatalf("removed %d elements, want 3", len(removed))
	}
	for i, want := range []*Element{box, child, grandchild} {
		if removed[i] != want {
			t.Errorf("removed[%d] = %s, want %s", i, removed[i].Name, want.Name)
		}
	}
}

func TestRemovalObserverSkipsMovedDescendant(t *testing.T) {
	doc := NewDocument(100, 100)
	box := NewElement("box")
	child := NewElement("child")
	box.AddChild(child)
	doc.Root().AddChild(box)

	var removed []*Element
	doc.ObserveRemovals(func(els []*Element) { removed = append(removed, els...) })
	box.RemoveFromParent()
	doc.Root().AddChild(child)
	doc.Step(time.Millisecond)

	if len(removed) != 1 || removed[0] != box {
		t.Errorf("removed = %v, want only box", removed)
	}
}

func TestRemovalObserverCancel(t *testing.T) {
	doc := NewDocument(100, 100)
	a := NewElement("a")
	doc.Root().AddChild(a)
	n := 0
	cancel := doc.ObserveRemovals(func([]*Element) { n++ })
	cancel()
	a.RemoveFromParent()
	doc.Step(time.Millisecond)
	if n != 0 {
		t.Error("canceled removal observer fired")
	}
}

func TestStepOrderListenersBeforeTimersBeforeFrames(t *testing.T) {
	doc := NewDocument(100, 100)
	var order []string
	doc.On(EventScroll, func() { order = append(order, "scroll") })
	doc.AfterFunc(0, func() { order = append(order, "timer") })
	doc.RequestFrame(func(time.Duration) { order = append(order, "frame") })
	o := doc.NewIntersectionObserver(IntersectionConfig{}, func([]IntersectionEntry) { order = append(order, "intersection") })
	el := NewBox("e", 0, 0, 10, 10)
	doc.Root().AddChild(el)
	o.Observe(el)
	doc.Window().ScrollTo(0, 1)

	doc.Step(time.Millisecond)
	want := []string{"scroll", "timer", "frame", "intersection"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
}
