// Package reveal animates elements into view as they scroll into the
// viewport of a retained document, built on [Ebitengine].
//
// The package has two halves. [Document] is a small retained tree of
// [Element] boxes with a scrollable [Viewport], a frame clock, timers,
// style transitions, timeline animations, and intersection observers.
// [Engine] depends only on the [Host] interface that Document implements:
// it registers elements, hides them, and reveals each one when it enters
// the viewport.
//
// # Quick start
//
//	doc := reveal.NewDocument(800, 600)
//	for i := 0; i < 40; i++ {
//		doc.Root().AddChild(reveal.NewBox(fmt.Sprint("card", i), 40, float64(i)*160, 320, 120, "card"))
//	}
//	engine := reveal.GetInstance(doc)
//	engine.Reveal(".card", reveal.Options{
//		Distance: reveal.Float(40),
//		Interval: reveal.Dur(80 * time.Millisecond),
//		Reset:    reveal.Bool(true),
//	})
//	reveal.Run(doc, reveal.RunConfig{Title: "reveal", ShowStats: true, Engine: engine})
//
// Tests drive a document without a window by calling [Document.Step].
//
// # Options
//
// [Options] is a partial option set; unset fields fall through the
// engine's defaults to [DefaultOptions]. Use [Float], [Dur], [Int], and
// [Bool] to set values, including explicit zeros. Options can also be read
// from YAML with [LoadOptions].
//
// # Visibility detection
//
// With [Capabilities].IntersectionObserver available the engine uses
// intersection observers; otherwise it polls geometry on scroll, resize,
// and load, throttled to PerformanceOptions.ThrottleInterval. Both report
// the same enter and exit transitions.
//
// # Adaptation
//
// A device profile computed once from [DeviceInfo] tightens the
// performance options on weaker hardware. While running, three consecutive
// one-second windows below 30 frames per second shrink durations, travel
// distance, and rotation of everything not yet revealed, once. Hidden
// targets far outside the viewport stop being tracked while virtualization
// is on.
//
// [Ebitengine]: https://ebitengine.org
package reveal
