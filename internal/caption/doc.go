// Package caption turns word-level timestamps into timed caption overlays.
//
// The pipeline runs leaf first: NormalizeWord cleans transcribed words for
// display, TimingResolver converts word indices into clip timings,
// LayoutWords wraps a group of words into lines using font Metrics, the
// Rasterizer paints a layout onto a transparent canvas, and Animation
// describes how a clip scales and fades over its lifetime. Scheduler drives
// the whole sequence for one render session and returns OverlayClips in
// timeline order for the compositor.
//
// Layout and rasterization are pure functions of their inputs. The scheduler
// plans sequentially and rasterizes on a bounded worker pool, so results are
// deterministic regardless of completion order.
package caption
