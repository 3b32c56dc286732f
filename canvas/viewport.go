package canvas

import (
	"math"
	"time"
)

// Gesture tuning constants. The 300ms long-press threshold disambiguates
// "tap to place a pixel" from "intent to pan": both gestures start with the
// same pointer-down.
const (
	LongPressDelay = 300 * time.Millisecond
	DampingFactor  = 0.7
	MinZoom        = 0.1
	MaxZoom        = 5.0
	WheelZoomIn    = 1.05
	WheelZoomOut   = 0.95
)

// GestureState is the viewport controller's state.
type GestureState int

const (
	GestureIdle GestureState = iota
	// GesturePendingDrag: primary pointer is down, long-press timer armed.
	GesturePendingDrag
	GestureDragging
	GesturePinching
)

// Button identifies the pointer button that went down.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// Touch is one active touch point.
type Touch struct {
	X float64
	Y float64
}

// Viewport drives pan and zoom from pointer, wheel, and touch events. All
// events carry their own timestamps so the controller stays deterministic
// and testable; the embedding event loop calls Tick to let the long-press
// timer fire when the pointer is held still.
type Viewport struct {
	OffsetX float64
	OffsetY float64
	Zoom    float64

	state         GestureState
	pressDeadline time.Time
	anchorX       float64
	anchorY       float64
	hasDragged    bool
	lastPinchDist float64
}

// NewViewport creates a viewport panned so that grid origin sits at the
// given screen point, at zoom 1.
func NewViewport(offsetX, offsetY float64) *Viewport {
	return &Viewport{OffsetX: offsetX, OffsetY: offsetY, Zoom: 1}
}

// State returns the current gesture state.
func (v *Viewport) State() GestureState {
	return v.state
}

// PointerDown handles a mouse button press. Secondary and middle buttons
// start a drag immediately; the primary button arms the long-press timer.
func (v *Viewport) PointerDown(x, y float64, b Button, now time.Time) {
	v.anchorX, v.anchorY = x, y
	if b == ButtonSecondary || b == ButtonMiddle {
		v.state = GestureDragging
		v.hasDragged = false
		return
	}
	v.state = GesturePendingDrag
	v.pressDeadline = now.Add(LongPressDelay)
}

// PointerMove handles pointer motion. While dragging, the viewport offset
// follows the pointer with damping.
func (v *Viewport) PointerMove(x, y float64, now time.Time) {
	v.Tick(now)
	if v.state != GestureDragging {
		return
	}
	v.OffsetX += (x - v.anchorX) * DampingFactor
	v.OffsetY += (y - v.anchorY) * DampingFactor
	v.anchorX, v.anchorY = x, y
	v.hasDragged = true
}

// PointerUp handles pointer release, cancelling a pending long-press.
func (v *Viewport) PointerUp(now time.Time) {
	v.state = GestureIdle
}

// PointerLeave behaves like PointerUp: leaving the surface cancels any
// pending or active drag.
func (v *Viewport) PointerLeave(now time.Time) {
	v.state = GestureIdle
}

// Tick promotes a pending drag whose long-press deadline has passed. The
// event loop should call it periodically (or on every event) so a held,
// motionless pointer still becomes a drag.
func (v *Viewport) Tick(now time.Time) {
	if v.state == GesturePendingDrag && !now.Before(v.pressDeadline) {
		v.state = GestureDragging
		v.hasDragged = false
	}
}

// ConsumeTap reports whether a click/tap should register as a pixel
// placement. A completed drag suppresses exactly one tap.
func (v *Viewport) ConsumeTap() bool {
	if v.hasDragged {
		v.hasDragged = false
		return false
	}
	return true
}

// Wheel applies one scroll step: down zooms out, up zooms in, clamped.
func (v *Viewport) Wheel(deltaY float64) {
	factor := WheelZoomIn
	if deltaY > 0 {
		factor = WheelZoomOut
	}
	v.Zoom = clampZoom(v.Zoom * factor)
}

// TouchStart handles touch-down. Two fingers begin a pinch; one finger arms
// the long-press timer like a primary pointer.
func (v *Viewport) TouchStart(touches []Touch, now time.Time) {
	switch len(touches) {
	case 2:
		v.state = GesturePinching
		v.lastPinchDist = touchDistance(touches[0], touches[1])
	case 1:
		v.anchorX, v.anchorY = touches[0].X, touches[0].Y
		v.state = GesturePendingDrag
		v.pressDeadline = now.Add(LongPressDelay)
	}
}

// TouchMove handles touch motion: pinch scaling with two fingers, damped
// panning with one.
func (v *Viewport) TouchMove(touches []Touch, now time.Time) {
	if len(touches) == 2 && v.state == GesturePinching && v.lastPinchDist > 0 {
		dist := touchDistance(touches[0], touches[1])
		v.Zoom = clampZoom(v.Zoom * (dist / v.lastPinchDist))
		v.lastPinchDist = dist
		return
	}
	if len(touches) == 1 {
		v.Tick(now)
		if v.state != GestureDragging {
			return
		}
		v.OffsetX += (touches[0].X - v.anchorX) * DampingFactor
		v.OffsetY += (touches[0].Y - v.anchorY) * DampingFactor
		v.anchorX, v.anchorY = touches[0].X, touches[0].Y
		v.hasDragged = true
	}
}

// TouchEnd handles all fingers lifting.
func (v *Viewport) TouchEnd(now time.Time) {
	v.state = GestureIdle
	v.lastPinchDist = 0
}

// CellAt maps a screen point to the cell under it at the current pan/zoom.
func (v *Viewport) CellAt(sx, sy float64) Coord {
	return ScreenToGrid(sx, sy, v.OffsetX, v.OffsetY, v.Zoom)
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

func touchDistance(a, b Touch) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
