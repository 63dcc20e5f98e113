package services

import "math"

// GesturePhase is the controller's position in the per-card state machine.
type GesturePhase int

const (
	PhaseIdle GesturePhase = iota
	PhaseTracking
	PhaseCommitting
	PhaseSnappingBack
)

// OutcomeKind is what a completed pointer cycle resolved to. Exactly one is
// produced per pointer-down-to-up cycle.
type OutcomeKind string

const (
	OutcomePass        OutcomeKind = "pass"
	OutcomeSave        OutcomeKind = "save"
	OutcomeViewDetails OutcomeKind = "view_details"
	OutcomePhotoStep   OutcomeKind = "photo_step"
	OutcomeSnapBack    OutcomeKind = "snap_back"
)

// Transform is the visual state of the top card. While tracking it is applied
// imperatively with no transition; with Animated set it is the target of an
// interpolated animation.
type Transform struct {
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Rotate     float64 `json:"rotate"`
	Scale      float64 `json:"scale"`
	Opacity    float64 `json:"opacity"`
	Animated   bool    `json:"animated"`
}

// IdentityTransform is the at-rest card state.
func IdentityTransform() Transform {
	return Transform{Scale: 1, Opacity: 1}
}

// Resolution is the single result of a pointer-up. The Target transform is
// the animation the card must play before the outcome is surfaced, so no
// outcome is ever emitted without a preceding commit or snap-back animation.
type Resolution struct {
	Kind      OutcomeKind `json:"kind"`
	PhotoStep int         `json:"photo_step,omitempty"`
	Target    Transform   `json:"target"`
}

// GestureConfig holds classification thresholds and transform tuning.
type GestureConfig struct {
	SwipeThreshold    float64 // horizontal commit distance
	VerticalThreshold float64 // upward reveal commit distance
	JitterThreshold   float64 // movement below this is a tap
	RotationFactor    float64 // degrees per horizontal pixel
	OpacityFloor      float64 // opacity never fades below this
	OpacityDistance   float64 // |dx| at which the floor is reached
	VerticalDamping   float64 // divisor applied to the reveal translate
	FlingDistance     float64 // off-screen travel of a committed swipe
}

// DefaultGestureConfig returns the tuning the card stack ships with.
func DefaultGestureConfig() GestureConfig {
	return GestureConfig{
		SwipeThreshold:    100,
		VerticalThreshold: 60,
		JitterThreshold:   5,
		RotationFactor:    0.04,
		OpacityFloor:      0.4,
		OpacityDistance:   400,
		VerticalDamping:   3,
		FlingDistance:     1000,
	}
}

// GestureController classifies one pointer gesture at a time over the top of
// the stack. It holds only the ephemeral gesture sample; which card is on top
// and which photo shows are the deck's state.
type GestureController struct {
	cfg GestureConfig

	phase      GesturePhase
	startX     float64
	startY     float64
	dx         float64
	dy         float64
	dragging   bool
	photoCount int
	cardWidth  float64
}

// NewGestureController creates a controller with the given tuning.
func NewGestureController(cfg GestureConfig) *GestureController {
	return &GestureController{cfg: cfg}
}

// Phase returns the current state-machine phase.
func (g *GestureController) Phase() GesturePhase {
	return g.phase
}

// Present arms the controller for a freshly presented top card, clearing any
// previous gesture sample.
func (g *GestureController) Present(photoCount int, cardWidth float64) {
	g.phase = PhaseIdle
	g.photoCount = photoCount
	g.cardWidth = cardWidth
	g.clearSample()
}

// PointerDown starts tracking. The returned transform has Animated false:
// the presentation layer must clear any running transition so subsequent
// moves apply synchronously.
func (g *GestureController) PointerDown(x, y float64) Transform {
	g.phase = PhaseTracking
	g.startX = x
	g.startY = y
	g.dx = 0
	g.dy = 0
	g.dragging = false
	return IdentityTransform()
}

// PointerMove updates the gesture sample and returns the transform to apply
// imperatively to the card. Returns false when no gesture is being tracked.
func (g *GestureController) PointerMove(x, y float64) (Transform, bool) {
	if g.phase != PhaseTracking {
		return Transform{}, false
	}
	g.dx = x - g.startX
	g.dy = y - g.startY

	if !g.dragging && (math.Abs(g.dx) > g.cfg.JitterThreshold || math.Abs(g.dy) > g.cfg.JitterThreshold) {
		g.dragging = true
	}

	if g.isVerticalReveal() {
		// Damped upward pull with a slight grow, opacity held.
		t := IdentityTransform()
		t.TranslateY = g.dy / g.cfg.VerticalDamping
		t.Scale = 1 + math.Min(0.03, math.Abs(g.dy)/2000)
		return t, true
	}

	t := IdentityTransform()
	t.TranslateX = g.dx
	t.Rotate = g.cfg.RotationFactor * g.dx
	t.Opacity = g.opacityFor(g.dx)
	return t, true
}

// PointerUp ends the cycle and resolves it to exactly one outcome. Threshold
// priority: vertical reveal, then horizontal commit, then snap back. A
// pointer-up with no tracked gesture resolves to a no-op snap back.
func (g *GestureController) PointerUp(x, y float64) Resolution {
	if g.phase != PhaseTracking {
		g.phase = PhaseSnappingBack
		return Resolution{Kind: OutcomeSnapBack, Target: animatedIdentity()}
	}

	g.dx = x - g.startX
	g.dy = y - g.startY

	if !g.dragging {
		return g.resolveTap(x)
	}

	if g.isVerticalReveal() && g.dy < -g.cfg.VerticalThreshold {
		g.phase = PhaseCommitting
		return Resolution{Kind: OutcomeViewDetails, Target: animatedIdentity()}
	}

	if !g.isVerticalReveal() && math.Abs(g.dx) >= g.cfg.SwipeThreshold {
		g.phase = PhaseCommitting
		kind := OutcomeSave
		direction := 1.0
		if g.dx < 0 {
			kind = OutcomePass
			direction = -1
		}
		target := Transform{
			TranslateX: direction * g.cfg.FlingDistance,
			Rotate:     g.cfg.RotationFactor * direction * g.cfg.FlingDistance,
			Scale:      1,
			Opacity:    0,
			Animated:   true,
		}
		return Resolution{Kind: kind, Target: target}
	}

	g.phase = PhaseSnappingBack
	return Resolution{Kind: OutcomeSnapBack, Target: animatedIdentity()}
}

// resolveTap classifies a cycle that never left the jitter radius. With more
// than one photo the card's left half steps back and the right half steps
// forward; a single-photo card opens details.
func (g *GestureController) resolveTap(x float64) Resolution {
	g.phase = PhaseCommitting
	if g.photoCount > 1 {
		step := 1
		if g.cardWidth > 0 && x < g.cardWidth/2 {
			step = -1
		}
		return Resolution{Kind: OutcomePhotoStep, PhotoStep: step, Target: animatedIdentity()}
	}
	return Resolution{Kind: OutcomeViewDetails, Target: animatedIdentity()}
}

// isVerticalReveal reports whether the live sample reads as an upward
// reveal-details drag rather than a horizontal swipe.
func (g *GestureController) isVerticalReveal() bool {
	return math.Abs(g.dy) > math.Abs(g.dx) && g.dy < 0
}

// opacityFor fades the card toward the floor as it travels horizontally,
// reaching the floor at OpacityDistance.
func (g *GestureController) opacityFor(dx float64) float64 {
	progress := math.Min(1, math.Abs(dx)/g.cfg.OpacityDistance)
	return 1 - (1-g.cfg.OpacityFloor)*progress
}

func (g *GestureController) clearSample() {
	g.startX = 0
	g.startY = 0
	g.dx = 0
	g.dy = 0
	g.dragging = false
}

func animatedIdentity() Transform {
	t := IdentityTransform()
	t.Animated = true
	return t
}
