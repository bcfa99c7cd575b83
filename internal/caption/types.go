package caption

import "image"

// WordTimestamp is a transcribed word with its position in the source video,
// in seconds.
type WordTimestamp struct {
	Text  string
	Start float64
	End   float64
}

// ResolvedTiming is the on-screen interval of one word step.
type ResolvedTiming struct {
	Index    int
	Start    float64
	End      float64
	Duration float64
}

// Role marks whether a word is drawn normally or highlighted.
type Role int

const (
	RoleNormal Role = iota
	RoleHighlighted
)

func (r Role) String() string {
	if r == RoleHighlighted {
		return "highlighted"
	}
	return "normal"
}

// StyledWord is a display-ready word and its role in the current step.
type StyledWord struct {
	Text string
	Role Role
}

// InkBox is the tight bounding box of drawn pixels relative to the pen
// origin on the baseline. MinY is negative above the baseline.
type InkBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width reports the horizontal ink extent.
func (b InkBox) Width() float64 { return b.MaxX - b.MinX }

// Height reports the vertical ink extent.
func (b InkBox) Height() float64 { return b.MaxY - b.MinY }

// Empty reports whether the box encloses no pixels.
func (b InkBox) Empty() bool { return b.MaxX <= b.MinX || b.MaxY <= b.MinY }

// PlacedWord is a word positioned on a line. X is measured from the left edge
// of the canvas.
type PlacedWord struct {
	Text    string
	Role    Role
	X       float64
	Advance float64
	Ink     InkBox
}

// Line is one wrapped row of words. Y is the top of the line; glyphs are drawn
// on the baseline at Y + Ascent.
type Line struct {
	Words  []PlacedWord
	Width  float64
	Height float64
	Y      float64
	Ascent float64
}

// Baseline returns the y coordinate glyphs on this line sit on.
func (l Line) Baseline() float64 {
	return l.Y + l.Ascent
}

// OverlayClip is one rasterized caption step placed on the video timeline.
// Position is the top-left corner of the unscaled canvas in frame
// coordinates.
type OverlayClip struct {
	Index     int
	Text      string
	Canvas    *image.RGBA
	Start     float64
	Duration  float64
	Position  image.Point
	Animation Animation
}

// End returns the exclusive end of the clip's active interval.
func (c OverlayClip) End() float64 {
	return c.Start + c.Duration
}

// ActiveAt reports whether the clip is visible at time t.
func (c OverlayClip) ActiveAt(t float64) bool {
	return t >= c.Start && t < c.End()
}

// Video describes the frame the captions are placed on.
type Video struct {
	Width    int
	Height   int
	Duration float64
}
