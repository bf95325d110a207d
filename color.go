package matchpipe

import "github.com/lucasb-eyer/go-colorful"

// JerseyHue converts an observed jersey RGB sample (0-1 range per channel)
// to its hue angle in degrees, via go-colorful's HSV conversion. K-means
// clustering of the raw jersey pixels is out of scope; this only
// covers turning one already-clustered representative color into a hue for
// comparison against a match's two known kit hues.
func JerseyHue(r, g, b float64) float64 {
	h, _, _ := colorful.Color{R: r, G: g, B: b}.Hsv()
	return h
}

// HueDistance returns the wraparound distance in degrees between two hue
// angles, so that e.g. red (0°) and magenta (300°) are recognized as close
// (60° apart) rather than far (300° apart). Used to align a raw jersey hue
// to whichever of a match's two known kit hues it's closer to, when an
// analyzer event carries a sampled jersey color alongside its home/away call.
func HueDistance(h1, h2 float64) float64 {
	d := h1 - h2
	if d < 0 {
		d = -d
	}
	if d > 180 {
		d = 360 - d
	}
	return d
}

// ResolveJerseyTeam picks whichever of homeHue/awayHue the observed hue is
// closer to (by wraparound distance).
func ResolveJerseyTeam(observedHue, homeHue, awayHue float64) Team {
	if HueDistance(observedHue, homeHue) <= HueDistance(observedHue, awayHue) {
		return TeamHome
	}
	return TeamAway
}

// KitHues records a match's two known kit hues (in degrees, as returned by
// JerseyHue), so the windowed driver can resolve an analyzer-reported raw
// jersey color sample to home/away when one is present on an event.
type KitHues struct {
	HomeHue float64
	AwayHue float64
}
