package common

// Color is an RGBA color with components in [0, 1].
type Color = Vec4

// NewColor creates a Color from red, green, blue, and alpha components.
func NewColor(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// ColorHSL creates an opaque Color from hue, saturation, and lightness,
// each in [0, 1]. Hue wraps around the color wheel.
//
// Parameters:
//   - h: hue in [0, 1]
//   - s: saturation in [0, 1]
//   - l: lightness in [0, 1]
//
// Returns:
//   - Color: the resulting RGBA color with alpha 1
func ColorHSL(h, s, l float32) Color {
	if s == 0 {
		return Color{l, l, l, 1}
	}

	var q float32
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	r := hueToRGB(p, q, h+1.0/3.0)
	g := hueToRGB(p, q, h)
	b := hueToRGB(p, q, h-1.0/3.0)
	return Color{r, g, b, 1}
}

func hueToRGB(p, q, t float32) float32 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
