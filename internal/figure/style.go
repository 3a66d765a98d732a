package figure

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Style is the presentation state passed explicitly to every render call.
type Style struct {
	// Width and Height are the artifact size in pixels.
	Width  int
	Height int
	// Theme names the interactive theme (e.g. "white", "dark").
	Theme string
}

// DefaultStyle is used when the configuration leaves sizes unset.
func DefaultStyle() Style {
	return Style{Width: 1000, Height: 600, Theme: "white"}
}

// Sized returns s with width and height replaced when w and h are positive.
func (s Style) Sized(w, h int) Style {
	if w > 0 {
		s.Width = w
	}
	if h > 0 {
		s.Height = h
	}
	return s
}

// Format is an artifact encoding.
type Format string

// Artifact formats.
const (
	PNG  Format = "png"
	HTML Format = "html"
)

// FormatOf infers the format from a file name.
func FormatOf(name string) (Format, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".png"):
		return PNG, nil
	case strings.HasSuffix(strings.ToLower(name), ".html"):
		return HTML, nil
	}
	return "", fmt.Errorf("unsupported artifact format: %s", name)
}

// palettes holds the color stops of each named palette; Palette
// interpolates between them.
var palettes = map[string][]string{
	"coolwarm": {"#3b4cc0", "#7b9ff9", "#c0d4f5", "#f2cbb7", "#ee8468", "#b40426"},
	"viridis":  {"#440154", "#414487", "#2a788e", "#22a884", "#7ad151", "#fde725"},
	"heat":     {"#fff5eb", "#fdd0a2", "#fd8d3c", "#d94801", "#7f2704"},
	"pastel":   {"#ff9999", "#66b3ff", "#99ff99", "#ffcc99"},
}

// Palette returns n colours spread evenly over the named palette.
// Unknown names fall back to viridis.
func Palette(name string, n int) []color.RGBA {
	anchors, ok := palettes[name]
	if !ok {
		anchors = palettes["viridis"]
	}
	stops := make([]color.RGBA, len(anchors))
	for i, a := range anchors {
		stops[i] = MustParseHex(a)
	}
	out := make([]color.RGBA, n)
	for i := range out {
		pos := 0.0
		if n > 1 {
			pos = float64(i) / float64(n-1)
		}
		out[i] = interpolate(stops, pos)
	}
	return out
}

// PaletteHex is Palette rendered as "#rrggbb" strings.
func PaletteHex(name string, n int) []string {
	cols := Palette(name, n)
	out := make([]string, n)
	for i, c := range cols {
		out[i] = Hex(c)
	}
	return out
}

func interpolate(stops []color.RGBA, pos float64) color.RGBA {
	if len(stops) == 1 {
		return stops[0]
	}
	x := pos * float64(len(stops)-1)
	i := int(math.Floor(x))
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	f := x - float64(i)
	a, b := stops[i], stops[i+1]
	lerp := func(p, q uint8) uint8 { return uint8(math.Round(float64(p) + (float64(q)-float64(p))*f)) }
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}

// ParseHex parses "#rrggbb" or "rrggbb".
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// MustParseHex is ParseHex for constants.
func MustParseHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex renders c as "#rrggbb".
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// SI formats v with an SI suffix and two significant digits, e.g. 1.3M.
func SI(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	r := round2(v)
	units := []struct {
		limit  float64
		suffix string
	}{{1e12, "T"}, {1e9, "G"}, {1e6, "M"}, {1e3, "k"}}
	for _, u := range units {
		if math.Abs(r) >= u.limit {
			return formatSI(round2(r/u.limit)) + u.suffix
		}
	}
	return formatSI(r)
}

var siPrinter = message.NewPrinter(language.English)

func formatSI(v float64) string {
	return siPrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(1)))
}

// round2 rounds v to two significant digits.
func round2(v float64) float64 {
	if v == 0 {
		return 0
	}
	scale := math.Pow(10, math.Floor(math.Log10(math.Abs(v)))-1)
	return math.Round(v/scale) * scale
}
