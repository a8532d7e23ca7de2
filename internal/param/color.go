package param

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorMode selects how channel intensities map to a colour.
type ColorMode int

// ColorMode constants.
const (
	// ColorAdditive sums each channel's basis vector weighted by its intensity.
	ColorAdditive ColorMode = iota + 1
	// ColorBasicRGB reads the Red, Green and Blue channels as sRGB.
	ColorBasicRGB
	// ColorBasicCMY reads the Cyan, Magenta and Yellow channels as subtractive sRGB.
	ColorBasicCMY
)

// colorModeNames is the fixed mode registry. It is never modified.
var colorModeNames = map[ColorMode]string{
	ColorAdditive: "ADDITIVE",
	ColorBasicRGB: "BASIC_RGB",
	ColorBasicCMY: "BASIC_CMY",
}

// Channel names read by the basic colour modes.
const (
	ChannelRed     = "Red"
	ChannelGreen   = "Green"
	ChannelBlue    = "Blue"
	ChannelCyan    = "Cyan"
	ChannelMagenta = "Magenta"
	ChannelYellow  = "Yellow"
)

// String returns the document name of the mode.
func (m ColorMode) String() string {
	if name, ok := colorModeNames[m]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseColorMode resolves a document mode name.
func ParseColorMode(name string) (ColorMode, error) {
	for m, n := range colorModeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown color mode %q", name)
}

// Vector3 is a basis vector in CIE XYZ space.
type Vector3 [3]float64

// Color is a multi-channel colour value.
//
// Channel intensities lie in [0, 1]. In additive mode each channel contributes
// its basis vector scaled by intensity, and the sum is scaled by weight.
type Color struct {
	channels map[string]float64
	basis    map[string]Vector3
	weight   float64
	mode     ColorMode
}

// NewColor creates a Color. The channel and basis maps are copied.
func NewColor(channels map[string]float64, basis map[string]Vector3, mode ColorMode, weight float64) *Color {
	c := &Color{
		channels: maps.Clone(channels),
		basis:    maps.Clone(basis),
		weight:   weight,
		mode:     mode,
	}
	if c.channels == nil {
		c.channels = make(map[string]float64)
	}
	if c.basis == nil {
		c.basis = make(map[string]Vector3)
	}
	return c
}

// NewRGBColor creates a BASIC_RGB colour with all channels at zero.
func NewRGBColor() *Color {
	return NewColor(map[string]float64{
		ChannelRed:   0,
		ChannelGreen: 0,
		ChannelBlue:  0,
	}, nil, ColorBasicRGB, 1)
}

// Kind implements Value.
func (c *Color) Kind() Kind { return KindColor }

func (c *Color) sealed() {}

// Mode returns the colour mode.
func (c *Color) Mode() ColorMode { return c.mode }

// Weight returns the overall intensity scale.
func (c *Color) Weight() float64 { return c.weight }

// SetWeight sets the overall intensity scale, clamped to [0, 1].
func (c *Color) SetWeight(w float64) { c.weight = clampUnit(w) }

// Channel returns the intensity of a channel.
func (c *Color) Channel(name string) (float64, bool) {
	v, ok := c.channels[name]
	return v, ok
}

// SetChannel sets a channel intensity, clamped to [0, 1].
// It returns false if the colour has no such channel.
func (c *Color) SetChannel(name string, v float64) bool {
	if _, ok := c.channels[name]; !ok {
		return false
	}
	c.channels[name] = clampUnit(v)
	return true
}

// Channels returns a copy of the channel table.
func (c *Color) Channels() map[string]float64 { return maps.Clone(c.channels) }

// Basis returns a copy of the basis table.
func (c *Color) Basis() map[string]Vector3 { return maps.Clone(c.basis) }

// Reset implements Value. Channels go to zero; weight, basis and mode are
// fixture calibration and are kept.
func (c *Color) Reset() {
	for name := range c.channels {
		c.channels[name] = 0
	}
}

// XYZ returns the colour in CIE XYZ space.
func (c *Color) XYZ() (x, y, z float64) {
	switch c.mode {
	case ColorBasicRGB:
		x, y, z = colorful.Color{
			R: c.channels[ChannelRed],
			G: c.channels[ChannelGreen],
			B: c.channels[ChannelBlue],
		}.Xyz()
	case ColorBasicCMY:
		x, y, z = colorful.Color{
			R: 1 - c.channels[ChannelCyan],
			G: 1 - c.channels[ChannelMagenta],
			B: 1 - c.channels[ChannelYellow],
		}.Xyz()
	default:
		for name, v := range c.channels {
			b, ok := c.basis[name]
			if !ok {
				continue
			}
			x += v * b[0]
			y += v * b[1]
			z += v * b[2]
		}
	}
	return x * c.weight, y * c.weight, z * c.weight
}

// RGB returns the colour as clamped sRGB components.
func (c *Color) RGB() (r, g, b float64) {
	rgb := colorful.Xyz(c.XYZ()).Clamped()
	return rgb.R, rgb.G, rgb.B
}

// SetRGB sets the colour from sRGB components. Only basic modes are
// supported; additive colours return false.
func (c *Color) SetRGB(r, g, b float64) bool {
	switch c.mode {
	case ColorBasicRGB:
		c.channels[ChannelRed] = clampUnit(r)
		c.channels[ChannelGreen] = clampUnit(g)
		c.channels[ChannelBlue] = clampUnit(b)
	case ColorBasicCMY:
		c.channels[ChannelCyan] = clampUnit(1 - r)
		c.channels[ChannelMagenta] = clampUnit(1 - g)
		c.channels[ChannelYellow] = clampUnit(1 - b)
	default:
		return false
	}
	return true
}

// Hue returns the CIE LCh hue angle in degrees, in [0, 360).
func (c *Color) Hue() float64 {
	h, _, _ := colorful.LabToHcl(colorful.XyzToLab(c.XYZ()))
	return h
}

func (c *Color) clone() *Color {
	cpy := *c
	cpy.channels = maps.Clone(c.channels)
	cpy.basis = maps.Clone(c.basis)
	return &cpy
}

func (c *Color) equal(o *Color) bool {
	return c.mode == o.mode &&
		c.weight == o.weight &&
		maps.Equal(c.channels, o.channels) &&
		maps.Equal(c.basis, o.basis)
}

func (c *Color) cmp(o *Color) Ordering {
	return compareFloat(c.Hue(), o.Hue())
}

// lerp blends channel intensities and weight. A channel present on only one
// side is treated as zero on the other. Basis and mode come from the receiver,
// with basis vectors only the other side knows carried over.
// Callers handle t <= 0 and t >= 1.
func (c *Color) lerp(o *Color, t float64) *Color {
	out := c.clone()
	for name := range o.channels {
		out.channels[name] = 0
	}
	for name := range out.channels {
		out.channels[name] = lerpFloat(c.channels[name], o.channels[name], t)
	}
	for name, b := range o.basis {
		if _, ok := out.basis[name]; !ok {
			out.basis[name] = b
		}
	}
	out.weight = lerpFloat(c.weight, o.weight, t)
	return out
}

type colorDoc struct {
	Type     string               `json:"type"`
	Channels map[string]float64   `json:"channels"`
	Basis    map[string][]float64 `json:"basis"`
	Weight   float64              `json:"weight"`
	Mode     string               `json:"mode"`
}

// MarshalJSON implements Value.
func (c *Color) MarshalJSON() ([]byte, error) {
	basis := make(map[string][]float64, len(c.basis))
	for name, b := range c.basis {
		basis[name] = []float64{b[0], b[1], b[2]}
	}
	return json.Marshal(colorDoc{
		Type:     tagColor,
		Channels: c.channels,
		Basis:    basis,
		Weight:   c.weight,
		Mode:     c.mode.String(),
	})
}

func decodeColor(f fields) (*Color, error) {
	var (
		channels map[string]float64
		rawBasis map[string][]float64
		weight   float64
		modeName string
	)
	if err := f.require("channels", &channels); err != nil {
		return nil, err
	}
	if err := f.require("basis", &rawBasis); err != nil {
		return nil, err
	}
	if err := f.require("weight", &weight); err != nil {
		return nil, err
	}
	if err := f.require("mode", &modeName); err != nil {
		return nil, err
	}

	mode, err := ParseColorMode(modeName)
	if err != nil {
		return nil, invalidField("mode", err)
	}

	basis := make(map[string]Vector3, len(rawBasis))
	for name, v := range rawBasis {
		if len(v) != len(Vector3{}) {
			return nil, invalidField("basis", fmt.Errorf("vector %q has %d components, want 3", name, len(v)))
		}
		basis[name] = Vector3{v[0], v[1], v[2]}
	}

	return NewColor(channels, basis, mode, weight), nil
}
