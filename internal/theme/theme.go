// Package theme defines the colour themes of the interactive UI, the
// built-in set, and persistence of custom themes.
package theme

import (
	"fmt"
	"math/rand"
	"strings"
)

// Color is one of the eight basic ANSI colours, stored by name so theme
// files stay readable.
type Color string

const (
	Black   Color = "black"
	Red     Color = "red"
	Green   Color = "green"
	Yellow  Color = "yellow"
	Blue    Color = "blue"
	Magenta Color = "magenta"
	Cyan    Color = "cyan"
	White   Color = "white"
)

// Palette lists every Color in ANSI order.
var Palette = []Color{Black, Red, Green, Yellow, Blue, Magenta, Cyan, White}

// ANSI returns the colour's terminal index ("0"-"7"), suitable for
// lipgloss.Color. Unknown names map to white.
func (c Color) ANSI() string {
	for i, p := range Palette {
		if p == c {
			return fmt.Sprint(i)
		}
	}
	return "7"
}

// Valid reports whether c is a known colour.
func (c Color) Valid() bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

var inverse = map[Color]Color{
	Black:   White,
	White:   Black,
	Blue:    Yellow,
	Yellow:  Blue,
	Green:   Magenta,
	Magenta: Green,
	Red:     Cyan,
	Cyan:    Red,
}

// Invert returns the opposing colour.
func (c Color) Invert() Color {
	if inv, ok := inverse[c]; ok {
		return inv
	}
	return c
}

// Theme is a complete colour scheme.
type Theme struct {
	Name       string `yaml:"name"`
	Background Color  `yaml:"background"`
	Text       Color  `yaml:"text"`
	PoweredOn  Color  `yaml:"powered_on"`
	PoweredOff Color  `yaml:"powered_off"`
	Suspended  Color  `yaml:"suspended"`
	Selected   Color  `yaml:"selected"`
	SelectedBg Color  `yaml:"selected_bg"`
	Bold       bool   `yaml:"bold"`
}

// Validate checks every colour is known, filling an empty Suspended with
// yellow for theme files written before it existed.
func (t *Theme) Validate() error {
	if t.Suspended == "" {
		t.Suspended = Yellow
	}
	fields := map[string]Color{
		"background":  t.Background,
		"text":        t.Text,
		"powered_on":  t.PoweredOn,
		"powered_off": t.PoweredOff,
		"suspended":   t.Suspended,
		"selected":    t.Selected,
		"selected_bg": t.SelectedBg,
	}
	for field, c := range fields {
		if !c.Valid() {
			return fmt.Errorf("theme %q: %s has unknown colour %q", t.Name, field, c)
		}
	}
	return nil
}

// Inverted applies the background and text inversion toggles.
func (t Theme) Inverted(background, text bool) Theme {
	if background {
		t.Background = t.Background.Invert()
		t.SelectedBg = t.SelectedBg.Invert()
	}
	if text {
		t.Text = t.Text.Invert()
		t.Selected = t.Selected.Invert()
	}
	return t
}

// DefaultName is the theme used when nothing else is selected.
const DefaultName = "ubuntu"

// RandomName is the slot a generated theme occupies until it is saved.
const RandomName = "random"

// BuiltinNames lists the built-in themes in display order.
var BuiltinNames = []string{"ubuntu", "matrix", "dracula", "solarized", "nord"}

var builtins = map[string]Theme{
	"ubuntu": {
		Name: "Ubuntu Server", Background: Blue, Text: White,
		PoweredOn: Green, PoweredOff: Red, Suspended: Yellow,
		Selected: Black, SelectedBg: White, Bold: true,
	},
	"matrix": {
		Name: "Matrix", Background: Black, Text: Green,
		PoweredOn: Green, PoweredOff: Red, Suspended: Yellow,
		Selected: Black, SelectedBg: Green, Bold: true,
	},
	"dracula": {
		Name: "Dracula", Background: Magenta, Text: White,
		PoweredOn: Green, PoweredOff: Red, Suspended: Yellow,
		Selected: Black, SelectedBg: White, Bold: true,
	},
	"solarized": {
		Name: "Solarized", Background: Cyan, Text: Black,
		PoweredOn: Green, PoweredOff: Red, Suspended: Yellow,
		Selected: White, SelectedBg: Black, Bold: true,
	},
	"nord": {
		Name: "Nord", Background: Cyan, Text: White,
		PoweredOn: Green, PoweredOff: Red, Suspended: Yellow,
		Selected: Black, SelectedBg: White, Bold: true,
	},
}

// Builtin returns a built-in theme by name.
func Builtin(name string) (Theme, bool) {
	t, ok := builtins[name]
	return t, ok
}

// IsBuiltin reports whether name is reserved by a built-in theme.
func IsBuiltin(name string) bool {
	_, ok := builtins[strings.ToLower(name)]
	return ok
}

// Random generates a theme whose text colour differs from its background.
func Random(r *rand.Rand) Theme {
	bg := Palette[r.Intn(len(Palette))]
	text := bg
	for text == bg {
		text = Palette[r.Intn(len(Palette))]
	}
	return Theme{
		Name:       "Random Theme",
		Background: bg,
		Text:       text,
		PoweredOn:  Green,
		PoweredOff: Red,
		Suspended:  Yellow,
		Selected:   bg,
		SelectedBg: text,
		Bold:       r.Intn(2) == 0,
	}
}
