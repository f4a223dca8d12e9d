package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Theme defines the color scheme shared by every surface.
type Theme struct {
	Name       string
	Background color.RGBA
	Grid       color.RGBA
	Axis       color.RGBA
	Text       color.RGBA
	Muted      color.RGBA
	Accent     color.RGBA
	Highlight  color.RGBA
	Classes    []color.RGBA
}

var (
	ThemeLight = Theme{
		Name:       "light",
		Background: Hex("#ffffff"),
		Grid:       Hex("#f0f0f0"),
		Axis:       Hex("#333333"),
		Text:       Hex("#333333"),
		Muted:      Hex("#999999"),
		Accent:     Hex("#ef4444"),
		Highlight:  Hex("#10b981"),
		Classes: []color.RGBA{
			Hex("#3b82f6"), Hex("#ef4444"), Hex("#10b981"),
			Hex("#f59e0b"), Hex("#8b5cf6"), Hex("#ec4899"),
		},
	}

	ThemeCyberpunk = Theme{
		Name:       "cyberpunk",
		Background: Hex("#0a0a0a"),
		Grid:       Hex("#1a1a2a"),
		Axis:       Hex("#666666"),
		Text:       Hex("#ffffff"),
		Muted:      Hex("#666666"),
		Accent:     Hex("#ff00ff"),
		Highlight:  Hex("#ffff00"),
		Classes: []color.RGBA{
			Hex("#00ffff"), Hex("#ff00ff"), Hex("#00ff00"),
			Hex("#ff8800"), Hex("#8888ff"), Hex("#ff4444"),
		},
	}

	ThemeRetroGreen = Theme{
		Name:       "retro",
		Background: Hex("#001100"),
		Grid:       Hex("#002200"),
		Axis:       Hex("#005500"),
		Text:       Hex("#00ff00"),
		Muted:      Hex("#005500"),
		Accent:     Hex("#88ff88"),
		Highlight:  Hex("#ffff00"),
		Classes: []color.RGBA{
			Hex("#00ff00"), Hex("#88ff88"), Hex("#00cc00"),
			Hex("#ccff00"), Hex("#00ffaa"), Hex("#aaff55"),
		},
	}

	ThemeOcean = Theme{
		Name:       "ocean",
		Background: Hex("#001a33"),
		Grid:       Hex("#002a4d"),
		Axis:       Hex("#4488aa"),
		Text:       Hex("#e0f0ff"),
		Muted:      Hex("#4488aa"),
		Accent:     Hex("#ffd700"),
		Highlight:  Hex("#00ff88"),
		Classes: []color.RGBA{
			Hex("#00a8cc"), Hex("#ff4444"), Hex("#00ff88"),
			Hex("#ffcc00"), Hex("#aa88ff"), Hex("#ff88cc"),
		},
	}

	DefaultTheme = ThemeLight

	Themes = []Theme{ThemeLight, ThemeCyberpunk, ThemeRetroGreen, ThemeOcean}
)

// GetTheme returns a theme by name, falling back to DefaultTheme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return DefaultTheme
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Class returns the color for a class index, cycling through the palette.
// Negative labels (unlabelled samples) get the muted color.
func (t Theme) Class(i int) color.RGBA {
	if i < 0 || len(t.Classes) == 0 {
		return t.Muted
	}
	return t.Classes[i%len(t.Classes)]
}

// Hex parses #rgb or #rrggbb. Invalid input yields opaque black.
func Hex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return c
}

func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// ToHex formats an opaque color as #rrggbb.
func ToHex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Alpha returns c with its alpha channel replaced.
func Alpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}
