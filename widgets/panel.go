package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LED symbols
const (
	LEDOn  = "●"
	LEDOff = "○"
)

// RenderLED renders a single LED
func RenderLED(lit bool, on, off lipgloss.Style) string {
	if lit {
		return on.Render(LEDOn)
	}
	return off.Render(LEDOff)
}

// RenderLEDs renders a row of LEDs with spacing
func RenderLEDs(levels []bool, on, off lipgloss.Style) string {
	var out strings.Builder
	for i, lit := range levels {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderLED(lit, on, off))
	}
	return out.String()
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
