package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Segment bits as wired to the display shift register
const (
	SegA  byte = 0x80
	SegB  byte = 0x01
	SegC  byte = 0x04
	SegD  byte = 0x10
	SegE  byte = 0x20
	SegF  byte = 0x40
	SegG  byte = 0x02
	SegDP byte = 0x08
)

// NumDigits is the width of the display
const NumDigits = 4

// Segments holds one pattern per digit, left to right
type Segments [NumDigits]byte

var digitSegments = [10]byte{
	SegA | SegB | SegC | SegD | SegE | SegF,
	SegB | SegC,
	SegA | SegB | SegD | SegE | SegG,
	SegA | SegB | SegC | SegD | SegG,
	SegB | SegC | SegF | SegG,
	SegA | SegC | SegD | SegF | SegG,
	SegA | SegC | SegD | SegE | SegF | SegG,
	SegA | SegB | SegC,
	SegA | SegB | SegC | SegD | SegE | SegF | SegG,
	SegA | SegB | SegC | SegF | SegG,
}

// Some letters only approximate on seven segments (M, W, X)
var letterSegments = [26]byte{
	SegA | SegB | SegC | SegE | SegF | SegG, // A
	SegC | SegD | SegE | SegF | SegG,        // b
	SegA | SegD | SegE | SegF,               // C
	SegB | SegC | SegD | SegE | SegG,        // d
	SegA | SegD | SegE | SegF | SegG,        // E
	SegA | SegE | SegF | SegG,               // F
	SegA | SegC | SegD | SegE | SegF,        // G
	SegB | SegC | SegE | SegF | SegG,        // H
	SegB | SegC,                             // I
	SegB | SegC | SegD,                      // J
	SegA | SegB | SegE | SegF | SegG,        // K
	SegD | SegE | SegF,                      // L
	SegA | SegB | SegC | SegE | SegF,        // M
	SegA | SegB | SegC | SegE | SegF,        // N
	SegC | SegD | SegE | SegG,               // o
	SegA | SegB | SegE | SegF | SegG,        // P
	SegA | SegB | SegC | SegD | SegE,        // Q
	SegE | SegG,                             // r
	SegA | SegC | SegD | SegF | SegG,        // S
	SegD | SegE | SegF | SegG,               // t
	SegB | SegC | SegD | SegE | SegF,        // U
	SegC | SegD | SegE,                      // v
	SegA | SegC | SegD | SegE,               // W
	SegD | SegG,                             // X
	SegB | SegC | SegD | SegF | SegG,        // y
	SegA | SegD | SegE | SegG,               // Z
}

// SegmentsForChar returns the pattern for one character. Unknown
// characters are blank.
func SegmentsForChar(r rune) byte {
	switch {
	case r >= '0' && r <= '9':
		return digitSegments[r-'0']
	case r >= 'A' && r <= 'Z':
		return letterSegments[r-'A']
	case r >= 'a' && r <= 'z':
		return letterSegments[r-'a']
	case r == '-':
		return SegG
	case r == '_':
		return SegD
	case r == '.':
		return SegDP
	}
	return 0
}

// SegmentsForText shows the first four characters of s
func SegmentsForText(s string) Segments {
	var segs Segments
	i := 0
	for _, r := range s {
		if i == NumDigits {
			break
		}
		segs[i] = SegmentsForChar(r)
		i++
	}
	return segs
}

// SegmentsForNumber shows n in the digits from start to the right edge.
// Digits left of start are blank. A start outside the display lights
// every decimal point instead.
func SegmentsForNumber(n, start int) Segments {
	var segs Segments
	if start < 0 || start >= NumDigits {
		for i := range segs {
			segs[i] = SegDP
		}
		return segs
	}
	n = max(n, 0)
	div := 1
	for i := start; i < NumDigits-1; i++ {
		div *= 10
	}
	for i := start; i < NumDigits; i++ {
		segs[i] = digitSegments[(n/div)%10]
		div /= 10
	}
	return segs
}

// SegmentsForValue right-aligns n using as many digits as it needs
func SegmentsForValue(n int) Segments {
	digits := 1
	for v := max(n, 0); v >= 10; v /= 10 {
		digits++
	}
	return SegmentsForNumber(n, max(NumDigits-digits, 0))
}

// RenderSegments draws the display three rows high:
//
//	 _
//	|_|
//	|_|.
func RenderSegments(segs Segments, lit lipgloss.Style) string {
	var rows [3]strings.Builder
	on := func(b byte, mask byte, s string) string {
		if b&mask == 0 {
			return strings.Repeat(" ", len(s))
		}
		return lit.Render(s)
	}
	for i, b := range segs {
		if i > 0 {
			for r := range rows {
				rows[r].WriteString(" ")
			}
		}
		rows[0].WriteString(" " + on(b, SegA, "_") + "  ")
		rows[1].WriteString(on(b, SegF, "|") + on(b, SegG, "_") + on(b, SegB, "|") + " ")
		rows[2].WriteString(on(b, SegE, "|") + on(b, SegD, "_") + on(b, SegC, "|") + on(b, SegDP, "."))
	}
	return rows[0].String() + "\n" + rows[1].String() + "\n" + rows[2].String()
}
