// Package textflow breaks descriptive text into lines that fit a fixed column
// and assigns each line its vertical position.
package textflow

import (
	"iter"
	"slices"
	"strings"
)

// Measurer reports the rendered width of a string in layout units.
// *gofpdf.Fpdf satisfies it once a font is selected.
type Measurer interface {
	GetStringWidth(s string) float64
}

// MeasurerFunc adapts a plain function to Measurer.
type MeasurerFunc func(s string) float64

// GetStringWidth implements Measurer.
func (f MeasurerFunc) GetStringWidth(s string) float64 {
	return f(s)
}

// Placement is one physical output line.
type Placement struct {
	Text string
	Y    float64
}

// Wrap word-wraps a single raw line to maxWidth. Words are never split; a word
// wider than the column gets a line of its own. A blank line yields one empty
// line so it still takes vertical space.
func Wrap(line string, maxWidth float64, m Measurer) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	out := make([]string, 0, 1)
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if m.GetStringWidth(candidate) <= maxWidth {
			current = candidate
			continue
		}
		out = append(out, current)
		current = word
	}
	return append(out, current)
}

// Flow lazily yields the placements of every wrapped line, starting at startY
// and advancing by lineHeight per emitted line across all raw lines. The
// returned sequence can be ranged over any number of times.
func Flow(lines []string, maxWidth, lineHeight, startY float64, m Measurer) iter.Seq[Placement] {
	snapshot := slices.Clone(lines)
	return func(yield func(Placement) bool) {
		y := startY
		for _, raw := range snapshot {
			for _, text := range Wrap(raw, maxWidth, m) {
				if !yield(Placement{Text: text, Y: y}) {
					return
				}
				y += lineHeight
			}
		}
	}
}

// Count returns the number of physical lines the raw lines wrap into.
func Count(lines []string, maxWidth float64, m Measurer) int {
	n := 0
	for _, raw := range lines {
		n += len(Wrap(raw, maxWidth, m))
	}
	return n
}

// Height is the vertical space consumed by Flow for the same inputs.
func Height(lines []string, maxWidth, lineHeight float64, m Measurer) float64 {
	return float64(Count(lines, maxWidth, m)) * lineHeight
}
