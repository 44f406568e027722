package present

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Gradient endpoints, AWS orange into a deep indigo.
const (
	gradientStart = "#FF9900"
	gradientEnd   = "#6B50FF"
)

// GradientRamp returns n colors blended from the gradient start to its end.
func GradientRamp(n int) []lipgloss.Color {
	start, _ := colorful.Hex(gradientStart)
	end, _ := colorful.Hex(gradientEnd)
	ramp := make([]lipgloss.Color, n)
	for i := range n {
		ramp[i] = lipgloss.Color(start.BlendLuv(end, float64(i)/float64(n)).Hex())
	}
	return ramp
}

// GradientText renders str one rune at a time along the ramp. Strings shorter
// than three runes are returned unstyled.
func GradientText(base lipgloss.Style, str string) string {
	runes := []rune(str)
	if len(runes) < 3 {
		return str
	}
	var b strings.Builder
	for i, c := range GradientRamp(len(runes)) {
		b.WriteString(base.Foreground(c).Render(string(runes[i])))
	}
	return b.String()
}
