package display

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/backmassage/hdrbatch/internal/term"
)

const banner = ` _         _      _           _       _
| |__   __| |_ __| |__   __ _| |_ ___| |__
| '_ \ / _` + "`" + ` | '__| '_ \ / _` + "`" + ` | __/ __| '_ \
| | | | (_| | |  | |_) | (_| | || (__| | | |
|_| |_|\__,_|_|  |_.__/ \__,_|\__\___|_| |_|`

// PrintBanner prints the ASCII art banner to w; magenta if colors are enabled.
func PrintBanner(w io.Writer) {
	if !term.Enabled() {
		fmt.Fprintln(w, banner)
		return
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI)
	style := r.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	fmt.Fprintln(w, style.Render(banner))
}
