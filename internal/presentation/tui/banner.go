package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  _        _                   ", "#4fc3f7"},
	{" | |_ _ __(_) __ _  __ _  ___  ", "#29b6f6"},
	{" | __| '__| |/ _` |/ _` |/ _ \\ ", "#03a9f4"},
	{" | |_| |  | | (_| | (_| |  __/ ", "#039be5"},
	{"  \\__|_|  |_|\\__,_|\\__, |\\___| ", "#0288d1"},
	{"                   |___/       ", "#0277bd"},
}

// PrintBanner writes the triage ASCII banner to w, colored for the terminal profile.
func PrintBanner(w io.Writer, title string) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if title != "" {
		fmt.Fprintln(w, termenv.String(" "+title).Bold())
	}
	fmt.Fprintln(w)
}
