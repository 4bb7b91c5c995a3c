package bootstrap

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
)

// PrintBanner writes the application name as ASCII art. Only used in dev mode.
func PrintBanner(w io.Writer, appname string) {
	fig := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, fig.String())
}
