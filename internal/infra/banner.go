package infra

import (
	"fmt"
	"io"
	"strings"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner. A non-production endpoint is
// highlighted so a mock run is never mistaken for live data.
func PrintBanner(w io.Writer, cfg *Config) {
	endpoint := cfg.API.Coinranking.BaseURL
	version := cfg.App.Version
	if version == "" {
		version = "dev"
	}

	color := ColorGreen
	source := "LIVE API"
	if !strings.Contains(endpoint, "coinranking.com") {
		color = ColorYellow
		source = "CUSTOM ENDPOINT"
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#               Coinranking Market Client                 #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#   SOURCE:  %-44s #%s\n", color, source, ColorReset)
	fmt.Fprintf(w, "%s#   STORAGE: %-44s #%s\n", color, strings.ToUpper(cfg.Storage.Driver), ColorReset)
	fmt.Fprintf(w, "%s#   VERSION: %-44s #%s\n", color, version, ColorReset)
	fmt.Fprintf(w, "%s#                                                         #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintln(w)
}
