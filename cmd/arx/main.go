// Command arx is the control-plane CLI: it lints and runs flow
// registries, renders flow diagrams, launches queue workers, and
// asserts the metrics gate used in CI.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

	root := newRootCmd(log)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
