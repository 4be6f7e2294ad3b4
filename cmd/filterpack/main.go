// Command filterpack renders, serves and explores pages of cascading
// filter widgets.
package main

import (
	"os"

	"github.com/goliatone/go-filterpack/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
