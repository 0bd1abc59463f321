// Command tabconv converts tabular files from the command line.
package main

import (
	"os"

	"github.com/JonMunkholm/tabconv/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
