// Command ingestctl stages, infers, and maps semi-structured data into a
// target schema. See internal/cli for the command tree.
package main

import (
	"os"

	"github.com/flowforge/ingestcore/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
