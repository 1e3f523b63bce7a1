// InfParquet CLI
// Metadata generation, archiving, and sidecar serving for columnar files
package main

import (
	"os"

	"github.com/infparquet/infparquet/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
