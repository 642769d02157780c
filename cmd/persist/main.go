// persist saves and loads an application record in a key-value store.
package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-persist/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
