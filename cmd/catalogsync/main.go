// Command catalogsync discovers catalog files across Bitbucket Cloud
// workspaces and keeps the downstream catalog's location records in sync.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
