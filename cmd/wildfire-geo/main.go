// Command wildfire-geo serves the address geocoding and wildfire enrichment
// API and exposes one-shot maintenance commands.
package main

import "os"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}
