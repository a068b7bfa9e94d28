package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "wildfire-geo",
		Short: "Address geocoding with NASA FIRMS wildfire enrichment",
		Long: `
wildfire-geo resolves free-form addresses to coordinates, caches them by their
normalized text, and attaches recent satellite fire detections from NASA FIRMS.
Configuration is read from the environment (and an optional .env file).
`,
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newRefreshCmd(),
		newLookupCmd(),
		newFirmsDecodeCmd(),
	)
	return root
}
