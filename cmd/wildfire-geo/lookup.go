package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/firms"
)

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <address>",
		Short: "Resolve an address through the cache and print the stored record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			addr, err := a.resolver.Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(addr)
		},
	}
}

// newFirmsDecodeCmd parses a saved FIRMS area CSV the same way the live client
// does, which helps when checking what a given download would store.
func newFirmsDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "firms-decode <file.csv>",
		Short: "Decode a FIRMS area CSV file into detection records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			records, err := firms.DecodeCSV(string(body))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"count":   len(records),
				"records": records,
			})
		},
	}
}
