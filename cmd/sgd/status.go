package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show pending requests, pending proofs and confirmed recipients",
	GroupID: "views",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := sgClient.Status(context.Background())
		if err != nil {
			return fmt.Errorf("getting status: %w", err)
		}
		if jsonOutput {
			printJSON(st)
			return nil
		}
		printStatus(stdout, st)
		return nil
	},
}
