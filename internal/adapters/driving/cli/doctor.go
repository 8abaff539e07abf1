package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity to the configured model providers",
	Long: `Pings the configured embedding and completion providers and reports
whether each is reachable. Run before a long indexing job.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	if validateFn == nil {
		return errors.New("provider checks not configured")
	}

	failed := 0
	for _, check := range validateFn(context.Background()) {
		if check.Err != nil {
			cmd.Printf("FAIL  %s: %v\n", check.Name, check.Err)
			failed++
			continue
		}
		cmd.Printf("OK    %s\n", check.Name)
	}
	if failed > 0 {
		return fmt.Errorf("%d provider check(s) failed", failed)
	}
	return nil
}
