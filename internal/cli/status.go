package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workstake-network/workstake/internal/daemon"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show marketplace aggregate statistics",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(cliVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	s := d.Engine.Stats()

	fmt.Println("Workstake marketplace")
	fmt.Printf("  Users:             %d\n", s.Users)
	fmt.Printf("  Tasks:             %d\n", s.TotalTasks)
	fmt.Printf("    created:         %d\n", s.Created)
	fmt.Printf("    active:          %d\n", s.Active)
	fmt.Printf("    open:            %d\n", s.OpenRegistration)
	fmt.Printf("    in progress:     %d\n", s.InProgress)
	fmt.Printf("    completed:       %d\n", s.Completed)
	fmt.Printf("    cancelled:       %d\n", s.Cancelled)
	fmt.Printf("  Escrow locked:     %d\n", s.EscrowLocked)
	fmt.Printf("  Fee pot:           %d\n", s.FeePot)
	fmt.Printf("  Ledger total:      %d\n", s.LedgerTotal)
	return nil
}
