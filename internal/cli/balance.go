package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/workstake-network/workstake/internal/daemon"
	"github.com/workstake-network/workstake/internal/domain"
)

func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.Flags().IntVar(&ledgerLimit, "limit", 50, "Maximum entries to show")
}

var ledgerLimit int

var balanceCmd = &cobra.Command{
	Use:   "balance <identity>",
	Short: "Show an identity's withdrawable balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runBalance,
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show recent ledger entries",
	RunE:  runLedger,
}

func runBalance(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(cliVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	id := domain.Identity(args[0])
	fmt.Printf("%s: %d\n", id, d.Engine.BalanceOf(id))
	return nil
}

func runLedger(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(cliVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	entries := d.Engine.LedgerEntries(ledgerLimit)
	if len(entries) == 0 {
		fmt.Println("Ledger is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tKIND\tACCOUNT\tAMOUNT\tBALANCE\tREASON")
	for _, en := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			en.Timestamp.Format("2006-01-02 15:04:05"),
			en.Kind, en.Account, en.Amount, en.Balance, en.Reason)
	}
	return w.Flush()
}
