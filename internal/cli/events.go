package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/workstake-network/workstake/internal/daemon"
)

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "Maximum events to show")
	rootCmd.AddCommand(eventsCmd)
}

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent marketplace events",
	RunE:  runEvents,
}

func runEvents(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(cliVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	events := d.Engine.Events(eventsLimit)
	if len(events) == 0 {
		fmt.Println("No events recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTYPE\tTASK\tACTOR\tAMOUNT")
	for _, ev := range events {
		task := "-"
		if ev.TaskID > 0 {
			task = fmt.Sprintf("#%d", ev.TaskID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			ev.At.Format("2006-01-02 15:04:05"),
			ev.Type, task, ev.Actor, ev.Amount)
	}
	return w.Flush()
}
