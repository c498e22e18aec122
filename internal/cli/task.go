package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/workstake-network/workstake/internal/daemon"
)

func init() {
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	rootCmd.AddCommand(taskCmd)
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect marketplace tasks",
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all tasks",
	RunE:    runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

func runTaskList(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(cliVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	tasks := d.Engine.ListTasks(nil)
	if len(tasks) == 0 {
		fmt.Println("No tasks yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tCATEGORY\tREWARD\tCREATOR\tMEMBER\tTITLE")
	for _, t := range tasks {
		member := string(t.Member)
		if member == "" {
			member = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			t.ID, t.Status, t.Category, t.Reward, t.Creator, member, t.Title)
	}
	return w.Flush()
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task id %q", args[0])
	}

	d, err := daemon.New(cliVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	t, err := d.Engine.GetTask(id)
	if err != nil {
		return err
	}

	fmt.Printf("Task #%d: %s\n", t.ID, t.Title)
	fmt.Printf("  Status:        %s\n", t.Status)
	fmt.Printf("  Category:      %s\n", t.Category)
	fmt.Printf("  Creator:       %s\n", t.Creator)
	if !t.Member.IsZero() {
		fmt.Printf("  Member:        %s\n", t.Member)
	}
	fmt.Printf("  Reward:        %d\n", t.Reward)
	fmt.Printf("  Creator stake: %d (locked: %v)\n", t.CreatorStake, t.CreatorStakeLocked)
	fmt.Printf("  Member stake:  %d (locked: %v)\n", t.MemberStake, t.MemberStakeLocked)
	fmt.Printf("  Deadline:      %dh", t.DeadlineHours)
	if !t.DeadlineAt.IsZero() {
		fmt.Printf(" (at %s)", t.DeadlineAt.Format("2006-01-02 15:04"))
	}
	fmt.Println()
	fmt.Printf("  Max revisions: %d\n", t.MaxRevision)

	if reqs, err := d.Engine.Requests(t.ID); err == nil && len(reqs) > 0 {
		fmt.Println("  Join requests:")
		for _, jr := range reqs {
			fmt.Printf("    %s  %s  stake=%d\n", jr.Applicant, jr.Status, jr.StakeAmount)
		}
	}
	if sub, err := d.Engine.GetSubmission(t.ID); err == nil {
		fmt.Printf("  Submission:    %s (revision %d) %s\n", sub.Status, sub.RevisionTime, sub.Reference)
	}
	return nil
}
