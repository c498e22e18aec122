package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workstake-network/workstake/internal/daemon"
	"github.com/workstake-network/workstake/internal/domain"
)

func init() {
	userCmd.AddCommand(userRegisterCmd)
	userCmd.AddCommand(userShowCmd)
	rootCmd.AddCommand(userCmd)
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage marketplace users",
}

var userRegisterCmd = &cobra.Command{
	Use:   "register <identity> [display-name] [contact]",
	Short: "Register a user in the marketplace",
	Args:  cobra.RangeArgs(1, 3),
	RunE:  runUserRegister,
}

var userShowCmd = &cobra.Command{
	Use:   "show <identity>",
	Short: "Show a user's profile and reputation",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserShow,
}

func runUserRegister(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(cliVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	var displayName, contact string
	if len(args) > 1 {
		displayName = args[1]
	}
	if len(args) > 2 {
		contact = args[2]
	}

	u, err := d.Engine.RegisterUser(domain.Identity(args[0]), displayName, contact)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s (reputation %d)\n", u.ID, u.Reputation)
	return nil
}

func runUserShow(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(cliVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	u, err := d.Engine.GetUser(domain.Identity(args[0]))
	if err != nil {
		return err
	}

	fmt.Printf("User %s\n", u.ID)
	if u.DisplayName != "" {
		fmt.Printf("  Name:       %s\n", u.DisplayName)
	}
	if u.Contact != "" {
		fmt.Printf("  Contact:    %s\n", u.Contact)
	}
	fmt.Printf("  Reputation: %d\n", u.Reputation)
	fmt.Printf("  Created:    %d tasks\n", u.TasksCreated)
	fmt.Printf("  Completed:  %d tasks\n", u.TasksCompleted)
	fmt.Printf("  Failed:     %d tasks\n", u.TasksFailed)
	fmt.Printf("  Registered: %s\n", u.RegisteredAt.Format("2006-01-02 15:04"))
	fmt.Printf("  Balance:    %d\n", d.Engine.BalanceOf(u.ID))
	return nil
}
