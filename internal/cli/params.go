package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/workstake-network/workstake/internal/app/params"
	"github.com/workstake-network/workstake/internal/daemon"
	"github.com/workstake-network/workstake/internal/domain"
)

func init() {
	paramsCmd.AddCommand(paramsShowCmd)
	paramsCmd.AddCommand(paramsCheckCmd)
	paramsCmd.AddCommand(paramsSetCmd)
	rootCmd.AddCommand(paramsCmd)
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Inspect economic parameters",
}

var paramsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active parameters as YAML",
	RunE:  runParamsShow,
}

var paramsCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a YAML parameter file without applying it",
	Args:  cobra.ExactArgs(1),
	RunE:  runParamsCheck,
}

var paramsSetCmd = &cobra.Command{
	Use:   "set <file>",
	Short: "Apply a YAML parameter file as the configured owner",
	Args:  cobra.ExactArgs(1),
	RunE:  runParamsSet,
}

func runParamsShow(cmd *cobra.Command, args []string) error {
	d, err := daemon.New(cliVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	out, err := yaml.Marshal(d.Engine.Params())
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func runParamsCheck(cmd *cobra.Command, args []string) error {
	if _, err := readParamsFile(args[0]); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func runParamsSet(cmd *cobra.Command, args []string) error {
	p, err := readParamsFile(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New(cliVersion)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Engine.SetParams(domain.Identity(d.Config.Node.Owner), p); err != nil {
		return err
	}
	fmt.Println("Parameters applied.")
	return nil
}

func readParamsFile(path string) (params.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return params.Params{}, err
	}

	var p params.Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return params.Params{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return params.Params{}, fmt.Errorf("invalid parameters: %w", err)
	}
	return p, nil
}
