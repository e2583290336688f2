package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Show the destination channel",
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if t := a.st.Target(); t != "" {
			fmt.Println(t)
		} else {
			fmt.Println("(not set)")
		}
		return nil
	},
}

var targetSetCmd = &cobra.Command{
	Use:   "set <@channel|t.me link>",
	Short: "Set the destination channel",
	Args:  cobra.ExactArgs(1),
	RunE:  targetSetAction,
}

func init() {
	targetCmd.AddCommand(targetSetCmd)
	rootCmd.AddCommand(targetCmd)
}

func targetSetAction(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireToken(); err != nil {
		return err
	}

	channel, err := a.controller().SetTarget(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Target set to %s.\n", channel)
	return nil
}
