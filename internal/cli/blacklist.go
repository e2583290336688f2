package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var blacklistCmd = &cobra.Command{
	Use:   "blacklist",
	Short: "Manage phrases scrubbed from outgoing messages",
}

var blacklistAddCmd = &cobra.Command{
	Use:   "add <phrase>...",
	Short: "Add a blacklist phrase",
	Args:  cobra.MinimumNArgs(1),
	RunE:  blacklistAddAction,
}

var blacklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blacklist phrases",
	RunE:  blacklistListAction,
}

func init() {
	blacklistCmd.AddCommand(blacklistAddCmd, blacklistListCmd)
	rootCmd.AddCommand(blacklistCmd)
}

func blacklistAddAction(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	phrase := strings.Join(args, " ")
	if err := a.controller().AddBlacklistPhrase(cmd.Context(), phrase); err != nil {
		return err
	}
	fmt.Printf("Blacklisted %q.\n", phrase)
	return nil
}

func blacklistListAction(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	phrases, err := a.controller().BlacklistPhrases(cmd.Context())
	if err != nil {
		return err
	}
	if len(phrases) == 0 {
		fmt.Println("(no phrases)")
		return nil
	}
	for _, p := range phrases {
		fmt.Println(p)
	}
	return nil
}
