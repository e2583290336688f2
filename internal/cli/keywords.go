package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Show the keyword filter",
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if kw := a.st.Keywords(); len(kw) > 0 {
			fmt.Println(strings.Join(kw, ", "))
		} else {
			fmt.Println("(none, everything passes)")
		}
		return nil
	},
}

var keywordsSetCmd = &cobra.Command{
	Use:   "set <word>... | set -",
	Short: "Replace the keyword filter; a single '-' clears it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  keywordsSetAction,
}

func init() {
	keywordsCmd.AddCommand(keywordsSetCmd)
	rootCmd.AddCommand(keywordsCmd)
}

func keywordsSetAction(_ *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.controller().SetKeywords(args); err != nil {
		return err
	}
	if kw := a.st.Keywords(); len(kw) > 0 {
		fmt.Printf("Keywords set: %s.\n", strings.Join(kw, ", "))
	} else {
		fmt.Println("Keyword filter cleared.")
	}
	return nil
}
