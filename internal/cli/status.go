package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured target, sources, keywords, and ledger size",
	RunE:  statusAction,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusAction(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	target := a.st.Target()
	if target == "" {
		target = "(not set)"
	}
	fmt.Printf("Target:   %s\n", target)

	fmt.Printf("Channels: %d\n", len(a.st.Channels()))
	for _, ch := range a.st.Channels() {
		fmt.Printf("  %s\n", ch)
	}
	fmt.Printf("Sites:    %d\n", len(a.st.Sites()))
	for _, s := range a.st.Sites() {
		fmt.Printf("  %s\n", s)
	}
	fmt.Printf("Feeds:    %d\n", len(a.st.Feeds()))
	for _, f := range a.st.Feeds() {
		fmt.Printf("  %s\n", f)
	}

	if kw := a.st.Keywords(); len(kw) > 0 {
		fmt.Printf("Keywords: %s\n", strings.Join(kw, ", "))
	} else {
		fmt.Println("Keywords: (none, everything passes)")
	}

	fmt.Printf("Ledger:   %d sent hashes\n", a.st.LedgerSize())
	return nil
}
