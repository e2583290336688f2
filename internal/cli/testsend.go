package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var testSendCmd = &cobra.Command{
	Use:   "test-send [message]",
	Short: "Send a test message to the target channel",
	RunE:  testSendAction,
}

func init() {
	rootCmd.AddCommand(testSendCmd)
}

func testSendAction(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireToken(); err != nil {
		return err
	}

	text := "chanrelay test message"
	if len(args) > 0 {
		text = strings.Join(args, " ")
	}

	if err := a.controller().TestSend(cmd.Context(), text); err != nil {
		return err
	}
	fmt.Printf("Sent to %s.\n", a.st.Target())
	return nil
}
