package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesAsFeed bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage harvested sources",
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <url|@channel|t.me link>",
	Short: "Add a website, feed, or channel source",
	Args:  cobra.ExactArgs(1),
	RunE:  sourcesAddAction,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a source",
	Args:  cobra.ExactArgs(1),
	RunE:  sourcesRemoveAction,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  sourcesListAction,
}

func init() {
	sourcesAddCmd.Flags().BoolVar(&sourcesAsFeed, "feed", false, "treat the URL as an RSS/Atom feed instead of a page to scrape")
	sourcesCmd.AddCommand(sourcesAddCmd, sourcesRemoveCmd, sourcesListCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func sourcesAddAction(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	c := a.controller()
	var id string
	if sourcesAsFeed {
		id, err = c.AddFeed(cmd.Context(), args[0])
	} else {
		id, err = c.AddSource(cmd.Context(), args[0])
	}
	if err != nil {
		return err
	}
	fmt.Printf("Added %s.\n", id)
	return nil
}

func sourcesRemoveAction(_ *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.controller().RemoveSource(args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed %s.\n", args[0])
	return nil
}

func sourcesListAction(_ *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	for _, ch := range a.st.Channels() {
		fmt.Printf("channel  %s\n", ch)
	}
	for _, s := range a.st.Sites() {
		fmt.Printf("site     %s\n", s)
	}
	for _, f := range a.st.Feeds() {
		fmt.Printf("feed     %s\n", f)
	}
	return nil
}
