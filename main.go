// chanrelay harvests content from Telegram channels, websites, and feeds,
// filters it against keyword and blacklist rules, and republishes new items
// to a destination channel.
package main

import (
	"os"

	"github.com/msolovyev/chanrelay/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
