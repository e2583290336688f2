package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/msolovyev/chanrelay/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config directory with an example config.yaml",
	RunE:  initAction,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig))
	if err != nil {
		return err
	}

	if !wrote {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s.\n", configDir)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# chanrelay configuration

telegram:
  token_env: CHANRELAY_BOT_TOKEN
  # Reading channel history requires a user session; point collector at
  # scripts/collector_channels.py and log in once by running it manually.
  collector: scripts/collector_channels.py
  python_path: python3
  session_dir: .chanrelay/session

scan:
  interval: 60s
  winddown: 5s
  channel_limit: 50
  site_timeout: 30s

storage:
  state_path: .chanrelay/state.json
  blacklist_path: .chanrelay/blacklist.db
  # 0 keeps every sent hash forever.
  max_ledger_entries: 0

publish:
  signature: ""
  send_rate: 1.0
  resolve_retries: 2
`
