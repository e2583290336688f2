package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/msolovyev/chanrelay/internal/config"
	"github.com/msolovyev/chanrelay/internal/store"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system health and dependencies",
	RunE:  doctorAction,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorAction(_ *cobra.Command, _ []string) error {
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		ok = false
	} else {
		printCheck(true, "config.yaml")
	}

	// Bot token
	if cfg != nil {
		if cfg.Telegram.Token == "" {
			printCheck(false, "bot token (export %s)", cfg.Telegram.TokenEnv)
			ok = false
		} else {
			printCheck(true, "bot token")
		}
	}

	// State document
	if cfg != nil {
		if _, err := os.Stat(cfg.Storage.StatePath); err != nil {
			printInfo("state %s not created yet (first mutation will create it)", cfg.Storage.StatePath)
		} else {
			printCheck(true, "state %s", cfg.Storage.StatePath)
		}
	}

	// Blacklist database
	if cfg != nil {
		db, err := store.Open(cfg.Storage.BlacklistPath)
		if err != nil {
			printCheck(false, "blacklist db: %v", err)
			ok = false
		} else {
			_ = db.Close()
			printCheck(true, "blacklist db %s", cfg.Storage.BlacklistPath)
		}
	}

	// Python
	if _, err := exec.LookPath("python3"); err != nil {
		printCheck(false, "python3 not found")
		ok = false
	} else {
		printCheck(true, "python3")
	}

	// Telethon
	cmd := exec.Command("python3", "-c", "import telethon")
	if err := cmd.Run(); err != nil {
		printCheck(false, "telethon not installed (pip install telethon)")
		ok = false
	} else {
		printCheck(true, "telethon")
	}

	// Collector script
	if cfg != nil && cfg.Telegram.Collector != "" {
		if info, err := os.Stat(cfg.Telegram.Collector); err != nil {
			printCheck(false, "collector script: %v", err)
			ok = false
		} else if info.IsDir() {
			printCheck(false, "collector script: %s is a directory", cfg.Telegram.Collector)
			ok = false
		} else {
			printCheck(true, "collector script %s", cfg.Telegram.Collector)
		}
	}

	// Telegram user session
	if cfg != nil && cfg.Telegram.SessionDir != "" {
		sessionFile := filepath.Join(cfg.Telegram.SessionDir, "chanrelay.session")
		if _, err := os.Stat(sessionFile); err != nil {
			printCheck(false, "telegram session (run the collector script manually first)")
			ok = false
		} else {
			printCheck(true, "telegram session")
		}
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("[INFO] %s\n", fmt.Sprintf(format, args...))
}
