package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"paysight/internal/config"
	"paysight/internal/ui"
)

var encryptConfigCmd = &cobra.Command{
	Use:   "encrypt-config",
	Short: "Encrypt the warehouse password in the configuration file",
	Long: `Encrypt a plaintext warehouse password in the configuration file using
AES-256-GCM encryption.

This command will:
- Read your current configuration file
- Encrypt the password if it is plaintext
- Save the configuration and keep a backup of the original file

The encryption key is derived from:
1. PAYSIGHT_ENCRYPTION_KEY environment variable (if set)
2. Machine-specific identifier (hostname + home directory)

Passwords kept in the OS keyring (keyring:<account>) are left alone.`,
	Args: cobra.NoArgs,
	RunE: runEncryptConfig,
}

var configBackup bool

func init() {
	rootCmd.AddCommand(encryptConfigCmd)

	encryptConfigCmd.Flags().BoolVar(&configBackup, "backup", true, "Create backup of original config")
}

func runEncryptConfig(cmd *cobra.Command, args []string) error {
	configFile := config.GetConfigFile()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Reading configuration from: %s\n", configFile)

	data, err := os.ReadFile(configFile) // #nosec G304 - path comes from the user's own flag or env
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// re-read without overrides so env values never land in the file
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	password := cfg.Warehouse.Password
	switch {
	case password == "":
		fmt.Fprintln(out, "No password in the configuration")
		return nil
	case config.IsEncrypted(password):
		fmt.Fprintln(out, "Password is already encrypted")
		return nil
	case config.IsKeyringRef(password):
		fmt.Fprintln(out, "Password is kept in the OS keyring")
		return nil
	}

	if configBackup {
		backupFile := configFile + ".backup"
		if err := os.WriteFile(backupFile, data, 0600); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		fmt.Fprintf(out, "Created backup: %s\n", backupFile)
	}

	if err := config.EncryptConfigPasswords(cfg); err != nil {
		return fmt.Errorf("failed to encrypt password: %w", err)
	}

	configData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configFile, configData, 0600); err != nil {
		return fmt.Errorf("failed to save encrypted config: %w", err)
	}

	ui.ShowSuccess("Configuration password encrypted successfully")
	fmt.Fprintln(out, "Set PAYSIGHT_ENCRYPTION_KEY on other machines to decrypt the same file.")
	return nil
}
