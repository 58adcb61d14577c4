package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"paysight/internal/config"
	"paysight/internal/ui"
	"paysight/internal/warehouse"
	"paysight/pkg/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Initial configuration setup",
	Long: `Ask for the warehouse connection details and write the config file.

The password is kept in the OS keyring when one is available, otherwise it
is stored encrypted in the config file.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	ui.ShowHeader("paysight setup")

	if config.Exists() {
		overwrite, err := prompter.Confirm("Configuration already exists. Do you want to overwrite it?", false)
		if err != nil {
			return err
		}
		if !overwrite {
			ui.ShowInfo("Setup cancelled.")
			return nil
		}
	}

	cfg := &models.Config{}
	config.ApplyDefaults(cfg)
	w := &cfg.Warehouse

	drivers := make([]string, len(warehouse.Drivers))
	for i, d := range warehouse.Drivers {
		drivers[i] = string(d)
	}
	def := string(driverFlag)
	if def == "" {
		def = drivers[0]
	}
	answer, err := prompter.Select("Warehouse driver:", drivers, def)
	if err != nil {
		return err
	}
	driver, err := warehouse.ParseDriver(answer)
	if err != nil {
		return err
	}
	w.Driver = string(driver)

	ask := func(message, def string, dst *string) error {
		value, err := prompter.Input(message, def)
		if err != nil {
			return err
		}
		*dst = value
		return nil
	}

	if driver == warehouse.DriverSnowflake {
		if err := ask("Snowflake account (e.g., xy12345.us-east-1):", "", &w.Account); err != nil {
			return err
		}
		if err := ask("Warehouse:", "COMPUTE_WH", &w.Warehouse); err != nil {
			return err
		}
		if err := ask("Role:", "", &w.Role); err != nil {
			return err
		}
	} else {
		if err := ask("Host:", "localhost", &w.Host); err != nil {
			return err
		}
		port, err := ui.InputInt(prompter, "Port:", warehouse.DefaultPort(driver))
		if err != nil {
			return err
		}
		w.Port = port
	}

	if err := ask("Username:", "", &w.Username); err != nil {
		return err
	}
	if err := ask("Database:", "phonepe", &w.Database); err != nil {
		return err
	}
	if driver != warehouse.DriverMySQL {
		if err := ask("Schema:", "", &w.Schema); err != nil {
			return err
		}
	}

	if err := warehouse.ValidateConfig(warehouseSettings(cfg)); err != nil {
		return err
	}

	password, err := prompter.Password("Password:")
	if err != nil {
		return err
	}
	if err := storePassword(cfg, password); err != nil {
		return err
	}

	cacheOn, err := prompter.Confirm("Cache catalog results (refreshed when row counts change)?", true)
	if err != nil {
		return err
	}
	cfg.Cache.Enabled = cacheOn
	if cacheOn {
		cfg.Cache.Token = "auto"
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	ui.ShowSuccess("Configuration saved to " + config.GetConfigFile())
	fmt.Fprintln(cmd.OutOrStdout(), "Run 'paysight catalog' to evaluate every analysis.")
	return nil
}

// storePassword puts password in the keyring, falling back to an
// encrypted value in the config file
func storePassword(cfg *models.Config, password string) error {
	if password == "" {
		return nil
	}

	account := cfg.Warehouse.Username + "@" + cfg.Warehouse.Host
	if cfg.Warehouse.Driver == string(warehouse.DriverSnowflake) {
		account = cfg.Warehouse.Username + "@" + cfg.Warehouse.Account
	}
	ref, err := config.StorePassword(account, password)
	if err == nil {
		cfg.Warehouse.Password = ref
		ui.ShowInfo("Password stored in the OS keyring")
		return nil
	}

	ui.ShowWarning("Keyring unavailable, storing the password encrypted: " + err.Error())
	cfg.Warehouse.Password = password
	return config.EncryptConfigPasswords(cfg)
}

// warehouseSettings converts the file form without touching the password
func warehouseSettings(cfg *models.Config) warehouse.Config {
	w := cfg.Warehouse
	driver, _ := warehouse.ParseDriver(w.Driver)
	return warehouse.Config{
		Driver:    driver,
		Host:      w.Host,
		Port:      w.Port,
		Username:  w.Username,
		Database:  w.Database,
		Schema:    w.Schema,
		Account:   w.Account,
		Warehouse: w.Warehouse,
		Role:      w.Role,
	}
}
