package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"paysight/internal/config"
	"paysight/internal/observability"
	"paysight/internal/ui"
	"paysight/internal/warehouse"
	"paysight/pkg/models"
)

var (
	cfgFile      string
	noColor      bool
	outputFormat ui.Format
	driverFlag   warehouse.Driver

	// appConfig is the loaded config with environment and flag overrides
	appConfig *models.Config
	v         = viper.New()

	rootCmd = &cobra.Command{
		Use:   "paysight",
		Short: "Analytical queries over the payments warehouse",
		Long: `paysight answers a fixed catalog of questions about a payments warehouse
(transactions, insurance and registered users per state, district and
pincode) and lets you explore one period at a time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $HOME/.paysight/config.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.VarP(&outputFormat, "format", "o", "output format: table, json or csv")
	pf.Var(&driverFlag, "driver", "warehouse driver: mysql, postgres or snowflake")
	pf.String("host", "", "warehouse host")
	pf.Int("port", 0, "warehouse port")
	pf.String("user", "", "warehouse user")
	pf.String("database", "", "warehouse database")

	for key, flag := range map[string]string{
		"log.level":          "log-level",
		"output.format":      "format",
		"warehouse.driver":   "driver",
		"warehouse.host":     "host",
		"warehouse.port":     "port",
		"warehouse.username": "user",
		"warehouse.database": "database",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}
}

// initConfig loads the config file, applies environment and flag
// overrides and sets up logging and color
func initConfig() error {
	if err := config.BindEnv(v); err != nil {
		return fmt.Errorf("failed to bind environment: %w", err)
	}

	// the flag wins over the environment for every command that touches
	// the file, setup and encrypt-config included
	if cfgFile != "" {
		if err := os.Setenv(config.EnvConfigFile, cfgFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	config.ApplyOverrides(cfg, v)
	appConfig = cfg

	if _, err := ui.ParseFormat(cfg.Output.Format); err != nil {
		return err
	}

	observability.SetDefaultLogger(observability.NewLogger(observability.LoggerConfig{
		Level:   observability.LogLevelFromString(cfg.Log.Level),
		Output:  os.Stderr,
		Service: "paysight",
		Version: Version,
		Encoder: observability.NewJSONEncoder(cfg.Log.Pretty),
	}))

	if noColor || os.Getenv("NO_COLOR") != "" {
		ui.SetColor(false)
	}
	return nil
}

// format returns the output format in effect
func format() ui.Format {
	f, _ := ui.ParseFormat(appConfig.Output.Format)
	return f
}

// interactive reports whether stdin and stderr are terminals
func interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stderr.Fd())
}
