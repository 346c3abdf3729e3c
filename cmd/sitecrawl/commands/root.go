// Package commands implements the sitecrawl CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/sitecrawl/internal/config"
	"github.com/jmylchreest/sitecrawl/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "sitecrawl",
	Short: "Date-bounded news site crawler",
	Long: `Sitecrawl walks the topic pages of news sites, follows their pagination
and stores every new article in MongoDB until it reaches articles older
than a cutoff date.

Sites are described in a YAML file with XPath patterns for their topic
links, listing structure, article links, pagination and article fields.

Examples:
  # Crawl every site in sites.yaml back to the start of the year
  sitecrawl crawl --until 2024-01-01

  # Crawl one site through the proxy API, at most 5 listing pages deep
  sitecrawl crawl --site faz --fetch-mode proxy --max-pages 5 --until 2024-01-01

  # Try site patterns without touching the database
  sitecrawl crawl --site faz --until 2024-06-01 --dry-run

  # Crawl every six hours
  sitecrawl schedule --cron "0 */6 * * *" --until 2024-01-01`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.sitecrawl.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("json-logs", false, "log as JSON")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("json_logs", flags.Lookup("json-logs"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
}

func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".sitecrawl")
		viper.SetConfigType("yaml")
	}

	config.Register(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Fprintf(os.Stderr, "Error: reading config: %v\n", err)
		}
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup initializes logging and loads the application config.
func setup() (config.App, error) {
	logger.Init(logger.Options{
		Level: viper.GetString("log_level"),
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("json_logs"),
	})
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "file", used)
	}

	app, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return config.App{}, err
	}
	return app, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// bindFlags binds a command's flags to config keys. It runs before the
// command so commands sharing a flag name do not steal each other's binding.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return nil
}
