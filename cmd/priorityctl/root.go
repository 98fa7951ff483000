package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/satishkumarchandala/clean-India/internal/config"
	"github.com/satishkumarchandala/clean-India/internal/logging"
	"github.com/satishkumarchandala/clean-India/internal/priority"
)

// cli carries the settings shared by every subcommand.
type cli struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	config.SetDefaults(c.v)

	rootCmd := &cobra.Command{
		Use:   "priorityctl",
		Short: "Score civic issues and maintain stored priorities.",
		Long: `priorityctl runs the issue priority engine outside the API server.

Use "score" to try the rules on a hypothetical issue, "policy" to print the
rules in effect and "recalculate" to refresh every stored priority.`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (yaml)")
	flags.String("policy", "", "priority policy file (default: built-in rules)")
	flags.StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	_ = c.v.BindPFlag(config.KeyPolicyFile, flags.Lookup("policy"))
	_ = c.v.BindPFlag(config.KeyLogLevel, flags.Lookup("loglevel"))

	rootCmd.AddCommand(
		newScoreCmd(c),
		newPolicyCmd(c),
		newRecalculateCmd(c),
	)
	return rootCmd
}

// initConfig reads the optional config file. Flags and environment variables
// take precedence over its values.
func (c *cli) initConfig() error {
	if c.cfgFile == "" {
		return nil
	}
	c.v.SetConfigFile(c.cfgFile)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", c.cfgFile, err)
	}
	return nil
}

func (c *cli) settings() *config.Config {
	return config.FromViper(c.v)
}

func (c *cli) engine() (*priority.Engine, error) {
	p, err := c.settings().Policy()
	if err != nil {
		return nil, err
	}
	return priority.NewEngine(p)
}

func (c *cli) logger(cmd *cobra.Command) (*logrus.Logger, error) {
	cfg := c.settings()
	return logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
}
