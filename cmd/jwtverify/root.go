package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tokenkit/go-jwt-manager/config"
	"github.com/tokenkit/go-jwt-manager/logging"
)

// app carries the state shared by every command.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}

	root := &cobra.Command{
		Use:   "jwtverify",
		Short: "Verify JWTs and inspect issuer keys",
		Long: `jwtverify builds the issuer registry and verification manager described by
a YAML configuration file and uses them to verify tokens, list the key ids
known for an issuer, or export a key snapshot.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogging(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "jwtmanager.yaml", "Configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newVerifyCmd(a),
		newKeysCmd(a),
		newSnapshotCmd(a),
	)
	return root
}

func (a *app) initLogging(out io.Writer) error {
	level, err := logrus.ParseLevel(a.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	a.log.SetLevel(level)
	a.log.SetOutput(out)

	switch strings.ToLower(a.logFormat) {
	case "text":
		a.log.SetFormatter(&logrus.TextFormatter{})
	case "json":
		a.log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid --log-format %q (want text or json)", a.logFormat)
	}
	return nil
}

// runtime loads the configuration and builds the registry and manager.
func (a *app) runtime() (*config.Config, *config.Runtime, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, nil, err
	}
	a.log.Debugf("using config file: %s", a.configPath)

	rt, err := config.Build(cfg, logging.NewLogrusLogger(a.log))
	if err != nil {
		return nil, nil, err
	}
	return cfg, rt, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readToken returns arg, or stdin when arg is "-".
func readToken(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return strings.TrimSpace(arg), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read token from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
