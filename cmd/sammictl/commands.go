package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/sammi-go/internal/app"
	"github.com/samvad-hq/sammi-go/internal/config"
	"github.com/samvad-hq/sammi-go/internal/logger"
	"github.com/samvad-hq/sammi-go/pkg/sammi"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the supported operations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		for _, op := range sammi.Operations() {
			method, _ := sammi.Lookup(op)
			fmt.Fprintf(out, "%-20s %s\n", op, method)
		}
	},
}

var sendJSON string

var sendCmd = &cobra.Command{
	Use:   "send <request> [key=value ...]",
	Short: "Send a single request",
	Long: `Send one request and print the result as JSON.

Fields are sent in the order given. GET operations put them in the query
string without encoding; POST operations send them as a JSON body.`,
	Example: `  # Read a global variable
  sammictl send getVariable name=viewers buttonID=global

  # Show an alert
  sammictl send alertMessage message="stream is live"

  # Send a full descriptor
  sammictl send --json '{"request":"setVariable","name":"x","value":1}'`,
	RunE: runSend,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay the configured requests file",
	Long: `Send every request in REQUESTS_FILE, publishing each outcome to the
sinks in PUBLISHERS_FILE. Entries marked once are skipped after a successful
delivery. With REPLAY_INTERVAL set the file is replayed until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	sendCmd.Flags().StringVar(&sendJSON, "json", "", "full request descriptor as a JSON object")
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.SAMMIHost = flagHost
	}
	if flags.Changed("port") {
		cfg.SAMMIPort = config.ParsePort(flagPort)
	}
	if flags.Changed("password") {
		cfg.SAMMIPassword = flagPassword
	}
	if flags.Changed("timeout") {
		if flagTimeout < 0 {
			return nil, fmt.Errorf("--timeout must not be negative")
		}
		cfg.Timeout = time.Duration(flagTimeout) * time.Second
	}
	return cfg, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	d, err := buildDescriptor(args, sendJSON)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	client := app.NewClient(cfg, logger.Default())
	res := client.SendRequest(cmd.Context(), d)

	out, err := json.MarshalIndent(res.Legacy(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return res.Err
}

// buildDescriptor turns CLI arguments into a descriptor, keeping argument order.
func buildDescriptor(args []string, rawJSON string) (*sammi.Descriptor, error) {
	if strings.TrimSpace(rawJSON) != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--json cannot be combined with positional arguments")
		}
		d := &sammi.Descriptor{}
		if err := json.Unmarshal([]byte(rawJSON), d); err != nil {
			return nil, fmt.Errorf("parse --json: %w", err)
		}
		return d, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("a request name is required")
	}
	d := sammi.NewDescriptor(args[0])
	for _, arg := range args[1:] {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q (expected key=value)", arg)
		}
		d.Set(key, value)
	}
	return d, nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()
	log := logger.Default()

	log.InfoObj("runner starting", "config", map[string]any{
		"sammi_host":      cfg.SAMMIHost,
		"sammi_port":      cfg.SAMMIPort,
		"requests_file":   cfg.RequestsFile,
		"publishers_file": cfg.PublishersFile,
		"storage_type":    cfg.StorageType,
		"replay_interval": cfg.ReplayInterval.String(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(ctx, cfg, nil, log)
	if err != nil {
		log.ErrorObj("failed to initialize runner", "error", err)
		return err
	}

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("runner: %w", err)
	}
	return nil
}
