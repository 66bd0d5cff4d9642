package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"pullsnap-go/internal/app"
	"pullsnap-go/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Start", "Restore").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "pullsnap",
	Short: "Pull-based snapshot backup daemon",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Generate a new instance ID
		instanceID := uuid.New().String()

		cfg := config.NewConfig(instanceID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Backup Root: %s\n", cfg.BackupRoot)
		fmt.Println("Add remote connection details and [[targets]] entries before starting.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Instance ID:   %s\n", cfg.InstanceID)
		fmt.Printf("Backup Root:   %s\n", cfg.BackupRoot)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Remote:        %s@%s\n", cfg.Remote.User, cfg.Remote.Host)
		fmt.Printf("Auto Evict:    %v\n", cfg.AutoEvict)
		fmt.Printf("Targets:       %d\n", len(cfg.Targets))
		return nil
	},
}

// start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the backup scan loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Start")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.Start(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("scan loop failed: %w", err)
		}
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list [TARGET]",
	Short: "List installed snapshots",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		name := ""
		if len(args) > 0 {
			name = args[0]
		}

		listings, err := a.List(name)
		if err != nil {
			return err
		}

		for _, l := range listings {
			fmt.Printf("%s:\n", l.Target)
			if len(l.Versions) == 0 {
				fmt.Println("  (no snapshots)")
				continue
			}
			for _, v := range l.Versions {
				fmt.Printf("  %d  %s\n", v, time.Unix(v, 0).Format("2006-01-02 15:04:05"))
			}
		}
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore TARGET TIMESTAMP [OUTPUT_PATH]",
	Short: "Restore a snapshot version",
	Long: `Restore a snapshot version to OUTPUT_PATH, which must not already exist.
With no OUTPUT_PATH, print the internal path of the stored version.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		timestamp, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp must be an integer: %q", args[1])
		}

		outPath := ""
		if len(args) > 2 {
			outPath = args[2]
		}

		a, err := newApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := a.Restore(args[0], timestamp, outPath)
		if err != nil {
			return err
		}

		fmt.Println(path)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history [TARGET]",
	Short: "View recent sync attempts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		name := ""
		if len(args) > 0 {
			name = args[0]
		}

		records, err := a.History(name, limit)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println("No sync history.")
			return nil
		}

		for _, r := range records {
			fmt.Printf("%s  %-8s  %s@%d  attempts=%d  %s\n",
				r.StartedAt.Format("2006-01-02 15:04:05"), r.Status,
				r.Target, r.Version, r.Attempts, r.Detail)
		}
		return nil
	},
}

// targets command
var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Show normalized backup targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Targets")
		if err != nil {
			return err
		}
		defer a.Close()

		for _, t := range a.Targets() {
			fmt.Printf("%s:\n", t.Name)
			fmt.Printf("  source:    %s\n", t.SourcePath)
			fmt.Printf("  cadence:   every %d %s(s) (%s)\n", t.Frequency, t.Interval, t.Cadence())
			fmt.Printf("  local:     %s\n", t.LocalRoot)
			if len(t.Excludes) > 0 {
				fmt.Printf("  excludes:  %v\n", t.Excludes)
			}
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	historyCmd.Flags().Int("limit", 20, "Maximum number of records to show")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(targetsCmd)
}
