package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"subtrack/internal/app"
	"subtrack/internal/config"
	"subtrack/internal/subtrack"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Sync", "Import").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	passphrase, err := readPassphrase(cfg)
	if err != nil {
		return nil, err
	}

	a, err := app.NewApp(cfg, operation, passphrase)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	if err := a.EnsurePermissions(); err != nil {
		a.Close()
		return nil, fmt.Errorf("checking permissions: %w", err)
	}
	return a, nil
}

// readPassphrase obtains the settings passphrase: the SUBTRACK_PASSPHRASE
// environment variable if set, otherwise a terminal prompt. Only consulted
// for the encrypted settings store.
func readPassphrase(cfg *config.Config) (string, error) {
	if cfg.Settings.Type == "memory" {
		return "", nil
	}
	if pass := os.Getenv("SUBTRACK_PASSPHRASE"); pass != "" {
		return pass, nil
	}

	fmt.Fprint(os.Stderr, "Settings passphrase: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(raw), nil
}

var rootCmd = &cobra.Command{
	Use:   "subtrack",
	Short: "Recurring payment reminder scheduler",
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

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
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
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Store:     %s\n", cfg.Store.Type)
		fmt.Printf("Settings:  %s\n", cfg.Settings.Type)
		fmt.Printf("Alarms:    %s\n", cfg.Alarms.Type)
		return nil
	},
}

// payable command
var payableCmd = &cobra.Command{
	Use:   "payable",
	Short: "Manage recurring payables",
}

var payableAddCmd = &cobra.Command{
	Use:   "add TITLE AMOUNT ANCHOR",
	Short: "Add a recurring payable (ANCHOR is the billing date, YYYY-MM-DD)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		currency, _ := cmd.Flags().GetString("currency")
		cycle, _ := cmd.Flags().GetString("cycle")
		interval, _ := cmd.Flags().GetInt("interval-days")
		disabled, _ := cmd.Flags().GetBool("disabled")

		a, err := newApp("AddPayable")
		if err != nil {
			return err
		}
		defer a.Close()

		p, outcome, err := a.AddPayable(args[0], args[1], currency, args[2], cycle, interval, !disabled)
		if err != nil {
			return err
		}

		fmt.Printf("Added payable %s (%s)\n", p.Title, p.ID)
		if !disabled {
			fmt.Printf("Reminder: %s\n", outcome)
		}
		return nil
	},
}

var payableListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListPayables")
		if err != nil {
			return err
		}
		defer a.Close()

		payables, enabled, err := a.ListPayables()
		if err != nil {
			return err
		}
		if len(payables) == 0 {
			fmt.Println("No payables.")
			return nil
		}

		for _, p := range payables {
			state := " "
			if enabled[p.ID] {
				state = "*"
			}
			fmt.Printf("%s %s  %s %s  %s/%s  %s\n",
				state, p.ID, p.Amount.StringFixed(2), p.Currency, p.Cycle, p.AnchorDate.Format("2006-01-02"), p.Title)
		}
		return nil
	},
}

var payableEnableCmd = &cobra.Command{
	Use:   "enable ID",
	Short: "Opt a payable into reminders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("EnablePayable")
		if err != nil {
			return err
		}
		defer a.Close()

		outcome, err := a.EnablePayable(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Reminder: %s\n", outcome)
		return nil
	},
}

var payableDisableCmd = &cobra.Command{
	Use:   "disable ID",
	Short: "Opt a payable out of reminders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DisablePayable")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DisablePayable(args[0]); err != nil {
			return err
		}
		fmt.Println("Disabled.")
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Re-arm reminders for all enabled payables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.SyncAll()
		if err != nil {
			return err
		}
		fmt.Printf("Scheduled %d reminder(s)\n", n)
		return nil
	},
}

// fire command
var fireCmd = &cobra.Command{
	Use:   "fire ID",
	Short: "Deliver an elapsed-alarm event for a payable",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Fire")
		if err != nil {
			return err
		}
		defer a.Close()

		outcome, err := a.Fire(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Next reminder: %s\n", outcome)
		return nil
	},
}

// run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reminder daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Daemon")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := app.NewDaemon(a, app.DefaultSweepSpec, app.DefaultSyncSpec)
		if err != nil {
			return err
		}

		d.Start()
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		d.Stop()
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import LOCATION",
	Short: "Restore records from a snapshot (file path or s3://bucket/key)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("on-conflict")

		decide, err := decider(mode)
		if err != nil {
			return err
		}

		a, err := newApp("Import")
		if err != nil {
			return err
		}
		defer a.Close()

		run, err := a.Import(context.Background(), args[0], decide)
		if err != nil {
			// Keep the user-facing message terse; detail goes to the log.
			return fmt.Errorf("restore failed")
		}

		fmt.Printf("Imported %d record(s), %d overwritten, %d skipped\n",
			run.Inserted(), run.Updated(), run.Unresolved())

		if _, err := a.SyncAll(); err != nil {
			return err
		}
		return nil
	},
}

// decider maps the --on-conflict mode to an adjudication callback.
func decider(mode string) (func(subtrack.ConflictEntry) (subtrack.Decision, error), error) {
	switch mode {
	case "skip":
		return func(subtrack.ConflictEntry) (subtrack.Decision, error) {
			return subtrack.DecisionSkip, nil
		}, nil
	case "overwrite":
		return func(subtrack.ConflictEntry) (subtrack.Decision, error) {
			return subtrack.DecisionOverwrite, nil
		}, nil
	case "ask", "":
		reader := bufio.NewReader(os.Stdin)
		return func(c subtrack.ConflictEntry) (subtrack.Decision, error) {
			fmt.Printf("Conflict: %s %s already exists. [o]verwrite / [s]kip? ", c.Kind, c.ID())
			line, err := reader.ReadString('\n')
			if err != nil {
				return 0, fmt.Errorf("reading answer: %w", err)
			}
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "o") {
				return subtrack.DecisionOverwrite, nil
			}
			return subtrack.DecisionSkip, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown conflict mode %q, want ask, skip or overwrite", mode)
	}
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export PATH",
	Short: "Write all records to a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("creating snapshot file: %w", err)
		}
		defer f.Close()

		if err := a.Export(f); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("Exported to %s\n", args[0])
		return nil
	},
}

// settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage preferences",
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "View preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SettingsList")
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.Settings()
		currency, err := s.DefaultCurrency()
		if err != nil {
			return err
		}
		tod, err := s.NotificationTime()
		if err != nil {
			return err
		}
		days, err := s.ReminderDays()
		if err != nil {
			return err
		}
		push, err := s.PushEnabled()
		if err != nil {
			return err
		}
		lock, err := s.LockScreenVisible()
		if err != nil {
			return err
		}

		fmt.Printf("currency:          %s\n", currency)
		fmt.Printf("notification-time: %s\n", tod)
		fmt.Printf("reminder-days:     %d\n", days)
		fmt.Printf("push:              %t\n", push)
		fmt.Printf("lock-screen:       %t\n", lock)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Set a preference (currency, notification-time, reminder-days, push, lock-screen)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SettingsSet")
		if err != nil {
			return err
		}
		defer a.Close()

		s := a.Settings()
		name, value := args[0], args[1]
		switch name {
		case "currency":
			err = s.SetDefaultCurrency(value)
		case "notification-time":
			var tod subtrack.TimeOfDay
			tod, err = subtrack.ParseTimeOfDay(value)
			if err == nil {
				err = s.SetNotificationTime(tod)
			}
		case "reminder-days":
			var days int
			if _, scanErr := fmt.Sscanf(value, "%d", &days); scanErr != nil {
				return fmt.Errorf("invalid day count %q", value)
			}
			err = s.SetReminderDays(days)
		case "push":
			err = s.SetPushEnabled(value == "on" || value == "true")
		case "lock-screen":
			err = s.SetLockScreenVisible(value == "on" || value == "true")
		default:
			return fmt.Errorf("unknown preference %q", name)
		}
		if err != nil {
			return err
		}

		// Offset and time-of-day changes move every reminder instant.
		if name == "reminder-days" || name == "notification-time" {
			if _, err := a.SyncAll(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	payableAddCmd.Flags().String("currency", "", "currency code (default: currency preference)")
	payableAddCmd.Flags().String("cycle", "monthly", "billing cycle: weekly, monthly, yearly or custom")
	payableAddCmd.Flags().Int("interval-days", 0, "cycle length in days (cycle=custom only)")
	payableAddCmd.Flags().Bool("disabled", false, "create without opting into reminders")

	importCmd.Flags().String("on-conflict", "ask", "conflict handling: ask, skip or overwrite")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	payableCmd.AddCommand(payableAddCmd)
	payableCmd.AddCommand(payableListCmd)
	payableCmd.AddCommand(payableEnableCmd)
	payableCmd.AddCommand(payableDisableCmd)
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(payableCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(fireCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}
