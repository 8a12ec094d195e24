package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/gamehelp/internal"
	"github.com/spf13/cobra"
)

const probeKey = "gamehelp.healthcheck"

var (
	healthcheckOffline bool
	healthcheckTimeout time.Duration
)

var sectionStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("62")).
	Bold(true).
	Underline(true)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, local state and the answer service",
	Long: `Check the health of gamehelp by verifying:
  • Configuration loading and validation
  • State database read/write access
  • Session identity
  • Answer service reachability (skipped with --offline)

This command is useful for debugging setup issues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ok := func(msg string) { fmt.Fprintln(out, successStyle.Render("✅ "+msg)) }
		warn := func(msg string) { fmt.Fprintln(out, warningStyle.Render("⚠️  "+msg)) }
		fail := func(msg string, err error) { fmt.Fprintln(out, errorStyle.Render("❌ "+msg+":"), err) }
		detail := func(format string, args ...interface{}) {
			if verbose {
				fmt.Fprintf(out, "   "+format+"\n", args...)
			}
		}

		fmt.Fprintln(out, sectionStyle.Render("🔍 gamehelp Health Check"))
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		cfg, err := loadConfig()
		if err != nil {
			fail("Failed to load configuration", err)
			return fmt.Errorf("health check failed: %w", err)
		}
		ok("Configuration loaded")
		detail("Data directory: %s", cfg.DataDir)
		detail("State database: %s", cfg.Storage)
		configErr := cfg.Validate()
		if configErr != nil {
			warn(configErr.Error())
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking state database..."))
		store, err := internal.OpenSQLiteStore(cfg.Storage)
		if err != nil {
			fail("Failed to open state database", err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer func() { _ = store.Close() }()
		if err := checkStore(store); err != nil {
			fail("State database is not writable", err)
			return fmt.Errorf("health check failed: %w", err)
		}
		ok("State database readable and writable")
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking session identity..."))
		identity := internal.NewIdentityStore(store)
		sessionID := identity.GetOrCreateSessionID()
		ok(fmt.Sprintf("Session %s", shortID(sessionID)))
		detail("Session: %s", sessionID)
		if threadID, found := identity.LoadThreadID(); found {
			detail("Thread: %s", threadID)
		} else {
			detail("Thread: none (next question starts a new topic)")
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking answer service..."))
		switch {
		case healthcheckOffline:
			warn("Skipped (--offline)")
		case configErr != nil:
			warn("Skipped: no usable endpoint")
		default:
			ctx, cancel := context.WithTimeout(cmd.Context(), healthcheckTimeout)
			defer cancel()
			gateway := internal.NewHTTPGateway(cfg.Endpoint, cfg.APIKey, http.DefaultClient)
			status, err := gateway.Probe(ctx)
			if err != nil {
				fail("Answer service unreachable", err)
				return fmt.Errorf("health check failed: %w", err)
			}
			ok(fmt.Sprintf("Answer service reachable (HTTP %d)", status))
			detail("Endpoint: %s", cfg.Endpoint)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		if configErr != nil {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Local state is healthy but questions cannot be sent yet"))
			return nil
		}
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		return nil
	},
}

// checkStore round-trips a probe value through the store
func checkStore(store internal.KeyValueStore) error {
	want := time.Now().UTC().Format(time.RFC3339Nano)
	if err := store.Set(probeKey, want); err != nil {
		return err
	}
	got, found, err := store.Get(probeKey)
	if err != nil {
		return err
	}
	if !found || got != want {
		return errors.New("probe value did not round-trip")
	}
	return store.Delete(probeKey)
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckOffline, "offline", false, "Skip the answer service check")
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 10*time.Second, "Answer service probe timeout")
}
