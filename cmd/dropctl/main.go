// Command dropctl is a terminal client for the Dropspots API: sign in, find
// spots near a point and submit new ones.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samirrijal/dropspots/internal/adapters/filestore"
	"github.com/samirrijal/dropspots/internal/client"
	"github.com/samirrijal/dropspots/internal/pkg/config"
	"github.com/samirrijal/dropspots/internal/pkg/logging"
	"github.com/samirrijal/dropspots/internal/pkg/units"
	"github.com/samirrijal/dropspots/internal/session"
)

var (
	configFile string
	unitsFlag  string
	verbose    bool

	// current is built by rootCmd's PersistentPreRunE.
	current *app
)

// app is everything a command needs, wired once per invocation.
type app struct {
	cfg     *config.ClientConfig
	log     *slog.Logger
	out     io.Writer
	session *session.Manager
	auth    *client.AuthAPI
	spots   *client.SpotsAPI
}

func newApp(cfg *config.ClientConfig, out, errOut io.Writer) *app {
	log := logging.New(errOut, cfg.Log.Level, cfg.Log.Format)
	base := cfg.ResolveBaseURL()

	a := &app{
		cfg:  cfg,
		log:  log,
		out:  out,
		auth: client.NewAuthAPI(base, cfg.APIKey, nil),
	}
	a.session = session.NewManager(log, filestore.New(cfg.StorePath), a.auth,
		session.WithSignOutHook(func(context.Context) {
			fmt.Fprintln(out, "You are signed out.")
		}),
	)
	a.spots = client.NewSpotsAPI(base, &http.Client{
		Timeout:   client.DefaultTimeout,
		Transport: session.NewTransport(a.session, cfg.APIKey, nil),
	})
	return a
}

var rootCmd = &cobra.Command{
	Use:   "dropctl",
	Short: "Find and share cliff-jump spots",
	Long: `dropctl talks to the Dropspots API.

The API address comes from dropctl.yaml (base_url, or dev_base_url when
env is "development") or DROPSPOTS_BASE_URL. Your session is kept in
store_path and refreshed automatically.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadClient(configFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if unitsFlag != "" {
			u, err := units.ParseUnit(unitsFlag)
			if err != nil {
				return err
			}
			cfg.Metric = u.Metric()
		}
		if cfg.ResolveBaseURL() == "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: no base_url configured, API calls will fail")
		}
		current = newApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./dropctl.yaml or <user config dir>/dropspots/dropctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&unitsFlag, "units", "", "height units: meters or feet (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
