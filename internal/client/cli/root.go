package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credstack/internal/client/config"
	"github.com/spf13/cobra"
)

// newApp is swapped in tests.
var newApp = NewApp

type rootOptions struct {
	configPath string
	server     string
	session    string
	timeout    time.Duration
}

// NewRootCommand builds the credstack command tree.
func NewRootCommand() *cobra.Command {
	var (
		opts rootOptions
		app  *App
	)

	root := &cobra.Command{
		Use:           "credstack",
		Short:         "credstack account client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, opts)

			app, err = newApp(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if app == nil {
				return nil
			}
			return app.Close()
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "JSON config file")
	root.PersistentFlags().StringVarP(&opts.server, "server", "a", "", "server gRPC address host:port")
	root.PersistentFlags().StringVar(&opts.session, "session", "", "session database file")
	root.PersistentFlags().DurationVarP(&opts.timeout, "timeout", "t", 0, "per-request timeout")

	current := func() *App { return app }
	root.AddCommand(
		newRegisterCommand(current),
		newLoginCommand(current),
		newLogoutCommand(current),
		newWhoAmICommand(current),
		newRefreshCommand(current),
		newAPITokenCommand(current),
	)
	return root
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, opts rootOptions) {
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerEndpointAddr = opts.server
	}
	if flags.Changed("session") {
		cfg.SessionFile = opts.session
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = opts.timeout
	}
}

// Execute runs the CLI with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func printSession(a *App, verb, email string, expires time.Time) {
	fmt.Fprintf(a.out, "%s as %s, token valid until %s\n", verb, email, expires.Local().Format(time.RFC1123))
}
