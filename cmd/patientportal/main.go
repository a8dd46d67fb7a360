package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/patientportal/internal/infrastructure/observability"
	"github.com/zatekoja/patientportal/pkg/config"
	apperrors "github.com/zatekoja/patientportal/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cli carries state from the root command's pre-run to the subcommands
type cli struct {
	configPath string
	logLevel   string
	app        *app
}

// run executes one command line and returns the process exit status
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := &cli{}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		c.app.close(context.WithoutCancel(ctx))
	}
	if err != nil {
		log.Debug().Err(err).Msg("Command failed")
		fmt.Fprintln(errOut, errorMessage(err))
		return 1
	}
	return 0
}

// errorMessage shows client errors in patient terms and cobra's own
// usage errors as they are
func errorMessage(err error) string {
	if apperrors.TypeOf(err) == "" {
		return err.Error()
	}
	return apperrors.UserMessage(err)
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "patientportal",
		Short:         "Clinic patient portal: visits, bookings and profile",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.Log.Level = c.logLevel
			}
			observability.InitLoggerTo(cmd.ErrOrStderr(), cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)

			c.app, err = newApp(cmd.Context(), cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./patientportal.yaml or ~/.config/patientportal/patientportal.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.statusCmd(),
		c.visitsCmd(),
		c.visitCmd(),
		c.doctorsCmd(),
		c.bookCmd(),
		c.profileCmd(),
	)
	return root
}
