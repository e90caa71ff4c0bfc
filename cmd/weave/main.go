package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madeeasy/weave/internal/app"
	"github.com/madeeasy/weave/internal/config"
)

type rootOptions struct {
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "weave",
		Short:        "Users service with advice applied to its controller",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config file")

	root.AddCommand(
		newServeCmd(opts),
		newCheckCmd(opts),
	)

	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			application, err := app.New(cfg, logger)
			if err != nil {
				logger.Error("build application", zap.Error(err))
				return err
			}

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()
			return application.Serve(ctx)
		},
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Print the advice applied to each controller method",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			application, err := app.New(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			printAdvised(cmd.OutOrStdout(), application.Advised())
			return nil
		},
	}
}

func printAdvised(w io.Writer, advised []app.Advice) {
	for _, adv := range advised {
		fmt.Fprintln(w, adv.Signature.Qualified())
		if len(adv.Registrations) == 0 {
			fmt.Fprintln(w, "  (no advice)")
			continue
		}
		for _, r := range adv.Registrations {
			fmt.Fprintf(w, "  %-16s %s\n", r.Point, r.Pointcut)
		}
	}
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
