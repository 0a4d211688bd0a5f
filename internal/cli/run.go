// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/bassosimone/abxclient"
	"github.com/spf13/cobra"
)

// newLogger returns the slog logger selected by opts, writing to w.
func newLogger(w io.Writer, opts *Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// newConfig returns the library configuration for opts.
func newConfig(opts *Options) (*abxclient.Config, error) {
	cfg := abxclient.NewConfig()
	if opts.DNSServer != "" && opts.DNSServer != DNSServerSystem {
		dnsServer, err := netip.ParseAddrPort(opts.DNSServer)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid DNS server", err)
		}
		cfg.DNSServer = dnsServer
	}
	cfg.DNSProtocol = opts.DNSProtocol
	cfg.ReadTimeout = opts.Timeout
	return cfg, nil
}

func runReconcile(cmd *cobra.Command, opts *Options) error {
	cfg, err := newConfig(opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts)

	// Interrupting closes the in-flight connection; see abxclient.CancelWatchFunc.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint, err := abxclient.NewResolveFunc(cfg, logger).Call(ctx, opts.Address)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot resolve server address", err)
	}
	logger.Info("serverResolved", slog.String("address", opts.Address), slog.String("endpoint", endpoint.String()))

	dial := abxclient.NewSessionDialFunc(cfg, endpoint, logger)
	r := abxclient.NewReconciler(dial, logger)
	result, err := abxclient.Run(ctx, r, &abxclient.FileEmitter{Path: opts.Output})
	if err != nil {
		return WrapExitError(ExitFailure, "reconciliation failed", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"wrote %d records to %s (missing after stream: %d, recovered: %d, still missing: %d)\n",
		len(result.Records), opts.Output, len(result.Missing),
		len(result.Backfill.Recovered), len(abxclient.MissingSequences(r.Collection())),
	)
	return nil
}
