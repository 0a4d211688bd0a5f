// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bassosimone/abxclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables overriding flags.
//
// A flag named dns-server maps to ABX_DNS_SERVER.
const EnvPrefix = "ABX"

// Flag names, also used as configuration keys.
const (
	flagAddress     = "address"
	flagOutput      = "output"
	flagTimeout     = "timeout"
	flagDNSServer   = "dns-server"
	flagDNSProtocol = "dns-protocol"
	flagLogFormat   = "log-format"
	flagVerbose     = "verbose"
)

// ValidLogFormats lists the accepted --log-format values.
var ValidLogFormats = []string{"text", "json"}

// DNSServerSystem selects the system resolver, which honors the hosts file.
const DNSServerSystem = "system"

// ValidDNSProtocols lists the accepted --dns-protocol values.
var ValidDNSProtocols = []string{"udp", "tcp"}

// Options is the resolved configuration of a run.
type Options struct {
	Address     string
	Output      string
	Timeout     time.Duration
	DNSServer   string
	DNSProtocol string
	LogFormat   string
	Verbose     bool
}

// NewRootCommand creates the abxclient command.
func NewRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "abxclient",
		Short: "Reconcile the ABX exchange market-data feed",
		Long: `Collect every record the ABX server streams, request each missing
sequence number again on its own connection, and write the complete,
ordered set of records as a JSON array.

Every flag can also be set through an environment variable named after
the flag with the ABX_ prefix, e.g. ABX_ADDRESS or ABX_DNS_SERVER.
Flags given on the command line win.

Example:
  abxclient
  abxclient --address abx.example.com:3000 --output feed.json --verbose
  ABX_TIMEOUT=2s abxclient --log-format json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return WrapExitError(ExitCommandError, "invalid arguments", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(v)
			if err != nil {
				return err
			}
			return runReconcile(cmd, opts)
		},
	}
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	flags := cmd.Flags()
	flags.StringP(flagAddress, "a", "127.0.0.1:3000", "ABX server host:port")
	flags.StringP(flagOutput, "o", "output.json", "path of the JSON output file")
	flags.Duration(flagTimeout, abxclient.DefaultReadTimeout, "receive timeout applied to every read")
	flags.String(flagDNSServer, DNSServerSystem, "DNS server (ip:port) used to resolve host names, or \"system\"")
	flags.String(flagDNSProtocol, "udp", "DNS transport (udp|tcp)")
	flags.String(flagLogFormat, "text", "log format (text|json)")
	flags.BoolP(flagVerbose, "v", false, "also log every I/O operation and record")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("cli: cannot bind flags: %s", err))
	}

	return cmd
}

// loadOptions reads and validates the options from flags and environment.
func loadOptions(v *viper.Viper) (*Options, error) {
	opts := &Options{
		Address:     v.GetString(flagAddress),
		Output:      v.GetString(flagOutput),
		Timeout:     v.GetDuration(flagTimeout),
		DNSServer:   v.GetString(flagDNSServer),
		DNSProtocol: v.GetString(flagDNSProtocol),
		LogFormat:   v.GetString(flagLogFormat),
		Verbose:     v.GetBool(flagVerbose),
	}
	if opts.Address == "" {
		return nil, NewExitError(ExitCommandError, "empty server address")
	}
	if opts.Output == "" {
		return nil, NewExitError(ExitCommandError, "empty output path")
	}
	if opts.Timeout <= 0 {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid timeout %q: must be positive", v.GetString(flagTimeout)))
	}
	if !slices.Contains(ValidLogFormats, opts.LogFormat) {
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("invalid log format %q: must be one of %v", opts.LogFormat, ValidLogFormats))
	}
	if !slices.Contains(ValidDNSProtocols, opts.DNSProtocol) {
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("invalid DNS protocol %q: must be one of %v", opts.DNSProtocol, ValidDNSProtocols))
	}
	return opts, nil
}
