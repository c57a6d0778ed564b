package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mgosh [URI]",
	Short: "mgosh — an interactive shell and script driver for MongoDB",
	Long:  "mgosh is an interactive shell and non-interactive script driver for MongoDB, supporting both a JavaScript-like shell dialect and a SQL dialect.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRoot,
}

// Root flags (spec.md §6 "CLI").
var (
	flagHost         string
	flagPort         int
	flagDatabase     string
	flagUsername     string
	flagPassword     string
	flagAuthDatabase string
	flagFile         string
	flagEval         string
	flagConfig       string
	flagFormat       string
	flagNoColor      bool
	flagQuiet        bool
	flagVerbose      bool
	flagVV           bool
	flagTimeout      int
	flagNoConnect    bool
	flagTLS          bool
	flagTLSCertFile  string
	flagTLSCAFile    string
	flagTLSInsecure  bool
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagHost, "host", "", "MongoDB host")
	flags.IntVar(&flagPort, "port", 0, "MongoDB port")
	flags.StringVarP(&flagDatabase, "database", "d", "", "database to use")
	flags.StringVarP(&flagUsername, "username", "u", "", "username")
	flags.StringVarP(&flagPassword, "password", "p", "", "password")
	flags.StringVar(&flagAuthDatabase, "auth-database", "admin", "authentication database")
	flags.StringVarP(&flagFile, "file", "f", "", "run a script file non-interactively")
	flags.StringVar(&flagEval, "eval", "", "evaluate a single expression non-interactively")
	flags.StringVarP(&flagConfig, "config", "c", "", "path to a config file")
	flags.StringVar(&flagFormat, "format", "", "output format: shell|json|json-pretty|table|compact")
	flags.BoolVar(&flagNoColor, "no-color", false, "disable ANSI color output")
	flags.BoolVarP(&flagQuiet, "quiet", "q", false, "suppress non-essential output")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
	flags.BoolVar(&flagVV, "vv", false, "trace-level logging")
	flags.IntVar(&flagTimeout, "timeout", 0, "connection timeout in seconds")
	flags.BoolVar(&flagNoConnect, "no-connect", false, "start without connecting to a database")
	flags.BoolVar(&flagTLS, "tls", false, "enable TLS")
	flags.StringVar(&flagTLSCertFile, "tls-cert-file", "", "path to a TLS client certificate")
	flags.StringVar(&flagTLSCAFile, "tls-ca-file", "", "path to a TLS CA certificate")
	flags.BoolVar(&flagTLSInsecure, "tls-insecure", false, "skip TLS certificate verification")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
