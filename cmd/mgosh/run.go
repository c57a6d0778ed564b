package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mgosh/internal/cliconfig"
	"github.com/dwoolworth/mgosh/internal/connmgr"
	"github.com/dwoolworth/mgosh/internal/exec"
	"github.com/dwoolworth/mgosh/internal/format"
	"github.com/dwoolworth/mgosh/internal/logging"
	"github.com/dwoolworth/mgosh/internal/repl"
	"github.com/dwoolworth/mgosh/internal/session"
)

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := cliconfig.Load(flagConfig, cmd.Flags())
	if err != nil {
		return err
	}
	applyLoggingOverrides(cfg)
	applyDisplayOverrides(cfg)
	if err := logging.Configure(logging.Options{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		Timestamps: cfg.Logging.Timestamps,
	}); err != nil {
		return err
	}

	uri := resolveURI(args, cfg)
	dbName := cliconfig.ResolveDatabase(flagDatabase, uri)

	clientID := repl.NewClientID()
	mgr := connmgr.New()

	interactive := flagEval == "" && flagFile == ""
	if flagNoConnect {
		if err := mgr.ConnectLazy(uri, dbName, clientID); err != nil {
			return err
		}
	} else {
		timeout := time.Duration(cfg.Connection.Timeout) * time.Second
		if flagTimeout > 0 {
			timeout = time.Duration(flagTimeout) * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := mgr.Connect(ctx, uri, dbName, clientID); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
	}
	defer mgr.Disconnect(context.Background())

	state := session.New(dbName)
	confirm := confirmPolicy(interactive)
	ec := exec.New(mgr.Database(), clientID, state, confirm)

	mode, err := format.ParseMode(cfg.Display.Format)
	if err != nil {
		return err
	}
	f := format.New(mode, cfg.Display.ColorOutput)

	switch {
	case flagEval != "":
		return runEval(ec, f, flagEval)
	case flagFile != "":
		return runFile(ec, f, flagFile)
	default:
		return runREPL(ec, state, f, mgr)
	}
}

func resolveURI(args []string, cfg *cliconfig.Config) string {
	if len(args) == 1 {
		return args[0]
	}
	if flagHost != "" || flagPort != 0 || flagUsername != "" {
		return cliconfig.BuildURI(cliconfig.ConnectFlags{
			Host: flagHost, Port: flagPort, Database: flagDatabase,
			Username: flagUsername, Password: flagPassword, AuthDatabase: flagAuthDatabase,
			TLS: flagTLS, TLSInsecure: flagTLSInsecure,
		})
	}
	return cfg.Connection.DefaultURI
}

func applyLoggingOverrides(cfg *cliconfig.Config) {
	switch {
	case flagVV:
		cfg.Logging.Level = "trace"
	case flagVerbose:
		cfg.Logging.Level = "debug"
	case flagQuiet:
		cfg.Logging.Level = "error"
	}
}

func applyDisplayOverrides(cfg *cliconfig.Config) {
	if flagFormat != "" {
		cfg.Display.Format = flagFormat
	}
	if flagNoColor {
		cfg.Display.ColorOutput = false
	}
}

func confirmPolicy(interactive bool) exec.ConfirmPolicy {
	if !interactive {
		return exec.AutoPolicy{Accept: false}
	}
	return exec.PromptConfirm{Ask: func(prompt string) string {
		fmt.Fprint(os.Stderr, prompt)
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		return strings.ToLower(strings.TrimSpace(line))
	}}
}

func runEval(ec *exec.Context, f *format.Formatter, expr string) error {
	cmd, err := repl.ParseLine(expr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return fmt.Errorf("script failure")
	}
	res := ec.Execute(context.Background(), cmd)
	fmt.Println(f.Format(res))
	if !res.Success {
		return fmt.Errorf("script failure")
	}
	return nil
}

func runFile(ec *exec.Context, f *format.Formatter, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(string(raw), "\n")
	for _, line := range lines {
		stmt := strings.TrimSpace(line)
		if stmt == "" || strings.HasPrefix(stmt, "//") || strings.HasPrefix(stmt, "#") {
			continue
		}
		cmd, err := repl.ParseLine(stmt)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return fmt.Errorf("script failure")
		}
		res := ec.Execute(context.Background(), cmd)
		fmt.Println(f.Format(res))
		if !res.Success {
			return fmt.Errorf("script failure")
		}
	}
	return nil
}

func runREPL(ec *exec.Context, state *session.SharedState, f *format.Formatter, mgr *connmgr.Manager) error {
	r, err := repl.New(ec, state, f, mgr.DatabaseName, repl.Options{
		HistoryFile:    expandHome("~/.mgosh_history"),
		HistoryPersist: true,
		Collections: func() []string {
			db := mgr.Database()
			if db == nil {
				return nil
			}
			names, err := db.ListCollectionNames(context.Background(), bson.D{})
			if err != nil {
				return nil
			}
			return names
		},
	})
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Run(context.Background())
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
