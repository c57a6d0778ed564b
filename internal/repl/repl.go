package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/dwoolworth/mgosh/internal/command"
	"github.com/dwoolworth/mgosh/internal/exec"
	"github.com/dwoolworth/mgosh/internal/format"
	"github.com/dwoolworth/mgosh/internal/logging"
	"github.com/dwoolworth/mgosh/internal/session"
)

// REPL drives the interactive loop: read a (possibly multi-line) statement
// via readline, parse it to a Command, execute it against a shared exec.Context,
// and print the formatted result (spec.md §4.5/§5 "single REPL loop, strictly
// serialized: read -> execute -> print").
type REPL struct {
	Exec      *exec.Context
	State     *session.SharedState
	Formatter *format.Formatter
	Database  func() string

	rl *readline.Instance

	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

// Options configures history persistence and completion, grounded on
// chzyer/readline's public Config shape (the only readline-family dependency
// attested in the retrieved corpus).
type Options struct {
	HistoryFile    string
	HistoryPersist bool
	Prompt         string
	Collections    CollectionLister
}

// New builds a REPL with a readline instance wired to the completer and an
// interrupt-aware signal handler (spec.md §5 "Cancellation").
func New(ec *exec.Context, state *session.SharedState, f *format.Formatter, dbName func() string, opts Options) (*REPL, error) {
	historyFile := ""
	if opts.HistoryPersist {
		historyFile = opts.HistoryFile
	}
	prompt := opts.Prompt
	if prompt == "" {
		prompt = "mgosh> "
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		AutoComplete:    &Completer{Collections: opts.Collections},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("repl: readline init: %w", err)
	}

	return &REPL{Exec: ec, State: state, Formatter: f, Database: dbName, rl: rl}, nil
}

// Close releases the underlying terminal/history resources.
func (r *REPL) Close() error { return r.rl.Close() }

// Run drives the loop until exit/EOF, handling SIGINT by cancelling the
// in-flight command on first signal and exiting the process on the second
// (spec.md §5 "On first interrupt, the token transitions to cancelled; on
// second interrupt, the process exits").
func (r *REPL) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	defer signal.Stop(sigCh)

	interrupts := 0
	go func() {
		for range sigCh {
			r.mu.Lock()
			cancel := r.cancelFunc
			r.mu.Unlock()
			interrupts++
			if cancel != nil {
				cancel()
			}
			if interrupts >= 2 {
				os.Exit(130)
			}
		}
	}()

	var buffer strings.Builder
	for {
		r.rl.SetPrompt(ContinuationPrompt(buffer.String()))
		line, err := r.rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)

		if !IsComplete(buffer.String()) {
			continue
		}

		statement := strings.TrimSpace(buffer.String())
		buffer.Reset()
		interrupts = 0
		if statement == "" {
			continue
		}

		if done := r.runOne(ctx, statement); done {
			return nil
		}
	}
}

// runOne parses and executes one statement, reporting whether the REPL
// should exit.
func (r *REPL) runOne(parent context.Context, statement string) (exit bool) {
	cmd, err := ParseLine(statement)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return false
	}
	if cmd.Kind == command.KindExit {
		return true
	}

	cmdCtx, cancel := context.WithCancel(parent)
	r.mu.Lock()
	r.cancelFunc = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.cancelFunc = nil
		r.mu.Unlock()
		cancel()
	}()

	res := r.Exec.Execute(cmdCtx, cmd)
	fmt.Println(r.Formatter.Format(res))
	if !res.Success {
		logging.Warn("command failed", "error", res.Err)
	}
	return false
}

// NewClientID mints the <client_id> part (eight hex characters of a UUID) of
// the mongosh-<client_id>-<uuid> identity spec.md §4.8 uses to tag killable
// operations.
func NewClientID() string {
	return uuid.NewString()[:8]
}
