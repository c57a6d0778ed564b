package exec

import (
	"testing"

	"github.com/dwoolworth/mgosh/internal/command"
)

func destructiveCmd() *command.Command {
	return &command.Command{
		Kind:  command.KindQuery,
		Query: &command.QueryCommand{Op: command.OpDeleteMany, Collection: "widgets"},
	}
}

func readOnlyCmd() *command.Command {
	return &command.Command{
		Kind:  command.KindQuery,
		Query: &command.QueryCommand{Op: command.OpFind, Collection: "widgets"},
	}
}

func TestPromptConfirmAcceptsYes(t *testing.T) {
	p := PromptConfirm{Ask: func(string) string { return "y" }}
	if !p.Confirm(destructiveCmd()) {
		t.Fatal("expected 'y' to confirm")
	}
}

func TestPromptConfirmRejectsAnythingElse(t *testing.T) {
	p := PromptConfirm{Ask: func(string) string { return "sure, whatever" }}
	if p.Confirm(destructiveCmd()) {
		t.Fatal("expected a non-yes answer to cancel")
	}
}

func TestPromptConfirmSkipsNonDestructive(t *testing.T) {
	p := PromptConfirm{Ask: func(string) string {
		t.Fatal("should not prompt for a non-destructive command")
		return ""
	}}
	if !p.Confirm(readOnlyCmd()) {
		t.Fatal("expected a non-destructive command to pass without prompting")
	}
}

func TestAutoPolicy(t *testing.T) {
	if (AutoPolicy{Accept: false}).Confirm(destructiveCmd()) {
		t.Fatal("expected auto-reject to reject")
	}
	if !(AutoPolicy{Accept: true}).Confirm(destructiveCmd()) {
		t.Fatal("expected auto-accept to accept")
	}
	if !(AutoPolicy{Accept: false}).Confirm(readOnlyCmd()) {
		t.Fatal("expected a non-destructive command to pass regardless of policy")
	}
}
