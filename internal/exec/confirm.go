package exec

import "github.com/dwoolworth/mgosh/internal/command"

// ConfirmPolicy decides whether a destructive Command may proceed, separate
// from execution so tests can assert the gate without a database (spec.md
// §4.5 "Confirmation gate").
type ConfirmPolicy interface {
	Confirm(c *command.Command) bool
}

// PromptConfirm asks Ask for "yes"/"y" on a destructive command; any other
// answer (including an empty one) cancels it. Ask is expected to write its
// prompt to stderr, keeping stdout machine-parseable (spec.md §4.5).
type PromptConfirm struct {
	Ask func(prompt string) string
}

// Confirm implements ConfirmPolicy.
func (p PromptConfirm) Confirm(c *command.Command) bool {
	if !c.IsDestructive() {
		return true
	}
	answer := p.Ask("This operation is destructive. Proceed? [y/N] ")
	return answer == "y" || answer == "yes"
}

// AutoPolicy answers every destructive command the same way, for
// non-interactive mode (spec.md §4.5 "a configurable auto-accept /
// auto-reject policy").
type AutoPolicy struct {
	Accept bool
}

// Confirm implements ConfirmPolicy.
func (p AutoPolicy) Confirm(c *command.Command) bool {
	if !c.IsDestructive() {
		return true
	}
	return p.Accept
}
