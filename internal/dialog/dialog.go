// Package dialog abstracts the human-approval boundary. The core never
// renders UI; it hands a panel to this collaborator and acts on the answer.
package dialog

import (
	"context"
	"errors"
)

// Panel is the content shown to the user for one confirmation or prompt.
type Panel struct {
	Title string
	Lines []string
}

// Service is the confirmation collaborator. Confirm returns false when the
// user declines; Prompt returns the entered secret.
type Service interface {
	Confirm(ctx context.Context, panel Panel) (bool, error)
	Prompt(ctx context.Context, panel Panel) (string, error)
}

// Headless answers without a human: confirmations follow ApproveAll and
// prompts return the preconfigured secret. Used by daemons and tests.
type Headless struct {
	ApproveAll   bool
	PromptAnswer string
}

func (h *Headless) Confirm(ctx context.Context, panel Panel) (bool, error) {
	return h.ApproveAll, nil
}

func (h *Headless) Prompt(ctx context.Context, panel Panel) (string, error) {
	if h.PromptAnswer == "" {
		return "", errors.New("no prompt answer configured")
	}
	return h.PromptAnswer, nil
}
