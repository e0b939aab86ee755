// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive commands.
//
//  1. --confirm proceeds without prompting
//  2. --json requires --confirm (no prompts in JSON mode)
//  3. a non-terminal stdin requires --confirm
//  4. otherwise the user is asked
package cli

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Prompter asks a yes/no question.
type Prompter func(message string) (bool, error)

// SurveyPrompter asks on the terminal, defaulting to "no".
func SurveyPrompter(message string) (bool, error) {
	confirmed := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &confirmed)
	if errors.Is(err, terminal.InterruptErr) {
		return false, nil
	}
	return confirmed, err
}

// ConfirmationOptions carries the flags that bypass or forbid prompting.
type ConfirmationOptions struct {
	ConfirmFlag bool
	JSONMode    bool
	Interactive bool
}

// RequireConfirmation returns nil when action may proceed and ErrCancelled
// when the user declined.
func RequireConfirmation(action string, opts ConfirmationOptions, ask Prompter) error {
	if opts.ConfirmFlag {
		return nil
	}
	if opts.JSONMode {
		return fmt.Errorf("%s requires --confirm in JSON mode", action)
	}
	if !opts.Interactive {
		return fmt.Errorf("%w; pass --confirm to %s", &TTYRequiredError{Operation: "confirm"}, action)
	}
	if ask == nil {
		ask = SurveyPrompter
	}

	ok, err := ask(fmt.Sprintf("Really %s?", action))
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}
