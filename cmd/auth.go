package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/minhvu/tcbsync/internal/shared"
)

// AuthLogin signs in and persists the session token locally.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username, password, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	if err := r.session.SignIn(ctx, username, password); err != nil {
		return err
	}

	user := r.session.CurrentUser()
	r.logger.Info("signed in", "username", user.Username)
	return r.writePlain("✓ Signed in as %s\n", user.Username)
}

// AuthRegister creates an account and signs in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username, password, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	if err := r.session.Register(ctx, username, password); err != nil {
		return err
	}

	user := r.session.CurrentUser()
	r.logger.Info("account created", "username", user.Username)
	return r.writePlain("✓ Account created, signed in as %s\n", user.Username)
}

// AuthLogout discards the persisted token. Safe to run when already
// signed out.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.SignOut(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthWhoami resolves the persisted session and prints the signed-in user.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Initialize(ctx); err != nil {
		return err
	}

	user := r.session.CurrentUser()
	if user == nil {
		return r.writePlain("Not signed in\n")
	}
	return r.writePlain("%s\n", user.Username)
}

func (r *Runner) credentials(cmd *cli.Command) (string, string, error) {
	username := cmd.String("username")
	if username == "" {
		return "", "", fmt.Errorf("%w: --username is required", shared.ErrInvalidInput)
	}

	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = r.promptPassword("Password: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		return "", "", fmt.Errorf("%w: password must not be empty", shared.ErrInvalidInput)
	}

	return username, password, nil
}
