package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/terraincognita07/nutriwell/internal/db"
	"github.com/terraincognita07/nutriwell/internal/services"
)

var errPasswordConfirmMismatch = errors.New("passwords do not match")

// ResetPasswordCmd replaces an account password from the server host. By
// default a temporary password is printed and must be changed on next
// login; with --prompt the operator types the new password instead.
type ResetPasswordCmd struct {
	Email  string `help:"Account email." required:""`
	DB     string `help:"SQLite database path." env:"DB_PATH" default:"data/nutriwell.db" type:"path"`
	Prompt bool   `help:"Ask for the new password instead of generating one."`
}

func (cmd *ResetPasswordCmd) Run(ctx *Context) error {
	database, err := db.OpenSQLite(cmd.DB)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	auth := services.NewAuthService(db.NewUserRepository(database), ctx.logger())
	out := ctx.out()

	if cmd.Prompt {
		password, err := promptNewPassword(ctx)
		if err != nil {
			return err
		}
		if err := auth.SetPassword(cmd.Email, password); err != nil {
			return describeResetError(cmd.Email, err)
		}
		fmt.Fprintln(out, "Password updated.")
		return nil
	}

	temporaryPassword, err := auth.ResetPassword(cmd.Email)
	if err != nil {
		return describeResetError(cmd.Email, err)
	}
	fmt.Fprintln(out, "Password reset successful")
	fmt.Fprintf(out, "Temporary password: %s\n", temporaryPassword)
	fmt.Fprintln(out, "User must change password on next login.")
	return nil
}

func promptNewPassword(ctx *Context) (string, error) {
	stdin := ctx.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	first, err := readSecret(stdin, ctx.out(), "New password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	second, err := readSecret(stdin, ctx.out(), "Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if first != second {
		return "", errPasswordConfirmMismatch
	}
	return strings.TrimSpace(first), nil
}

func describeResetError(email string, err error) error {
	switch {
	case errors.Is(err, services.ErrAuthCredentialsInvalid):
		return fmt.Errorf("invalid email address %q", strings.TrimSpace(email))
	case errors.Is(err, services.ErrAuthUserNotFound):
		return fmt.Errorf("user %s not found", strings.ToLower(strings.TrimSpace(email)))
	case errors.Is(err, services.ErrWeakPassword):
		return errors.New("password must have at least 8 characters with upper case, lower case and a digit")
	default:
		return err
	}
}
