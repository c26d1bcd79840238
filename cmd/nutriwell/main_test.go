package main

import (
	"testing"

	"github.com/alecthomas/kong"
)

func parseArgs(t *testing.T, argv ...string) (*kong.Context, CLI) {
	t.Helper()

	var args CLI
	parser, err := kong.New(&args, kong.Name("nutriwell"), kong.Vars{"version": "test"})
	if err != nil {
		t.Fatalf("kong.New() unexpected error: %v", err)
	}
	kctx, err := parser.Parse(argv)
	if err != nil {
		t.Fatalf("Parse(%v) unexpected error: %v", argv, err)
	}
	return kctx, args
}

func TestServeIsDefaultCommand(t *testing.T) {
	kctx, _ := parseArgs(t)
	if kctx.Command() != "serve" {
		t.Fatalf("expected default command serve, got %q", kctx.Command())
	}

	kctx, args := parseArgs(t, "serve", "--port", "9090")
	if kctx.Command() != "serve" || args.Serve.Port != "9090" {
		t.Fatalf("expected serve with port override, got %q %q", kctx.Command(), args.Serve.Port)
	}
}

func TestResetPasswordFlags(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/nutriwell-flags.db")

	kctx, args := parseArgs(t, "reset-password", "--email", "user@example.com", "--prompt")
	if kctx.Command() != "reset-password" {
		t.Fatalf("expected reset-password command, got %q", kctx.Command())
	}
	if args.ResetPassword.Email != "user@example.com" || !args.ResetPassword.Prompt {
		t.Fatalf("unexpected flags %+v", args.ResetPassword)
	}
	if args.ResetPassword.DB != "/tmp/nutriwell-flags.db" {
		t.Fatalf("expected DB_PATH from environment, got %q", args.ResetPassword.DB)
	}
}

func TestResetPasswordRequiresEmail(t *testing.T) {
	var args CLI
	parser, err := kong.New(&args, kong.Name("nutriwell"), kong.Vars{"version": "test"})
	if err != nil {
		t.Fatalf("kong.New() unexpected error: %v", err)
	}
	if _, err := parser.Parse([]string{"reset-password"}); err == nil {
		t.Fatal("expected missing --email to fail")
	}
}
