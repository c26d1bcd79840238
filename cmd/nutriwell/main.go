package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/terraincognita07/nutriwell/internal/cli"
	"github.com/terraincognita07/nutriwell/internal/config"
	"github.com/terraincognita07/nutriwell/internal/logger"
)

var version = "dev"

type CLI struct {
	Version kong.VersionFlag `help:"Print version and exit."`
	EnvFile []string         `help:"Dotenv files to load before reading the environment." default:".env" type:"path"`

	Serve         cli.ServeCmd         `cmd:"" default:"withargs" help:"Run the HTTP API server."`
	ResetPassword cli.ResetPasswordCmd `cmd:"" name:"reset-password" help:"Reset an account password."`
}

func main() {
	var args CLI
	kctx := kong.Parse(&args,
		kong.Name("nutriwell"),
		kong.Description("Nutrition and wellness tracking backend"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if err := run(kctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(kctx *kong.Context, args CLI) error {
	if err := config.LoadDotEnv(args.EnvFile...); err != nil {
		return err
	}

	appLogger, closer, err := logger.New(logger.Config{
		Level: os.Getenv("LOG_LEVEL"),
		File:  os.Getenv("LOG_FILE"),
	})
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer closer.Close()

	return kctx.Run(&cli.Context{
		Logger: appLogger,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	})
}
