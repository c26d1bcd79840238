package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Context is handed to every command's Run method.
type Context struct {
	Logger *log.Logger
	Stdin  *os.File
	Stdout io.Writer
}

func (ctx *Context) out() io.Writer {
	if ctx == nil || ctx.Stdout == nil {
		return os.Stdout
	}
	return ctx.Stdout
}

func (ctx *Context) logger() *log.Logger {
	if ctx == nil || ctx.Logger == nil {
		return log.Default()
	}
	return ctx.Logger
}
