package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var errNoTerminal = errors.New("stdin unavailable")

// readSecret prints label, reads one line from stdin with terminal echo
// turned off, and ends the prompt line on out.
func readSecret(stdin *os.File, out io.Writer, label string) (string, error) {
	if stdin == nil {
		return "", errNoTerminal
	}

	fmt.Fprint(out, label)
	restore, err := disableEcho(stdin)
	if err != nil {
		fmt.Fprintln(out)
		return "", err
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	restore()
	fmt.Fprintln(out)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
