// Command redact filters log lines from stdin, masking credentials, DSNs,
// emails and SQL the same way the server does before logging errors.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/tasktrack-api/internal/redact"
)

func main() {
	if err := run(os.Stdin, os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "redact: %v\n", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	w := bufio.NewWriter(out)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(w, redact.String(scanner.Text())); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return w.Flush()
}
