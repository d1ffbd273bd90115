// Command hash-generator prints bcrypt digests for the given passwords, for
// seeding user rows by hand.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	os.Exit(run(os.Stdout, os.Stderr, *cost, flag.Args()))
}

func run(stdout, stderr io.Writer, cost int, passwords []string) int {
	if len(passwords) == 0 {
		_, _ = fmt.Fprintln(stderr, "usage: hash-generator [-cost N] password...")
		return 2
	}

	hasher := auth.NewBcryptHasher(cost)
	exitCode := 0
	for _, password := range passwords {
		if err := domain.ValidatePassword(password); err != nil {
			_, _ = fmt.Fprintf(stderr, "skipping password: %v\n", err)
			exitCode = 1
			continue
		}

		hash, err := hasher.Hash(password)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "error generating hash: %v\n", err)
			exitCode = 1
			continue
		}
		_, _ = fmt.Fprintln(stdout, hash)
	}
	return exitCode
}
