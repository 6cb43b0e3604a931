package ctl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	minPasswordLength       = 8
	generatedPasswordLength = 16
)

// readPassword and isTerminal are test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
)

var errPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)

// adminPassword picks the seed password: the flag, then an interactive
// prompt, then a generated one. generated reports the last case.
func adminPassword(flagValue string, prompt io.Writer) (password string, generated bool, err error) {
	if flagValue != "" {
		if err := checkPassword(flagValue); err != nil {
			return "", false, err
		}
		return flagValue, false, nil
	}

	fd := stdinFd()
	if !isTerminal(fd) {
		password, err = auth.GeneratePassword(generatedPasswordLength)
		return password, err == nil, err
	}

	fmt.Fprint(prompt, "Admin password: ")
	b, err := readPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", false, fmt.Errorf("read password: %w", err)
	}
	if len(b) == 0 {
		return "", false, errors.New("password must not be empty")
	}
	if err := checkPassword(string(b)); err != nil {
		return "", false, err
	}
	return string(b), false, nil
}

// checkPassword counts characters for the minimum and bytes for bcrypt's maximum.
func checkPassword(pw string) error {
	switch {
	case utf8.RuneCountInString(pw) < minPasswordLength:
		return errPasswordTooShort
	case len(pw) > auth.MaxPasswordBytes:
		return auth.ErrPasswordTooLong
	}
	return nil
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and sample posts",
		Long: "Create the admin account and sample posts. Existing rows are kept.\n" +
			"Without --password the admin password is prompted for, or generated\n" +
			"and printed once when stdin is not a terminal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			pw, generated, err := adminPassword(password, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			s, err := opts.open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.db.Close()

			hasher := auth.NewPasswordHasher(s.config.BcryptCost)
			res, err := services.NewSeeder(s.db, s.manager, hasher, s.logger).Seed(ctx, pw)
			if err != nil {
				return fmt.Errorf("seed error: %w", err)
			}

			if res.AdminCreated {
				fmt.Fprintf(out, "Admin user created: %s\n", services.DefaultAdmin.Email)
				if generated {
					fmt.Fprintf(out, "Generated admin password: %s\n", pw)
				}
			} else {
				fmt.Fprintf(out, "Admin user already exists: %s\n", services.DefaultAdmin.Email)
			}
			fmt.Fprintf(out, "Sample posts created: %d\n", res.PostsCreated)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}
