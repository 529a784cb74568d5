package main

import (
	"bufio"
	"errors"
	"flag"
	"os"
	"strings"

	"github.com/prepflow/prepflow-go/internal/service"
)

func runLogin(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	remember := fs.Bool("remember", false, "persist the session across invocations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	ctx, cancel := commandTimeout(cmdCtx.Ctx)
	defer cancel()

	snap, err := cmdCtx.Session.Auth.Login(ctx, service.LoginInput{
		Email:    *email,
		Password: password,
		Remember: *remember,
	})
	if err != nil {
		return err
	}

	return writef(os.Stdout, "logged in as %s (active role: %s)\n",
		snap.Primary.DisplayName, snap.ActiveRole)
}

// readPassword reads the password from stdin so it never lands in shell history.
func readPassword() (string, error) {
	if err := writef(os.Stderr, "password: "); err != nil {
		return "", err
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

func runLogout(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := commandTimeout(cmdCtx.Ctx)
	defer cancel()

	if err := cmdCtx.Session.Auth.Logout(ctx); err != nil {
		return err
	}
	return writef(os.Stdout, "logged out\n")
}

func runWhoami(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := commandTimeout(cmdCtx.Ctx)
	defer cancel()

	access, err := cmdCtx.Session.Store.AccessToken(ctx)
	if err != nil {
		return err
	}
	if access == "" {
		return errors.New("not logged in")
	}

	claims, err := service.ParseAccessClaims(access)
	if err != nil {
		return err
	}

	if err := writef(os.Stdout, "subject:\t%s\n", claims.Subject); err != nil {
		return err
	}
	if err := writef(os.Stdout, "role:\t%s\n", claims.Role); err != nil {
		return err
	}
	if claims.FirmID != "" {
		if err := writef(os.Stdout, "firm:\t%s\n", claims.FirmID); err != nil {
			return err
		}
	}
	if exp := claims.ExpiresAt(); !exp.IsZero() {
		if err := writef(os.Stdout, "expires:\t%s\n", exp.Format("2006-01-02 15:04:05 MST")); err != nil {
			return err
		}
	}
	return nil
}
