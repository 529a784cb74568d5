package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/prepflow/prepflow-go/config"
	"github.com/prepflow/prepflow-go/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx     context.Context
	Logger  *slog.Logger
	Config  config.AppConfig
	Session *bootstrap.Session
}

const defaultCommandTimeout = 2 * time.Minute

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	session, err := bootstrap.NewSession(bootstrap.SessionDeps{
		Config: &cfg,
		Logger: logger,
	})
	if err != nil {
		logger.ErrorContext(context.Background(), "build session", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal wiring failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:     context.Background(),
		Logger:  logger,
		Config:  cfg,
		Session: session,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Authenticate against the platform and store the token pair",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Revoke the session and wipe stored tokens",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the active identity and token expiry",
			run:         runWhoami,
		},
		"roles": {
			name:        "roles",
			description: "Show held roles, the active role, and roles available to add",
			run:         runRoles,
		},
		"switch-role": {
			name:        "switch-role",
			description: "Switch the active role and rotate the token pair",
			run:         runSwitchRole,
		},
		"remove-role": {
			name:        "remove-role",
			description: "Drop a linked role from the principal",
			run:         runRemoveRole,
		},
		"request-role": {
			name:        "request-role",
			description: "Submit a request for an additional role (fixed or custom)",
			run:         runRequestRole,
		},
		"requests": {
			name:        "requests",
			description: "List pending role requests",
			run:         runRequests,
		},
		"approve": {
			name:        "approve",
			description: "Approve a pending role request (admin only)",
			run:         runApprove,
		},
		"reject": {
			name:        "reject",
			description: "Reject a pending role request (admin only)",
			run:         runReject,
		},
		"cancel": {
			name:        "cancel",
			description: "Withdraw one of your own pending role requests",
			run:         runCancel,
		},
		"catalog": {
			name:        "catalog",
			description: "List the firm's custom roles",
			run:         runCatalog,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: prepflowctl <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(os.Stdout, "  %-16s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func commandTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, defaultCommandTimeout)
}
