package main

import (
	"errors"
	"flag"
	"os"
	"text/tabwriter"

	"github.com/prepflow/prepflow-go/internal/domain/identity"
)

func runRoles(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("roles", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := commandTimeout(cmdCtx.Ctx)
	defer cancel()

	snap, err := cmdCtx.Session.Registry.Load(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(w, "active:\t%s\n", snap.ActiveRole); err != nil {
		return err
	}
	if err := writef(w, "primary:\t%s (%s)\n", snap.Primary.DisplayName, snap.Primary.Role); err != nil {
		return err
	}
	for _, linked := range snap.Linked {
		if err := writef(w, "linked:\t%s (%s)\n", linked.DisplayName, linked.Role); err != nil {
			return err
		}
	}
	if err := writef(w, "held:\t%v\n", snap.AllRoles); err != nil {
		return err
	}
	if addable := snap.AvailableRolesToAdd(); len(addable) > 0 {
		if err := writef(w, "addable:\t%v\n", addable); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runSwitchRole(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("switch-role", flag.ContinueOnError)
	role := fs.String("role", "", "target role (e.g. firm, staff, client, custom_role_42)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *role == "" {
		return errors.New("-role is required")
	}

	ctx, cancel := commandTimeout(cmdCtx.Ctx)
	defer cancel()

	// Load first so the membership precondition is checked against fresh state.
	if _, err := cmdCtx.Session.Registry.Load(ctx); err != nil {
		return err
	}

	snap, err := cmdCtx.Session.Switcher.Switch(ctx, identity.Role(*role))
	if err != nil {
		return err
	}
	return writef(os.Stdout, "active role is now %s\n", snap.ActiveRole)
}

func runRemoveRole(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("remove-role", flag.ContinueOnError)
	role := fs.String("role", "", "role to drop")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *role == "" {
		return errors.New("-role is required")
	}

	ctx, cancel := commandTimeout(cmdCtx.Ctx)
	defer cancel()

	snap, err := cmdCtx.Session.Registry.RemoveRole(ctx, identity.Role(*role))
	if err != nil {
		return err
	}
	return writef(os.Stdout, "removed %s; held roles: %v\n", *role, snap.AllRoles)
}
