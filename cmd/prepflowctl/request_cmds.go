package main

import (
	"errors"
	"flag"
	"os"
	"text/tabwriter"

	"github.com/prepflow/prepflow-go/internal/domain/identity"
	"github.com/prepflow/prepflow-go/internal/service"
)

func runRequestRole(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("request-role", flag.ContinueOnError)
	role := fs.String("role", "", "role to request (e.g. firm, staff, custom_role_42)")
	firmName := fs.String("firm-name", "", "firm name (required for the firm role)")
	message := fs.String("message", "", "note for the reviewer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *role == "" {
		return errors.New("-role is required")
	}

	ctx, cancel := commandTimeout(cmdCtx.Ctx)
	defer cancel()

	// Prime the duplicate-detection cache before submitting.
	if _, err := cmdCtx.Session.Requests.Refresh(ctx); err != nil {
		return err
	}

	err := cmdCtx.Session.Requests.Submit(ctx, service.SubmitInput{
		Role:     identity.Role(*role),
		FirmName: *firmName,
		Message:  *message,
	})
	if err != nil {
		return err
	}
	return writef(os.Stdout, "request for %s submitted\n", *role)
}

func runRequests(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("requests", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := commandTimeout(cmdCtx.Ctx)
	defer cancel()

	requests, err := cmdCtx.Session.Requests.Refresh(ctx)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return writef(os.Stdout, "no pending requests\n")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(w, "ID\tREQUESTER\tROLE\tFIRM\tCREATED\n"); err != nil {
		return err
	}
	for _, req := range requests {
		role := string(req.RequestedRole)
		if req.CustomRole != nil && req.CustomRole.Name != "" {
			role = req.CustomRole.Name
		}
		if err := writef(w, "%s\t%s\t%s\t%s\t%s\n",
			req.ID, req.RequesterID, role, req.FirmName,
			req.CreatedAt.Format("2006-01-02 15:04")); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runApprove(cmdCtx *commandContext, args []string) error {
	return runReview(cmdCtx, args, reviewApprove)
}

func runReject(cmdCtx *commandContext, args []string) error {
	return runReview(cmdCtx, args, reviewReject)
}

type reviewAction string

const (
	reviewApprove reviewAction = "approve"
	reviewReject  reviewAction = "reject"
)

func runReview(cmdCtx *commandContext, args []string, action reviewAction) error {
	fs := flag.NewFlagSet(string(action), flag.ContinueOnError)
	id := fs.String("id", "", "request id")
	notes := fs.String("notes", "", "review notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}

	ctx, cancel := commandTimeout(cmdCtx.Ctx)
	defer cancel()

	if _, err := cmdCtx.Session.Requests.Refresh(ctx); err != nil {
		return err
	}

	var req identity.RoleRequest
	var err error
	if action == reviewApprove {
		req, err = cmdCtx.Session.Requests.Approve(ctx, *id, *notes)
	} else {
		req, err = cmdCtx.Session.Requests.Reject(ctx, *id, *notes)
	}
	if err != nil {
		return err
	}
	return writef(os.Stdout, "request %s is now %s\n", req.ID, req.Status)
}

func runCancel(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	id := fs.String("id", "", "request id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}

	ctx, cancel := commandTimeout(cmdCtx.Ctx)
	defer cancel()

	req, err := cmdCtx.Session.Requests.Cancel(ctx, *id)
	if err != nil {
		return err
	}
	return writef(os.Stdout, "request %s is now %s\n", req.ID, req.Status)
}

func runCatalog(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	all := fs.Bool("all", false, "include inactive custom roles")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := commandTimeout(cmdCtx.Ctx)
	defer cancel()

	var roles []identity.CustomRole
	var err error
	if *all {
		roles, err = cmdCtx.Session.Catalog.List(ctx)
	} else {
		roles, err = cmdCtx.Session.Catalog.ListActive(ctx)
	}
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		return writef(os.Stdout, "no custom roles\n")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writef(w, "TOKEN\tNAME\tACTIVE\tPERMISSIONS\n"); err != nil {
		return err
	}
	for _, role := range roles {
		if err := writef(w, "%s\t%s\t%t\t%v\n",
			role.Token(), role.Name, role.Active, role.Permissions); err != nil {
			return err
		}
	}
	return w.Flush()
}
