package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/prepflow/prepflow-go/internal/apperrors"
	"github.com/prepflow/prepflow-go/internal/domain/identity"
	"github.com/prepflow/prepflow-go/internal/ports"
)

// pendingListExpr locates the request array inside the several envelope
// variants the pending endpoint has used: {data:{requests}}, {requests},
// and a bare {data:[...]} array.
const pendingListExpr = "data.requests || requests || data"

// WorkflowOptions groups dependencies for Workflow.
type WorkflowOptions struct {
	Gateway  ports.Gateway
	Registry *Registry
	Notifier ports.IdentityNotifier
	Logger   *slog.Logger
}

// Workflow drives the asynchronous request/approve/reject pipeline for
// acquiring additional roles. It keeps a client-side cache of pending
// requests so duplicate submissions are rejected locally, before any
// network call is made.
type Workflow struct {
	gw       ports.Gateway
	registry *Registry
	notifier ports.IdentityNotifier
	logger   *slog.Logger

	mu      sync.Mutex
	pending []identity.RoleRequest
	now     func() time.Time
}

// NewWorkflow constructs a Workflow.
func NewWorkflow(opts WorkflowOptions) (*Workflow, error) {
	if opts.Gateway == nil {
		return nil, errors.New("Gateway is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("Registry is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Workflow{
		gw:       opts.Gateway,
		registry: opts.Registry,
		notifier: opts.Notifier,
		logger:   logger.With("component", "role_request_workflow"),
		now:      time.Now,
	}, nil
}

// Refresh fetches the pending request list and replaces the local cache.
func (w *Workflow) Refresh(ctx context.Context) ([]identity.RoleRequest, error) {
	resp, err := w.gw.Do(ctx, ports.Request{Method: http.MethodGet, Path: "role-requests/pending"})
	if err != nil {
		return nil, err
	}

	requests, err := decodePendingList(resp.Body)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.pending = requests
	w.mu.Unlock()
	return requests, nil
}

// decodePendingList tolerates the historical envelope variants by locating
// the array with a JMESPath probe before decoding it strictly.
func decodePendingList(body []byte) ([]identity.RoleRequest, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, apperrors.Parse("decode pending requests response", err)
	}

	located, err := jmespath.Search(pendingListExpr, doc)
	if err != nil {
		return nil, apperrors.Parse("locate pending request list", err)
	}
	if located == nil {
		return nil, nil
	}
	if _, ok := located.([]any); !ok {
		return nil, apperrors.Parse("pending request list has unexpected shape", nil)
	}

	normalized, err := json.Marshal(located)
	if err != nil {
		return nil, apperrors.Parse("normalize pending request list", err)
	}

	var requests []identity.RoleRequest
	if err := json.Unmarshal(normalized, &requests); err != nil {
		return nil, apperrors.Parse("decode pending request list", err)
	}
	return requests, nil
}

// Pending returns the cached pending requests.
func (w *Workflow) Pending() []identity.RoleRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]identity.RoleRequest, len(w.pending))
	copy(out, w.pending)
	return out
}

// HasPendingRequest reports whether the cache holds a pending request for
// role, matching every requested-role shape the backend has returned.
func (w *Workflow) HasPendingRequest(role identity.Role) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return identity.HasPending(w.pending, role)
}

// SubmitInput carries the role acquisition ask.
type SubmitInput struct {
	// Role is a fixed enum value or a custom-role token ("custom_role_<id>").
	Role identity.Role
	// FirmName is required when requesting the firm role.
	FirmName string
	Message  string
}

// Submit files a role request. A pending request for the same role rejects
// locally with duplicate_request; no network call is made in that case.
func (w *Workflow) Submit(ctx context.Context, in SubmitInput) error {
	if err := w.validateSubmit(in); err != nil {
		return err
	}
	if w.HasPendingRequest(in.Role) {
		return apperrors.DuplicateRequest(string(in.Role))
	}

	body := map[string]any{}
	if id, ok := in.Role.CustomRoleID(); ok {
		body["custom_role_id"] = id
	} else {
		body["role"] = in.Role
	}
	if in.FirmName != "" {
		body["firm_name"] = in.FirmName
	}
	if in.Message != "" {
		body["message"] = in.Message
	}

	resp, err := w.gw.Do(ctx, ports.Request{
		Method: http.MethodPost,
		Path:   "roles/add",
		Body:   body,
	})
	if err != nil {
		return err
	}

	var env messageEnvelope
	if err := resp.Decode(&env); err != nil {
		return apperrors.Parse("decode role request response", err)
	}

	w.rememberSubmitted(in)
	w.logger.InfoContext(ctx, "role request submitted", "role", in.Role)
	return nil
}

func (w *Workflow) validateSubmit(in SubmitInput) error {
	if !in.Role.Valid() {
		return apperrors.Validationf("unknown role %q", in.Role)
	}
	if in.Role == identity.RoleSuperAdmin {
		return apperrors.Validation("the super_admin role cannot be requested")
	}
	if in.Role == identity.RoleFirm && in.FirmName == "" {
		return apperrors.ValidationFields("firm name is required", map[string][]string{
			"firm_name": {"required when requesting the firm role"},
		})
	}

	snap, ok := w.registry.Snapshot()
	if !ok {
		return nil
	}
	if !snap.CanManageRoles() {
		return apperrors.Validation("role requests are not available for this session")
	}
	if snap.HasRole(in.Role) {
		return apperrors.Validationf("role %q is already held", in.Role)
	}
	return nil
}

// rememberSubmitted records the new ask in the pending cache so an immediate
// resubmission short-circuits even before the next Refresh.
func (w *Workflow) rememberSubmitted(in SubmitInput) {
	req := identity.RoleRequest{
		RequestedRole: identity.RoleRef(in.Role),
		FirmName:      in.FirmName,
		Message:       in.Message,
		Status:        identity.StatusPending,
		CreatedAt:     w.now(),
	}
	if id, ok := in.Role.CustomRoleID(); ok {
		req.CustomRole = &identity.CustomRole{ID: id}
	}

	w.mu.Lock()
	w.pending = append(w.pending, req)
	w.mu.Unlock()
}

// Approve transitions a pending request to approved (admin only) and refreshes
// the identity snapshot, since an approval may have granted this principal a
// new role.
func (w *Workflow) Approve(ctx context.Context, requestID, notes string) (identity.RoleRequest, error) {
	return w.review(ctx, reviewParams{
		requestID: requestID,
		notes:     notes,
		action:    "approve",
		target:    identity.StatusApproved,
	})
}

// Reject transitions a pending request to rejected (admin only).
func (w *Workflow) Reject(ctx context.Context, requestID, notes string) (identity.RoleRequest, error) {
	return w.review(ctx, reviewParams{
		requestID: requestID,
		notes:     notes,
		action:    "reject",
		target:    identity.StatusRejected,
	})
}

// Cancel withdraws the principal's own pending request.
func (w *Workflow) Cancel(ctx context.Context, requestID string) (identity.RoleRequest, error) {
	return w.review(ctx, reviewParams{
		requestID: requestID,
		action:    "cancel",
		target:    identity.StatusCancelled,
	})
}

type reviewParams struct {
	requestID string
	notes     string
	action    string
	target    identity.RequestStatus
}

func (w *Workflow) review(ctx context.Context, p reviewParams) (identity.RoleRequest, error) {
	if p.requestID == "" {
		return identity.RoleRequest{}, apperrors.Validation("request id is required")
	}

	// Terminal states absorb: reviewing an already-resolved cached request
	// fails locally instead of hitting the server.
	if cached, ok := w.cachedRequest(p.requestID); ok && !cached.Status.CanTransition(p.target) {
		return identity.RoleRequest{}, apperrors.Validationf(
			"request %s is %s and cannot become %s", p.requestID, cached.Status, p.target)
	}

	var body any
	if p.notes != "" {
		body = map[string]string{"notes": p.notes}
	}
	resp, err := w.gw.Do(ctx, ports.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("role-requests/%s/%s", url.PathEscape(p.requestID), p.action),
		Body:   body,
	})
	if err != nil {
		return identity.RoleRequest{}, err
	}

	result := w.resolveReviewed(p, resp)
	w.dropPending(p.requestID)

	if p.target == identity.StatusApproved {
		// A granted role changes the identity graph; re-read and tell everyone.
		if _, loadErr := w.registry.Load(ctx); loadErr != nil {
			w.logger.WarnContext(ctx, "reload snapshot after approval", "error", loadErr)
		} else if w.notifier != nil {
			snap, _ := w.registry.Snapshot()
			w.notifier.Broadcast(ports.IdentityEvent{
				Kind:       ports.EventIdentityChanged,
				ActiveRole: snap.ActiveRole,
			})
		}
	}
	return result, nil
}

// resolveReviewed prefers the server's echo of the reviewed request and falls
// back to stamping the cached copy.
func (w *Workflow) resolveReviewed(p reviewParams, resp *ports.Response) identity.RoleRequest {
	var env reviewEnvelope
	if err := resp.Decode(&env); err == nil && env.Data.Request != nil {
		return *env.Data.Request
	}

	result, ok := w.cachedRequest(p.requestID)
	if !ok {
		result = identity.RoleRequest{ID: p.requestID}
	}
	result.Status = p.target
	result.ReviewNotes = p.notes
	reviewedAt := w.now()
	result.ReviewedAt = &reviewedAt
	return result
}

func (w *Workflow) cachedRequest(id string) (identity.RoleRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, req := range w.pending {
		if req.ID == id {
			return req, true
		}
	}
	return identity.RoleRequest{}, false
}

func (w *Workflow) dropPending(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.pending[:0]
	for _, req := range w.pending {
		if req.ID != id {
			kept = append(kept, req)
		}
	}
	w.pending = kept
}
