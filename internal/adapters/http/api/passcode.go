package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/bizboard/internal/passcode"
)

// PasscodeDependencies defines the passcode operations.
type PasscodeDependencies interface {
	IssuePasscode(ctx context.Context, email string) error
	VerifyPasscode(ctx context.Context, email, code string) (string, error)
}

// PasscodeHandler handles passcode requests.
type PasscodeHandler struct {
	deps PasscodeDependencies
}

// NewPasscodeHandler creates a new passcode handler.
func NewPasscodeHandler(deps PasscodeDependencies) *PasscodeHandler {
	return &PasscodeHandler{deps: deps}
}

type issueRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email    string `json:"email"`
	Passcode string `json:"passcode"`
}

type issueResponse struct {
	Status string `json:"status"`
}

// verifyResponse carries a null token when the passcode did not match.
type verifyResponse struct {
	Token *string `json:"token"`
}

// HandleIssue handles POST /passcode.
func (h *PasscodeHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	const op = "api.issue_passcode"
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.IssuePasscode(r.Context(), req.Email); err != nil {
		writePasscodeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, issueResponse{Status: "sent"})
}

// HandleVerify handles POST /passcode/verify.
func (h *PasscodeHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	const op = "api.verify_passcode"
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	token, err := h.deps.VerifyPasscode(r.Context(), req.Email, req.Passcode)
	if err != nil {
		writePasscodeError(w, op, err)
		return
	}
	var resp verifyResponse
	if token != "" {
		resp.Token = &token
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePasscodeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, passcode.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, passcode.ErrNotApproved):
		writeError(w, http.StatusPreconditionFailed, "not_approved", Wrap(op, err))
	case errors.Is(err, passcode.ErrNoPasscode):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, passcode.ErrExpired):
		writeError(w, http.StatusGone, "expired", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
