package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/findbooks/api/internal/auth"
	"github.com/findbooks/api/internal/domain/otp"
	"github.com/findbooks/api/internal/domain/user"
)

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type authResponse struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

// Register handles POST /users.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := validateRegistration(req); len(fields) > 0 {
		respond(w, http.StatusBadRequest, map[string]errorBody{"error": {
			Code:    http.StatusBadRequest,
			Message: "validation failed",
			Fields:  fields,
		}})
		return
	}

	u, token, err := h.users.Register(r.Context(), user.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Mobile:    req.Mobile,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, authResponse{User: u, Token: token})
}

func validateRegistration(req registerRequest) map[string]string {
	fields := map[string]string{}
	if req.FirstName == "" {
		fields["first_name"] = "First name is required"
	}
	if req.LastName == "" {
		fields["last_name"] = "Last name is required"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "A valid email is required"
	}
	if len(req.Password) < 6 {
		fields["password"] = "Password must be at least 6 characters"
	}
	return fields
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, authResponse{User: u, Token: token})
}

// CurrentUser handles GET /users/me.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, u)
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, users)
}

// UpdateUser handles PUT /users, updating the authenticated caller's profile.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		respondErrorMsg(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.Update(r.Context(), user.UpdateRequest{
		UserID:    auth.UserIDFromContext(r.Context()),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Mobile:    req.Mobile,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /users, removing the authenticated caller.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), auth.UserIDFromContext(r.Context())); err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// IssueRegistrationOTP handles POST /otp/register.
func (h *Handler) IssueRegistrationOTP(w http.ResponseWriter, r *http.Request) {
	h.issueOTP(w, r, otp.PurposeRegister)
}

// IssueOTP handles POST /{purpose}/forgot-password. The path segment selects
// the flow the code belongs to.
func (h *Handler) IssueOTP(w http.ResponseWriter, r *http.Request) {
	purpose, ok := parsePurpose(chi.URLParam(r, "purpose"))
	if !ok {
		respondErrorMsg(w, http.StatusBadRequest, "unknown OTP purpose")
		return
	}
	h.issueOTP(w, r, purpose)
}

func (h *Handler) issueOTP(w http.ResponseWriter, r *http.Request, purpose otp.Purpose) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil || req.Email == "" {
		respondErrorMsg(w, http.StatusBadRequest, "email is required")
		return
	}

	// Password-reset codes only go to registered accounts.
	if purpose == otp.PurposeForgotPassword {
		if _, err := h.users.GetByEmail(r.Context(), req.Email); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	if err := h.otps.Issue(r.Context(), req.Email, purpose); err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "OTP sent successfully"})
}

// VerifyRegistrationOTP handles POST /otp/register/verify.
func (h *Handler) VerifyRegistrationOTP(w http.ResponseWriter, r *http.Request) {
	h.verifyOTP(w, r, otp.PurposeRegister)
}

// VerifyOTP handles POST /verify-otp. The purpose defaults to the
// password-reset flow when the body leaves it out.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	h.verifyOTP(w, r, otp.PurposeForgotPassword)
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request, fallback otp.Purpose) {
	var req struct {
		Email   string `json:"email"`
		OTP     string `json:"otp"`
		Purpose string `json:"purpose"`
	}
	if err := decode(r, &req); err != nil || req.Email == "" || req.OTP == "" {
		respondErrorMsg(w, http.StatusBadRequest, "email and otp are required")
		return
	}

	purpose := fallback
	if req.Purpose != "" {
		p, ok := parsePurpose(req.Purpose)
		if !ok {
			respondErrorMsg(w, http.StatusBadRequest, "unknown OTP purpose")
			return
		}
		purpose = p
	}

	if err := h.otps.Verify(r.Context(), req.Email, purpose, req.OTP); err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "OTP verified successfully"})
}

// ResetPassword handles POST /reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil || req.Email == "" {
		respondErrorMsg(w, http.StatusBadRequest, "email is required")
		return
	}
	if len(req.Password) < 6 {
		respondErrorMsg(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	if err := h.users.ResetPassword(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondErrorMsg(w, http.StatusBadRequest, "no account registered for this email")
			return
		}
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "password reset successfully"})
}

func parsePurpose(raw string) (otp.Purpose, bool) {
	switch otp.Purpose(strings.ToLower(raw)) {
	case otp.PurposeRegister:
		return otp.PurposeRegister, true
	case otp.PurposeForgotPassword:
		return otp.PurposeForgotPassword, true
	case otp.PurposeDelivery:
		return otp.PurposeDelivery, true
	case otp.PurposeResellDelivery:
		return otp.PurposeResellDelivery, true
	default:
		return "", false
	}
}
