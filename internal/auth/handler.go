package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mkravets/identity-core/internal/account"
	"github.com/mkravets/identity-core/internal/api"
	"github.com/mkravets/identity-core/internal/federation"
	"github.com/mkravets/identity-core/internal/otc"
	"github.com/mkravets/identity-core/internal/sequence"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes mounts the operation surface on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc(api.AuthRegister, h.Register).Methods(http.MethodPost)
	r.HandleFunc(api.AuthLogin, h.Login).Methods(http.MethodPost)
	r.HandleFunc(api.AuthGoogle, h.LoginWithGoogle).Methods(http.MethodPost)
	r.HandleFunc(api.AuthForgotPassword, h.RequestPasswordReset).Methods(http.MethodPost)
	r.HandleFunc(api.AuthVerifyResetCode, h.VerifyResetCode).Methods(http.MethodPost)
	r.HandleFunc(api.AuthResetPassword, h.ResetPassword).Methods(http.MethodPost)
	r.HandleFunc(api.AuthMe, h.Me).Methods(http.MethodGet)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Code string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := validateRegisterRequest(&req); err != nil {
		h.log.Warn("invalid register request", zap.String("error", err.Error()))
		h.respondError(w, err)
		return
	}

	session, err := h.service.Register(r.Context(), account.Draft{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusCreated, session)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		h.respondError(w, ErrInvalidCredentials)
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusOK, session)
}

func (h *Handler) LoginWithGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Code == "" {
		h.respondError(w, &account.ValidationError{Field: "code", Message: "authorization code is required"})
		return
	}

	session, err := h.service.LoginWithGoogle(r.Context(), req.Code)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusOK, session)
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.respondError(w, err)
		return
	}

	// The code travels by mail only, never in this response.
	h.respond(w, http.StatusOK, map[string]string{
		"message": "Reset code sent.",
	})
}

func (h *Handler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	valid, err := h.service.VerifyResetCode(r.Context(), req.Email, req.Code)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	confirmation, err := h.service.ResetPassword(r.Context(), req.Email, req.NewPassword)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusOK, confirmation)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, err := GetAccountFromContext(r.Context())
	if err != nil {
		h.respond(w, http.StatusForbidden, errorBody("access denied", nil))
		return
	}

	view, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusOK, view)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respond(w, http.StatusBadRequest, errorBody("invalid request body", nil))
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

// respondError maps domain conditions to stable status codes. Details
// never include passwords, digests, or unconsumed codes.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var validationErr *account.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.respond(w, http.StatusBadRequest, errorBody(validationErr.Message, map[string]string{
			"field": validationErr.Field,
		}))
	case errors.Is(err, account.ErrEmailTaken):
		h.respond(w, http.StatusConflict, errorBody("email already registered", nil))
	case errors.Is(err, ErrInvalidCredentials):
		h.respond(w, http.StatusUnauthorized, errorBody("Invalid email or password.", nil))
	case errors.Is(err, account.ErrAccountNotFound):
		h.respond(w, http.StatusNotFound, errorBody("account not found", nil))
	case errors.Is(err, federation.ErrUpstreamAuth):
		h.respond(w, http.StatusBadGateway, errorBody("federated login failed", nil))
	case errors.Is(err, federation.ErrUpstreamUnavailable),
		errors.Is(err, otc.ErrStoreUnavailable),
		errors.Is(err, sequence.ErrStoreUnavailable):
		h.respond(w, http.StatusServiceUnavailable, errorBody("service temporarily unavailable", nil))
	default:
		h.log.Error("request failed", zap.Error(err))
		h.respond(w, http.StatusInternalServerError, errorBody("internal error", nil))
	}
}

func errorBody(message string, details map[string]string) map[string]interface{} {
	body := map[string]interface{}{"error": message}
	if len(details) > 0 {
		body["details"] = details
	}
	return body
}

func validateRegisterRequest(req *registerRequest) error {
	if req.Email == "" {
		return &account.ValidationError{Field: "email", Message: "email is required"}
	}
	if !isValidEmail(req.Email) {
		return &account.ValidationError{Field: "email", Message: "invalid email format"}
	}
	if req.Password != "" && len(req.Password) < minPasswordLength {
		return &account.ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
