package handler

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/middleware"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/service"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// AuthHandler handles session endpoints.
type AuthHandler struct {
	service      *service.AuthService
	cookieSecure bool
	logger       *logger.Logger
}

// NewAuthHandler creates a new auth handler. cookieSecure controls the
// Secure flag of the session cookie; secure cookies are sent SameSite=None
// so a separately hosted dashboard can use them.
func NewAuthHandler(svc *service.AuthService, cookieSecure bool, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service:      svc,
		cookieSecure: cookieSecure,
		logger:       log,
	}
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cookieSecure {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// Session handles POST /api/auth/session. The callback token arrives as a
// form field or a JSON body.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		req.SessionID = r.FormValue("session_id")
	}
	if err := middleware.Validate(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	session, _, err := h.service.CreateSession(r.Context(), req.SessionID)
	if err != nil {
		respondError(w, h.logger, err, "failed to create session")
		return
	}

	http.SetCookie(w, h.cookie(session.Token, int(h.service.TTL()/time.Second)))
	writeJSON(w, http.StatusOK, model.CreateSessionResponse{
		Success:      true,
		SessionToken: session.Token,
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.GetUser(r.Context()))
}

// Logout handles POST /api/auth/logout. It succeeds without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionToken(r)
	if token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			h.logger.Warn("failed to delete session", zap.Error(err))
		}
		http.SetCookie(w, h.cookie("", -1))
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}
