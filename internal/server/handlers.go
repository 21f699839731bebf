package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ashita-ai/keifu/internal/auth"
	"github.com/ashita-ai/keifu/internal/ledger"
	"github.com/ashita-ai/keifu/internal/model"
)

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	store               *ledger.Store
	jwtMgr              *auth.JWTManager
	keyring             *auth.Keyring
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
	snapshotEnabled     bool
}

// HandlersDeps holds all dependencies for constructing Handlers.
type HandlersDeps struct {
	Store               *ledger.Store
	JWTMgr              *auth.JWTManager
	Keyring             *auth.Keyring
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
	SnapshotEnabled     bool
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		store:               d.Store,
		jwtMgr:              d.JWTMgr,
		keyring:             d.Keyring,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
		snapshotEnabled:     d.SnapshotEnabled,
	}
}

// HandleAuthToken handles POST /auth/token. Exchanges a configured API key
// for a JWT carrying the key's role.
func (h *Handlers) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req model.AuthTokenRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.APIKey == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "api_key is required")
		return
	}

	role, ok := h.keyring.Resolve(req.APIKey)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(role)
	if err != nil {
		h.writeInternalError(w, r, "failed to issue token", err)
		return
	}

	h.logger.Info("token issued",
		"role", string(role),
		"request_id", RequestIDFromContext(r.Context()))

	writeJSON(w, r, http.StatusOK, model.AuthTokenResponse{
		Token:     token,
		Role:      role,
		ExpiresAt: expiresAt,
	})
}

// HandleHealth handles GET /health. No auth required.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := ""
	if h.snapshotEnabled {
		snapshot = "ok"
	}
	writeJSON(w, r, http.StatusOK, model.HealthResponse{
		Status:   "healthy",
		Version:  h.version,
		Records:  h.store.Len(),
		Snapshot: snapshot,
		Uptime:   int64(time.Since(h.startedAt).Seconds()),
	})
}

// --- Shared helpers ---

// handleDecodeError maps JSON decode failures to a 400 with a useful message.
func handleDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(w, r, http.StatusRequestEntityTooLarge, model.ErrCodeInvalidInput,
			"request body too large (max "+strconv.FormatInt(maxBytesErr.Limit, 10)+" bytes)")
		return
	}
	writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body: "+err.Error())
}

// writeInternalError logs the underlying error and returns a generic 500.
func (h *Handlers) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		"error", err,
		"path", r.URL.Path,
		"request_id", RequestIDFromContext(r.Context()))
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, msg)
}

// pathID extracts the {id} path value.
func pathID(r *http.Request) string {
	return r.PathValue("id")
}
