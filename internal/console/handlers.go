package console

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/app/logger/logging"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/console/auth"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/console/database"
)

func renderJSON(w http.ResponseWriter, _ *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Could not encode the response", logging.Error(err))
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.WriteHeader(status)
	renderJSON(w, r, map[string]string{"error": message})
}

// bearerToken extracts the token from the Authorization header, with a
// query parameter fallback for clients that cannot set headers.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// authenticate verifies the bearer token and checks the account still
// exists and is not banned.
func (c *Console) authenticate(r *http.Request) (auth.Identity, database.Account, error) {
	token := bearerToken(r)
	if token == "" {
		return auth.Identity{}, database.Account{}, auth.ErrTokenInvalid
	}

	identity, err := c.Signer.VerifyToken(token)
	if err != nil {
		return auth.Identity{}, database.Account{}, err
	}

	account, err := c.DB.Read.GetAccount(r.Context(), identity.AccountID)
	if err != nil {
		return auth.Identity{}, database.Account{}, auth.ErrTokenInvalid
	}
	if account.IsBanned {
		return auth.Identity{}, database.Account{}, auth.ErrTokenInvalid
	}

	return identity, account, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// HandleLogin checks the credentials and mints the bearer token used
// by both the API and the realtime websocket.
func (c *Console) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, err := c.DB.Read.FindAccountByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			slog.Error("Could not look up the account", logging.Error(err))
		}
		renderError(w, r, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !auth.CheckPassword(req.Password, account.PasswordHash) {
		renderError(w, r, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if account.IsBanned {
		renderError(w, r, http.StatusForbidden, "Account is banned")
		return
	}

	token, err := c.Signer.CreateToken(auth.Identity{
		AccountID: account.ID,
		Username:  account.Username,
		IsAdmin:   account.IsAdmin,
	})
	if err != nil {
		slog.Error("Could not create a token", logging.Error(err))
		renderError(w, r, http.StatusInternalServerError, "Could not create a token")
		return
	}

	if err := c.DB.Write.UpdateLastLogin(r.Context(), account.ID); err != nil {
		slog.Warn("Could not update last login", logging.Error(err))
	}

	renderJSON(w, r, loginResponse{
		Token:    token,
		Username: account.Username,
		IsAdmin:  account.IsAdmin,
	})
}

type announceRequest struct {
	Text string `json:"text"`
}

// HandleAnnounce lets an administrator push a server-wide announcement
// into the realtime layer without a websocket session.
func (c *Console) HandleAnnounce(w http.ResponseWriter, r *http.Request) {
	identity, _, err := c.authenticate(r)
	if err != nil {
		renderError(w, r, http.StatusUnauthorized, "Invalid token")
		return
	}
	if !identity.IsAdmin {
		renderError(w, r, http.StatusForbidden, "Admin access required")
		return
	}

	var req announceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		renderError(w, r, http.StatusBadRequest, "Announcement text is required")
		return
	}

	c.World.BroadcastAnnouncement(text)
	slog.Info("Announcement broadcast", "admin", identity.Username)

	renderJSON(w, r, map[string]string{"status": "OK"})
}
