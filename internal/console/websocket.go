package console

import (
	"log/slog"
	"net/http"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/app/logger/logging"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/metrics"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/wire"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// HandleWebSocket authenticates the bearer credential and hands the
// connection over to the realtime world. Verification failures answer
// 401 with no body; the peer learns nothing about the reason.
func (c *Console) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, _, err := c.authenticate(r)
	if err != nil {
		metrics.AuthFailures.Inc()
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{wire.SupportedRealm},
	})
	if err != nil {
		metrics.ConnectionErrs.Inc()
		slog.Error("Could not accept the connection",
			logging.Error(err),
			"origin", r.Header.Get("Origin"),
			"account", identity.AccountID)
		return
	}
	defer conn.CloseNow()

	if conn.Subprotocol() != wire.SupportedRealm {
		_ = conn.Close(websocket.StatusPolicyViolation, "client must speak the right subprotocol")
		return
	}

	connID := uuid.NewString()
	session, err := c.World.Connect(connID, identity.AccountID, identity.IsAdmin, conn)
	if err != nil {
		slog.Error("Could not create the session", logging.Error(err), logging.ConnID(connID))
		return
	}
	slog.Info("Connected", "username", identity.Username, logging.ConnID(connID))

	if err := c.World.HandleSession(r.Context(), session); err != nil {
		return
	}
}
