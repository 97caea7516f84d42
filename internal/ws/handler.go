package ws

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatd/internal/domain"
	"chatd/internal/security"
)

// EventOnlineUsers carries the full set of online user IDs and is sent to
// every live connection whenever presence changes.
const EventOnlineUsers = "onlineUsers"

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// MakeHandler returns the HTTP handler for the /ws endpoint.
//
// The user identity comes from the handshake's own session token (cookie or
// Bearer header), never from a client-supplied field. On upgrade the
// connection is registered in the presence registry and the updated online
// set is broadcast; the same happens on disconnect. Incoming frames are
// only read to detect the close: clients send messages over HTTP, and the
// connection exists to receive pushes.
func MakeHandler(
	registry *Registry,
	tokens *security.TokenService,
	users domain.UserRepository,
	allowedOrigins []string,
	log zerolog.Logger,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}

	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := security.TokenFromRequest(r)
		if tokenStr == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}

		userID, err := tokens.Verify(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		user, err := users.GetByID(r.Context(), userID)
		if err != nil || user == nil {
			http.Error(w, "user not found", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Int64("user_id", userID).Msg("ws upgrade failed")
			return
		}
		defer conn.Close()

		connID := registry.Connect(user.ID, conn)
		log.Info().Int64("user_id", user.ID).Str("conn_id", connID.String()).Msg("ws connected")
		registry.BroadcastAll(EventOnlineUsers, registry.OnlineUserIDs())

		defer func() {
			registry.Disconnect(user.ID, connID)
			registry.BroadcastAll(EventOnlineUsers, registry.OnlineUserIDs())
			log.Info().Int64("user_id", user.ID).Str("conn_id", connID.String()).Msg("ws disconnected")
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
