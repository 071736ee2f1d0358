package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

const clientScript = `(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "` + LiveReloadPath + `");
  ws.onmessage = function () { location.reload(); };
})();
`

// reloadMessage is sent to every client on Reload.
type reloadMessage struct {
	Command string `json:"command"`
	Reason  string `json:"reason,omitempty"`
}

// hub tracks live reload websocket clients.
type hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("livereload upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Clients never send anything useful; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(conn)
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

func (h *hub) broadcast(reason string) {
	payload, err := json.Marshal(reloadMessage{Command: "reload", Reason: reason})
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))

		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("dropping livereload client", slog.String("error", err.Error()))
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		delete(h.clients, conn)
	}
}

func serveScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	_, _ = w.Write([]byte(clientScript))
}
