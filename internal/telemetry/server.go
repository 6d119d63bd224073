package telemetry

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Server hosts the /ws diagnostics endpoint.
type Server struct {
	hub       *Hub
	httpSrv   *http.Server
	queueSize int
	log       *zap.Logger
}

func NewServer(addr string, queueSize int, hub *Hub, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{hub: hub, queueSize: queueSize, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("telemetry listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("telemetry server stopped", zap.Error(err))
		}
	}()
}

// Shutdown drains the HTTP server. Client connections are torn down by
// the hub when its Run context is cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	if s.hub.ClientCount() >= maxClients {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("telemetry upgrade failed", zap.Error(err))
		return
	}

	client := newClient(s.hub, conn, r.RemoteAddr, s.queueSize)
	s.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
