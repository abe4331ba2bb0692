package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/csheth/bioengine/internal/core"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// frame is every server-to-client message. Snapshot frames are pushed after
// each state change; error frames answer a rejected intent.
type frame struct {
	Type     string         `json:"type"`
	Snapshot *core.Snapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
	Message  string         `json:"message,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	rt, err := s.registry.Get(id)
	if err != nil {
		respondErr(w, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.String("session", id), zap.Error(err))
		return
	}
	defer conn.Close()
	log := s.log.With(zap.String("session", id))
	log.Debug("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snaps, unsubscribe, err := rt.Subscribe(ctx)
	if err != nil {
		_ = conn.WriteJSON(frame{Type: "error", Error: errorCode(err), Message: err.Error()})
		return
	}
	defer unsubscribe()

	rejections := make(chan frame, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		// Closing the connection unblocks the read loop below.
		defer conn.Close()
		s.writePump(ctx, conn, snaps, rejections, log)
	}()

	conn.SetReadLimit(maxIntentBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read failed", zap.Error(err))
			}
			break
		}
		intent, err := core.DecodeIntent(raw)
		if err == nil {
			_, err = rt.Dispatch(ctx, intent)
		}
		if err != nil {
			select {
			case rejections <- frame{Type: "error", Error: errorCode(err), Message: err.Error()}:
			case <-ctx.Done():
			}
		}
	}
	cancel()
	<-writerDone
	log.Debug("websocket closed")
}

// writePump is the connection's only writer. It stops when the session is
// removed, the client goes away, or ctx ends.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, snaps <-chan core.Snapshot, rejections <-chan frame, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			if err := writeFrame(conn, frame{Type: "snapshot", Snapshot: &snap}); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case f := <-rejections:
			if err := writeFrame(conn, f); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, f frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}
