package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seenimoa/gaugekit/internal/ambient"
	"github.com/seenimoa/gaugekit/internal/render"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the demo page may be opened from any origin
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Render messages carry a
	// full gauge configuration.
	maxMessageSize = 16 << 10
)

// session is one live gauge: the page's own class list and color scheme
// preference feed a detector that the gauge re-renders from.
type session struct {
	doc    *ambient.Document
	pref   *ambient.Preference
	gauge  *render.Gauge
	client *WSClient
	logger *slog.Logger
}

func (s *Server) newSession(client *WSClient) *session {
	sess := &session{
		doc:    ambient.NewDocument(),
		pref:   ambient.NewPreference(false),
		client: client,
		logger: s.logger,
	}
	opts := s.newGaugeRequest().Options()
	sess.gauge = render.NewGauge(opts, sess.detector(opts.AutoDetectTheme))
	sess.gauge.OnRender(func(svg string) {
		client.Send(WSMessage{Type: MsgSVG, Data: sess.svgMessage(svg)})
	})
	return sess
}

// detector builds a detector over the session's signals. With auto off it
// never subscribes, so page signals cost nothing.
func (sess *session) detector(auto bool) *ambient.Detector {
	det := ambient.NewDetector(sess.doc, sess.pref,
		ambient.WithAutoDetect(auto), ambient.WithLogger(sess.logger))
	det.OnChange(func(m ambient.Mode) {
		sess.client.Send(WSMessage{Type: MsgMode, Data: ModeMessage{Mode: m.String(), Scope: ScopeSession}})
	})
	return det
}

// update applies opts, swapping the detector when the auto-detect switch
// flips.
func (sess *session) update(opts render.Options) {
	if opts.AutoDetectTheme == sess.gauge.AutoDetect() {
		sess.gauge.Update(opts)
		return
	}
	sess.gauge.Rebind(opts, sess.detector(opts.AutoDetectTheme))
}

func (sess *session) svgMessage(svg string) SVGMessage {
	return SVGMessage{ID: sess.gauge.ID(), Mode: sess.gauge.Mode().String(), SVG: svg}
}

// handleWebSocket upgrades HTTP connections to WebSocket and runs a live
// gauge session for the page on the other end.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := s.wsHub.NewClient()
	s.wsHub.Register(client)

	sess := s.newSession(client)
	client.Send(WSMessage{Type: MsgSVG, Data: sess.svgMessage(sess.gauge.SVG())})

	// Start reader and writer goroutines
	go s.wsWritePump(conn, client)
	go s.wsReadPump(conn, client, sess)
}

// wsReadPump handles client messages until the connection drops, then
// disposes the session so no subscription outlives the page.
func (s *Server) wsReadPump(conn *websocket.Conn, client *WSClient, sess *session) {
	defer func() {
		sess.gauge.Dispose()
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			client.Send(WSMessage{Type: MsgError, Data: "invalid message: " + err.Error()})
			continue
		}

		switch msg.Type {
		case MsgSignals:
			var sig SignalsMessage
			if err := json.Unmarshal(msg.Data, &sig); err != nil {
				client.Send(WSMessage{Type: MsgError, Data: "invalid signals: " + err.Error()})
				continue
			}
			applySignals(sess.doc, sess.pref, sig)
		case MsgRender:
			req := s.newGaugeRequest()
			if len(msg.Data) > 0 {
				if err := json.Unmarshal(msg.Data, &req); err != nil {
					client.Send(WSMessage{Type: MsgError, Data: "invalid render: " + err.Error()})
					continue
				}
			}
			opts := req.Options()
			if err := opts.Gauge.Validate(); err != nil {
				client.Send(WSMessage{Type: MsgError, Data: err.Error()})
				continue
			}
			sess.update(opts)
		case MsgPing:
			client.Send(WSMessage{Type: MsgPong})
		default:
			client.Send(WSMessage{Type: MsgError, Data: "unknown message type " + msg.Type})
		}
	}
}

// wsWritePump pumps queued messages to the WebSocket connection.
func (s *Server) wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
