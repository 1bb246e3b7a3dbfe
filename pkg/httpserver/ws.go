package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumera-labs/lumera-streams/pkg/types"
	"github.com/lumera-labs/lumera-streams/pkg/view"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// pushMessage is one live update. Every field is evaluated at Now.
type pushMessage struct {
	Account       string              `json:"account"`
	Now           int64               `json:"now"`
	ETag          string              `json:"etag"`
	Sort          types.SortKey       `json:"sort"`
	Status        types.FilterStatus  `json:"status"`
	Incoming      []types.StreamEntry `json:"incoming"`
	Outgoing      []types.StreamEntry `json:"outgoing"`
	RatePerSecond float64             `json:"rate_per_second"`
	RateDisplay   string              `json:"rate_display"`
}

// handleWS pushes the wallet snapshot every tick until the client goes away. Frames
// are only sent when the snapshot changed.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	account, ok := parseAccount(r)
	if !ok {
		http.Error(w, "invalid account", http.StatusBadRequest)
		return
	}
	sort, ok := parseSort(r)
	if !ok {
		http.Error(w, "invalid sort", http.StatusBadRequest)
		return
	}
	status, ok := parseStatus(r)
	if !ok {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	s.cfg.Metrics.Request("/ws", http.StatusSwitchingProtocols)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					slog.Debug("websocket read failed", "account", account, "err", err)
				}
				return
			}
		}
	}()

	tick := time.NewTicker(s.cfg.Tick)
	defer tick.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	ctx := r.Context()
	var lastETag string
	for {
		snap, err := s.cfg.Cache.Snapshot(ctx, account, sort)
		if err != nil {
			slog.Warn("websocket snapshot failed", "account", account, "err", err)
		} else if snap.ETag != lastETag {
			b, err := json.Marshal(pushMessage{
				Account:       snap.Account,
				Now:           snap.Now,
				ETag:          snap.ETag,
				Sort:          snap.Sort,
				Status:        status,
				Incoming:      view.Select(snap.Incoming, status),
				Outgoing:      snap.Outgoing,
				RatePerSecond: snap.NetRatePerSecond,
				RateDisplay:   snap.NetRateDisplay,
			})
			if err != nil {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
			lastETag = snap.ETag
		}
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-tick.C:
		}
	}
}
