package control

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"turbodriver/internal/telemetry"
)

// RunHub fans telemetry snapshots out to websocket subscribers of a run,
// adapted from the teacher's ride-keyed connection hub.
type RunHub struct {
	mu         sync.RWMutex
	runConns   map[string]map[*websocket.Conn]struct{}
	register   chan subscription
	unregister chan subscription
}

type subscription struct {
	runID string
	conn  *websocket.Conn
}

func NewRunHub() *RunHub {
	return &RunHub{
		runConns:   make(map[string]map[*websocket.Conn]struct{}),
		register:   make(chan subscription),
		unregister: make(chan subscription),
	}
}

func (h *RunHub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			if h.runConns[sub.runID] == nil {
				h.runConns[sub.runID] = make(map[*websocket.Conn]struct{})
			}
			h.runConns[sub.runID][sub.conn] = struct{}{}
			h.mu.Unlock()
		case sub := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.runConns[sub.runID]; ok {
				delete(conns, sub.conn)
				if len(conns) == 0 {
					delete(h.runConns, sub.runID)
				}
			}
			h.mu.Unlock()
			sub.conn.Close()
		}
	}
}

func (h *RunHub) ServeRun(w http.ResponseWriter, r *http.Request, runID string) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	h.register <- subscription{runID: runID, conn: conn}

	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				h.unregister <- subscription{runID: runID, conn: conn}
				return
			}
		}
	}()
}

// Publish broadcasts a telemetry snapshot to every subscriber of runID.
func (h *RunHub) Publish(runID string, snap telemetry.Snapshot) {
	h.mu.RLock()
	conns := h.runConns[runID]
	h.mu.RUnlock()
	for conn := range conns {
		if err := conn.WriteJSON(snap); err != nil {
			h.unregister <- subscription{runID: runID, conn: conn}
		}
	}
}
