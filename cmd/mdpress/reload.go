package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const reloadPollInterval = 500 * time.Millisecond

// reloadScript connects the preview page to /ws and reloads it on any
// message.
const reloadScript = `<script>(function(){` +
	`var ws=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+"/ws");` +
	`ws.onmessage=function(){location.reload();};` +
	`})();</script>`

// Same-origin only: the default CheckOrigin compares Origin with Host.
var upgrader = websocket.Upgrader{}

// reloadEvent is sent when the document changes on disk.
type reloadEvent struct {
	Type    string    `json:"type"`
	ModTime time.Time `json:"mod_time"`
}

// injectReloadScript adds reloadScript before </body>, or at the end.
func injectReloadScript(html string) string {
	if i := strings.LastIndex(strings.ToLower(html), "</body>"); i >= 0 {
		return html[:i] + reloadScript + html[i:]
	}
	return html + reloadScript
}

// handleReload polls the document modification time and notifies the page
// when it changes. It returns when the client goes away or the server
// shuts down.
func (srv *previewServer) handleReload(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// Reading is required to process close and ping frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					srv.s.logger.Debug("websocket read failed", "error", err)
				}
				return
			}
		}
	}()

	last := srv.modTime()
	ticker := time.NewTicker(srv.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			mt := srv.modTime()
			if mt.Equal(last) {
				continue
			}
			last = mt
			if err := conn.WriteJSON(reloadEvent{Type: "reload", ModTime: mt}); err != nil {
				return
			}
		}
	}
}

// modTime returns the document modification time, zero when it is gone.
func (srv *previewServer) modTime() time.Time {
	info, err := os.Stat(srv.doc.Path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
