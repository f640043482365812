// Package ws pushes pipeline bus events to WebSocket clients of the API.
package ws

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dslaunch/dslaunch/internal/api"
	"github.com/dslaunch/dslaunch/internal/app"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func Init() {
	var cfg struct {
		Mod struct {
			Origin string `yaml:"origin"`
		} `yaml:"api"`
	}

	app.LoadConfig(&cfg)

	log = app.GetLogger("api")

	initWS(cfg.Mod.Origin)

	api.HandleFunc("api/ws", apiWS)
}

// Message - struct for data exchange in Web API
type Message struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

// Broadcast sends msg to every connected client. Slow clients are
// disconnected instead of blocking the pipeline monitor.
func Broadcast(msg *Message) {
	clientsMu.Lock()
	defer clientsMu.Unlock()

	for ws := range clients {
		_ = ws.SetWriteDeadline(time.Now().Add(time.Second * 5))
		if err := ws.WriteJSON(msg); err != nil {
			log.Debug().Err(err).Msg("[api.ws] drop client")
			_ = ws.Close()
			delete(clients, ws)
		}
	}
}

// internal

var log zerolog.Logger
var wsUp *websocket.Upgrader

var clients = map[*websocket.Conn]struct{}{}
var clientsMu sync.Mutex

func initWS(origin string) {
	wsUp = &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}

	switch origin {
	case "":
		// same origin + ignore port
		wsUp.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header["Origin"]
			if len(origin) == 0 {
				return true
			}
			o, err := url.Parse(origin[0])
			if err != nil {
				return false
			}
			return o.Host == r.Host || o.Hostname() == r.Host
		}
	case "*":
		// any origin
		wsUp.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
}

func apiWS(w http.ResponseWriter, r *http.Request) {
	ws, err := wsUp.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Caller().Send()
		return
	}

	log.Debug().Str("addr", r.RemoteAddr).Msg("[api.ws] client")

	clientsMu.Lock()
	clients[ws] = struct{}{}
	clientsMu.Unlock()

	// drain the connection, clients only listen
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		clientsMu.Lock()
		delete(clients, ws)
		clientsMu.Unlock()

		_ = ws.Close()
	}()
}
