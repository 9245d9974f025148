package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sitekit/sitekit/internal/search"
)

// socketRequest is one keystroke's query from the search box
type socketRequest struct {
	Seq   uint64 `json:"seq"`
	Query string `json:"query"`
}

// socketResponse carries results for the request numbered Seq
type socketResponse struct {
	Seq     uint64           `json:"seq"`
	Results search.ResultSet `json:"results"`
	Error   string           `json:"error,omitempty"`
}

// handleSearchSocket serves live search. Queries run concurrently; a reply
// is sent only if no newer query arrived while it ran, so results on the
// client never go backwards.
func (s *Server) handleSearchSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Warning: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	queries := 0
	log.Printf("Search socket %s opened from %s", id, r.RemoteAddr)
	defer func() { log.Printf("Search socket %s closed after %d queries", id, queries) }()

	session := search.NewSession(s.app.Engine)
	var writeMu sync.Mutex
	send := func(resp socketResponse) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("Warning: search socket %s write: %v", id, err)
		}
	}

	ctx := r.Context()
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Warning: search socket %s read: %v", id, err)
			}
			return
		}

		var req socketRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			send(socketResponse{Error: "invalid message format"})
			continue
		}

		queries++
		wg.Add(1)
		go func(req socketRequest) {
			defer wg.Done()
			session.Submit(ctx, req.Seq, req.Query, func(seq uint64, results search.ResultSet) {
				if results == nil {
					results = search.ResultSet{}
				}
				send(socketResponse{Seq: seq, Results: results})
			})
		}(req)
	}
}
