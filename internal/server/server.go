package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"incidentbrief/internal/analyzer"
	"incidentbrief/internal/config"
	"incidentbrief/internal/parser"
	"incidentbrief/pkg/models"
)

// Server exposes the ingest/analyze API, the dashboard page and a WebSocket
// feed of live briefs produced by the file pipeline.
type Server struct {
	config    config.ServerConfig
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex
	broadcast chan models.Brief
}

// New creates a new server
func New(cfg config.ServerConfig) *Server {
	return &Server{
		config: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan models.Brief, 100),
	}
}

// Broadcast returns the channel live briefs are published on
func (s *Server) Broadcast() chan<- models.Brief {
	return s.broadcast
}

// Handler builds the HTTP handler with panic recovery applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ingest", s.handleIngest)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/", s.handleIndex)
	return recoverHandler(mux)
}

// Start runs the server until the context is cancelled
func (s *Server) Start(ctx context.Context) {
	go s.broadcastLoop(ctx)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go func() {
		log.Printf("Incident briefer listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	server.Shutdown(context.Background())
}

// recoverHandler turns an unexpected panic in any handler into a 500
func recoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("Panic serving %s: %v", r.URL.Path, rec)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type ingestRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	incident, err := parser.Parse(req.Text)
	if err != nil {
		if errors.Is(err, parser.ErrNoText) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Parse failed: %v", err)
		http.Error(w, "Failed to parse log text", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"incident": incident})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// An absent body is treated as an empty request so it falls through to
	// the missing-logs rejection below.
	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	output, err := analyzer.Analyze(&req)
	if err != nil {
		if errors.Is(err, analyzer.ErrNoLogs) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Analyze failed: %v", err)
		http.Error(w, "Failed to analyze incident", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"output": output})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Response encode error: %v", err)
	}
}

func (s *Server) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case brief := <-s.broadcast:
			s.clientsMu.RLock()
			for client := range s.clients {
				if err := client.WriteJSON(brief); err != nil {
					log.Printf("WebSocket write error: %v", err)
					client.Close()
					go s.removeClient(client)
				}
			}
			s.clientsMu.RUnlock()
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	log.Printf("WebSocket client connected")

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			s.removeClient(conn)
			break
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, conn)
}
