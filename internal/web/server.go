package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dsox1/amplalgo-app-sub000/internal"
	"github.com/dsox1/amplalgo-app-sub000/internal/domain"
)

const statusPollInterval = 2 * time.Second

type engineControl interface {
	Status() internal.Status
	ActionLog() *domain.ActionLog
	SetProfitThreshold(threshold decimal.Decimal) error
	SetTriggerPrice(price decimal.Decimal) error
	SetProtectionActive(active bool) error
}

// Server exposes HTTP endpoints serving the HTML dashboard, SSE streams of
// engine status and action history, and a settings endpoint.
type Server struct {
	Addr   string
	Engine engineControl
}

// NewServer creates a new web server instance.
func NewServer(addr string, engine engineControl) *Server {
	return &Server{Addr: addr, Engine: engine}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/status/stream", s.handleStatusStream)
	mux.HandleFunc("/actions/stream", s.handleActionStream)
	mux.HandleFunc("/settings", s.handleSettings)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.Engine == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Engine.Status()); err != nil {
		log.Printf("status encode: %v", err)
	}
}

func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	if s.Engine == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeat every 30s so proxies keep the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(statusPollInterval)
	defer pollTicker.Stop()

	sendStatus := func() error {
		payload, err := json.Marshal(s.Engine.Status())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "event: status\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return nil
	}

	if err := sendStatus(); err != nil {
		log.Printf("status stream initial send: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendStatus(); err != nil {
				log.Printf("status stream poll err: %v", err)
			}
		}
	}
}

func (s *Server) handleActionStream(w http.ResponseWriter, r *http.Request) {
	if s.Engine == nil || s.Engine.ActionLog() == nil {
		http.Error(w, "action log not available", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(statusPollInterval)
	defer pollTicker.Stop()

	var lastSent time.Time
	sendActions := func() error {
		for _, entry := range s.Engine.ActionLog().Entries() {
			if !entry.Time.After(lastSent) {
				continue
			}
			payload, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: action\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastSent = entry.Time
		}
		return nil
	}

	if err := sendActions(); err != nil {
		log.Printf("action stream initial send: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendActions(); err != nil {
				log.Printf("action stream poll err: %v", err)
			}
		}
	}
}

type settingsRequest struct {
	ProfitThresholdPercent *string `json:"profit_threshold_percent,omitempty"`
	TriggerPrice           *string `json:"trigger_price,omitempty"`
	ProtectionActive       *bool   `json:"protection_active,omitempty"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.Engine == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	if req.ProfitThresholdPercent != nil {
		threshold, err := decimal.NewFromString(*req.ProfitThresholdPercent)
		if err != nil {
			http.Error(w, "invalid profit_threshold_percent", http.StatusBadRequest)
			return
		}
		if err := s.Engine.SetProfitThreshold(threshold); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}

	if req.TriggerPrice != nil {
		price, err := decimal.NewFromString(*req.TriggerPrice)
		if err != nil {
			http.Error(w, "invalid trigger_price", http.StatusBadRequest)
			return
		}
		if err := s.Engine.SetTriggerPrice(price); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}

	if req.ProtectionActive != nil {
		if err := s.Engine.SetProtectionActive(*req.ProtectionActive); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Engine.Status()); err != nil {
		log.Printf("settings response encode: %v", err)
	}
}
