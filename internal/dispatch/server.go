// SPDX-License-Identifier: MPL-2.0

// Package dispatch implements the action-dispatch boundary layer: an HTTP
// endpoint that receives a named action plus a parameter mapping and either
// performs a simple local side effect or hands generated code to the
// execution engine, relaying the engine's single result line unmodified.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

type (
	// ServerConfig configures the dispatch server.
	ServerConfig struct {
		// Port is the TCP port to listen on.
		Port int
		// DatabasePath is the sqlite audit database location.
		DatabasePath string
		// Engine runs generated code; nil means SubprocessEngine on the
		// current executable.
		Engine CodeEngine
		// Logger receives server logs; nil means a stderr logger.
		Logger *log.Logger
	}

	// Server is the action dispatch HTTP server.
	Server struct {
		cfg    ServerConfig
		audit  *AuditLog
		engine CodeEngine
		logger *log.Logger
		http   *http.Server
	}

	// actionRequest is the wire shape of a dispatch request.
	actionRequest struct {
		Action string `json:"action"`
		Params Params `json:"params"`
	}
)

// NewServer creates a dispatch server and opens its audit database.
func NewServer(cfg ServerConfig) (*Server, error) {
	audit, err := OpenAuditLog(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	engine := cfg.Engine
	if engine == nil {
		engine = &SubprocessEngine{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "dispatch"})
	}

	s := &Server{cfg: cfg, audit: audit, engine: engine, logger: logger}

	router := mux.NewRouter()
	router.HandleFunc("/api/action", s.handleAction).Methods(http.MethodPost)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// ListenAndServe blocks serving requests until ctx is cancelled or the
// listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.http.Addr, err)
	}
	s.logger.Info("action dispatch server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if serveErr := s.http.Serve(ln); !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown stops the server gracefully and closes the audit database.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := s.http.Shutdown(ctx)
	closeErr := s.audit.Close()
	if shutdownErr != nil {
		return shutdownErr
	}
	return closeErr
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// handleAction decodes one request, dispatches it, audits the pair, and
// writes the response. For run_generated_code the engine's result line is
// the body, byte for byte.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("malformed action request", "err", err)
		w.WriteHeader(http.StatusBadRequest)
		s.writeJSON(w, errorResponse("Invalid JSON for parameters"))
		return
	}

	start := time.Now()
	body := s.dispatch(r.Context(), req)
	s.logger.Info("action dispatched",
		"action", req.Action, "duration", time.Since(start))

	reqJSON, _ := json.Marshal(req)
	if _, err := s.audit.Record(r.Context(), req.Action, string(reqJSON), body); err != nil {
		s.logger.Error("failed to record action", "err", err)
	}

	fmt.Fprintln(w, body)
}

// dispatch routes the action to its handler and returns the response body
// as a JSON string.
func (s *Server) dispatch(ctx context.Context, req actionRequest) string {
	switch req.Action {
	case "run_terminal_command":
		return s.encode(runTerminalCommand(ctx, req.Params))
	case "create_website":
		return s.encode(createWebsite(req.Params))
	case "turn_on_lights":
		return s.encode(turnOnLights(req.Params))
	case "run_generated_code":
		line, failure := runGeneratedCode(ctx, s.engine, req.Params)
		if failure != nil {
			return s.encode(failure)
		}
		return line
	default:
		return s.encode(errorResponse("Unknown function"))
	}
}

func (s *Server) encode(resp Response) string {
	out, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", "err", err)
		return `{"error":"internal encoding failure"}`
	}
	return string(out)
}

func (s *Server) writeJSON(w http.ResponseWriter, resp Response) {
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to write response", "err", err)
	}
}
