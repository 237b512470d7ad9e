// Command ergomcpd builds the Ergo chain analytics tool surface and exposes
// it behind a minimal diagnostic HTTP interface (health/info only — the
// tool-protocol transport itself is out of core scope).
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ergoplatform/ergo-chain-analytics/internal/config"
	"github.com/ergoplatform/ergo-chain-analytics/internal/eip"
	"github.com/ergoplatform/ergo-chain-analytics/internal/fallback"
	"github.com/ergoplatform/ergo-chain-analytics/internal/gateway"
	"github.com/ergoplatform/ergo-chain-analytics/internal/graph"
	"github.com/ergoplatform/ergo-chain-analytics/internal/holders"
	"github.com/ergoplatform/ergo-chain-analytics/internal/logger"
	"github.com/ergoplatform/ergo-chain-analytics/internal/tokencount"
	"github.com/ergoplatform/ergo-chain-analytics/internal/tools"
	"github.com/rs/cors"
)

const version = "1.0.0"

// Server wires configuration, logging, the upstream gateway, every engine,
// and the tool surface into one running process.
type Server struct {
	cfg      *config.Config
	log      logger.Logger
	eip      *eip.Mirror
	tools    *tools.Surface
	isVerReq *bool
}

// NewServer builds a Server from environment configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	lg := logger.New("ergomcpd")

	gw := gateway.New(cfg, lg)
	holderEngine := holders.New(gw, lg)
	graphEngine := graph.New(gw, lg)
	mirror := eip.New(cfg.EIP.RepoURL, cfg.EIP.Dir, cfg.EIP.Interval, lg)
	fallbackStore := fallback.New("resources/address_book_fallback.json")
	estimator := tokencount.New()

	surface := tools.New(cfg, lg, gw, holderEngine, graphEngine, mirror, fallbackStore, estimator, "claude")

	return &Server{
		cfg:      cfg,
		log:      lg,
		eip:      mirror,
		tools:    surface,
		isVerReq: flag.Bool("v", false, "print the application version and exit"),
	}, nil
}

// Run loads the EIP mirror, starts its background refresher, and serves the
// diagnostic HTTP surface until interrupted.
func (s *Server) Run() {
	flag.Parse()
	log.Printf("ergomcpd %s", version)
	if *s.isVerReq {
		return
	}

	if err := s.eip.Load(); err != nil {
		s.log.Errorf("initial EIP mirror load failed, continuing with empty index: %v", err)
	}
	s.eip.Start()

	handler := cors.Default().Handler(s.mux())
	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port

	s.log.Infof("ergomcpd listening on [%s]", addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Criticalf("http server error: %v", err)
		}
	}()

	<-sig
	s.Stop()
}

// Stop signals the EIP refresher to exit and waits for a bounded join.
func (s *Server) Stop() {
	s.log.Notice("ergomcpd is terminating")
	s.eip.Stop()
	s.log.Notice("ergomcpd closed")
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"version": version, "service": "ergo-chain-analytics"})
	})
	return mux
}

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}
	srv.Run()
}
