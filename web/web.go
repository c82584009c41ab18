// Package web provides an HTTP server exposing a sales data file as a JSON
// API.
//
// The server loads the input once on start, fetches the product catalog and
// keeps the parsed batch in memory. When watching is enabled the batch is
// rebuilt whenever the input file changes and connected clients receive a
// "reload" event.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/robinvdvleuten/salesreport/catalog"
	"github.com/robinvdvleuten/salesreport/loader"
	"github.com/robinvdvleuten/salesreport/logger"
	"github.com/robinvdvleuten/salesreport/pipeline"
	"github.com/robinvdvleuten/salesreport/report"
	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/robinvdvleuten/salesreport/telemetry"
)

type Server struct {
	Port         int
	Host         string
	Version      string
	CommitSHA    string
	WatchEnabled bool

	// Catalog supplies product metadata for enrichment. Nil disables it.
	Catalog catalog.Fetcher
	Loader  *loader.Loader
	Report  []report.Option

	mu     sync.RWMutex
	runID  uuid.UUID
	lines  []string
	lookup sales.Lookup
	batch  *pipeline.Batch

	// inputFile is the path passed to New; inputPath is its absolute form.
	inputFile string
	inputPath string

	// SSE clients for broadcasting reload events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

func New(port int, inputFile string) *Server {
	return NewWithVersion(port, inputFile, "", "")
}

func NewWithVersion(port int, inputFile, version, commitSHA string) *Server {
	return &Server{
		Port:       port,
		Host:       "127.0.0.1",
		Version:    version,
		CommitSHA:  commitSHA,
		inputFile:  inputFile,
		sseClients: make(map[chan string]struct{}),
	}
}

func (s *Server) Start(ctx context.Context) error {
	collector := telemetry.FromContext(ctx)
	timer := collector.Start(fmt.Sprintf("web.start %s:%d", s.Host, s.Port))
	defer timer.End()

	if s.inputFile == "" {
		return fmt.Errorf("input file is required")
	}

	catalogTimer := timer.Child("web.catalog")
	s.loadCatalog(ctx)
	catalogTimer.End()

	loadTimer := timer.Child(fmt.Sprintf("web.load %s", filepath.Base(s.inputFile)))
	if err := s.reload(ctx); err != nil {
		loadTimer.End()
		return fmt.Errorf("failed to load sales data: %w", err)
	}
	loadTimer.End()

	if s.WatchEnabled {
		if err := s.startWatcher(ctx); err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	setupTimer := timer.Child("web.setup_router")
	mux := s.setupRouter()
	setupTimer.End()

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) setupRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/summary", s.handleGetSummary)
	mux.HandleFunc("GET /api/regions", s.handleGetRegions)
	mux.HandleFunc("GET /api/products", s.handleGetProducts)
	mux.HandleFunc("GET /api/low-performers", s.handleGetLowPerformers)
	mux.HandleFunc("GET /api/customers", s.handleGetCustomers)
	mux.HandleFunc("GET /api/daily", s.handleGetDaily)
	mux.HandleFunc("GET /api/peak", s.handleGetPeak)
	mux.HandleFunc("GET /api/rejections", s.handleGetRejections)
	mux.HandleFunc("GET /api/enriched", s.handleGetEnriched)
	mux.HandleFunc("GET /api/report", s.handleGetReport)
	mux.HandleFunc("GET /api/events", s.handleSSE)

	return mux
}

// loadCatalog fetches the product lookup once; catalog failures leave it
// empty.
func (s *Server) loadCatalog(ctx context.Context) {
	var lookup sales.Lookup
	if s.Catalog != nil {
		lookup = catalog.Load(ctx, s.Catalog)
	}

	s.mu.Lock()
	s.lookup = lookup
	s.mu.Unlock()
}

// reload reads the input file and rebuilds the unfiltered batch.
// Caller must NOT hold the mutex - this method acquires it internally.
func (s *Server) reload(ctx context.Context) error {
	path, err := filepath.Abs(s.inputFile)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	ldr := s.Loader
	if ldr == nil {
		ldr = loader.New()
	}
	lines, err := ldr.Load(ctx, path)
	if err != nil {
		return err
	}

	s.mu.RLock()
	lookup := s.lookup
	s.mu.RUnlock()

	batch := pipeline.Analyze(ctx, lines, lookup)

	s.mu.Lock()
	s.runID = uuid.New()
	s.inputPath = path
	s.lines = lines
	s.batch = batch
	s.mu.Unlock()

	logger.FromContext(ctx).Debug().
		Str("input", path).
		Int("valid", len(batch.Valid())).
		Msg("loaded sales data")
	return nil
}

// startWatcher watches the input file and reloads the batch on change.
func (s *Server) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	s.mu.RLock()
	path := s.inputPath
	s.mu.RUnlock()

	if err := watcher.Add(path); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("file", path).Msg("failed to watch file")
	}

	go s.runWatcher(ctx, watcher)

	return nil
}

// runWatcher processes file system events with debouncing.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		_ = watcher.Close()
	}()

	// Editors often write files in multiple steps
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Remove/Rename are common in atomic saves
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}

			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx, watcher)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.FromContext(ctx).Warn().Err(err).Msg("file watcher error")
		}
	}
}

// handleFileChange reloads the batch and re-adds the watch, which is lost
// when an editor replaces the file.
func (s *Server) handleFileChange(ctx context.Context, watcher *fsnotify.Watcher) {
	log := logger.FromContext(ctx)

	if err := s.reload(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to reload sales data")
		return
	}

	s.mu.RLock()
	path := s.inputPath
	s.mu.RUnlock()

	if err := watcher.Add(path); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("failed to watch file")
	}

	s.broadcast("reload")
}

// handleSSE handles Server-Sent Events connections for real-time updates.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan string, 10)

	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// Client buffer full, skip
		}
	}
}
