package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/olehluchkiv/chunksplit/internal/diagram"
)

// NewHandler returns the viewer routes:
//
//	/            before/after slides and the chunk table
//	/before.mmd  Mermaid source of a before slide (?slide=n)
//	/after.mmd   Mermaid source of an after slide (?slide=n)
//	/graph.yaml  manifest of the partitioned graph
//	/data.json   the interactive data as JSON
func NewHandler(data diagram.InteractiveData, manifest []byte, logger *slog.Logger) (http.Handler, error) {
	tmpl, err := template.New("viewer").Parse(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML template: %w", err)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			logger.Error("failed to render template", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("GET /before.mmd", slideSource(data.Before, logger))
	mux.HandleFunc("GET /after.mmd", slideSource(data.After, logger))

	mux.HandleFunc("GET /graph.yaml", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(manifest)
	})

	mux.HandleFunc("GET /data.json", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("failed to encode data", "error", err)
		}
	})

	return mux, nil
}

// slideSource serves the Mermaid source of one slide; out of range or
// malformed ?slide values fall back to the first slide.
func slideSource(slides []diagram.Slide, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		if len(slides) == 0 {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		idx := 0
		if q := r.URL.Query().Get("slide"); q != "" {
			if n, err := strconv.Atoi(q); err == nil && n >= 0 && n < len(slides) {
				idx = n
			}
		}
		_, _ = w.Write([]byte(slides[idx].Mermaid))
	}
}

// Serve starts the viewer. It blocks until the context is cancelled.
func Serve(ctx context.Context, data diagram.InteractiveData, manifest []byte, port int, openBrowser bool, logger *slog.Logger) error {
	logger = logger.With("component", "server")
	handler, err := NewHandler(data, manifest, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d", port)
	logger.Info("starting HTTP server", "addr", url, "before_slides", len(data.Before), "after_slides", len(data.After))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(errCh)
	}()

	if openBrowser {
		openInBrowser(url, logger)
	}

	// Block until the context is cancelled or the server fails.
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	}
}

// openInBrowser opens the given URL in the default system browser.
func openInBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		logger.Warn("unsupported platform for opening browser", "os", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "error", err)
	}
}
