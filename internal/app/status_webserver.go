package app

import (
	"fmt"
	"net/http"

	"github.com/specialistvlad/rungridgo/internal/orchestrator"
)

// startStatusServer runs a small HTTP server for supervising long
// experiments: /health for liveness, /progress for finished-vs-planned
// run counts.
func (a *App) startStatusServer(port int, orch *orchestrator.Orchestrator) {
	a.logger.Debug("Configuring status server.")
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.HandleFunc("/progress", func(w http.ResponseWriter, r *http.Request) {
		done, total := orch.Progress()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "%d/%d\n", done, total)
	})

	addr := fmt.Sprintf(":%d", port)
	go func() {
		a.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/progress", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			a.logger.Error("Status server failed", "error", err)
		}
	}()
}
