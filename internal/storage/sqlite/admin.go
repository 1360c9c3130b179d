package sqlite

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// runSummary is one row of the /debug/runs listing.
type runSummary struct {
	*Run
	Outcomes map[string]int `json:"outcomes"`
}

// AttachAdminRoutes mounts the debug pages for the database on mux: a
// tailsql console, a gzipped backup download and a JSON run listing. The
// returned handler lets callers add further pages under /debug/.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) (*tsweb.DebugHandler, error) {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return nil, fmt.Errorf("create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://groundplane.db", db.DB, &tailsql.DBOptions{
		Label: "Ground plane runs",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(db.serveBackup))
	debug.Handle("runs", "Recorded runs with per-outcome frame counts (JSON)", http.HandlerFunc(db.serveRuns))
	return debug, nil
}

func (db *DB) serveBackup(w http.ResponseWriter, r *http.Request) {
	backupName := fmt.Sprintf("groundplane-backup-%d.db", time.Now().UnixNano())
	backupPath := filepath.Join(os.TempDir(), backupName)
	if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := os.Remove(backupPath); err != nil {
			log.Printf("Failed to remove backup file: %v", err)
		}
	}()

	backupFile, err := os.Open(backupPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
		return
	}
	defer backupFile.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupName))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Encoding", "gzip")
	gz := gzip.NewWriter(w)
	defer gz.Close()
	if _, err := io.Copy(gz, backupFile); err != nil {
		log.Printf("backup: write response: %v", err)
	}
}

func (db *DB) serveRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := NewRunStore(db.DB).List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	stats := NewFrameStatsStore(db.DB)
	out := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		counts, err := stats.OutcomeCounts(run.RunID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s := runSummary{Run: run, Outcomes: make(map[string]int, len(counts))}
		for outcome, n := range counts {
			s.Outcomes[string(outcome)] = n
		}
		out = append(out, s)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Printf("runs: encode response: %v", err)
	}
}
