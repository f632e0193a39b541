// Command bitacora-seed loads supervisors and projects into the local SQLite
// record store from a JSON file:
//
//	{
//	  "proyectos":    [{"id": "recP1", "nombre": "Torre Norte"}],
//	  "supervisores": [{"id": "recAna", "nombre": "Ana", "activo": true, "proyectos": ["recP1"]}]
//	}
//
// Records are upserted by id, so the file can be re-applied.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/vbonduro/bitacora/internal/config"
	"github.com/vbonduro/bitacora/internal/db"
	"github.com/vbonduro/bitacora/internal/domain"
	"github.com/vbonduro/bitacora/internal/logging"
	"github.com/vbonduro/bitacora/internal/store"
)

type seedFile struct {
	Projects []struct {
		ID     string `json:"id"`
		Nombre string `json:"nombre"`
	} `json:"proyectos"`
	Supervisors []struct {
		ID        string   `json:"id"`
		Nombre    string   `json:"nombre"`
		Activo    *bool    `json:"activo"`
		Proyectos []string `json:"proyectos"`
	} `json:"supervisores"`
}

func main() {
	file := flag.String("file", "seed.json", "JSON file with proyectos and supervisores")
	flag.Parse()

	cfg := config.Load()
	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	f, err := os.Open(*file)
	if err != nil {
		logger.Error("failed to open seed file", "file", *file, "error", err)
		return
	}
	defer func() { _ = f.Close() }()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	projects, supervisors, err := seed(context.Background(), database, f)
	if err != nil {
		logger.Error("seed failed", "file", *file, "error", err)
		return
	}
	logger.Info("seed complete", "db_path", cfg.DBPath, "projects", projects, "supervisors", supervisors)
}

// seed upserts every project, then every supervisor, and returns how many of
// each were written.
func seed(ctx context.Context, database *sql.DB, r io.Reader) (int, int, error) {
	var in seedFile
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return 0, 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	projects := store.NewProjectStore(database)
	for _, p := range in.Projects {
		if _, err := projects.SaveProject(ctx, domain.Project{ID: p.ID, Name: p.Nombre}); err != nil {
			return 0, 0, err
		}
	}

	supervisors := store.NewSupervisorStore(database)
	for i, s := range in.Supervisors {
		active := s.Activo == nil || *s.Activo
		sup := &domain.Supervisor{ID: s.ID, Name: s.Nombre, Active: active, ProjectIDs: s.Proyectos}
		if err := supervisors.SaveSupervisor(ctx, sup); err != nil {
			return len(in.Projects), i, fmt.Errorf("supervisor %q: %w", s.Nombre, err)
		}
	}
	return len(in.Projects), len(in.Supervisors), nil
}
