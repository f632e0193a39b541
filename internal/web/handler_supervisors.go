package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vbonduro/bitacora/internal/domain"
)

func (s *Server) handleGetSupervisor(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		s.writeError(w, http.StatusBadRequest, msgMissingID)
		return
	}

	sup, err := s.service.LookupSupervisor(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, msgSupervisorNone)
		return
	}
	if err != nil {
		s.fail(w, r, err, "Error al consultar el supervisor.")
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{
		"ok":             true,
		"supervisorId":   sup.ID,
		"supervisorName": sup.Name,
		"proyectos":      newProjectViews(sup.Projects),
	})
}

func (s *Server) handleListSupervisors(w http.ResponseWriter, r *http.Request) {
	sups, err := s.service.ListActiveSupervisors(r.Context())
	if err != nil {
		s.fail(w, r, err, "Error al listar supervisores.")
		return
	}

	records := make([]supervisorView, 0, len(sups))
	for _, sup := range sups {
		records = append(records, supervisorView{ID: sup.ID, Nombre: sup.Name, Activo: sup.Active})
	}
	s.writeJSON(w, http.StatusOK, envelope{"ok": true, "records": records})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, envelope{"ok": true, "catalogo": newCatalogView(s.service.Catalog())})
}
