package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vbonduro/bitacora/internal/domain"
)

// envelope is the JSON body of every API response: {"ok": bool, ...}.
type envelope map[string]any

const (
	msgInternal       = "Error interno del servidor."
	msgNotFound       = "Registro no encontrado."
	msgBadRequest     = "Solicitud inválida."
	msgPhotoUpload    = "No se pudo subir la foto."
	msgInvalidImage   = "Formato de imagen no soportado."
	msgMissingID      = "Falta el id del supervisor."
	msgSupervisorNone = "Supervisor no encontrado."
	msgInvalidLimit   = "Parámetro limit inválido."
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, envelope{"ok": false, "error": msg})
}

// fail maps err onto a status and a user-facing message. Details stay in the
// log; upstream bodies never reach the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusBadRequest, envelope{
			"ok":     false,
			"error":  strings.Join(verr.Messages, " "),
			"errors": verr.Messages,
		})
		return
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, http.StatusNotFound, msgNotFound)
		return
	case errors.Is(err, domain.ErrPhotoUpload):
		msg = msgPhotoUpload
	}
	s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	s.writeError(w, http.StatusInternalServerError, msg)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
