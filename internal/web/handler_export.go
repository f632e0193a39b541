package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/vbonduro/bitacora/internal/export"
)

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	report, doc, err := s.service.ExportPDF(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err, "No se pudo generar el PDF.")
		return
	}
	writeDownload(w, "application/pdf", export.Filename(report), doc.Bytes)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	limit, filter, err := parseListQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidLimit)
		return
	}

	data, err := s.service.ExportXLSX(r.Context(), limit, filter)
	if err != nil {
		s.fail(w, r, err, "No se pudo generar la hoja de cálculo.")
		return
	}
	writeDownload(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.XLSXFilename, data)
}

func writeDownload(w http.ResponseWriter, contentType, filename string, data []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}
