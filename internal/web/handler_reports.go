package web

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vbonduro/bitacora/internal/domain"
	"github.com/vbonduro/bitacora/internal/service"
)

const (
	maxJSONBody       = 1 << 20
	maxSubmissionSize = domain.MaxPhotos*maxPhotoSize + maxJSONBody
)

// parseListQuery reads limit and the review filters. A missing limit means
// the default; anything else must be a positive integer.
func parseListQuery(q url.Values) (int, service.ReportFilter, error) {
	limit := service.DefaultListLimit
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return 0, service.ReportFilter{}, errors.New("invalid limit")
		}
		limit = service.ClampLimit(n)
	}

	inc := strings.ToLower(q.Get("incidencias"))
	f := service.ReportFilter{
		IncidentsOnly: inc == "1" || inc == "true",
		SupervisorID:  strings.TrimSpace(q.Get("supervisor")),
		Search:        q.Get("q"),
	}
	return limit, f, nil
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit, filter, err := parseListQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidLimit)
		return
	}

	reports, err := s.service.ListReports(r.Context(), limit, filter)
	if err != nil {
		s.fail(w, r, err, "Error al listar reportes.")
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"ok": true, "records": newReportViews(reports)})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err, "Error al consultar el reporte.")
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"ok": true, "record": newReportView(report)})
}

// handleCreateReport accepts either a JSON form or a multipart body with the
// form in a "payload" part and photo files under "fotos".
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var (
		form    domain.ReportForm
		uploads []service.Upload
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionSize)
		if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
			s.writeError(w, http.StatusBadRequest, msgBadRequest)
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("payload")), &form); err != nil {
			s.writeError(w, http.StatusBadRequest, msgBadRequest)
			return
		}
		files := r.MultipartForm.File["fotos"]
		if len(files) > domain.MaxPhotos {
			s.logger.Warn("dropping photos over the limit", "received", len(files), "max", domain.MaxPhotos)
			files = files[:domain.MaxPhotos]
		}
		for _, fh := range files {
			data, mimeType, err := readImage(fh)
			if errors.Is(err, errInvalidImage) {
				s.writeError(w, http.StatusBadRequest, msgInvalidImage)
				return
			}
			if err != nil {
				s.fail(w, r, err, msgPhotoUpload)
				return
			}
			uploads = append(uploads, service.Upload{Filename: fh.Filename, MimeType: mimeType, Data: data})
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			s.writeError(w, http.StatusBadRequest, msgBadRequest)
			return
		}
	}

	sub, err := s.service.Submit(r.Context(), form, uploads)
	if err != nil {
		s.fail(w, r, err, "Error al guardar el reporte.")
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"ok": true, "recordId": sub.ID, "siguiente": sub.Next})
}
