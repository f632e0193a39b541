package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vbonduro/bitacora/internal/domain"
)

// Upload is a photo attached to a submission that still has to be sent to
// the media host.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}

// Submission is the result of an accepted report.
type Submission struct {
	ID string
	// Next is the form for the following entry, with the project carried over.
	Next domain.ReportForm
}

// UploadPhoto sends one photo to the media host and returns its durable URL.
func (s *ReportService) UploadPhoto(ctx context.Context, prefix string, data []byte, mimeType string) (string, error) {
	url, err := s.photoStg.Save(ctx, prefix, mimeType, bytes.NewReader(data))
	s.metrics.PhotoUpload(err == nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrPhotoUpload, err)
	}
	s.logger.Debug("photo uploaded", "url", url, "bytes", len(data))
	return url, nil
}

// Submit validates the form against the resolved supervisor, uploads any
// attached photos, and creates the report. Validation problems are returned
// together as a *domain.ValidationError. A failed photo upload aborts the
// submission before anything is written.
func (s *ReportService) Submit(ctx context.Context, form domain.ReportForm, uploads []Upload) (*Submission, error) {
	sup, err := s.resolveSubmitter(ctx, strings.TrimSpace(form.SupervisorID))
	if err != nil {
		return nil, err
	}
	if msgs := form.Validate(sup); len(msgs) > 0 {
		return nil, &domain.ValidationError{Messages: msgs}
	}

	if room := domain.MaxPhotos - len(form.Fotos); len(uploads) > max(room, 0) {
		s.logger.Warn("dropping photos over the limit",
			"supervisor_id", form.SupervisorID, "attached", len(uploads), "kept", max(room, 0))
		uploads = uploads[:max(room, 0)]
	}

	fotos := append([]string{}, form.Fotos...)
	for i, u := range uploads {
		url, err := s.UploadPhoto(ctx, "reporte_"+form.SupervisorID, u.Data, u.MimeType)
		if err != nil {
			s.logger.Error("photo upload failed", "supervisor_id", form.SupervisorID, "photo", i+1, "filename", u.Filename, "error", err)
			return nil, fmt.Errorf("photo %d (%s): %w", i+1, u.Filename, err)
		}
		fotos = append(fotos, url)
	}
	form.Fotos = fotos
	if len(fotos) > domain.MaxPhotos {
		s.logger.Warn("dropping photo urls over the limit",
			"supervisor_id", form.SupervisorID, "attached", len(fotos), "kept", domain.MaxPhotos)
	}

	id, err := s.reports.CreateReport(ctx, form.Normalize(sup))
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	s.metrics.ReportSubmitted()
	s.logger.Info("report submitted", "report_id", id, "supervisor_id", form.SupervisorID, "photos", len(fotos))

	return &Submission{ID: id, Next: form.Reset()}, nil
}

// resolveSubmitter returns nil, without error, when the token is empty or
// unknown so that validation reports it with the other problems.
func (s *ReportService) resolveSubmitter(ctx context.Context, id string) (*domain.Supervisor, error) {
	if id == "" {
		return nil, nil
	}
	sup, err := s.LookupSupervisor(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve supervisor: %w", err)
	}
	return sup, nil
}
