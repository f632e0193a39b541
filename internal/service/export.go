package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/vbonduro/bitacora/internal/domain"
	"github.com/vbonduro/bitacora/internal/export"
)

// ExportPDF renders one report as a PDF. Nothing is stored; the document is
// built on every call.
func (s *ReportService) ExportPDF(ctx context.Context, id string) (*domain.Report, *export.Document, error) {
	r, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.pdf.Render(ctx, r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to export report %s: %w", id, err)
	}
	s.metrics.Export("pdf")
	s.logger.Info("report exported", "report_id", id, "pages", doc.Pages, "bytes", len(doc.Bytes))
	return r, doc, nil
}

// ExportXLSX renders the filtered review list as a spreadsheet.
func (s *ReportService) ExportXLSX(ctx context.Context, limit int, f ReportFilter) ([]byte, error) {
	reports, err := s.ListReports(ctx, limit, f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, reports); err != nil {
		return nil, fmt.Errorf("failed to export reports: %w", err)
	}
	s.metrics.Export("xlsx")
	return buf.Bytes(), nil
}
