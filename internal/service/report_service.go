package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vbonduro/bitacora/internal/domain"
	"github.com/vbonduro/bitacora/internal/export"
	"github.com/vbonduro/bitacora/internal/metrics"
	"github.com/vbonduro/bitacora/internal/photostore"
)

// reportRepository is the subset of the record gateway ReportService needs
// for reports. Both airtable.Client and store.ReportStore satisfy it.
type reportRepository interface {
	ListReports(ctx context.Context, limit int) ([]*domain.Report, error)
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	CreateReport(ctx context.Context, n domain.NewReport) (string, error)
}

// supervisorRepository is the subset of the record gateway ReportService
// needs for supervisors.
type supervisorRepository interface {
	GetSupervisor(ctx context.Context, id string) (*domain.Supervisor, error)
	ListActiveSupervisors(ctx context.Context) ([]*domain.Supervisor, error)
}

// projectRepository is the subset of the record gateway ReportService needs
// for projects.
type projectRepository interface {
	ListProjectsByIDs(ctx context.Context, ids []string) ([]domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
}

type pdfRenderer interface {
	Render(ctx context.Context, r *domain.Report) (*export.Document, error)
}

type ReportService struct {
	reports     reportRepository
	supervisors supervisorRepository
	projects    projectRepository
	photoStg    photostore.PhotoStore
	pdf         pdfRenderer
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewReportService(
	reports reportRepository,
	supervisors supervisorRepository,
	projects projectRepository,
	photoStg photostore.PhotoStore,
	pdf pdfRenderer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		reports:     reports,
		supervisors: supervisors,
		projects:    projects,
		photoStg:    photoStg,
		pdf:         pdf,
		metrics:     m,
		logger:      logger,
	}
}

// LookupSupervisor resolves a supervisor token together with the names of
// the assigned projects. A failed project fetch is logged and leaves the
// supervisor with no projects.
func (s *ReportService) LookupSupervisor(ctx context.Context, id string) (*domain.Supervisor, error) {
	sup, err := s.supervisors.GetSupervisor(ctx, id)
	if err != nil {
		return nil, err
	}
	sup.Projects = []domain.Project{}
	if len(sup.ProjectIDs) == 0 {
		return sup, nil
	}

	projects, err := s.projects.ListProjectsByIDs(ctx, sup.ProjectIDs)
	if err != nil {
		s.logger.Error("failed to resolve assigned projects", "supervisor_id", id, "error", err)
		return sup, nil
	}

	byID := make(map[string]domain.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}
	for _, pid := range sup.ProjectIDs {
		if p, ok := byID[pid]; ok {
			sup.Projects = append(sup.Projects, p)
		}
	}
	return sup, nil
}

func (s *ReportService) ListActiveSupervisors(ctx context.Context) ([]*domain.Supervisor, error) {
	sups, err := s.supervisors.ListActiveSupervisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list supervisors: %w", err)
	}
	return sups, nil
}

// Catalog is the fixed vocabulary offered by the report form.
type Catalog struct {
	Fabrication  []string
	Installation []string
	Supervision  []string
	Downtime     []string
	Pending      []string
	MaxPhotos    int
}

func (s *ReportService) Catalog() Catalog {
	return Catalog{
		Fabrication:  domain.FabricationActivities,
		Installation: domain.InstallationActivities,
		Supervision:  domain.SupervisionActivities,
		Downtime:     domain.DowntimeOptions,
		Pending:      domain.PendingOptions,
		MaxPhotos:    domain.MaxPhotos,
	}
}
