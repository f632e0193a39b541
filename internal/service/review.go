package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/bitacora/internal/domain"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ReportFilter holds the review filters. The zero value matches everything;
// set fields combine conjunctively.
type ReportFilter struct {
	IncidentsOnly bool
	SupervisorID  string
	Search        string
}

func (f ReportFilter) Match(r *domain.Report) bool {
	if f.IncidentsOnly && !r.HasIncident() {
		return false
	}
	if f.SupervisorID != "" && r.SupervisorID() != f.SupervisorID {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		haystack := strings.ToLower(r.Date + " " + r.Downtime + " " + r.Pending)
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

// FilterReports keeps the reports matching f, in their original order.
func FilterReports(reports []*domain.Report, f ReportFilter) []*domain.Report {
	out := make([]*domain.Report, 0, len(reports))
	for _, r := range reports {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ClampLimit bounds a requested page size to [1, MaxListLimit], using
// DefaultListLimit when none was given.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// ListReports fetches the most recent reports alongside the active
// supervisors and the projects, resolves display names, and applies f.
func (s *ReportService) ListReports(ctx context.Context, limit int, f ReportFilter) ([]*domain.Report, error) {
	var (
		reports     []*domain.Report
		supervisors []*domain.Supervisor
		projects    []domain.Project
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reports, err = s.reports.ListReports(gctx, ClampLimit(limit))
		if err != nil {
			return fmt.Errorf("failed to list reports: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		supervisors, err = s.supervisors.ListActiveSupervisors(gctx)
		if err != nil {
			return fmt.Errorf("failed to list supervisors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		projects, err = s.projects.ListProjects(gctx)
		if err != nil {
			s.logger.Warn("project names unavailable, using report lookups", "error", err)
			projects = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := newNameIndex(supervisors, projects)
	for _, r := range reports {
		names.resolve(r)
	}
	return FilterReports(reports, f), nil
}

// GetReport fetches one report with its supervisor and project names.
func (s *ReportService) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	r, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		sup      *domain.Supervisor
		projects []domain.Project
	)
	g, gctx := errgroup.WithContext(ctx)
	if sid := r.SupervisorID(); sid != "" {
		g.Go(func() error {
			var err error
			sup, err = s.supervisors.GetSupervisor(gctx, sid)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("supervisor name unavailable", "report_id", id, "error", err)
			}
			return nil
		})
	}
	if pid := r.ProjectID(); pid != "" {
		g.Go(func() error {
			var err error
			projects, err = s.projects.ListProjectsByIDs(gctx, []string{pid})
			if err != nil {
				s.logger.Warn("project name unavailable", "report_id", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var sups []*domain.Supervisor
	if sup != nil {
		sups = append(sups, sup)
	}
	newNameIndex(sups, projects).resolve(r)
	return r, nil
}

type nameIndex struct {
	supervisors map[string]string
	projects    map[string]string
}

func newNameIndex(sups []*domain.Supervisor, projects []domain.Project) nameIndex {
	idx := nameIndex{
		supervisors: make(map[string]string, len(sups)),
		projects:    make(map[string]string, len(projects)),
	}
	for _, s := range sups {
		idx.supervisors[s.ID] = s.Name
	}
	for _, p := range projects {
		idx.projects[p.ID] = p.Name
	}
	return idx
}

// resolve fills the display names. A supervisor missing from the index shows
// its identifier; a project missing from the index falls back to the
// gateway's lookup value.
func (idx nameIndex) resolve(r *domain.Report) {
	sid := r.SupervisorID()
	r.SupervisorName = sid
	if name := idx.supervisors[sid]; name != "" {
		r.SupervisorName = name
	}

	r.ProjectName = r.ProjectLookup
	if name := idx.projects[r.ProjectID()]; name != "" {
		r.ProjectName = name
	}
}
