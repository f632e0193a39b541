package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vbonduro/bitacora/internal/domain"
)

// ReportStore is the record gateway for reports over the local database.
type ReportStore struct {
	db *sql.DB
}

func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

const reportColumns = `
	r.id, r.fecha, r.supervisor_id, r.project_id, r.confirmed,
	r.fabrication, r.installation, r.supervision,
	r.area_installed, r.pieces_placed, r.seals_executed, r.posts_adjusted,
	r.glass_area, r.aluminum_area, r.interior_seal_length, r.exterior_seal_length,
	r.doors_placed, r.downtime, r.downtime_other, r.pending, r.pending_other,
	r.photos, r.created_at, COALESCE(p.name, '')`

func (s *ReportStore) CreateReport(ctx context.Context, n domain.NewReport) (string, error) {
	fabrication, err := encodeList(n.Fabrication)
	if err != nil {
		return "", err
	}
	installation, err := encodeList(n.Installation)
	if err != nil {
		return "", err
	}
	supervision, err := encodeList(n.Supervision)
	if err != nil {
		return "", err
	}
	photos, err := encodeList(n.Photos)
	if err != nil {
		return "", err
	}

	id := newRecordID()
	m := n.Metrics
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (
			id, fecha, supervisor_id, project_id, confirmed,
			fabrication, installation, supervision,
			area_installed, pieces_placed, seals_executed, posts_adjusted,
			glass_area, aluminum_area, interior_seal_length, exterior_seal_length,
			doors_placed, downtime, downtime_other, pending, pending_other, photos
		) VALUES (?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, nullString(n.Date), n.SupervisorID, nullString(n.ProjectID),
		fabrication, installation, supervision,
		m.AreaInstalled, m.PiecesPlaced, m.SealsExecuted, m.PostsAdjusted,
		m.GlassArea, m.AluminumArea, m.InteriorSealLength, m.ExteriorSealLength,
		m.DoorsPlaced,
		nullString(n.Downtime), nullString(n.DowntimeOther), nullString(n.Pending), nullString(n.PendingOther),
		photos,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	return id, nil
}

// ListReports returns the most recent reports, newest date first.
func (s *ReportStore) ListReports(ctx context.Context, limit int) ([]*domain.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports r LEFT JOIN projects p ON p.id = r.project_id
		ORDER BY r.fecha DESC, r.created_at DESC, r.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

func (s *ReportStore) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports r LEFT JOIN projects p ON p.id = r.project_id
		WHERE r.id = ?
	`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(sc scanner) (*domain.Report, error) {
	var (
		r                                      domain.Report
		supervisorID                           string
		fecha, projectID                       sql.NullString
		downtime, downtimeOther                sql.NullString
		pending, pendingOther                  sql.NullString
		fabrication, installation, supervision string
		photos                                 string
		m                                      [9]sql.NullFloat64
	)
	err := sc.Scan(
		&r.ID, &fecha, &supervisorID, &projectID, &r.Confirmed,
		&fabrication, &installation, &supervision,
		&m[0], &m[1], &m[2], &m[3], &m[4], &m[5], &m[6], &m[7], &m[8],
		&downtime, &downtimeOther, &pending, &pendingOther,
		&photos, &r.CreatedAt, &r.ProjectLookup,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	r.Date = fecha.String
	r.SupervisorIDs = []string{supervisorID}
	r.ProjectIDs = []string{}
	if projectID.String != "" {
		r.ProjectIDs = append(r.ProjectIDs, projectID.String)
	}
	r.Downtime = downtime.String
	r.DowntimeOther = downtimeOther.String
	r.Pending = pending.String
	r.PendingOther = pendingOther.String
	r.Metrics = domain.Metrics{
		AreaInstalled:      floatPtr(m[0]),
		PiecesPlaced:       floatPtr(m[1]),
		SealsExecuted:      floatPtr(m[2]),
		PostsAdjusted:      floatPtr(m[3]),
		GlassArea:          floatPtr(m[4]),
		AluminumArea:       floatPtr(m[5]),
		InteriorSealLength: floatPtr(m[6]),
		ExteriorSealLength: floatPtr(m[7]),
		DoorsPlaced:        floatPtr(m[8]),
	}

	for _, f := range []struct {
		raw string
		dst *[]string
	}{
		{fabrication, &r.Fabrication},
		{installation, &r.Installation},
		{supervision, &r.Supervision},
		{photos, &r.Photos},
	} {
		list, err := decodeList(f.raw)
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", r.ID, err)
		}
		*f.dst = list
	}
	return &r, nil
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
