package domain

import "time"

// RecordIDPrefix marks identifiers issued by the record store.
const RecordIDPrefix = "rec"

// NoneValue is the incident sentinel meaning "nothing to report".
const NoneValue = "Ninguno"

type Project struct {
	ID   string
	Name string
}

type Supervisor struct {
	ID         string
	Name       string
	Active     bool
	ProjectIDs []string
	Projects   []Project
}

// Metrics holds the optional quantities of a report. Nil means the supervisor
// left the field empty, which is distinct from zero.
type Metrics struct {
	AreaInstalled      *float64
	PiecesPlaced       *float64
	SealsExecuted      *float64
	PostsAdjusted      *float64
	GlassArea          *float64
	AluminumArea       *float64
	InteriorSealLength *float64
	ExteriorSealLength *float64
	DoorsPlaced        *float64
}

type Report struct {
	ID            string
	Date          string
	SupervisorIDs []string
	ProjectIDs    []string
	Confirmed     bool
	Fabrication   []string
	Installation  []string
	Supervision   []string
	Metrics       Metrics
	Downtime      string
	DowntimeOther string
	Pending       string
	PendingOther  string
	Photos        []string
	CreatedAt     time.Time

	// ProjectLookup is the store's denormalized project name, if it exposes one.
	ProjectLookup string

	SupervisorName string
	ProjectName    string
}

// SupervisorID returns the linked supervisor, or "" when the link is missing.
func (r *Report) SupervisorID() string {
	if len(r.SupervisorIDs) == 0 {
		return ""
	}
	return r.SupervisorIDs[0]
}

func (r *Report) ProjectID() string {
	if len(r.ProjectIDs) == 0 {
		return ""
	}
	return r.ProjectIDs[0]
}

// HasIncident reports whether downtime or a pending item was recorded.
func (r *Report) HasIncident() bool {
	return isIncident(r.Downtime) || isIncident(r.Pending)
}

func isIncident(v string) bool {
	return v != "" && v != NoneValue
}

// NewReport is a validated submission ready to be written to the store.
// Empty strings and nil metrics are omitted on write.
type NewReport struct {
	Date          string
	SupervisorID  string
	ProjectID     string
	Fabrication   []string
	Installation  []string
	Supervision   []string
	Metrics       Metrics
	Downtime      string
	DowntimeOther string
	Pending       string
	PendingOther  string
	Photos        []string
}
