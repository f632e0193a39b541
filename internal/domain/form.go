package domain

import (
	"math"
	"strconv"
	"strings"
)

// MaxPhotos is the number of photos a supervisor may attach to one report.
const MaxPhotos = 5

const (
	MsgDateRequired       = "La fecha del día es obligatoria."
	MsgActivityRequired   = "Selecciona al menos una actividad del día."
	MsgProjectRequired    = "Selecciona el proyecto del día."
	MsgConfirmRequired    = "Debes confirmar que la información es real y verificable."
	MsgSupervisorRequired = "No se pudo identificar al supervisor."
)

// ReportForm is the supervisor's daily entry as submitted by the form.
// Metric fields keep their textual form until Normalize.
type ReportForm struct {
	Fecha            string   `json:"fecha"`
	Actividades      []string `json:"actividades"`
	M2Instalados     string   `json:"m2Instalados"`
	PiezasColocadas  string   `json:"piezasColocadas"`
	SellosEjecutados string   `json:"sellosEjecutados"`
	PostesAjustados  string   `json:"postesAjustados"`
	M2Vidrio         string   `json:"m2Vidrio"`
	M2Aluminio       string   `json:"m2Aluminio"`
	MlSelloInterior  string   `json:"mlSelloInterior"`
	MlSelloExterior  string   `json:"mlSelloExterior"`
	PuertasColocadas string   `json:"puertasColocadas"`
	TiempoMuerto     string   `json:"tiempoMuerto"`
	TiempoMuertoOtro string   `json:"tiempoMuertoOtro"`
	Pendiente        string   `json:"pendiente"`
	PendienteOtro    string   `json:"pendienteOtro"`
	Confirmado       bool     `json:"confirmado"`
	SupervisorID     string   `json:"supervisorId"`
	ProyectoID       string   `json:"proyectoId"`
	Fotos            []string `json:"fotos"`
}

// Validate collects every problem with the form. sup is the resolved
// supervisor, or nil when the token did not resolve.
func (f *ReportForm) Validate(sup *Supervisor) []string {
	var msgs []string
	if strings.TrimSpace(f.Fecha) == "" {
		msgs = append(msgs, MsgDateRequired)
	}
	if PartitionActivities(f.Actividades).Len() == 0 {
		msgs = append(msgs, MsgActivityRequired)
	}
	if sup != nil && len(sup.Projects) > 0 && strings.TrimSpace(f.ProyectoID) == "" {
		msgs = append(msgs, MsgProjectRequired)
	}
	if !f.Confirmado {
		msgs = append(msgs, MsgConfirmRequired)
	}
	if sup == nil || strings.TrimSpace(f.SupervisorID) == "" {
		msgs = append(msgs, MsgSupervisorRequired)
	}
	return msgs
}

// Normalize converts a validated form into the shape written to the store.
// The project is dropped for a supervisor without assigned projects, and at
// most MaxPhotos photos are kept.
func (f *ReportForm) Normalize(sup *Supervisor) NewReport {
	p := PartitionActivities(f.Actividades)
	photos := make([]string, 0, min(len(f.Fotos), MaxPhotos))
	for _, u := range f.Fotos {
		if len(photos) == MaxPhotos {
			break
		}
		if u = strings.TrimSpace(u); u != "" {
			photos = append(photos, u)
		}
	}
	var projectID string
	if sup != nil && (len(sup.ProjectIDs) > 0 || len(sup.Projects) > 0) {
		projectID = strings.TrimSpace(f.ProyectoID)
	}
	return NewReport{
		Date:         strings.TrimSpace(f.Fecha),
		SupervisorID: strings.TrimSpace(f.SupervisorID),
		ProjectID:    projectID,
		Fabrication:  p.Fabrication,
		Installation: p.Installation,
		Supervision:  p.Supervision,
		Metrics: Metrics{
			AreaInstalled:      ParseMetric(f.M2Instalados),
			PiecesPlaced:       ParseMetric(f.PiezasColocadas),
			SealsExecuted:      ParseMetric(f.SellosEjecutados),
			PostsAdjusted:      ParseMetric(f.PostesAjustados),
			GlassArea:          ParseMetric(f.M2Vidrio),
			AluminumArea:       ParseMetric(f.M2Aluminio),
			InteriorSealLength: ParseMetric(f.MlSelloInterior),
			ExteriorSealLength: ParseMetric(f.MlSelloExterior),
			DoorsPlaced:        ParseMetric(f.PuertasColocadas),
		},
		Downtime:      strings.TrimSpace(f.TiempoMuerto),
		DowntimeOther: strings.TrimSpace(f.TiempoMuertoOtro),
		Pending:       strings.TrimSpace(f.Pendiente),
		PendingOther:  strings.TrimSpace(f.PendienteOtro),
		Photos:        photos,
	}
}

// Reset returns the form for the next entry: everything is cleared except the
// supervisor and the selected project.
func (f *ReportForm) Reset() ReportForm {
	return ReportForm{
		Actividades:  []string{},
		Fotos:        []string{},
		SupervisorID: f.SupervisorID,
		ProyectoID:   f.ProyectoID,
	}
}

// ParseMetric reads a non-negative number typed into the form. Empty,
// non-numeric and negative input yields nil.
func ParseMetric(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return &v
}
