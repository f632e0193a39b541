package web

import (
	"time"

	"github.com/vbonduro/bitacora/internal/domain"
	"github.com/vbonduro/bitacora/internal/service"
)

// reportView is the wire shape of a report. Every key is always present:
// lists are never null, absent strings and numbers are null.
type reportView struct {
	ID               string   `json:"id"`
	Fecha            *string  `json:"fecha"`
	SupervisorID     *string  `json:"supervisorId"`
	SupervisorNombre *string  `json:"supervisorNombre"`
	ProyectoID       *string  `json:"proyectoId"`
	ProyectoNombre   *string  `json:"proyectoNombre"`
	Confirmado       bool     `json:"confirmado"`
	Fabricacion      []string `json:"fabricacion"`
	Instalacion      []string `json:"instalacion"`
	Supervision      []string `json:"supervision"`
	M2Instalados     *float64 `json:"m2Instalados"`
	PiezasColocadas  *float64 `json:"piezasColocadas"`
	SellosEjecutados *float64 `json:"sellosEjecutados"`
	PostesAjustados  *float64 `json:"postesAjustados"`
	M2Vidrio         *float64 `json:"m2Vidrio"`
	M2Aluminio       *float64 `json:"m2Aluminio"`
	MlSelloInterior  *float64 `json:"mlSelloInterior"`
	MlSelloExterior  *float64 `json:"mlSelloExterior"`
	PuertasColocadas *float64 `json:"puertasColocadas"`
	TiempoMuerto     *string  `json:"tiempoMuerto"`
	TiempoMuertoOtro *string  `json:"tiempoMuertoOtro"`
	Pendiente        *string  `json:"pendiente"`
	PendienteOtro    *string  `json:"pendienteOtro"`
	Incidencia       bool     `json:"incidencia"`
	Fotos            []string `json:"fotos"`
	CreadoEn         *string  `json:"creadoEn"`
}

func newReportView(r *domain.Report) reportView {
	m := r.Metrics
	v := reportView{
		ID:               r.ID,
		Fecha:            optString(r.Date),
		SupervisorID:     optString(r.SupervisorID()),
		SupervisorNombre: optString(r.SupervisorName),
		ProyectoID:       optString(r.ProjectID()),
		ProyectoNombre:   optString(r.ProjectName),
		Confirmado:       r.Confirmed,
		Fabricacion:      nonNil(r.Fabrication),
		Instalacion:      nonNil(r.Installation),
		Supervision:      nonNil(r.Supervision),
		M2Instalados:     m.AreaInstalled,
		PiezasColocadas:  m.PiecesPlaced,
		SellosEjecutados: m.SealsExecuted,
		PostesAjustados:  m.PostsAdjusted,
		M2Vidrio:         m.GlassArea,
		M2Aluminio:       m.AluminumArea,
		MlSelloInterior:  m.InteriorSealLength,
		MlSelloExterior:  m.ExteriorSealLength,
		PuertasColocadas: m.DoorsPlaced,
		TiempoMuerto:     optString(r.Downtime),
		TiempoMuertoOtro: optString(r.DowntimeOther),
		Pendiente:        optString(r.Pending),
		PendienteOtro:    optString(r.PendingOther),
		Incidencia:       r.HasIncident(),
		Fotos:            nonNil(r.Photos),
	}
	if !r.CreatedAt.IsZero() {
		v.CreadoEn = optString(r.CreatedAt.UTC().Format(time.RFC3339))
	}
	return v
}

func newReportViews(reports []*domain.Report) []reportView {
	out := make([]reportView, 0, len(reports))
	for _, r := range reports {
		out = append(out, newReportView(r))
	}
	return out
}

type projectView struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

type supervisorView struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Activo bool   `json:"activo"`
}

func newProjectViews(projects []domain.Project) []projectView {
	out := make([]projectView, 0, len(projects))
	for _, p := range projects {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		out = append(out, projectView{ID: p.ID, Nombre: name})
	}
	return out
}

type catalogView struct {
	Fabricacion  []string `json:"fabricacion"`
	Instalacion  []string `json:"instalacion"`
	Supervision  []string `json:"supervision"`
	TiempoMuerto []string `json:"tiempoMuerto"`
	Pendiente    []string `json:"pendiente"`
	MaxFotos     int    `json:"maxFotos"`
}

func newCatalogView(c service.Catalog) catalogView {
	return catalogView{
		Fabricacion:  c.Fabrication,
		Instalacion:  c.Installation,
		Supervision:  c.Supervision,
		TiempoMuerto: c.Downtime,
		Pendiente:    c.Pending,
		MaxFotos:     c.MaxPhotos,
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
