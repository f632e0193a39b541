package airtable

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/vbonduro/bitacora/internal/domain"
)

func toReport(rec *record) *domain.Report {
	f := rec.Fields
	linkedProjects := stringList(f, fieldProject)

	r := &domain.Report{
		ID:            rec.ID,
		Date:          str(f, fieldDate),
		SupervisorIDs: stringList(f, fieldSupervisor),
		ProjectIDs:    linkedProjects,
		Confirmed:     boolean(f, fieldConfirmed),
		Fabrication:   stringList(f, fieldFabrication),
		Installation:  stringList(f, fieldInstallation),
		Supervision:   stringList(f, fieldSupervision),
		Metrics: domain.Metrics{
			AreaInstalled:      number(f, fieldAreaInstalled),
			PiecesPlaced:       number(f, fieldPiecesPlaced),
			SealsExecuted:      number(f, fieldSealsExecuted),
			PostsAdjusted:      number(f, fieldPostsAdjusted),
			GlassArea:          number(f, fieldGlassArea),
			AluminumArea:       number(f, fieldAluminumArea),
			InteriorSealLength: number(f, fieldInteriorSealLength),
			ExteriorSealLength: number(f, fieldExteriorSealLength),
			DoorsPlaced:        number(f, fieldDoorsPlaced),
		},
		Downtime:      str(f, fieldDowntime),
		DowntimeOther: str(f, fieldDowntimeOther),
		Pending:       str(f, fieldPending),
		PendingOther:  str(f, fieldPendingOther),
		Photos:        attachmentURLs(f, fieldPhotos),
	}
	if t, err := time.Parse(time.RFC3339, rec.CreatedTime); err == nil {
		r.CreatedAt = t
	}

	var linked string
	if len(linkedProjects) > 0 {
		linked = linkedProjects[0]
	}
	r.ProjectLookup = pickProjectName(firstString(f, fieldProjectLookup), linked)
	return r
}

func toSupervisor(rec *record) *domain.Supervisor {
	return &domain.Supervisor{
		ID:         rec.ID,
		Name:       str(rec.Fields, fieldSupervisorName),
		Active:     boolean(rec.Fields, fieldSupervisorActive),
		ProjectIDs: stringList(rec.Fields, fieldSupervisorProjects),
		Projects:   []domain.Project{},
	}
}

func toProjects(recs []record) []domain.Project {
	out := make([]domain.Project, 0, len(recs))
	for _, rec := range recs {
		name := str(rec.Fields, fieldProjectName)
		if name == "" {
			name = rec.ID
		}
		out = append(out, domain.Project{ID: rec.ID, Name: name})
	}
	return out
}

// reportFields builds the create payload. Empty optional values are left out
// because the API treats an absent field differently from an empty one.
func reportFields(n domain.NewReport) map[string]any {
	fields := map[string]any{
		fieldDate:       n.Date,
		fieldSupervisor: []string{n.SupervisorID},
		fieldConfirmed:  true,
	}
	if n.ProjectID != "" {
		fields[fieldProject] = []string{n.ProjectID}
	}

	setList := func(name string, v []string) {
		if len(v) > 0 {
			fields[name] = v
		}
	}
	setList(fieldFabrication, n.Fabrication)
	setList(fieldInstallation, n.Installation)
	setList(fieldSupervision, n.Supervision)

	setNumber := func(name string, v *float64) {
		if v != nil {
			fields[name] = *v
		}
	}
	m := n.Metrics
	setNumber(fieldAreaInstalled, m.AreaInstalled)
	setNumber(fieldPiecesPlaced, m.PiecesPlaced)
	setNumber(fieldSealsExecuted, m.SealsExecuted)
	setNumber(fieldPostsAdjusted, m.PostsAdjusted)
	setNumber(fieldGlassArea, m.GlassArea)
	setNumber(fieldAluminumArea, m.AluminumArea)
	setNumber(fieldInteriorSealLength, m.InteriorSealLength)
	setNumber(fieldExteriorSealLength, m.ExteriorSealLength)
	setNumber(fieldDoorsPlaced, m.DoorsPlaced)

	setString := func(name, v string) {
		if v != "" {
			fields[name] = v
		}
	}
	setString(fieldDowntime, n.Downtime)
	setString(fieldDowntimeOther, n.DowntimeOther)
	setString(fieldPending, n.Pending)
	setString(fieldPendingOther, n.PendingOther)

	if len(n.Photos) > 0 {
		attachments := make([]map[string]string, 0, len(n.Photos))
		for _, u := range n.Photos {
			attachments = append(attachments, map[string]string{"url": u})
		}
		fields[fieldPhotos] = attachments
	}
	return fields
}

// pickProjectName chooses between the lookup value and the raw link,
// preferring whichever does not look like a record identifier. When both do,
// the lookup value wins and may well be wrong.
func pickProjectName(lookup, linked string) string {
	switch {
	case lookup != "" && !looksLikeRecordID(lookup):
		return lookup
	case linked != "" && !looksLikeRecordID(linked):
		return linked
	case lookup != "":
		return lookup
	default:
		return linked
	}
}

func looksLikeRecordID(s string) bool {
	return strings.HasPrefix(s, domain.RecordIDPrefix)
}

func str(f map[string]json.RawMessage, name string) string {
	raw, ok := f[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// firstString reads a field that may hold either a string or a list of
// strings, as lookup fields do.
func firstString(f map[string]json.RawMessage, name string) string {
	if s := str(f, name); s != "" {
		return s
	}
	if list := stringList(f, name); len(list) > 0 {
		return list[0]
	}
	return ""
}

func stringList(f map[string]json.RawMessage, name string) []string {
	out := []string{}
	raw, ok := f[name]
	if !ok {
		return out
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return out
	}
	return append(out, list...)
}

func number(f map[string]json.RawMessage, name string) *float64 {
	raw, ok := f[name]
	if !ok {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func boolean(f map[string]json.RawMessage, name string) bool {
	raw, ok := f[name]
	if !ok {
		return false
	}
	var b bool
	_ = json.Unmarshal(raw, &b)
	return b
}

func attachmentURLs(f map[string]json.RawMessage, name string) []string {
	out := []string{}
	raw, ok := f[name]
	if !ok {
		return out
	}
	var atts []struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &atts); err != nil {
		return out
	}
	for _, a := range atts {
		if a.URL != "" {
			out = append(out, a.URL)
		}
	}
	return out
}
