package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/bitacora/internal/domain"
)

func formFor(supervisorID, projectID string) domain.ReportForm {
	return domain.ReportForm{
		Fecha:        "2024-05-01",
		Actividades:  []string{"Corte", "Revisión de calidad"},
		M2Instalados: "12,5",
		Confirmado:   true,
		SupervisorID: supervisorID,
		ProyectoID:   projectID,
	}
}

func TestSubmitCreatesReportAndResetsForm(t *testing.T) {
	env := newTestService(t)
	env.seed(t)
	ctx := context.Background()

	sub, err := env.svc.Submit(ctx, formFor("recAna", "recP1"), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "recP1", sub.Next.ProyectoID)
	assert.Equal(t, "recAna", sub.Next.SupervisorID)
	assert.Empty(t, sub.Next.Fecha)
	assert.Empty(t, sub.Next.Actividades)
	assert.False(t, sub.Next.Confirmado)

	r, err := env.reports.GetReport(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", r.Date)
	assert.Equal(t, []string{"Corte"}, r.Fabrication)
	assert.Equal(t, []string{}, r.Installation)
	assert.Equal(t, []string{"Revisión de calidad"}, r.Supervision)
	require.NotNil(t, r.Metrics.AreaInstalled)
	assert.InDelta(t, 12.5, *r.Metrics.AreaInstalled, 1e-9)
	assert.Nil(t, r.Metrics.PiecesPlaced)

	assertMetric(t, env, "bitacora_reports_submitted_total", "Reports written to the record store.",
		"bitacora_reports_submitted_total 1")
}

func TestSubmitCollectsValidationErrors(t *testing.T) {
	env := newTestService(t)
	env.seed(t)

	_, err := env.svc.Submit(context.Background(), domain.ReportForm{SupervisorID: "recAna"}, nil)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		domain.MsgDateRequired,
		domain.MsgActivityRequired,
		domain.MsgProjectRequired,
		domain.MsgConfirmRequired,
	}, verr.Messages)
}

func TestSubmitProjectOptionalWithoutAssignments(t *testing.T) {
	env := newTestService(t)
	env.seed(t)

	_, err := env.svc.Submit(context.Background(), formFor("recBeto", ""), nil)
	require.NoError(t, err)
}

func TestSubmitIgnoresProjectWithoutAssignments(t *testing.T) {
	env := newTestService(t)
	env.seed(t)
	ctx := context.Background()

	sub, err := env.svc.Submit(ctx, formFor("recBeto", "recP1"), nil)
	require.NoError(t, err)

	r, err := env.reports.GetReport(ctx, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, r.ProjectIDs)
}

func TestSubmitCapsPhotoURLs(t *testing.T) {
	env := newTestService(t)
	env.seed(t)
	ctx := context.Background()

	form := formFor("recBeto", "")
	for i := 0; i < 7; i++ {
		form.Fotos = append(form.Fotos, fmt.Sprintf("https://media.test/existing/%d.jpg", i))
	}

	sub, err := env.svc.Submit(ctx, form, nil)
	require.NoError(t, err)

	r, err := env.reports.GetReport(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, form.Fotos[:domain.MaxPhotos], r.Photos)
}

func TestSubmitUnknownSupervisorIsValidationError(t *testing.T) {
	env := newTestService(t)
	env.seed(t)

	_, err := env.svc.Submit(context.Background(), formFor("recNadie", ""), nil)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{domain.MsgSupervisorRequired}, verr.Messages)
}

func TestSubmitUploadsPhotosInOrder(t *testing.T) {
	env := newTestService(t)
	env.seed(t)
	ctx := context.Background()

	form := formFor("recBeto", "")
	form.Fotos = []string{"https://media.test/existing.jpg"}
	uploads := []Upload{
		{Filename: "a.jpg", MimeType: "image/jpeg", Data: []byte("a")},
		{Filename: "b.jpg", MimeType: "image/jpeg", Data: []byte("b")},
	}

	sub, err := env.svc.Submit(ctx, form, uploads)
	require.NoError(t, err)

	r, err := env.reports.GetReport(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://media.test/existing.jpg",
		"https://media.test/reporte_recBeto/1.jpg",
		"https://media.test/reporte_recBeto/2.jpg",
	}, r.Photos)
	assertMetric(t, env, "bitacora_photo_uploads_total", "Photo uploads to the media host by result.",
		`bitacora_photo_uploads_total{result="ok"} 2`)
}

func TestSubmitDropsPhotosOverLimit(t *testing.T) {
	env := newTestService(t)
	env.seed(t)

	uploads := make([]Upload, domain.MaxPhotos+2)
	for i := range uploads {
		uploads[i] = Upload{Filename: "x.jpg", MimeType: "image/jpeg", Data: []byte{byte(i)}}
	}

	sub, err := env.svc.Submit(context.Background(), formFor("recBeto", ""), uploads)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxPhotos, env.photos.calls)

	r, err := env.reports.GetReport(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Len(t, r.Photos, domain.MaxPhotos)
}

func TestSubmitAbortsOnPhotoUploadFailure(t *testing.T) {
	env := newTestService(t)
	env.seed(t)
	env.photos.failAt = 2
	ctx := context.Background()

	uploads := []Upload{
		{Filename: "a.jpg", MimeType: "image/jpeg", Data: []byte("a")},
		{Filename: "b.jpg", MimeType: "image/jpeg", Data: []byte("b")},
	}
	_, err := env.svc.Submit(ctx, formFor("recBeto", ""), uploads)
	require.ErrorIs(t, err, domain.ErrPhotoUpload)
	assert.Contains(t, err.Error(), "b.jpg")

	reports, err := env.reports.ListReports(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, reports)
	assertMetric(t, env, "bitacora_photo_uploads_total", "Photo uploads to the media host by result.",
		`bitacora_photo_uploads_total{result="error"} 1`,
		`bitacora_photo_uploads_total{result="ok"} 1`)
}

func TestSubmitDoesNotUploadWhenInvalid(t *testing.T) {
	env := newTestService(t)
	env.seed(t)

	form := formFor("recBeto", "")
	form.Confirmado = false
	_, err := env.svc.Submit(context.Background(), form, []Upload{{Filename: "a.jpg", Data: []byte("a")}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, env.photos.calls)
}

func TestUploadPhoto(t *testing.T) {
	env := newTestService(t)

	url, err := env.svc.UploadPhoto(context.Background(), "bitacora", []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://media.test/bitacora/1.jpg", url)

	env.photos.saveErr = assert.AnError
	_, err = env.svc.UploadPhoto(context.Background(), "bitacora", []byte("img"), "image/png")
	assert.ErrorIs(t, err, domain.ErrPhotoUpload)
}

// assertMetric compares every series of one counter in the service's registry.
func assertMetric(t *testing.T, env *testEnv, name, help string, series ...string) {
	t.Helper()
	expected := fmt.Sprintf("# HELP %s %s\n# TYPE %s counter\n%s\n", name, help, name, strings.Join(series, "\n"))
	assert.NoError(t, testutil.GatherAndCompare(env.metrics.Registry, strings.NewReader(expected), name))
}
