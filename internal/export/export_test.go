package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vbonduro/bitacora/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 128})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// mapFetcher serves photos from memory; URLs not in the map fail.
type mapFetcher map[string][]byte

func (m mapFetcher) Get(_ context.Context, url string) (io.ReadCloser, string, error) {
	data, ok := m[url]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), "", nil
}

func ptr(v float64) *float64 { return &v }

func sampleReport(photos ...string) *domain.Report {
	return &domain.Report{
		ID:             "recABC",
		Date:           "2024-05-01",
		SupervisorName: "Ana Pérez",
		ProjectName:    "Torre Norte",
		Fabrication:    []string{"Corte"},
		Installation:   []string{},
		Supervision:    []string{"Revisión de calidad"},
		Metrics:        domain.Metrics{AreaInstalled: ptr(12.5)},
		Downtime:       "Otro",
		DowntimeOther:  "Grúa averiada",
		Pending:        domain.NoneValue,
		Photos:         photos,
	}
}

func TestRenderWithoutPhotosIsOnePage(t *testing.T) {
	r := NewPDFRenderer("", mapFetcher{}, testLogger())

	doc, err := r.Render(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Pages)
	assert.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF-")))
}

func TestRenderOnePagePerPhoto(t *testing.T) {
	photos := mapFetcher{
		"a": pngBytes(t, 40, 20),
		"b": jpegBytes(t, 20, 60),
		"c": pngBytes(t, 10, 10),
	}
	r := NewPDFRenderer("", photos, testLogger())

	doc, err := r.Render(context.Background(), sampleReport("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, 4, doc.Pages)
}

func TestRenderSkipsUnavailablePhotos(t *testing.T) {
	photos := mapFetcher{
		"ok":      pngBytes(t, 30, 30),
		"garbage": []byte("not an image"),
	}
	r := NewPDFRenderer("", photos, testLogger())

	doc, err := r.Render(context.Background(), sampleReport("missing", "ok", "garbage"))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Pages)
}

func TestRenderCountsOnlyEmbeddedPhotos(t *testing.T) {
	photos := mapFetcher{
		"ok":      pngBytes(t, 30, 30),
		"garbage": []byte("not an image"),
	}
	r := NewPDFRenderer("", photos, testLogger())

	got := r.fetchAll(context.Background(), sampleReport("missing", "ok", "garbage"))
	assert.Len(t, got, 1)
}

func TestFetchRejectsOversizedPhoto(t *testing.T) {
	data := append(jpegBytes(t, 20, 20), make([]byte, maxPhotoFetched)...)
	r := NewPDFRenderer("", mapFetcher{"big": data}, testLogger())

	_, err := r.fetch(context.Background(), "big")
	require.Error(t, err)

	doc, err := r.Render(context.Background(), sampleReport("big"))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Pages)
}

func newTestPage() (*gofpdf.Fpdf, *summaryWriter) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()
	return pdf, newSummaryWriter(pdf, pdf.UnicodeTranslatorFromDescriptor(""))
}

func TestSummaryFieldWrapsLongValues(t *testing.T) {
	pdf, w := newTestPage()
	long := strings.Repeat("La grúa quedó detenida por falla hidráulica y se esperó al técnico. ", 4)

	y := pdf.GetY()
	w.field("Tiempo muerto:", long)

	assert.Greater(t, pdf.GetY()-y, 2*lineH)
	assert.InDelta(t, margin, pdf.GetX(), 0.01)
	require.NoError(t, pdf.Error())
}

func TestSummaryContinuesOnNewPage(t *testing.T) {
	long := strings.Repeat("Pendiente de revisión con el contratista y la residencia de obra. ", 6)
	r := sampleReport()
	r.Fabrication = domain.FabricationActivities
	r.Installation = domain.InstallationActivities
	r.Supervision = domain.SupervisionActivities
	r.DowntimeOther = long
	r.Pending = "Otro"
	r.PendingOther = long

	pdf, w := newTestPage()
	w.report(r)
	require.NoError(t, pdf.Error())
	assert.Equal(t, 2, pdf.PageCount())
	assert.LessOrEqual(t, pdf.GetY(), pageH-margin)

	photos := mapFetcher{"a": pngBytes(t, 40, 20)}
	doc, err := NewPDFRenderer("", photos, testLogger()).Render(context.Background(), withPhotos(r, "a"))
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Pages)
}

func withPhotos(r *domain.Report, photos ...string) *domain.Report {
	c := *r
	c.Photos = photos
	return &c
}

func TestRenderIsDeterministic(t *testing.T) {
	photos := mapFetcher{"a": pngBytes(t, 40, 20)}
	r := NewPDFRenderer("", photos, testLogger())

	first, err := r.Render(context.Background(), sampleReport("a"))
	require.NoError(t, err)
	second, err := r.Render(context.Background(), sampleReport("a"))
	require.NoError(t, err)
	assert.Equal(t, first.Bytes, second.Bytes)
}

func TestRenderWithLogo(t *testing.T) {
	logoPath := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(logoPath, pngBytes(t, 120, 40), 0o644))

	withLogo := NewPDFRenderer(logoPath, mapFetcher{}, testLogger())
	require.NotNil(t, withLogo.logo)
	doc, err := withLogo.Render(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Pages)

	plain, err := NewPDFRenderer("", mapFetcher{}, testLogger()).Render(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Greater(t, len(doc.Bytes), len(plain.Bytes))
}

func TestMissingLogoDegradesToText(t *testing.T) {
	r := NewPDFRenderer(filepath.Join(t.TempDir(), "absent.png"), mapFetcher{}, testLogger())
	assert.Nil(t, r.logo)

	doc, err := r.Render(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Pages)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "bitacora_2024-05-01_recABC.pdf", Filename(&domain.Report{ID: "recABC", Date: "2024-05-01"}))
	assert.Equal(t, "bitacora_sin-fecha_recX.pdf", Filename(&domain.Report{ID: "recX"}))
}

func TestDocumentDate(t *testing.T) {
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), documentDate(&domain.Report{Date: "2024-05-01"}))

	created := time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, created, documentDate(&domain.Report{CreatedAt: created}))
	assert.Equal(t, time.Unix(0, 0).UTC(), documentDate(&domain.Report{}))
}

func TestFitRect(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH float64
		wantX, wantY float64
	}{
		{name: "wide image fills width", w: 400, h: 100, wantW: 180, wantH: 45, wantX: 15, wantY: 25 + (257-45)/2.0},
		{name: "tall image fills height", w: 100, h: 1000, wantW: 25.7, wantH: 257, wantX: 15 + (180-25.7)/2, wantY: 25},
		{name: "small image scales up", w: 18, h: 10, wantW: 180, wantH: 100, wantX: 15, wantY: 25 + (257-100)/2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, w, h := fitRect(tt.w, tt.h, 15, 25, 180, 257)
			assert.InDelta(t, tt.wantW, w, 1e-9)
			assert.InDelta(t, tt.wantH, h, 1e-9)
			assert.InDelta(t, tt.wantX, x, 1e-9)
			assert.InDelta(t, tt.wantY, y, 1e-9)
			assert.LessOrEqual(t, w, 180.0+1e-9)
			assert.LessOrEqual(t, h, 257.0+1e-9)
			assert.InDelta(t, float64(tt.w)/float64(tt.h), w/h, 1e-9)
		})
	}
}

func TestFitRectDegenerate(t *testing.T) {
	x, y, w, h := fitRect(0, 10, 15, 25, 180, 257)
	assert.Equal(t, []float64{15, 25, 0, 0}, []float64{x, y, w, h})
}

func TestPrepareImage(t *testing.T) {
	jpg := jpegBytes(t, 30, 20)
	img, err := prepareImage(jpg)
	require.NoError(t, err)
	assert.Equal(t, "JPG", img.kind)
	assert.Equal(t, jpg, img.data)
	assert.Equal(t, 30, img.width)
	assert.Equal(t, 20, img.height)

	img, err = prepareImage(pngBytes(t, 50, 10))
	require.NoError(t, err)
	assert.Equal(t, "PNG", img.kind)
	assert.Equal(t, 50, img.width)

	_, err = prepareImage(nil)
	assert.Error(t, err)
	_, err = prepareImage([]byte("RIFF\x00\x00\x00\x00WEBPjunk"))
	assert.Error(t, err)
}

func TestPrepareImageDownscalesLargeImages(t *testing.T) {
	img, err := prepareImage(pngBytes(t, 4000, 1000))
	require.NoError(t, err)
	assert.Equal(t, maxImageSide, img.width)
	assert.Equal(t, 500, img.height)
}

func TestFormatMetric(t *testing.T) {
	assert.Equal(t, "", FormatMetric(nil))
	assert.Equal(t, "0", FormatMetric(ptr(0)))
	assert.Equal(t, "12.5", FormatMetric(ptr(12.5)))
	assert.Equal(t, "3", FormatMetric(ptr(3)))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	reports := []*domain.Report{sampleReport("a", "b"), {ID: "recEmpty", Date: "2024-04-30"}}
	require.NoError(t, WriteXLSX(&buf, reports))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	assert.Equal(t, "Fecha", header[0])
	assert.Equal(t, "m² instalados", header[6])
	assert.Equal(t, "ID", header[len(header)-1])

	first := rows[1]
	assert.Equal(t, "2024-05-01", first[0])
	assert.Equal(t, "Ana Pérez", first[1])
	assert.Equal(t, "Torre Norte", first[2])
	assert.Equal(t, "Corte", first[3])
	assert.Equal(t, "", first[4])
	assert.Equal(t, "12.5", first[6])
	assert.Equal(t, "", first[7])
	assert.Equal(t, "Otro – Grúa averiada", first[15])
	assert.Equal(t, domain.NoneValue, first[16])
	assert.Equal(t, "2", first[17])
	assert.Equal(t, "recABC", first[18])

	assert.Equal(t, "recEmpty", rows[2][len(rows[2])-1])
}
