package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/vbonduro/bitacora/internal/domain"
)

// A4 portrait, millimetres.
const (
	pageW    = 210.0
	pageH    = 297.0
	margin   = 15.0
	printW   = pageW - 2*margin
	lineH    = 6.0
	captionH = 10.0
)

const (
	titleText       = "BITÁCORA DIARIA DE OBRA"
	noActivityText  = "Sin actividades registradas"
	emptyValue      = "—"
	maxPhotoFetched = 25 << 20
)

// PhotoFetcher retrieves a photo by the URL stored on a report.
type PhotoFetcher interface {
	Get(ctx context.Context, url string) (io.ReadCloser, string, error)
}

// Document is a rendered export.
type Document struct {
	Bytes []byte
	Pages int
}

// PDFRenderer turns one report into a paginated PDF: a summary page followed
// by one page per retrievable photo.
type PDFRenderer struct {
	logo   *preparedImage
	photos PhotoFetcher
	logger *slog.Logger
}

// NewPDFRenderer loads the letterhead logo from logoPath. A missing or
// unreadable logo leaves the renderer with a text-only header.
func NewPDFRenderer(logoPath string, photos PhotoFetcher, logger *slog.Logger) *PDFRenderer {
	r := &PDFRenderer{photos: photos, logger: logger}
	if logoPath == "" {
		return r
	}
	data, err := os.ReadFile(logoPath)
	if err != nil {
		logger.Warn("letterhead logo unavailable", "path", logoPath, "error", err)
		return r
	}
	logo, err := prepareImage(data)
	if err != nil {
		logger.Warn("letterhead logo unreadable", "path", logoPath, "error", err)
		return r
	}
	r.logo = logo
	return r
}

// Filename is the download name for a report's PDF.
func Filename(r *domain.Report) string {
	date := r.Date
	if date == "" {
		date = "sin-fecha"
	}
	return fmt.Sprintf("bitacora_%s_%s.pdf", date, r.ID)
}

func (p *PDFRenderer) Render(ctx context.Context, r *domain.Report) (*Document, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(documentDate(r))
	pdf.SetTitle(Filename(r), true)
	pdf.SetCreator("bitacora", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	p.header(pdf, tr)
	newSummaryWriter(pdf, tr).report(r)

	photos := p.fetchAll(ctx, r)

	// Photo pages are laid out by hand.
	pdf.SetAutoPageBreak(false, margin)
	for i, img := range photos {
		name := fmt.Sprintf("foto%d", i)
		opts := gofpdf.ImageOptions{ImageType: img.kind, ReadDpi: false}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))
		if pdf.Err() {
			return nil, fmt.Errorf("failed to embed photo %d: %w", i+1, pdf.Error())
		}

		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetXY(margin, margin)
		pdf.CellFormat(printW, lineH, tr(fmt.Sprintf("Evidencia fotográfica %d de %d", i+1, len(photos))), "", 0, "L", false, 0, "")

		boxY := margin + captionH
		x, y, w, h := fitRect(img.width, img.height, margin, boxY, printW, pageH-margin-boxY)
		pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return &Document{Bytes: buf.Bytes(), Pages: pdf.PageCount()}, nil
}

func (p *PDFRenderer) header(pdf *gofpdf.Fpdf, tr func(string) string) {
	textX := margin
	if p.logo != nil {
		opts := gofpdf.ImageOptions{ImageType: p.logo.kind}
		pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(p.logo.data))
		if !pdf.Err() {
			_, _, w, h := fitRect(p.logo.width, p.logo.height, 0, 0, 40, 20)
			pdf.ImageOptions("logo", margin, margin, w, h, false, opts, 0, "")
			textX = margin + 45
		}
	}

	pdf.SetXY(textX, margin+4)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(pageW-margin-textX, 8, tr(titleText), "", 0, "L", false, 0, "")
	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(margin, margin+22, pageW-margin, margin+22)
	pdf.SetY(margin + 26)
}

// summaryWriter lays out the report data. Values wrap inside their column
// and the document's automatic page break continues long summaries on a
// new page.
type summaryWriter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

const labelW = 45.0

func newSummaryWriter(pdf *gofpdf.Fpdf, tr func(string) string) *summaryWriter {
	return &summaryWriter{pdf: pdf, tr: tr}
}

func (s *summaryWriter) report(r *domain.Report) {
	s.section("Datos del reporte")
	s.field("Fecha:", r.Date)
	s.field("Supervisor:", r.SupervisorName)
	s.field("Proyecto:", r.ProjectName)
	s.field("ID de registro:", r.ID)

	s.section("Actividades")
	s.bullets("Fabricación", r.Fabrication)
	s.bullets("Instalación", r.Installation)
	s.bullets("Supervisión", r.Supervision)

	s.section("Métricas")
	for _, m := range MetricColumns {
		s.field(m.Label+":", FormatMetric(m.Value(r.Metrics)))
	}

	s.section("Incidencias")
	s.field("Tiempo muerto:", withOther(r.Downtime, r.DowntimeOther))
	s.field("Pendiente:", withOther(r.Pending, r.PendingOther))

	s.pdf.Ln(2)
	s.pdf.SetFont("Helvetica", "I", 9)
	s.pdf.MultiCell(printW, lineH, s.tr(fmt.Sprintf("Evidencia fotográfica: %d foto(s)", len(r.Photos))), "", "L", false)
}

func (s *summaryWriter) field(label, value string) {
	if value == "" {
		value = emptyValue
	}
	s.pdf.SetFont("Helvetica", "B", 10)
	s.pdf.CellFormat(labelW, lineH, s.tr(label), "", 0, "L", false, 0, "")
	s.pdf.SetFont("Helvetica", "", 10)
	s.pdf.MultiCell(printW-labelW, lineH, s.tr(value), "", "L", false)
}

func (s *summaryWriter) section(title string) {
	s.pdf.Ln(3)
	s.pdf.SetFont("Helvetica", "B", 12)
	s.pdf.CellFormat(printW, lineH+1, s.tr(title), "B", 1, "L", false, 0, "")
	s.pdf.Ln(1)
}

func (s *summaryWriter) bullets(title string, items []string) {
	s.pdf.SetFont("Helvetica", "B", 10)
	s.pdf.CellFormat(printW, lineH, s.tr(title), "", 1, "L", false, 0, "")
	if len(items) == 0 {
		s.pdf.SetFont("Helvetica", "I", 10)
		s.pdf.CellFormat(printW, lineH, s.tr("   "+noActivityText), "", 1, "L", false, 0, "")
		return
	}
	s.pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		s.pdf.MultiCell(printW, lineH, s.tr("   • "+item), "", "L", false)
	}
}

// fetchAll retrieves the report's photos in order, dropping any that cannot
// be fetched or decoded.
func (p *PDFRenderer) fetchAll(ctx context.Context, r *domain.Report) []*preparedImage {
	out := make([]*preparedImage, 0, len(r.Photos))
	for _, url := range r.Photos {
		img, err := p.fetch(ctx, url)
		if err != nil {
			p.logger.Warn("skipping photo in export", "report_id", r.ID, "url", url, "error", err)
			continue
		}
		out = append(out, img)
	}
	return out
}

func (p *PDFRenderer) fetch(ctx context.Context, url string) (*preparedImage, error) {
	if p.photos == nil {
		return nil, fmt.Errorf("no photo source configured")
	}
	rc, _, err := p.photos.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxPhotoFetched+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if len(data) > maxPhotoFetched {
		return nil, fmt.Errorf("photo exceeds %d bytes", maxPhotoFetched)
	}
	return prepareImage(data)
}

// documentDate pins the PDF creation date to the report so identical reports
// render to identical bytes.
func documentDate(r *domain.Report) time.Time {
	if t, err := time.Parse(time.DateOnly, r.Date); err == nil {
		return t
	}
	if !r.CreatedAt.IsZero() {
		return r.CreatedAt.UTC()
	}
	return time.Unix(0, 0).UTC()
}

func withOther(value, other string) string {
	switch {
	case value == "":
		return other
	case other == "":
		return value
	default:
		return value + " – " + other
	}
}

// MetricColumn names one report metric for display.
type MetricColumn struct {
	Label string
	Value func(domain.Metrics) *float64
}

var MetricColumns = []MetricColumn{
	{"m² instalados", func(m domain.Metrics) *float64 { return m.AreaInstalled }},
	{"Piezas colocadas", func(m domain.Metrics) *float64 { return m.PiecesPlaced }},
	{"Sellos ejecutados", func(m domain.Metrics) *float64 { return m.SealsExecuted }},
	{"Postes ajustados", func(m domain.Metrics) *float64 { return m.PostsAdjusted }},
	{"m² vidrio", func(m domain.Metrics) *float64 { return m.GlassArea }},
	{"m² aluminio", func(m domain.Metrics) *float64 { return m.AluminumArea }},
	{"ml sello interior", func(m domain.Metrics) *float64 { return m.InteriorSealLength }},
	{"ml sello exterior", func(m domain.Metrics) *float64 { return m.ExteriorSealLength }},
	{"Puertas colocadas", func(m domain.Metrics) *float64 { return m.DoorsPlaced }},
}

// FormatMetric renders a metric for display; nil becomes "".
func FormatMetric(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
