// Package airtable is the record gateway backed by the Airtable REST API.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vbonduro/bitacora/internal/config"
	"github.com/vbonduro/bitacora/internal/domain"
	"github.com/vbonduro/bitacora/internal/metrics"
)

// maxPageSize is the largest page the list endpoint returns.
const maxPageSize = 100

const maxErrorBody = 16 << 10

type Client struct {
	baseURL string
	apiKey  string
	tables  tables
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type tables struct {
	reports     string
	supervisors string
	projects    string
}

func NewClient(cfg config.AirtableConfig, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/") + "/" + url.PathEscape(cfg.BaseID),
		apiKey:  cfg.APIKey,
		tables: tables{
			reports:     cfg.TableReports,
			supervisors: cfg.TableSupervisors,
			projects:    cfg.TableProjects,
		},
		client:  &http.Client{},
		logger:  logger,
		metrics: m,
	}
}

type record struct {
	ID          string                     `json:"id"`
	CreatedTime string                     `json:"createdTime"`
	Fields      map[string]json.RawMessage `json:"fields"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset"`
}

// statusError is a non-success response from the API.
type statusError struct {
	table  string
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("airtable %q returned status %d", e.table, e.status)
}

func (e *statusError) Unwrap() error { return domain.ErrUpstream }

func (c *Client) do(ctx context.Context, method, table, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + "/" + url.PathEscape(table) + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.UpstreamError(table)
		return fmt.Errorf("failed to call airtable: %w: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.metrics.UpstreamError(table)
		c.logger.Error("airtable request failed",
			"method", method,
			"table", table,
			"status", resp.StatusCode,
			"body", string(raw),
		)
		return &statusError{table: table, status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode airtable response: %w: %w", domain.ErrUpstream, err)
	}
	return nil
}

// list pages through a table until limit records are read or the table is
// exhausted. limit <= 0 reads every page.
func (c *Client) list(ctx context.Context, table string, query url.Values, limit int) ([]record, error) {
	pageSize := maxPageSize
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}
	query.Set("pageSize", strconv.Itoa(pageSize))
	if limit > 0 {
		query.Set("maxRecords", strconv.Itoa(limit))
	}

	var out []record
	for {
		var page listResponse
		if err := c.do(ctx, http.MethodGet, table, "", query, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Records...)
		if page.Offset == "" || (limit > 0 && len(out) >= limit) {
			break
		}
		query.Set("offset", page.Offset)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, table, id string) (*record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrNotFound
	}
	var rec record
	if err := c.do(ctx, http.MethodGet, table, "/"+url.PathEscape(id), nil, nil, &rec); err != nil {
		// Only fetch-by-id treats 404 as a missing record.
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusNotFound {
			return nil, fmt.Errorf("%s %s: %w", table, id, domain.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

// ListReports returns the most recent reports, newest date first.
func (c *Client) ListReports(ctx context.Context, limit int) ([]*domain.Report, error) {
	q := url.Values{}
	q.Set("sort[0][field]", fieldDate)
	q.Set("sort[0][direction]", "desc")

	recs, err := c.list(ctx, c.tables.reports, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	reports := make([]*domain.Report, 0, len(recs))
	for i := range recs {
		reports = append(reports, toReport(&recs[i]))
	}
	return reports, nil
}

func (c *Client) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	rec, err := c.get(ctx, c.tables.reports, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return toReport(rec), nil
}

// CreateReport writes one report and returns the identifier the store assigned.
func (c *Client) CreateReport(ctx context.Context, n domain.NewReport) (string, error) {
	var rec record
	body := map[string]any{"fields": reportFields(n)}
	if err := c.do(ctx, http.MethodPost, c.tables.reports, "", nil, body, &rec); err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	return rec.ID, nil
}

// GetSupervisor fetches one supervisor. Assigned projects are returned as
// identifiers only; see ListProjectsByIDs.
func (c *Client) GetSupervisor(ctx context.Context, id string) (*domain.Supervisor, error) {
	rec, err := c.get(ctx, c.tables.supervisors, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get supervisor %s: %w", id, err)
	}
	return toSupervisor(rec), nil
}

func (c *Client) ListActiveSupervisors(ctx context.Context) ([]*domain.Supervisor, error) {
	q := url.Values{}
	q.Set("filterByFormula", "{"+fieldSupervisorActive+"}")

	recs, err := c.list(ctx, c.tables.supervisors, q, maxPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list supervisors: %w", err)
	}
	out := make([]*domain.Supervisor, 0, len(recs))
	for i := range recs {
		out = append(out, toSupervisor(&recs[i]))
	}
	return out, nil
}

// ListProjectsByIDs fetches the given projects in one filtered query.
func (c *Client) ListProjectsByIDs(ctx context.Context, ids []string) ([]domain.Project, error) {
	if len(ids) == 0 {
		return []domain.Project{}, nil
	}
	q := url.Values{}
	q.Set("filterByFormula", recordIDFormula(ids))

	recs, err := c.list(ctx, c.tables.projects, q, len(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return toProjects(recs), nil
}

func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	recs, err := c.list(ctx, c.tables.projects, url.Values{}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return toProjects(recs), nil
}

// recordIDFormula builds OR(RECORD_ID()='a',RECORD_ID()='b',...).
func recordIDFormula(ids []string) string {
	terms := make([]string, 0, len(ids))
	for _, id := range ids {
		terms = append(terms, "RECORD_ID()="+quoteFormula(id))
	}
	return "OR(" + strings.Join(terms, ",") + ")"
}

func quoteFormula(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
