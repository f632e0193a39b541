package web

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/bitacora/internal/service"
)

func TestAllowedImageMIME(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantMIME string
		wantOK   bool
	}{
		{name: "JPEG", data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, wantMIME: "image/jpeg", wantOK: true},
		{name: "PNG", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, wantMIME: "image/png", wantOK: true},
		{name: "GIF", data: []byte("GIF89a"), wantMIME: "image/gif", wantOK: true},
		{name: "WebP", data: append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 10)...), wantMIME: "image/webp", wantOK: true},
		{name: "RIFF but not WebP", data: append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 10)...)},
		{name: "PDF disguised as image", data: []byte("%PDF-1.4 malicious content")},
		{name: "empty", data: []byte{}},
		{name: "too short for WebP check", data: []byte("RIFF")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMIME, gotOK := allowedImageMIME(tt.data)
			assert.Equal(t, tt.wantOK, gotOK)
			assert.Equal(t, tt.wantMIME, gotMIME)
		})
	}
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLimit int
		wantErr   bool
		want      service.ReportFilter
	}{
		{name: "defaults", query: "", wantLimit: service.DefaultListLimit},
		{name: "explicit", query: "limit=20", wantLimit: 20},
		{name: "clamped", query: "limit=1000", wantLimit: service.MaxListLimit},
		{name: "zero", query: "limit=0", wantErr: true},
		{name: "negative", query: "limit=-4", wantErr: true},
		{name: "not a number", query: "limit=muchos", wantErr: true},
		{
			name:      "filters",
			query:     "limit=200&supervisor=recAna&q=clima&incidencias=1",
			wantLimit: 200,
			want:      service.ReportFilter{IncidentsOnly: true, SupervisorID: "recAna", Search: "clima"},
		},
		{name: "incidents true", query: "incidencias=true", wantLimit: service.DefaultListLimit, want: service.ReportFilter{IncidentsOnly: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			limit, f, err := parseListQuery(q)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.want, f)
		})
	}
}
