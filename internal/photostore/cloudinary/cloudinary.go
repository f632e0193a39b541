// Package cloudinary uploads photos to Cloudinary with an unsigned preset.
package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

const maxErrorBody = 4 << 10

// ErrForeignURL is returned by Get for URLs outside the cloud's delivery
// prefix.
var ErrForeignURL = errors.New("photo url is not hosted on this cloud")

type Store struct {
	apiURL    string
	cloudName string
	preset    string
	// mediaPrefix is the delivery URL every hosted photo starts with,
	// e.g. https://res.cloudinary.com/<cloud>/.
	mediaPrefix string
	client      *http.Client
	logger      *slog.Logger
}

func New(apiURL, deliveryURL, cloudName, preset string, logger *slog.Logger) *Store {
	s := &Store{
		apiURL:      strings.TrimRight(apiURL, "/"),
		cloudName:   cloudName,
		preset:      preset,
		mediaPrefix: strings.TrimRight(deliveryURL, "/") + "/" + cloudName + "/",
		logger:      logger,
	}
	s.client = &http.Client{CheckRedirect: func(req *http.Request, _ []*http.Request) error {
		if !s.hosted(req.URL.String()) {
			return ErrForeignURL
		}
		return nil
	}}
	return s
}

// hosted reports whether rawURL points into this cloud's delivery prefix.
func (s *Store) hosted(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.User != nil || u.RawQuery != "" || u.Fragment != "" {
		return false
	}
	return strings.HasPrefix(u.String(), s.mediaPrefix) && !strings.Contains(u.Path, "..")
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Save sends the photo to the upload endpoint and returns its secure_url.
func (s *Store) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("upload_preset", s.preset); err != nil {
		return "", fmt.Errorf("failed to write preset field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", prefix+extFor(mimeType))
	if err != nil {
		return "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("failed to copy photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", s.apiURL, s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call cloudinary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		s.logger.Error("cloudinary upload rejected", "status", resp.StatusCode, "body", string(raw))
		return "", fmt.Errorf("cloudinary returned status %d", resp.StatusCode)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("cloudinary response has no secure_url")
	}
	return out.SecureURL, nil
}

// Get downloads a hosted photo. Only URLs under the cloud's delivery prefix
// are fetched.
func (s *Store) Get(ctx context.Context, photoURL string) (io.ReadCloser, string, error) {
	if !s.hosted(photoURL) {
		return nil, "", fmt.Errorf("%w: %q", ErrForeignURL, photoURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch photo: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("photo host returned status %d", resp.StatusCode)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func extFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
