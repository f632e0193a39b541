package web

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/vbonduro/bitacora/internal/photostore/local"
)

const maxPhotoSize = 20 << 20 // 20 MB

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniffing algorithm (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

var errInvalidImage = errors.New("unsupported image format")

// readImage reads one uploaded file and checks its magic bytes.
func readImage(fh *multipart.FileHeader) ([]byte, string, error) {
	if fh.Size > maxPhotoSize {
		return nil, "", errInvalidImage
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxPhotoSize+1))
	if err != nil {
		return nil, "", err
	}
	mimeType, ok := allowedImageMIME(data)
	if !ok || len(data) > maxPhotoSize {
		return nil, "", errInvalidImage
	}
	return data, mimeType, nil
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		s.writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	_, fh, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Falta el archivo de la foto.")
		return
	}

	data, mimeType, err := readImage(fh)
	if errors.Is(err, errInvalidImage) {
		s.writeError(w, http.StatusBadRequest, msgInvalidImage)
		return
	}
	if err != nil {
		s.fail(w, r, err, msgPhotoUpload)
		return
	}

	url, err := s.service.UploadPhoto(r.Context(), "bitacora", data, mimeType)
	if err != nil {
		s.fail(w, r, err, msgPhotoUpload)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"ok": true, "url": url})
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	reader, mimeType, err := s.photoStore.Get(r.Context(), local.URLPrefix+r.PathValue("key"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "key", r.PathValue("key"), "error", err)
	}
}
