package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// imageUpload is an image submitted to one of the vision endpoints.
// ReceiptID is only honored by the receipt extraction path.
type imageUpload struct {
	Data      []byte
	MimeType  string
	ReceiptID string
}

// readImageUpload reads an image from the request. Two body shapes are
// accepted: a multipart form with a "file" part, and a JSON object with
// base64 content ({"image_base64": ..., "mime_type": ..., "receipt_id"?}),
// the shape browser clients send when they capture from a canvas.
func readImageUpload(r *http.Request) (*imageUpload, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadSize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return readJSONImage(r)
	}
	return readMultipartImage(r)
}

func readJSONImage(r *http.Request) (*imageUpload, error) {
	var req struct {
		ImageBase64 string `json:"image_base64"`
		MimeType    string `json:"mime_type"`
		ReceiptID   string `json:"receipt_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("readJSONImage: decode body: %w", err)
	}
	if req.ImageBase64 == "" {
		return nil, fmt.Errorf("readJSONImage: image_base64 is required")
	}

	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("readJSONImage: invalid base64: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("readJSONImage: empty image")
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return &imageUpload{Data: data, MimeType: mimeType, ReceiptID: req.ReceiptID}, nil
}

func readMultipartImage(r *http.Request) (*imageUpload, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, fmt.Errorf("readMultipartImage: parse form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("readMultipartImage: missing 'file' field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("readMultipartImage: reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("readMultipartImage: empty upload")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	return &imageUpload{Data: data, MimeType: mimeType, ReceiptID: r.FormValue("receipt_id")}, nil
}

// extensionFor maps an upload MIME type to a storage object extension.
func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "jpeg"), strings.Contains(mimeType, "jpg"):
		return ".jpg"
	case strings.Contains(mimeType, "png"):
		return ".png"
	case strings.Contains(mimeType, "webp"):
		return ".webp"
	case strings.Contains(mimeType, "pdf"):
		return ".pdf"
	default:
		return ".bin"
	}
}
