package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/rpcosta/agency-ops/internal/api/middleware"
	"github.com/rpcosta/agency-ops/internal/extract"
	"github.com/rpcosta/agency-ops/internal/store"
)

// ReadOdometer runs OCR on a photographed odometer for the mileage log.
// An unreadable image is a 200 with success=false and the model's notes;
// only a transport or provider failure is an error status.
func (s *Server) ReadOdometer(w http.ResponseWriter, r *http.Request) {
	upload, err := readImageUpload(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "An image upload is required (multipart 'file' or JSON image_base64)")
		return
	}

	raw, err := s.vision.ReadImage(r.Context(), extract.OdometerPrompt, upload.Data, upload.MimeType)
	if err != nil {
		s.writeModelError(w, "ReadOdometer", err)
		return
	}

	reading := extract.NormalizeOdometer(raw)
	if !reading.Success {
		middleware.WriteJSON(w, http.StatusOK, reading)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	userEmail := ""
	if identity != nil {
		userEmail = identity.Email
	}

	readingID := uuid.New().String()

	// Image archive and row insert are best-effort: the caller already has
	// the reading, losing the audit copy must not fail the request.
	imageURI := ""
	objectName := fmt.Sprintf("odometer/%s/%s%s", s.now().Format("2006/01"), readingID, extensionFor(upload.MimeType))
	if uri, err := s.objects.UploadBytes(r.Context(), objectName, upload.MimeType, upload.Data); err != nil {
		s.log.Warn().Err(err).Str("reading_id", readingID).Msg("Odometer image archive failed")
	} else {
		imageURI = uri
	}

	row := &store.OdometerReadingRow{
		ReadingID:   readingID,
		UserEmail:   userEmail,
		KMReading:   *reading.KMReading,
		Confidence:  reading.Confidence,
		Notes:       reading.Notes,
		ImageGCSURI: imageURI,
		CreatedTS:   s.now().UTC(),
	}
	if err := s.odometer.InsertReading(r.Context(), row); err != nil {
		s.log.Warn().Err(err).Str("reading_id", readingID).Msg("Odometer reading insert failed")
	}

	middleware.WriteJSON(w, http.StatusOK, struct {
		ReadingID string `json:"reading_id"`
		extract.OdometerReading
	}{ReadingID: readingID, OdometerReading: reading})
}
