package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BradenHooton/honeypot/internal/models"
	"github.com/BradenHooton/honeypot/internal/services"
	pkghttp "github.com/BradenHooton/honeypot/pkg/http"
	pkglogger "github.com/BradenHooton/honeypot/pkg/logger"
)

// CaptureServiceInterface defines the interface for capture business logic
type CaptureServiceInterface interface {
	Record(ctx context.Context, attempt *models.LoginAttempt, meta services.CaptureMetadata) (string, error)
}

// CaptureHandler handles submissions from the decoy login page
type CaptureHandler struct {
	service       CaptureServiceInterface
	captureLogger *pkglogger.CaptureLogger
	ipConfig      *pkghttp.IPConfig
	maxBodyBytes  int64
}

// NewCaptureHandler creates a new CaptureHandler
func NewCaptureHandler(service CaptureServiceInterface, captureLogger *pkglogger.CaptureLogger, ipConfig *pkghttp.IPConfig, maxBodyBytes int64) *CaptureHandler {
	return &CaptureHandler{
		service:       service,
		captureLogger: captureLogger,
		ipConfig:      ipConfig,
		maxBodyBytes:  maxBodyBytes,
	}
}

// CaptureResponse acknowledges a recorded attempt
type CaptureResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	CaptureID string `json:"capture_id"`
}

// LogAttempt handles POST /log-attempt.
// Every failure is reported to the caller as a bare 500; the cause only goes to
// the local diagnostic log.
func (h *CaptureHandler) LogAttempt(w http.ResponseWriter, r *http.Request) {
	clientIP := pkghttp.ExtractClientIP(r, h.ipConfig)

	attempt, err := h.decodeSubmission(w, r)
	if err != nil {
		h.captureLogger.LogCaptureFailure(clientIP, err)
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	// A fully read submission is kept even if the client hangs up now
	ctx := context.WithoutCancel(r.Context())

	captureID, err := h.service.Record(ctx, attempt, services.CaptureMetadata{
		ClientIP: clientIP,
		Headers:  CaptureHeaders(r),
	})
	if err != nil {
		h.captureLogger.LogCaptureFailure(clientIP, err)
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	// the CORS middleware owns the header when an origin matched
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	pkghttp.WriteJSON(w, http.StatusOK, CaptureResponse{
		Status:    "logged",
		Message:   "Attempt recorded",
		CaptureID: captureID,
	})
}

// decodeSubmission reads the whole body and decodes it as a JSON object. It
// runs before anything is persisted, so a rejected body never reaches a log.
func (h *CaptureHandler) decodeSubmission(w http.ResponseWriter, r *http.Request) (*models.LoginAttempt, error) {
	if r.ContentLength < 0 {
		return nil, fmt.Errorf("%w: missing Content-Length", models.ErrMalformedSubmission)
	}
	if r.ContentLength > h.maxBodyBytes {
		return nil, fmt.Errorf("%w: body of %d bytes exceeds limit of %d", models.ErrMalformedSubmission, r.ContentLength, h.maxBodyBytes)
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", models.ErrMalformedSubmission, err)
	}
	if int64(len(body)) != r.ContentLength {
		return nil, fmt.Errorf("%w: read %d of %d bytes", models.ErrMalformedSubmission, len(body), r.ContentLength)
	}

	var attempt models.LoginAttempt
	if err := json.Unmarshal(body, &attempt); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedSubmission, err)
	}
	return &attempt, nil
}

// CaptureHeaders flattens the request headers into one value per name.
// Go's server moves Host out of the header map, so it is added back.
func CaptureHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, len(r.Header)+1)
	for name, values := range r.Header {
		headers[name] = strings.Join(values, ", ")
	}
	if r.Host != "" {
		headers["Host"] = r.Host
	}
	return headers
}
