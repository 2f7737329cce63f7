// Package handler exposes dose verification over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"doseguard/internal/verification/models"
	"doseguard/internal/verification/service"
	id "doseguard/pkg/domain"
	dErrors "doseguard/pkg/domain-errors"
	"doseguard/pkg/platform/httputil"
	"doseguard/pkg/platform/middleware/device"
	"doseguard/pkg/requestcontext"
)

// Service defines the interface for verification operations.
type Service interface {
	VerifyConsumption(ctx context.Context, req service.VerifyRequest) (*service.VerificationResult, error)
	ListScanAttempts(ctx context.Context, containerID id.ContainerID) ([]*models.ScanAttempt, error)
}

// Handler wires verification endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/verify-scan", h.HandleVerifyScan)
	r.Get("/v1/containers/{containerID}/scan-attempts", h.HandleListScanAttempts)
}

// HandleVerifyScan handles POST /v1/verify-scan requests. A scored failure is
// a 200 with verified=false; only pre-check rejections are 4xx.
func (h *Handler) HandleVerifyScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[VerifyScanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.VerifyConsumption(ctx, req.ToServiceRequest(observedDevice(ctx)))
	if err != nil {
		h.logRejection(ctx, requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "scan verified",
		"request_id", requestID,
		"scan_id", result.ScanID.String(),
		"container_id", result.Container.ContainerID.String(),
		"verified", result.Verified,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleListScanAttempts handles GET /v1/containers/{containerID}/scan-attempts.
func (h *Handler) HandleListScanAttempts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	containerID, err := id.ParseContainerID(chi.URLParam(r, "containerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	attempts, err := h.service.ListScanAttempts(ctx, containerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list scan attempts",
			"request_id", requestID,
			"container_id", containerID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAttempts(containerID.String(), attempts))
}

func (h *Handler) logRejection(ctx context.Context, requestID string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, "scan verification failed",
			"request_id", requestID,
			"error", err,
		)
	default:
		h.logger.WarnContext(ctx, "scan rejected",
			"request_id", requestID,
			"code", string(dErrors.CodeOf(err)),
		)
	}
}

// observedDevice is what the transport saw of the caller.
func observedDevice(ctx context.Context) models.DeviceInfo {
	ua := requestcontext.UserAgent(ctx)
	profile := device.ParseUserAgent(ua)
	return models.DeviceInfo{
		DeviceID:  requestcontext.DeviceID(ctx),
		UserAgent: ua,
		OS:        profile.OS,
		Browser:   profile.Browser,
		Mobile:    profile.Mobile,
		ClientIP:  requestcontext.ClientIP(ctx),
	}
}
