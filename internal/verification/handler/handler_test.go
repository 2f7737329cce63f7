package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doseguard/internal/verification/models"
	"doseguard/internal/verification/service"
	id "doseguard/pkg/domain"
	dErrors "doseguard/pkg/domain-errors"
	"doseguard/pkg/testutil"
)

type stubService struct {
	got      service.VerifyRequest
	result   *service.VerificationResult
	err      error
	attempts []*models.ScanAttempt
	listed   id.ContainerID
}

func (s *stubService) VerifyConsumption(_ context.Context, req service.VerifyRequest) (*service.VerificationResult, error) {
	s.got = req
	return s.result, s.err
}

func (s *stubService) ListScanAttempts(_ context.Context, containerID id.ContainerID) ([]*models.ScanAttempt, error) {
	s.listed = containerID
	return s.attempts, s.err
}

func newRouter(svc Service) chi.Router {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func validBody(patientID id.PatientID) map[string]any {
	return map[string]any{
		"credential":         "QR-123",
		"claimed_patient_id": patientID.String(),
		"location":           map[string]any{"latitude": 40.7128, "longitude": -74.006, "accuracy_meters": 12.5},
		"biometric_capture":  map[string]any{"score": 91.5, "liveness": true},
		"seal_photo_ref":     "s3://seals/abc.jpg",
		"device_info":        map[string]any{"platform": "ios", "app_version": "3.2.0"},
	}
}

func TestVerifyScan(t *testing.T) {
	patientID := id.NewPatientID()

	testutil.Given(t, "a scored failure", func(t *testing.T) {
		scanID := id.NewScanID()
		svc := &stubService{result: &service.VerificationResult{
			ScanID:         scanID,
			Verified:       false,
			FailureReasons: []models.FailureReason{models.ReasonTimeViolation},
			Factors:        models.FactorResults{Time: models.TimeCheck{Verdict: models.VerdictFailed, MinutesOutside: 180}},
			Container: service.ContainerSummary{
				ContainerID:      id.NewContainerID(),
				PatientID:        patientID,
				Window:           "06:00-11:00",
				Status:           models.StatusConsumed,
				ComplianceStatus: models.ComplianceNonCompliant,
			},
			Summary: "verification failed: taken at 14:00, 180 minutes outside window 06:00-11:00",
		}}
		router := newRouter(svc)

		testutil.When(t, "the app submits the scan", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/verify-scan", validBody(patientID))
			req = testutil.WithDevice(req, "install-42", "10.0.0.7", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
			rr := testutil.Serve(router, req)

			testutil.Then(t, "it answers 200 with verified=false", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
				resp := testutil.DecodeJSON[VerifyScanResponse](t, rr)
				assert.False(t, resp.Verified)
				assert.Equal(t, []models.FailureReason{models.ReasonTimeViolation}, resp.FailureReasons)
				assert.Equal(t, scanID.String(), resp.ScanAttemptID)
				assert.Equal(t, 180, resp.PerFactorDetail.Time.MinutesOutside)
				assert.Equal(t, models.ComplianceNonCompliant, resp.ContainerSummary.ComplianceStatus)
			})

			testutil.Then(t, "the service sees the parsed request and device", func(t *testing.T) {
				assert.Equal(t, "QR-123", svc.got.Credential)
				assert.Equal(t, patientID, svc.got.ClaimedPatientID)
				require.NotNil(t, svc.got.Location)
				require.NotNil(t, svc.got.Location.AccuracyMeters)
				assert.InDelta(t, 12.5, *svc.got.Location.AccuracyMeters, 1e-9)
				require.NotNil(t, svc.got.Biometric)
				assert.InDelta(t, 91.5, svc.got.Biometric.Score, 1e-9)
				assert.Equal(t, "install-42", svc.got.Device.DeviceID)
				assert.Equal(t, "10.0.0.7", svc.got.Device.ClientIP)
				assert.Equal(t, "ios", svc.got.Device.Platform)
				assert.True(t, svc.got.Device.Mobile)
			})
		})
	})

	testutil.Given(t, "a pre-check rejection", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{dErrors.New(dErrors.CodeInvalidCredential, "x"), http.StatusNotFound, "invalid_credential"},
			{dErrors.New(dErrors.CodePatientMismatch, "x"), http.StatusForbidden, "patient_mismatch"},
			{dErrors.New(dErrors.CodeAlreadyConsumed, "x"), http.StatusConflict, "already_consumed"},
			{dErrors.New(dErrors.CodeContainerVoid, "x"), http.StatusGone, "container_void"},
			{dErrors.New(dErrors.CodeUnavailable, "x"), http.StatusServiceUnavailable, "service_unavailable"},
		}
		for _, tc := range cases {
			t.Run(tc.code, func(t *testing.T) {
				router := newRouter(&stubService{err: tc.err})
				rr := testutil.Serve(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/verify-scan", validBody(patientID)))
				testutil.AssertError(t, rr, tc.status, tc.code)
			})
		}
	})

	testutil.Given(t, "an invalid body", func(t *testing.T) {
		router := newRouter(&stubService{})

		t.Run("malformed JSON", func(t *testing.T) {
			rr := testutil.Serve(router, testutil.NewRawRequest(http.MethodPost, "/v1/verify-scan", "{"))
			testutil.AssertError(t, rr, http.StatusBadRequest, "bad_request")
		})
		t.Run("unknown field", func(t *testing.T) {
			rr := testutil.Serve(router, testutil.NewRawRequest(http.MethodPost, "/v1/verify-scan", `{"credential":"a","extra":1}`))
			testutil.AssertError(t, rr, http.StatusBadRequest, "bad_request")
		})
		t.Run("missing patient", func(t *testing.T) {
			body := validBody(patientID)
			delete(body, "claimed_patient_id")
			rr := testutil.Serve(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/verify-scan", body))
			testutil.AssertError(t, rr, http.StatusBadRequest, "validation_error")
		})
		t.Run("location without longitude", func(t *testing.T) {
			body := validBody(patientID)
			body["location"] = map[string]any{"latitude": 1.0}
			rr := testutil.Serve(router, testutil.NewJSONRequest(t, http.MethodPost, "/v1/verify-scan", body))
			testutil.AssertError(t, rr, http.StatusBadRequest, "validation_error")
		})
	})
}

func TestListScanAttempts(t *testing.T) {
	containerID := id.NewContainerID()
	svc := &stubService{attempts: []*models.ScanAttempt{{
		ID:             id.NewScanID(),
		ContainerID:    containerID,
		PresentedAt:    time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC),
		FailureReasons: []models.FailureReason{models.ReasonWrongPatientScan},
		Factors:        models.NotEvaluatedFactors(),
	}}}
	router := newRouter(svc)

	rr := testutil.Serve(router, testutil.NewJSONRequest(t, http.MethodGet, "/v1/containers/"+containerID.String()+"/scan-attempts", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, containerID, svc.listed)
	resp := testutil.DecodeJSON[ScanAttemptsResponse](t, rr)
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, []models.FailureReason{models.ReasonWrongPatientScan}, resp.Attempts[0].FailureReasons)
	assert.Equal(t, models.VerdictNotEvaluated, resp.Attempts[0].PerFactorDetail.Location.Verdict)

	rr = testutil.Serve(router, testutil.NewJSONRequest(t, http.MethodGet, "/v1/containers/not-a-uuid/scan-attempts", nil))
	testutil.AssertError(t, rr, http.StatusBadRequest, "invalid_input")
}
