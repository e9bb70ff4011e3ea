package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/creator-league/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestMapError_Statuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		reason string
	}{
		{fmt.Errorf("%w: x", usecase.ErrNotFound), http.StatusNotFound, "notFound"},
		{fmt.Errorf("%w: x", usecase.ErrUnauthorized), http.StatusUnauthorized, "unauthorized"},
		{fmt.Errorf("%w: x", usecase.ErrForbidden), http.StatusForbidden, "forbidden"},
		{fmt.Errorf("%w: x", usecase.ErrCapacityExceeded), http.StatusConflict, "capacityExceeded"},
		{fmt.Errorf("%w: x", usecase.ErrConflict), http.StatusConflict, "conflict"},
		{fmt.Errorf("%w: x", usecase.ErrIntegrityViolation), http.StatusUnprocessableEntity, "integrityViolation"},
		{fmt.Errorf("%w: x", usecase.ErrNotConfirmed), http.StatusPreconditionFailed, "notConfirmed"},
		{fmt.Errorf("%w: x", usecase.ErrDependencyUnavailable), http.StatusServiceUnavailable, "dependencyUnavailable"},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError, "internalError"},
	}

	for _, tc := range cases {
		got := mapError(context.Background(), tc.err)
		if got.HTTPStatus != tc.status || got.Reason != tc.reason {
			t.Fatalf("mapError(%v) = %d/%s, want %d/%s", tc.err, got.HTTPStatus, got.Reason, tc.status, tc.reason)
		}
	}
}

func TestWriteError_HidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("select users: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "connection refused") {
		t.Fatalf("internal error detail leaked: %s", body)
	}
}
