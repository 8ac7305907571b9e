package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"carvest/internal/account/handler"
	"carvest/internal/account/service"
	"carvest/internal/account/store"
	"carvest/internal/media"
)

const adminToken = "admin-secret"

func newRouter(t *testing.T) chi.Router {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), media.NewMemory(), service.WithLogger(logger))

	r := chi.NewRouter()
	handler.New(svc, adminToken, logger).Register(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body map[string]any, withToken bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if withToken {
		req.Header.Set("X-Admin-Token", adminToken)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestAdminTokenRequired(t *testing.T) {
	r := newRouter(t)

	rec, _ := doJSON(t, r, http.MethodGet, "/admin/drivers/", nil, false)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without admin token, got %d", rec.Code)
	}
}

func TestCreateAndGetDriver(t *testing.T) {
	r := newRouter(t)

	rec, body := doJSON(t, r, http.MethodPost, "/admin/drivers/", map[string]any{
		"name":     "Ravi",
		"mobile":   "9999999999",
		"username": "ravi",
	}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", rec.Code, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatal("expected account id in response")
	}
	if body["is_manual_entry"] != true {
		t.Fatalf("expected manual entry flag, got %v", body["is_manual_entry"])
	}

	rec, body = doJSON(t, r, http.MethodGet, "/admin/drivers/"+id, nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["primary_id"] != "9999999999" {
		t.Fatalf("unexpected primary id: %v", body["primary_id"])
	}
}

func TestCreateInvestorUploadsDocuments(t *testing.T) {
	r := newRouter(t)

	rec, body := doJSON(t, r, http.MethodPost, "/admin/investors/", map[string]any{
		"investorName": "Ada",
		"phone":        "8888888888",
		"email":        "ada@example.com",
		"profilePhoto": "data:image/png;base64,iVBORw0KGgo=",
	}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", rec.Code, body)
	}

	docs, _ := body["documents"].(map[string]any)
	photo, _ := docs["profilePhoto"].(string)
	if !strings.HasPrefix(photo, "https://") {
		t.Fatalf("expected hosted document URL, got %q", photo)
	}
	if strings.Contains(photo, "data:") {
		t.Fatalf("raw data URI leaked into stored document: %q", photo)
	}
}

func TestCreateConflict(t *testing.T) {
	r := newRouter(t)

	payload := map[string]any{"name": "A", "mobile": "9999999999"}
	rec, _ := doJSON(t, r, http.MethodPost, "/admin/drivers/", payload, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec, _ = doJSON(t, r, http.MethodPost, "/admin/drivers/", payload, true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate mobile, got %d", rec.Code)
	}
}

func TestUpdateDriver(t *testing.T) {
	r := newRouter(t)

	_, created := doJSON(t, r, http.MethodPost, "/admin/drivers/", map[string]any{
		"name": "Ravi", "mobile": "9999999999",
	}, true)
	id := created["id"].(string)

	rec, body := doJSON(t, r, http.MethodPut, "/admin/drivers/"+id, map[string]any{
		"name": "Ravi K",
	}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, body)
	}
	if body["name"] != "Ravi K" {
		t.Fatalf("expected renamed account, got %v", body["name"])
	}
	if body["primary_id"] != "9999999999" {
		t.Fatalf("untouched field changed: %v", body["primary_id"])
	}
}

func TestUpdateUnknownAccount(t *testing.T) {
	r := newRouter(t)

	rec, _ := doJSON(t, r, http.MethodPut, "/admin/drivers/00000000-0000-0000-0000-000000000001", map[string]any{
		"name": "Nobody",
	}, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec, _ = doJSON(t, r, http.MethodPut, "/admin/drivers/not-a-uuid", map[string]any{}, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestDeleteDriver(t *testing.T) {
	r := newRouter(t)

	_, created := doJSON(t, r, http.MethodPost, "/admin/drivers/", map[string]any{
		"name": "Ravi", "mobile": "9999999999",
	}, true)
	id := created["id"].(string)

	rec, body := doJSON(t, r, http.MethodDelete, "/admin/drivers/"+id, nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["message"] != "Account deleted successfully." {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	rec, _ = doJSON(t, r, http.MethodGet, "/admin/drivers/"+id, nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestListManualEntriesOnly(t *testing.T) {
	r := newRouter(t)

	_, _ = doJSON(t, r, http.MethodPost, "/admin/investors/", map[string]any{
		"investorName": "Ada", "phone": "8888888888",
	}, true)

	req := httptest.NewRequest(http.MethodGet, "/admin/investors/", nil)
	req.Header.Set("X-Admin-Token", adminToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var listed []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected one account, got %d", len(listed))
	}
	if listed[0]["is_manual_entry"] != true {
		t.Fatalf("expected manual entry, got %v", listed[0])
	}
}
