package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/go-chi/chi/v5"

	"carvest/internal/jwttoken"
	"carvest/internal/registration/models"
	"carvest/internal/registration/service"
	"carvest/internal/registration/store"
	"carvest/pkg/platform/sentinel"
)

const adminToken = "secret-token"

var driverTokenPattern = regexp.MustCompile(`^DRV[0-9A-F]{16}$`)

type emptyDirectory struct{}

func (emptyDirectory) FindOne(context.Context, models.ActorKind, store.Filter) (*models.AccountRef, error) {
	return nil, sentinel.ErrNotFound
}

func (emptyDirectory) FindAny(context.Context, models.ActorKind, string, string) (*models.AccountRef, error) {
	return nil, sentinel.ErrNotFound
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtSvc := jwttoken.NewJWTService("test-signing-key", "test-issuer", "test-audience")
	svc := service.New(store.NewInMemory(), emptyDirectory{}, jwtSvc, service.WithLogger(logger))
	h := New(svc, jwttoken.NewJWTServiceAdapter(jwtSvc), adminToken, logger)

	r := chi.NewRouter()
	h.Register(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func TestDriverSignupReturns200WithToken(t *testing.T) {
	router := newRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/drivers/signup", map[string]string{
		"username": "alice", "mobile": "9999999999", "password": "p@ss",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for driver signup, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["token"] == "" || body["token"] == nil {
		t.Fatalf("expected bearer token in response")
	}
	driver, ok := body["driver"].(map[string]any)
	if !ok {
		t.Fatalf("expected driver object in response, got %v", body)
	}
	token, _ := driver["driverToken"].(string)
	if !driverTokenPattern.MatchString(token) {
		t.Fatalf("driverToken %q does not match expected shape", token)
	}
	if driver["status"] != "pending" || driver["kycStatus"] != "pending" {
		t.Fatalf("expected pending statuses, got %v", driver)
	}
}

func TestInvestorSignupReturns201(t *testing.T) {
	router := newRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/investors/signup", map[string]string{
		"investorName": "Ada", "phone": "8888888888", "password": "p@ss",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for investor signup, got %d: %s", rec.Code, rec.Body.String())
	}
	investor, ok := body["investor"].(map[string]any)
	if !ok {
		t.Fatalf("expected investor object in response")
	}
	if investor["investorName"] != "Ada" {
		t.Fatalf("expected investorName Ada, got %v", investor["investorName"])
	}
}

func TestDuplicateSignupReturns400WithExistingToken(t *testing.T) {
	router := newRouter(t)

	_, first := doJSON(t, router, http.MethodPost, "/drivers/signup", map[string]string{
		"username": "alice", "mobile": "9999999999", "password": "p@ss",
	}, nil)
	firstToken := first["driver"].(map[string]any)["driverToken"]

	rec, body := doJSON(t, router, http.MethodPost, "/drivers/signup", map[string]string{
		"username": "bob", "mobile": "9999999999", "password": "other",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate signup, got %d", rec.Code)
	}
	if body["alreadyRegistered"] != true {
		t.Fatalf("expected alreadyRegistered true, got %v", body)
	}
	if body["driverToken"] != firstToken {
		t.Fatalf("expected conflict to carry first token %v, got %v", firstToken, body["driverToken"])
	}
}

func TestSignupValidationReturns400(t *testing.T) {
	router := newRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/drivers/signup", map[string]string{
		"mobile": "9999999999", "password": "p@ss",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when username missing on password signup, got %d", rec.Code)
	}
}

func TestLoginWrongPasswordReturns401(t *testing.T) {
	router := newRouter(t)

	doJSON(t, router, http.MethodPost, "/drivers/signup", map[string]string{
		"username": "alice", "mobile": "9999999999", "password": "p@ss",
	}, nil)

	rec, _ := doJSON(t, router, http.MethodPost, "/drivers/login", map[string]string{
		"username": "alice", "password": "P@ss",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for case-mismatched password, got %d", rec.Code)
	}
}

func TestOTPSignupAndLogin(t *testing.T) {
	router := newRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/investors/signup-otp", map[string]string{
		"phone": "7777777777", "otp": "424242",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for investor OTP signup, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, body := doJSON(t, router, http.MethodPost, "/investors/login-otp", map[string]string{
		"phone": "7777777777", "otp": "424242",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for OTP login, got %d", rec.Code)
	}
	investor := body["investor"].(map[string]any)
	if investor["investorName"] != "Investor" {
		t.Fatalf("expected defaulted investorName, got %v", investor["investorName"])
	}
}

func TestCheckRegistration(t *testing.T) {
	router := newRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/drivers/check-registration", map[string]string{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when both identifiers absent, got %d", rec.Code)
	}

	rec, body := doJSON(t, router, http.MethodPost, "/drivers/check-registration", map[string]string{
		"mobile": "0000000000",
	}, nil)
	if rec.Code != http.StatusOK || body["registered"] != false {
		t.Fatalf("expected registered false for unknown mobile, got %d %v", rec.Code, body)
	}

	doJSON(t, router, http.MethodPost, "/drivers/signup", map[string]string{
		"username": "alice", "mobile": "9999999999", "password": "p@ss",
	}, nil)

	rec, body = doJSON(t, router, http.MethodPost, "/drivers/check-registration", map[string]string{
		"mobile": "9999999999",
	}, nil)
	if rec.Code != http.StatusOK || body["registered"] != true {
		t.Fatalf("expected registered true, got %d %v", rec.Code, body)
	}
	if token, _ := body["driverToken"].(string); !driverTokenPattern.MatchString(token) {
		t.Fatalf("expected driverToken in check response, got %v", body)
	}

	// A record matching only one of two supplied identifiers is a miss.
	rec, body = doJSON(t, router, http.MethodPost, "/drivers/check-registration", map[string]string{
		"mobile": "9999999999", "username": "bob",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["registered"] != false {
		t.Fatalf("expected registered false when only one identifier matches, got %v", body)
	}
}

func TestMeEndpoint(t *testing.T) {
	router := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/drivers/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}

	_, signup := doJSON(t, router, http.MethodPost, "/drivers/signup", map[string]string{
		"username": "alice", "mobile": "9999999999", "password": "p@ss",
	}, nil)
	bearer, _ := signup["token"].(string)

	recMe, body := doJSON(t, router, http.MethodGet, "/drivers/me", nil, map[string]string{
		"Authorization": "Bearer " + bearer,
	})
	if recMe.Code != http.StatusOK {
		t.Fatalf("expected 200 for authenticated /me, got %d: %s", recMe.Code, recMe.Body.String())
	}
	driver := body["driver"].(map[string]any)
	if driver["mobile"] != "9999999999" {
		t.Fatalf("expected own record back, got %v", driver)
	}

	// A driver credential must not read the investor resource.
	recCross, _ := doJSON(t, router, http.MethodGet, "/investors/me", nil, map[string]string{
		"Authorization": "Bearer " + bearer,
	})
	if recCross.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-kind access, got %d", recCross.Code)
	}
}

func TestSignupCredentialsRequiresAdminToken(t *testing.T) {
	router := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/investors/signup/credentials", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without admin token, got %d", rec.Code)
	}

	doJSON(t, router, http.MethodPost, "/investors/signup", map[string]string{
		"investorName": "Ada", "phone": "8888888888", "password": "p@ss",
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/investors/signup/credentials", nil)
	req.Header.Set("X-Admin-Token", adminToken)
	recList := httptest.NewRecorder()
	router.ServeHTTP(recList, req)
	if recList.Code != http.StatusOK {
		t.Fatalf("expected 200 with admin token, got %d", recList.Code)
	}

	var list []map[string]any
	if err := json.Unmarshal(recList.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode credential list: %v", err)
	}
	if len(list) != 1 || list[0]["password"] != "p@ss" {
		t.Fatalf("expected one credential row with stored secret, got %v", list)
	}
}
