package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	gohttp "github.com/km-arc/go-composer/framework/http"
)

func newJSONRequest(t *testing.T, body string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return gohttp.NewRequest(req)
}

func newFormRequest(t *testing.T, values url.Values) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return gohttp.NewRequest(req)
}

type user struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func TestRequest_BindJSON(t *testing.T) {
	req := newJSONRequest(t, `{"name":"Alice","email":"alice@example.com"}`)

	var u user
	if err := req.Bind(&u); err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if u.Name != "Alice" || u.Email != "alice@example.com" {
		t.Errorf("got %+v", u)
	}
}

func TestRequest_BindJSON_Failures(t *testing.T) {
	for name, body := range map[string]string{"empty": "", "invalid": "{nope"} {
		t.Run(name, func(t *testing.T) {
			var u user
			err := newJSONRequest(t, body).Bind(&u)
			var he *gohttp.HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("expected *HTTPError, got %v", err)
			}
			if he.Status != http.StatusBadRequest {
				t.Errorf("status: got %d want 400", he.Status)
			}
		})
	}
}

func TestRequest_BindForm(t *testing.T) {
	req := newFormRequest(t, url.Values{"name": {"Bob"}, "email": {"bob@example.com"}})

	var u user
	if err := req.Bind(&u); err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if u.Name != "Bob" {
		t.Errorf("Name: got %q want Bob", u.Name)
	}
}

func TestRequest_Input(t *testing.T) {
	req := gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/?page=2&q=go", nil))

	if got := req.Input("q"); got != "go" {
		t.Errorf("Input: got %q", got)
	}
	if got := req.Query("page", "1"); got != "2" {
		t.Errorf("Query: got %q", got)
	}
	if got := req.Query("missing", "fallback"); got != "fallback" {
		t.Errorf("Query fallback: got %q", got)
	}
	if !req.Has("q") || req.Has("missing") {
		t.Error("Has: wrong result")
	}
	if all := req.All(); all["page"] != "2" || len(all) != 2 {
		t.Errorf("All: got %v", all)
	}
}

func TestRequest_Headers(t *testing.T) {
	raw := httptest.NewRequest(http.MethodGet, "/users", nil)
	raw.Header.Set("Authorization", "Bearer tok-123")
	raw.Header.Set("Accept", "application/json")
	raw.Header.Set("X-Trace", "abc")
	req := gohttp.NewRequest(raw)

	if got := req.BearerToken(); got != "tok-123" {
		t.Errorf("BearerToken: got %q", got)
	}
	if got := req.Header("X-Trace"); got != "abc" {
		t.Errorf("Header: got %q", got)
	}
	if !req.WantsJSON() {
		t.Error("WantsJSON: expected true")
	}
	if req.Method() != http.MethodGet || req.Path() != "/users" {
		t.Errorf("Method/Path: got %s %s", req.Method(), req.Path())
	}
}

func TestRequest_BearerToken_Missing(t *testing.T) {
	raw := httptest.NewRequest(http.MethodGet, "/", nil)
	raw.Header.Set("Authorization", "Basic abc")
	if got := gohttp.NewRequest(raw).BearerToken(); got != "" {
		t.Errorf("BearerToken: got %q want empty", got)
	}
}

func TestRequest_Param(t *testing.T) {
	r := chi.NewRouter()
	var got string
	r.Get("/users/{id}", func(w http.ResponseWriter, raw *http.Request) {
		got = gohttp.NewRequest(raw).Param("id")
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/42", nil))

	if got != "42" {
		t.Errorf("Param: got %q want 42", got)
	}
}
