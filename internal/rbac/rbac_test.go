package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "grades:view-own", true},
		{"student", "grades:view-all", false},
		{"student", "score:edit", false},
		{"student", "whatif:create", true}, // wildcard prefix
		{"teacher", "score:edit", true},
		{"teacher", "mark:lock", true},
		{"teacher", "class:reload", true},
		{"admin", "anything:at-all", true},
		{"", "grades:view-own", false},
		{"ghost", "grades:view-own", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Fatalf("Has(%q, %q) = %v; want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerAny(t *testing.T) {
	c := NewChecker(nil)
	if !c.Any("student", "grades:view-all", "grades:view-own") {
		t.Fatalf("student should pass with one matching permission")
	}
	if c.Any("student", "score:edit", "mark:lock") {
		t.Fatalf("student should fail with no matching permission")
	}
}

func TestRequireMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	h := Require("score:edit")(ok)

	req := httptest.NewRequest("POST", "/x", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "teacher")))
	if rec.Code != 200 {
		t.Fatalf("teacher status = %d; want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "student")))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student status = %d; want 403", rec.Code)
	}

	// No role in context at all.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous status = %d; want 403", rec.Code)
	}
}

func TestRequireAnyMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	h := RequireAny("grades:view-own", "grades:view-all")(ok)

	req := httptest.NewRequest("GET", "/x", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "student")))
	if rec.Code != 200 {
		t.Fatalf("student status = %d; want 200", rec.Code)
	}
}
