package ofs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginByResourceID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resources/R1/users" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"login":"jdoe"},{"login":"second"}]}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	login, err := c.LoginByResourceID(context.Background(), "R1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if login != "jdoe" {
		t.Fatalf("expected first item login, got %q", login)
	}
}

func TestLoginByResourceIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	_, err := c.LoginByResourceID(context.Background(), "missing")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusNotFound {
		t.Fatalf("expected StatusError 404, got %v", err)
	}
}

func TestUpdateUserType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/users/jdoe" {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["userType"] != "TEC_NOT_IMP_ALL" {
			t.Errorf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	status, err := c.UpdateUserType(context.Background(), "jdoe", "TEC_NOT_IMP_ALL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestUpdateUserTypeNonSuccessIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	status, err := c.UpdateUserType(context.Background(), "jdoe", "NOPE")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if status != http.StatusBadRequest {
		t.Fatalf("expected status 400 surfaced, got %d", status)
	}
}

func TestCreateResourceConflictIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/resources/SAP123" {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		user, _, _ := r.BasicAuth()
		if user != "creator" {
			t.Errorf("expected creation credentials, got %q", user)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["resourceType"] != "TCV" || body["language"] != "br" || body["status"] != "active" {
			t.Errorf("fixed fields missing from body: %v", body)
		}
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL:        "http://main.invalid",
		CreateBaseURL:  srv.URL,
		Username:       "ops",
		Password:       "secret",
		CreateUsername: "creator",
		CreatePassword: "creatorpw",
	})
	c.sleep = func(d time.Duration) {}

	resp, err := c.CreateResource(context.Background(), ResourceSpec{
		IDSap:            "SAP123",
		ParentResourceID: "BUCKET1",
		Name:             "John Doe",
		Email:            "jdoe@example.com",
	})
	if err != nil {
		t.Fatalf("409 must not be an error for creation: %v", err)
	}
	if resp.Status != http.StatusConflict {
		t.Fatalf("expected 409 surfaced, got %d", resp.Status)
	}
}

func TestCreateUserBindsResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/jdoe@example.com" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["mainResourceId"] != "SAP123" {
			t.Errorf("expected mainResourceId binding, got %v", body)
		}
		resources, ok := body["resources"].([]any)
		if !ok || len(resources) != 1 || resources[0] != "SAP123" {
			t.Errorf("expected resources list [SAP123], got %v", body["resources"])
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	resp, err := c.CreateUser(context.Background(), UserSpec{
		Email:    "jdoe@example.com",
		Name:     "John Doe",
		IDSap:    "SAP123",
		UserType: "TEC",
		Password: "changeme1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Status)
	}
}

func TestSetResourceDeposit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/resources/SAP123" {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["XR_TEC_DEP"] != "DEP42" {
			t.Errorf("expected deposit field, got %v", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	resp, err := c.SetResourceDeposit(context.Background(), "SAP123", "DEP42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.OK() {
		t.Fatalf("expected success, got %d", resp.Status)
	}
}

func TestNotDoneActivities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "status=='notdone'" {
			t.Errorf("unexpected query filter %q", q.Get("q"))
		}
		if q.Get("dateFrom") != "2024-06-01" || q.Get("resources") != "MG" {
			t.Errorf("unexpected query params: %v", q)
		}
		_, _ = w.Write([]byte(`{"items":[{"apptNumber":"A1","city":"BH"}],"hasMore":true}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	res, err := c.NotDoneActivities(context.Background(), NotDoneQuery{
		DateFrom:  "2024-06-01",
		DateTo:    "2024-06-01",
		Resources: "MG",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 || !res.HasMore {
		t.Fatalf("unexpected result: %+v", res)
	}
}
