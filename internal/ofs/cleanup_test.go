package ofs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseLastLogin(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantNil bool
	}{
		{name: "empty", raw: "", wantNil: true},
		{name: "whitespace", raw: "   ", wantNil: true},
		{name: "none literal", raw: "none", wantNil: true},
		{name: "null uppercase", raw: "NULL", wantNil: true},
		{name: "zero literal", raw: "0", wantNil: true},
		{name: "garbage fails open", raw: "not-a-date", wantNil: true},
		{name: "rfc3339 with Z", raw: "2024-03-01T10:30:00Z"},
		{name: "rfc3339 with offset", raw: "2024-03-01T10:30:00-03:00"},
		{name: "rfc3339 fractional", raw: "2024-03-01T10:30:00.250Z"},
		{name: "T separator no offset", raw: "2024-03-01T10:30:00"},
		{name: "plain format", raw: "2024-03-01 10:30:00"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := parseLastLogin(tc.raw)
			if tc.wantNil && got != nil {
				t.Fatalf("expected nil, got %v", got)
			}
			if !tc.wantNil && got == nil {
				t.Fatalf("expected a timestamp for %q", tc.raw)
			}
		})
	}
}

func TestOlderThanFailOpen(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, cutoff := range []int{0, 1, 80, 3650} {
		if !olderThan(nil, cutoff, now) {
			t.Fatalf("nil last login must be stale for cutoff %d", cutoff)
		}
	}
}

func TestOlderThanInclusiveBoundary(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cutoffDays := 80

	exactly := now.Add(-time.Duration(cutoffDays) * 24 * time.Hour)
	if !olderThan(&exactly, cutoffDays, now) {
		t.Fatal("timestamp exactly at the cutoff must be stale")
	}

	justInside := exactly.Add(time.Second)
	if olderThan(&justInside, cutoffDays, now) {
		t.Fatal("timestamp one second inside the cutoff must not be stale")
	}
}

func TestFindStaleUsersScenario(t *testing.T) {
	// 250 users: even index -> stale (old login), index%5==0 -> no login at
	// all (also stale), rest logged in recently.
	users := syntheticUsers(250)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	wantStale := 0
	for i, u := range users {
		switch {
		case i%5 == 0:
			u["lastLoginTime"] = nil
			wantStale++
		case i%2 == 0:
			u["lastLoginTime"] = "2020-01-01 10:00:00"
			wantStale++
		default:
			u["lastLoginTime"] = now.Add(-24 * time.Hour).Format(time.RFC3339)
		}
	}

	srv, calls := usersServer(t, users)
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	c.cfg.PageLimit = 100
	c.now = func() time.Time { return now }

	stale, meta := c.FindStaleUsers(context.Background(), 80, false)
	if !meta.OK {
		t.Fatalf("expected ok run, got %+v", meta)
	}
	if meta.Total != 250 {
		t.Fatalf("expected 250 scanned, got %d", meta.Total)
	}
	if meta.FirstCode != "200" || meta.FirstCount != 100 {
		t.Fatalf("unexpected first page meta: %+v", meta)
	}
	if len(meta.SampleKeys) == 0 || len(meta.SampleKeys) > 8 {
		t.Fatalf("expected up to 8 sample keys, got %v", meta.SampleKeys)
	}
	if *calls != 3 {
		t.Fatalf("expected 3 page fetches, got %d", *calls)
	}
	if len(stale) != wantStale {
		t.Fatalf("expected %d stale candidates, got %d", wantStale, len(stale))
	}
	// encounter order preserved
	for i := 1; i < len(stale); i++ {
		if stale[i-1].Login >= stale[i].Login {
			t.Fatalf("candidates out of encounter order: %s before %s", stale[i-1].Login, stale[i].Login)
		}
	}
}

func TestFindStaleUsersOnlyActiveFilter(t *testing.T) {
	users := []map[string]any{
		{"login": "active-stale", "status": "active", "lastLoginTime": "2019-01-01 00:00:00"},
		{"login": "inactive-stale", "status": "inactive", "lastLoginTime": "2019-01-01 00:00:00"},
		{"login": "no-status-stale", "lastLoginTime": nil},
		{"login": "", "status": "active"},
	}
	srv, _ := usersServer(t, users)
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	stale, meta := c.FindStaleUsers(context.Background(), 80, true)
	if !meta.OK || meta.Total != 4 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if len(stale) != 1 || stale[0].Login != "active-stale" {
		t.Fatalf("expected only the active stale user, got %+v", stale)
	}
}

func TestFindStaleUsersFirstPageFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	stale, meta := c.FindStaleUsers(context.Background(), 80, false)
	if meta.OK {
		t.Fatal("expected failed run")
	}
	if meta.FirstCode != "403" {
		t.Fatalf("expected first code 403, got %q", meta.FirstCode)
	}
	if len(stale) != 0 || meta.Total != 0 {
		t.Fatalf("expected empty result, got %d candidates, total %d", len(stale), meta.Total)
	}
}

func TestFindStaleUsersTruncationIsReported(t *testing.T) {
	page := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page++
		if page == 1 {
			items := make([]map[string]any, 0, 2)
			for _, login := range []string{"a", "b"} {
				items = append(items, map[string]any{"login": login})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
			return
		}
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	c.cfg.PageLimit = 2

	stale, meta := c.FindStaleUsers(context.Background(), 80, false)
	if !meta.OK {
		t.Fatal("truncated scan should still report ok with partial results")
	}
	if meta.Error == "" {
		t.Fatal("expected truncation to surface in meta.Error")
	}
	if len(stale) != 2 {
		t.Fatalf("expected partial results from the first page, got %d", len(stale))
	}
}

func TestExecuteCleanupDryRunIsPure(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer srv.Close()

	candidates := []StaleCandidate{
		{Login: "jdoe", MainResourceID: "R1"},
		{Login: "asmith"},
		{Login: "bjones", MainResourceID: "R3"},
	}

	c, _ := newTestClient(srv.URL)
	results := c.ExecuteCleanup(context.Background(), candidates, false)

	if atomic.LoadInt64(&hits) != 0 {
		t.Fatalf("dry run must not issue network calls, saw %d", hits)
	}
	if len(results) != len(candidates) {
		t.Fatalf("expected %d results, got %d", len(candidates), len(results))
	}
	for i, res := range results {
		if res.Login != candidates[i].Login {
			t.Fatalf("result %d out of order: %q", i, res.Login)
		}
		if res.DeleteUser != OutcomeDryRun {
			t.Fatalf("expected DRY_RUN delete outcome, got %q", res.DeleteUser)
		}
		want := OutcomeDryRun
		if candidates[i].MainResourceID == "" {
			want = OutcomeNoResource
		}
		if res.InactivateResource != want {
			t.Fatalf("expected %q inactivate outcome, got %q", want, res.InactivateResource)
		}
	}
}

func TestExecuteCleanupApply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/users/jdoe":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPut && r.URL.Path == "/resources/R1":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["status"] != "inactive" {
				t.Errorf("expected inactive status body, got %v", body)
			}
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete && r.URL.Path == "/users/orphan":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	results := c.ExecuteCleanup(context.Background(), []StaleCandidate{
		{Login: "jdoe", MainResourceID: "R1"},
		{Login: "orphan"},
	}, true)

	if results[0].DeleteUser != "204" || results[0].InactivateResource != "200" {
		t.Fatalf("unexpected outcomes for jdoe: %+v", results[0])
	}
	if results[1].DeleteUser != "204" {
		t.Fatalf("delete must still be attempted without a resource, got %q", results[1].DeleteUser)
	}
	if results[1].InactivateResource != OutcomeNoResource {
		t.Fatalf("expected NO_RESOURCE, got %q", results[1].InactivateResource)
	}
}

func TestExecuteCleanupContinuesPastFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/broken" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	results := c.ExecuteCleanup(context.Background(), []StaleCandidate{
		{Login: "broken"},
		{Login: "fine"},
	}, true)

	if results[0].DeleteUser != "403" {
		t.Fatalf("expected 403 recorded, got %q", results[0].DeleteUser)
	}
	if results[1].DeleteUser != "204" {
		t.Fatalf("expected the batch to continue, got %q", results[1].DeleteUser)
	}
}
