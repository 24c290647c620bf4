package ofs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// StaleCandidate is a user classified as stale under the cutoff policy.
type StaleCandidate struct {
	Login          string `json:"login"`
	Status         string `json:"status"`
	LastLoginTime  string `json:"lastLoginTime"`
	UserType       string `json:"userType"`
	MainResourceID string `json:"mainResourceId"`
}

// RunMeta summarizes one classification pass for operator visibility. Only
// OK participates in control flow; the rest is diagnostics. A truncated
// scan (page failure mid-walk) keeps OK true and reports the failure in
// Error so partial results stay usable.
type RunMeta struct {
	OK         bool     `json:"ok"`
	FirstCode  string   `json:"firstCode"`
	FirstCount int      `json:"firstCount"`
	Total      int      `json:"total"`
	SampleKeys []string `json:"sampleKeys"`
	Error      string   `json:"error,omitempty"`
}

// CleanupResult records both remediation outcomes for one candidate. The
// outcome fields hold an HTTP status code string, or one of the DRY_RUN /
// NO_RESOURCE / ERR:* sentinels.
type CleanupResult struct {
	Login              string `json:"login"`
	UserType           string `json:"userType"`
	LastLoginTime      string `json:"lastLoginTime"`
	MainResourceID     string `json:"mainResourceId"`
	DeleteUser         string `json:"deleteUser"`
	InactivateResource string `json:"inactivateResource"`
}

// parseLastLogin tolerates the timestamp formats the platform has been seen
// to emit: RFC 3339 (T separator, Z or numeric offset) and the plain
// "YYYY-MM-DD HH:MM:SS" form with or without the T. Naive timestamps are
// interpreted in the server's local zone. Empty, "none", "null", "0" and
// anything unparseable all come back nil, which the classifier treats as
// "never logged in" — malformed timestamps therefore classify as stale.
func parseLastLogin(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	switch strings.ToLower(s) {
	case "none", "null", "0":
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t
		}
	}
	return nil
}

// olderThan reports whether t is at or past the cutoff. A nil t (no login
// history) is always stale. The boundary is inclusive: exactly cutoffDays
// old counts.
func olderThan(t *time.Time, cutoffDays int, now time.Time) bool {
	if t == nil {
		return true
	}
	cutoff := now.Add(-time.Duration(cutoffDays) * 24 * time.Hour)
	return !t.After(cutoff)
}

// FindStaleUsers walks the whole /users collection and classifies every
// record against the cutoff. The first page is fetched directly so its
// status and field names end up in the run metadata; if that page is empty
// with a non-200/204 status the scan aborts with OK false. Candidates keep
// upstream encounter order.
func (c *Client) FindStaleUsers(ctx context.Context, cutoffDays int, onlyActive bool) ([]StaleCandidate, RunMeta) {
	limit := c.cfg.PageLimit

	firstItems, firstCode, firstErr := c.usersPage(ctx, 0, limit)
	if len(firstItems) == 0 && firstCode != "200" && firstCode != "204" {
		return nil, RunMeta{FirstCode: firstCode, Error: firstErr}
	}

	meta := RunMeta{OK: true, FirstCode: firstCode, FirstCount: len(firstItems)}
	if len(firstItems) > 0 {
		meta.SampleKeys = sampleKeys(firstItems[0], 8)
	}

	now := c.now()
	var stale []StaleCandidate
	classify := func(raw map[string]any) {
		meta.Total++
		u := decodeRemoteUser(raw)
		if u.Login == "" {
			return
		}
		if onlyActive && u.Status != "active" {
			return
		}
		if olderThan(parseLastLogin(u.LastLoginRaw), cutoffDays, now) {
			stale = append(stale, StaleCandidate{
				Login:          u.Login,
				Status:         u.Status,
				LastLoginTime:  u.LastLoginRaw,
				UserType:       u.UserType,
				MainResourceID: u.MainResourceID,
			})
		}
	}

	for _, it := range firstItems {
		classify(it)
	}

	offset := len(firstItems)
	for offset > 0 && len(firstItems) == limit {
		c.sleep(c.cfg.Pause)
		items, code, errText := c.usersPage(ctx, offset, limit)
		if errText != "" {
			meta.Error = fmt.Sprintf("scan truncated at offset %d (code %s): %s", offset, code, errText)
			break
		}
		if len(items) == 0 {
			break
		}
		for _, it := range items {
			classify(it)
		}
		offset += len(items)
		if len(items) < limit {
			break
		}
	}

	return stale, meta
}

func sampleKeys(raw map[string]any, max int) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > max {
		keys = keys[:max]
	}
	return keys
}

// ExecuteCleanup applies (or simulates) the two-step remediation for each
// candidate: delete the user, then deactivate its main resource. The two
// sub-operations are independent and there is no rollback; per-item
// failures end up as ERR:* sentinels in the result, never as an error.
// The result list matches the input 1:1 in length and order. With
// applyChanges false no network call is made at all.
func (c *Client) ExecuteCleanup(ctx context.Context, candidates []StaleCandidate, applyChanges bool) []CleanupResult {
	results := make([]CleanupResult, 0, len(candidates))
	for i, cand := range candidates {
		if i > 0 {
			c.sleep(c.cfg.Pause)
		}
		results = append(results, CleanupResult{
			Login:              cand.Login,
			UserType:           cand.UserType,
			LastLoginTime:      cand.LastLoginTime,
			MainResourceID:     cand.MainResourceID,
			DeleteUser:         c.deleteUser(ctx, cand.Login, applyChanges),
			InactivateResource: c.inactivateResource(ctx, cand.MainResourceID, applyChanges),
		})
	}
	return results
}

func (c *Client) deleteUser(ctx context.Context, login string, applyChanges bool) string {
	if !applyChanges {
		return OutcomeDryRun
	}
	_, code, _, _ := c.requestWithRetry(ctx, http.MethodDelete, c.cfg.BaseURL+"/users/"+url.PathEscape(login), nil)
	return code
}

func (c *Client) inactivateResource(ctx context.Context, resourceID string, applyChanges bool) string {
	if resourceID == "" {
		return OutcomeNoResource
	}
	if !applyChanges {
		return OutcomeDryRun
	}
	_, code, _, _ := c.requestWithRetry(ctx, http.MethodPut, c.cfg.BaseURL+"/resources/"+url.PathEscape(resourceID), map[string]string{"status": "inactive"})
	return code
}
