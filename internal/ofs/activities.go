package ofs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Fields requested from the activities search; keep in sync with what the
// triage screen renders.
var notDoneFields = []string{
	"city",
	"customerNumber",
	"customerName",
	"customerPhone",
	"apptNumber",
	"XA_ORIGIN_BUCKET",
	"XA_TSK_NOT",
	"XA_SER_CLO_IMP_ADA",
	"resourceId",
	"date",
}

type NotDoneQuery struct {
	DateFrom  string
	DateTo    string
	Resources string
	Limit     int
	Offset    int
}

type NotDoneResult struct {
	Items   []map[string]any `json:"items"`
	HasMore bool             `json:"hasMore"`
}

// NotDoneActivities searches service activities stuck in "notdone" state
// for the given date window and resource subtree.
func (c *Client) NotDoneActivities(ctx context.Context, q NotDoneQuery) (NotDoneResult, error) {
	if q.Limit <= 0 {
		q.Limit = 1000
	}
	params := url.Values{}
	params.Set("dateFrom", q.DateFrom)
	params.Set("dateTo", q.DateTo)
	params.Set("resources", q.Resources)
	params.Set("q", "status=='notdone'")
	params.Set("fields", strings.Join(notDoneFields, ","))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))

	ok, code, resp, errText := c.requestWithRetry(ctx, http.MethodGet, c.cfg.BaseURL+"/activities?"+params.Encode(), nil)
	if !ok {
		return NotDoneResult{}, fmt.Errorf("ofs: activities search failed (%s): %s", code, errText)
	}
	if !resp.OK() {
		return NotDoneResult{}, &StatusError{Status: resp.Status, Body: string(resp.Body)}
	}

	var out NotDoneResult
	if err := resp.JSON(&out); err != nil {
		return NotDoneResult{}, fmt.Errorf("ofs: activities search: %w", err)
	}
	return out, nil
}
