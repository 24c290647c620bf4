package ofs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// RemoteUser is one account as returned by the OFS /users collection.
// Records are transient; they are decoded, classified and discarded within
// a single call.
type RemoteUser struct {
	Login          string `json:"login"`
	Status         string `json:"status"`
	LastLoginRaw   string `json:"lastLoginTime"`
	UserType       string `json:"userType"`
	MainResourceID string `json:"mainResourceId"`
}

// The upstream API is not consistent about field naming across instances,
// so each logical field resolves through an ordered alias list once at
// decode time.
var (
	lastLoginAliases    = []string{"lastLoginTime", "last_login_time", "last_login"}
	userTypeAliases     = []string{"userType", "user_type"}
	mainResourceAliases = []string{"mainResourceId", "main_resource_id"}
)

func decodeRemoteUser(raw map[string]any) RemoteUser {
	return RemoteUser{
		Login:          firstString(raw, "login"),
		Status:         firstString(raw, "status"),
		LastLoginRaw:   firstString(raw, lastLoginAliases...),
		UserType:       firstString(raw, userTypeAliases...),
		MainResourceID: firstString(raw, mainResourceAliases...),
	}
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// usersPage fetches one page of /users. It returns the raw item maps so the
// caller can both decode records and inspect field names for schema drift.
// Payload shape problems come back as a diagnostic string, never a panic.
func (c *Client) usersPage(ctx context.Context, offset, limit int) ([]map[string]any, string, string) {
	pageURL := fmt.Sprintf("%s/users?offset=%d&limit=%d", c.cfg.BaseURL, offset, limit)
	ok, code, resp, errText := c.requestWithRetry(ctx, http.MethodGet, pageURL, nil)
	if !ok || resp == nil {
		slog.Debug("ofs users page failed", "offset", offset, "code", code, "err", errText)
		return nil, code, errText
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, code, "json_error:" + err.Error()
	}

	raw, present := payload["items"]
	if !present || string(raw) == "null" {
		raw, present = payload["data"]
	}
	if !present || string(raw) == "null" {
		slog.Debug("ofs users page", "offset", offset, "code", code, "items", 0)
		return []map[string]any{}, code, ""
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, code, "items_not_list"
	}
	slog.Debug("ofs users page", "offset", offset, "code", code, "items", len(items))
	return items, code, ""
}

// ListUsers enumerates every user by paging offset/limit, for display and
// export. Pagination stops on an empty page or a short page; a page exactly
// at the limit always triggers one more fetch. A courtesy pause separates
// page fetches so the remote instance is not hammered.
func (c *Client) ListUsers(ctx context.Context) ([]RemoteUser, error) {
	var out []RemoteUser
	offset := 0
	for {
		items, code, errText := c.usersPage(ctx, offset, c.cfg.PageLimit)
		if errText != "" {
			return out, fmt.Errorf("ofs: users page at offset %d failed (code %s): %s", offset, code, errText)
		}
		if len(items) == 0 {
			break
		}
		for _, it := range items {
			out = append(out, decodeRemoteUser(it))
		}
		offset += len(items)
		if len(items) < c.cfg.PageLimit {
			break
		}
		c.sleep(c.cfg.Pause)
	}
	return out, nil
}
