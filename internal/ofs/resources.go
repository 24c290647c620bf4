package ofs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// LoginByResourceID resolves the technician login bound to a resource via
// GET /resources/{id}/users, taking the first item. Any non-2xx status is
// an error here; there is no recoverable alternative for a lookup.
func (c *Client) LoginByResourceID(ctx context.Context, resourceID string) (string, error) {
	lookupURL := c.cfg.BaseURL + "/resources/" + url.PathEscape(resourceID) + "/users"
	ok, code, resp, errText := c.requestWithRetry(ctx, http.MethodGet, lookupURL, nil)
	if !ok {
		return "", fmt.Errorf("ofs: resource user lookup failed (%s): %s", code, errText)
	}
	if !resp.OK() {
		return "", &StatusError{Status: resp.Status, Body: string(resp.Body)}
	}

	var payload struct {
		Items []struct {
			Login string `json:"login"`
		} `json:"items"`
	}
	if err := resp.JSON(&payload); err != nil {
		return "", fmt.Errorf("ofs: resource user lookup: %w", err)
	}
	if len(payload.Items) == 0 {
		return "", errors.New("ofs: resource has no associated users")
	}
	return payload.Items[0].Login, nil
}

// UpdateUserType patches a user's userType. Non-2xx is an error: the
// callers treat anything but success as a failed update.
func (c *Client) UpdateUserType(ctx context.Context, login, userType string) (int, error) {
	ok, code, resp, errText := c.requestWithRetry(ctx, http.MethodPatch,
		c.cfg.BaseURL+"/users/"+url.PathEscape(login), map[string]string{"userType": userType})
	if !ok {
		return 0, fmt.Errorf("ofs: user type update failed (%s): %s", code, errText)
	}
	if !resp.OK() {
		return resp.Status, &StatusError{Status: resp.Status, Body: string(resp.Body)}
	}
	return resp.Status, nil
}

// ResourceSpec describes a technician resource to create or update.
type ResourceSpec struct {
	IDSap            string
	ParentResourceID string
	Name             string
	Email            string
}

// CreateResource upserts a technician resource via PUT /resources/{idSap}
// on the creation environment. A non-2xx status is NOT an error: 409 means
// the resource already exists, and the caller decides whether that is fine.
func (c *Client) CreateResource(ctx context.Context, spec ResourceSpec) (*Response, error) {
	body := map[string]any{
		"parentResourceId": spec.ParentResourceID,
		"resourceType":     resourceTypeTechnician,
		"name":             spec.Name,
		"email":            spec.Email,
		"language":         defaultLanguage,
		"timeZone":         defaultTimeZone,
		"status":           "active",
	}
	ok, code, resp, errText := c.requestWithRetryCreate(ctx, http.MethodPut,
		c.cfg.CreateBaseURL+"/resources/"+url.PathEscape(spec.IDSap), body)
	if !ok {
		return nil, fmt.Errorf("ofs: resource creation failed (%s): %s", code, errText)
	}
	return resp, nil
}

// UserSpec describes a technician user account bound to a resource.
type UserSpec struct {
	Email    string
	Name     string
	IDSap    string
	UserType string
	Password string
}

// CreateUser upserts a user via PUT /users/{email}, binding it to the
// resource. Same 409 policy as CreateResource.
func (c *Client) CreateUser(ctx context.Context, spec UserSpec) (*Response, error) {
	body := map[string]any{
		"name":           spec.Name,
		"mainResourceId": spec.IDSap,
		"language":       defaultLanguage,
		"timeZone":       defaultTimeZone,
		"userType":       spec.UserType,
		"password":       spec.Password,
		"resources":      []string{spec.IDSap},
	}
	ok, code, resp, errText := c.requestWithRetryCreate(ctx, http.MethodPut,
		c.cfg.CreateBaseURL+"/users/"+url.PathEscape(spec.Email), body)
	if !ok {
		return nil, fmt.Errorf("ofs: user creation failed (%s): %s", code, errText)
	}
	return resp, nil
}

// SetResourceDeposit patches the technical deposit custom field. Must run
// after the resource exists (created or already present).
func (c *Client) SetResourceDeposit(ctx context.Context, idSap, deposit string) (*Response, error) {
	ok, code, resp, errText := c.requestWithRetryCreate(ctx, http.MethodPatch,
		c.cfg.CreateBaseURL+"/resources/"+url.PathEscape(idSap),
		map[string]string{technicalDepositField: deposit})
	if !ok {
		return nil, fmt.Errorf("ofs: resource deposit update failed (%s): %s", code, errText)
	}
	return resp, nil
}
