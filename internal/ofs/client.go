package ofs

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Outcome sentinels recorded in cleanup results instead of an HTTP status.
const (
	OutcomeDryRun     = "DRY_RUN"
	OutcomeNoResource = "NO_RESOURCE"
)

// Fixed OFS field values used when provisioning technicians.
const (
	resourceTypeTechnician = "TCV"
	defaultLanguage        = "br"
	defaultTimeZone        = "(UTC-03:00) Sao Paulo - Brasilia Time (BRT)"
	technicalDepositField  = "XR_TEC_DEP"
)

type Config struct {
	BaseURL            string
	CreateBaseURL      string
	Username           string
	Password           string
	CreateUsername     string
	CreatePassword     string
	PageLimit          int
	Timeout            time.Duration
	Pause              time.Duration
	InsecureSkipVerify bool
}

func (c Config) withDefaults() Config {
	if c.PageLimit <= 0 {
		c.PageLimit = 100
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.CreateBaseURL == "" {
		c.CreateBaseURL = c.BaseURL
	}
	if c.CreateUsername == "" {
		c.CreateUsername = c.Username
		c.CreatePassword = c.Password
	}
	return c
}

// Client talks to the OFS core REST API. All calls are synchronous and
// issue at most one request at a time.
type Client struct {
	cfg   Config
	http  *http.Client
	now   func() time.Time
	sleep func(time.Duration)
}

func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout, Transport: transport},
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Response carries the raw outcome of a single OFS call. Callers that can
// recover from specific statuses (409 on creation means "already exists")
// inspect Status directly instead of getting an error.
type Response struct {
	Status int
	Body   []byte
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// StatusError is returned by wrappers for which a non-2xx response is a
// genuine failure.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ofs: unexpected status %d: %s", e.Status, e.Body)
}
