package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	domainauth "github.com/DarwinOsingo/Afrigene/internal/domain/auth"
	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
	apperrors "github.com/DarwinOsingo/Afrigene/internal/errors"
	"github.com/DarwinOsingo/Afrigene/internal/ports"
)

var _ ports.Authenticator = (*Client)(nil)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfa_code,omitempty"`
}

// Login posts credentials to auth/login. Any failure is returned as an
// *errors.AuthenticationError carrying the server's detail when present.
func (c *Client) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.LoginResult, error) {
	var out domainauth.LoginResult
	err := c.do(ctx, request{
		op:     "login",
		method: http.MethodPost,
		path:   []string{"auth", "login"},
		body:   loginRequest{Email: creds.Email, Password: creds.Password, MFACode: creds.MFACode},
	}, &out)
	if err != nil {
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) {
			return domainauth.LoginResult{}, apperrors.NewAuthentication(apiErr.Detail, err)
		}
		return domainauth.LoginResult{}, apperrors.NewAuthentication("", err)
	}
	return out, nil
}

// Logout notifies the API that the current token is being discarded.
// Callers treat failures as advisory.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{
		op:     "logout",
		method: http.MethodPost,
		path:   []string{"auth", "logout"},
	}, nil)
}

// ListSamples returns one page of samples, optionally filtered by status.
func (c *Client) ListSamples(ctx context.Context, f model.SampleFilter) (model.SampleList, error) {
	f = f.Normalize()
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	q.Set("limit", strconv.Itoa(f.Limit))
	q.Set("offset", strconv.Itoa(f.Offset))

	var out model.SampleList
	err := c.do(ctx, request{
		op:     "list_samples",
		method: http.MethodGet,
		path:   []string{"samples"},
		query:  q,
	}, &out)
	return out, err
}

// GetSampleResults fetches the ancestry and health-marker document for one sample.
func (c *Client) GetSampleResults(ctx context.Context, sampleID string) (model.SampleResults, error) {
	if sampleID == "" {
		return model.SampleResults{}, apperrors.ValidationField("sample_id", "sample id is required")
	}
	var out model.SampleResults
	err := c.do(ctx, request{
		op:     "sample_results",
		method: http.MethodGet,
		path:   []string{"samples", sampleID, "results"},
	}, &out)
	return out, err
}

// ListAuditLogs returns one page of audit entries, optionally for one sample.
func (c *Client) ListAuditLogs(ctx context.Context, f model.AuditFilter) (model.AuditLogList, error) {
	f = f.Normalize()
	q := url.Values{}
	if f.SampleID != "" {
		q.Set("sample_id", f.SampleID)
	}
	q.Set("limit", strconv.Itoa(f.Limit))
	q.Set("offset", strconv.Itoa(f.Offset))

	var out model.AuditLogList
	err := c.do(ctx, request{
		op:     "list_audit_logs",
		method: http.MethodGet,
		path:   []string{"audit-logs"},
		query:  q,
	}, &out)
	return out, err
}

// ListInstitutions returns the partner institutions. It needs no token.
func (c *Client) ListInstitutions(ctx context.Context) ([]model.Institution, error) {
	var out []model.Institution
	err := c.do(ctx, request{
		op:     "list_institutions",
		method: http.MethodGet,
		path:   []string{"institutions"},
	}, &out)
	return out, err
}

// Health reports the API's own health document.
func (c *Client) Health(ctx context.Context) (model.HealthStatus, error) {
	var out model.HealthStatus
	err := c.do(ctx, request{
		op:     "health",
		method: http.MethodGet,
		path:   []string{"health"},
	}, &out)
	return out, err
}
