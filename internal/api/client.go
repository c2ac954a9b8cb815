// Package api is the typed client for the external portal backend. It owns
// the endpoint paths and response envelopes; every response is checked
// against its wire schema before unmarshalling, so the rest of the program
// only ever sees fully shaped model values.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"combinator-portal/internal/common/errors"
	"combinator-portal/internal/common/httpclient"
	"combinator-portal/internal/common/logger"
	"combinator-portal/internal/models"
	"combinator-portal/internal/status"
	"combinator-portal/pkg/schemas"
)

type Client struct {
	http *httpclient.Client
	log  logger.Logger
}

func NewClient(http *httpclient.Client, log logger.Logger) *Client {
	return &Client{http: http, log: log}
}

// State exposes the underlying adapter's loading/error state.
func (c *Client) State() *httpclient.CallState { return c.http.State() }

// Register creates an account. Success does not authenticate; the caller is
// expected to log in afterwards.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	_, err := c.http.Do(ctx, "auth.register", http.MethodPost, "/register", body)
	return err
}

type loginEnvelope struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Login exchanges credentials for a user record and bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	body := map[string]string{"email": email, "password": password}
	data, err := c.http.Do(ctx, "auth.login", http.MethodPost, "/login", body)
	if err != nil {
		return nil, "", err
	}
	if err := schemas.Validate(schemas.LoginResponse, data); err != nil {
		return nil, "", err
	}
	var env loginEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("decode login response: %w", err)
	}
	return &env.User, env.Token, nil
}

type listEnvelope struct {
	Applications []models.Application `json:"applications"`
}

type applicationEnvelope struct {
	Application models.Application `json:"application"`
}

// ListApplications fetches the full application list.
func (c *Client) ListApplications(ctx context.Context) ([]models.Application, error) {
	data, err := c.http.Do(ctx, "applications.list", http.MethodGet, "/api/applications", nil)
	if err != nil {
		return nil, err
	}
	if err := schemas.Validate(schemas.ApplicationList, data); err != nil {
		return nil, err
	}
	var env listEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode application list: %w", err)
	}
	return env.Applications, nil
}

// GetApplication fetches a single application by id.
func (c *Client) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	data, err := c.http.Do(ctx, "applications.get", http.MethodGet, "/api/applications/"+id, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeEnvelope(data)
}

// CreateApplication submits a new application. The backend assigns the id
// and the initial submitted status.
func (c *Client) CreateApplication(ctx context.Context, fields interface{}) (*models.Application, error) {
	data, err := c.http.Do(ctx, "applications.create", http.MethodPost, "/api/applications", fields)
	if err != nil {
		return nil, err
	}
	return c.decodeEnvelope(data)
}

// UpdateApplication replaces or patches an application's descriptive fields.
func (c *Client) UpdateApplication(ctx context.Context, id string, fields interface{}) (*models.Application, error) {
	data, err := c.http.Do(ctx, "applications.update", http.MethodPut, "/api/applications/"+id, fields)
	if err != nil {
		return nil, err
	}
	return c.decodeEnvelope(data)
}

// UpdateStatus moves an application to target. Statuses that never appear
// as transition targets are refused locally before any network I/O; the
// state machine's per-state rules are enforced by the callers that know the
// application's current status.
func (c *Client) UpdateStatus(ctx context.Context, id string, target status.Status) (*models.Application, error) {
	if !status.IsTransitionTarget(target) {
		return nil, errors.NewValidationError(
			fmt.Sprintf("%q is not a valid transition target", target),
			errors.FieldError{Field: "status", Message: "not a transition target"},
		)
	}
	body := map[string]string{"status": string(target)}
	data, err := c.http.Do(ctx, "applications.status", http.MethodPatch, "/api/applications/"+id+"/status", body)
	if err != nil {
		return nil, err
	}
	return c.decodeEnvelope(data)
}

// RecordView increments an application's view counter. viewerID identifies
// the viewer for the unique-viewers set.
func (c *Client) RecordView(ctx context.Context, id, viewerID string) error {
	body := map[string]string{"viewerId": viewerID}
	_, err := c.http.Do(ctx, "applications.view", http.MethodPost, "/api/applications/"+id+"/views", body)
	return err
}

// AddTeamMember appends a team member to the application's roster.
func (c *Client) AddTeamMember(ctx context.Context, id string, member models.TeamMember) (*models.Application, error) {
	data, err := c.http.Do(ctx, "applications.team", http.MethodPut, "/api/applications/"+id+"/team-members", member)
	if err != nil {
		return nil, err
	}
	return c.decodeEnvelope(data)
}

// AddUpdate appends an update post to the application's feed.
func (c *Client) AddUpdate(ctx context.Context, id string, update models.Update) (*models.Application, error) {
	if !models.ValidUpdateType(string(update.Type)) {
		return nil, errors.NewValidationError(
			"update type is not recognized",
			errors.FieldError{Field: "type", Message: "unknown update category"},
		)
	}
	data, err := c.http.Do(ctx, "applications.updates", http.MethodPut, "/api/applications/"+id+"/updates", update)
	if err != nil {
		return nil, err
	}
	return c.decodeEnvelope(data)
}

// AddInvestment appends an investment to the application's showcase.
func (c *Client) AddInvestment(ctx context.Context, id string, inv models.Investment) (*models.Application, error) {
	data, err := c.http.Do(ctx, "applications.investments", http.MethodPut, "/api/applications/"+id+"/investments", inv)
	if err != nil {
		return nil, err
	}
	return c.decodeEnvelope(data)
}

func (c *Client) decodeEnvelope(data []byte) (*models.Application, error) {
	if err := schemas.Validate(schemas.ApplicationEnvelope, data); err != nil {
		return nil, err
	}
	var env applicationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode application envelope: %w", err)
	}
	return &env.Application, nil
}
