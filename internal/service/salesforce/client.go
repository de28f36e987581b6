// Package salesforce is the CRM adapter: OAuth password-grant login, SOQL
// reads and sObject writes over the REST API.
package salesforce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"SalesPulse/internal/domain/models"
	domsvc "SalesPulse/internal/domain/service"
	xhttp "SalesPulse/pkg/http"
	applogger "SalesPulse/pkg/logger"
)

const openOpportunitiesSOQL = "SELECT Id, Name, Amount, StageName, CloseDate, CreatedDate, Probability, OwnerId, Owner.Name FROM Opportunity WHERE IsClosed = false"

// Credentials for the connected app and integration user.
type Credentials struct {
	Username      string
	Password      string
	SecurityToken string
	ClientID      string
	ClientSecret  string
}

type Option func(*Client)

// WithLoginURL overrides the OAuth host, e.g. https://test.salesforce.com.
func WithLoginURL(u string) Option {
	return func(c *Client) { c.loginURL = strings.TrimRight(u, "/") }
}

func WithAPIVersion(v string) Option {
	return func(c *Client) { c.apiVersion = v }
}

func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client talks to one Salesforce org. The access token is fetched lazily
// and refreshed once on 401.
type Client struct {
	creds      Credentials
	loginURL   string
	apiVersion string
	http       *xhttp.Client
	log        *applogger.Logger

	mu          sync.Mutex
	token       string
	instanceURL string
}

// NewClient builds a client for domain ("login" or "test").
func NewClient(creds Credentials, domain string, timeout time.Duration, opts ...Option) *Client {
	if domain == "" {
		domain = "login"
	}
	c := &Client{
		creds:      creds,
		loginURL:   "https://" + domain + ".salesforce.com",
		apiVersion: "v59.0",
		http:       xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:        applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Component("salesforce")
	return c
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
}

func (c *Client) login(ctx context.Context) (string, string, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.creds.ClientID)
	form.Set("client_secret", c.creds.ClientSecret)
	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password+c.creds.SecurityToken)

	var tr tokenResp
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.loginURL + "/services/oauth2/token",
		Body:   form,
	}, &tr)
	if err != nil {
		return "", "", fmt.Errorf("salesforce login: %w", err)
	}
	if tr.AccessToken == "" || tr.InstanceURL == "" {
		return "", "", fmt.Errorf("salesforce login: empty token response")
	}
	c.log.Info("authenticated", applogger.String("instance", tr.InstanceURL))
	return tr.AccessToken, strings.TrimRight(tr.InstanceURL, "/"), nil
}

func (c *Client) session(ctx context.Context, refresh bool) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && !refresh {
		return c.token, c.instanceURL, nil
	}
	token, instance, err := c.login(ctx)
	if err != nil {
		return "", "", err
	}
	c.token, c.instanceURL = token, instance
	return token, instance, nil
}

// do sends an authenticated request to a path under the data API, or to
// an absolute instance path when path starts with /services.
func (c *Client) do(ctx context.Context, method, path string, query map[string][]string, body, dest interface{}) error {
	for attempt := 0; ; attempt++ {
		token, instance, err := c.session(ctx, attempt > 0)
		if err != nil {
			return err
		}
		u := instance + path
		if !strings.HasPrefix(path, "/services/") {
			u = instance + "/services/data/" + c.apiVersion + path
		}
		err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      method,
			URL:         u,
			Headers:     map[string]string{"Authorization": "Bearer " + token},
			QueryParams: query,
			Body:        body,
		}, dest)

		var se *xhttp.StatusError
		if attempt == 0 && errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
			c.log.Debug("token expired, re-authenticating")
			continue
		}
		return err
	}
}

type opportunityRecord struct {
	ID          string   `json:"Id"`
	Name        string   `json:"Name"`
	Amount      *float64 `json:"Amount"`
	StageName   string   `json:"StageName"`
	CloseDate   string   `json:"CloseDate"`
	CreatedDate string   `json:"CreatedDate"`
	Probability *float64 `json:"Probability"`
	OwnerID     string   `json:"OwnerId"`
	Owner       *struct {
		Name string `json:"Name"`
	} `json:"Owner"`
}

type queryResp struct {
	Done           bool                `json:"done"`
	NextRecordsURL string              `json:"nextRecordsUrl"`
	Records        []opportunityRecord `json:"records"`
}

func (c *Client) ListOpenOpportunities(ctx context.Context) ([]models.Opportunity, error) {
	var out []models.Opportunity
	path, query := "/query", map[string][]string{"q": {openOpportunitiesSOQL}}
	for {
		var qr queryResp
		if err := c.do(ctx, xhttp.MethodGet, path, query, nil, &qr); err != nil {
			return nil, fmt.Errorf("query opportunities: %w", err)
		}
		for _, r := range qr.Records {
			opp, err := r.toModel()
			if err != nil {
				c.log.Warn("skipping opportunity", applogger.String("id", r.ID), applogger.Error(err))
				continue
			}
			out = append(out, opp)
		}
		if qr.Done || qr.NextRecordsURL == "" {
			break
		}
		path, query = qr.NextRecordsURL, nil
	}
	return out, nil
}

// Salesforce datetime fields use a numeric zone without a colon.
const sfDateTime = "2006-01-02T15:04:05.000-0700"

func (r opportunityRecord) toModel() (models.Opportunity, error) {
	closeDate, err := time.Parse("2006-01-02", r.CloseDate)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("close date %q: %w", r.CloseDate, err)
	}
	created, err := time.Parse(sfDateTime, r.CreatedDate)
	if err != nil {
		if created, err = time.Parse(time.RFC3339, r.CreatedDate); err != nil {
			return models.Opportunity{}, fmt.Errorf("created date %q: %w", r.CreatedDate, err)
		}
	}
	opp := models.Opportunity{
		ID:          r.ID,
		Name:        r.Name,
		Stage:       r.StageName,
		CloseDate:   closeDate,
		CreatedDate: created,
		OwnerID:     r.OwnerID,
	}
	if r.Amount != nil {
		opp.Amount = *r.Amount
	}
	if r.Probability != nil {
		opp.Probability = *r.Probability
	}
	if r.Owner != nil {
		opp.OwnerName = r.Owner.Name
	}
	return opp, nil
}

func (c *Client) UpdateOpportunity(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := c.do(ctx, xhttp.MethodPatch, "/sobjects/Opportunity/"+url.PathEscape(id), nil, fields, nil); err != nil {
		return fmt.Errorf("update opportunity %s: %w", id, err)
	}
	return nil
}

type createResp struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

func (c *Client) CreateTask(ctx context.Context, task models.Task) (models.TaskRef, error) {
	body := map[string]interface{}{
		"Subject":  task.Subject,
		"WhatId":   task.WhatID,
		"Priority": task.Priority,
		"Status":   task.Status,
	}
	if task.Description != "" {
		body["Description"] = task.Description
	}
	if task.OwnerID != "" {
		body["OwnerId"] = task.OwnerID
	}
	if task.ActivityDate != nil {
		body["ActivityDate"] = task.ActivityDate.Format("2006-01-02")
	}

	var cr createResp
	if err := c.do(ctx, xhttp.MethodPost, "/sobjects/Task", nil, body, &cr); err != nil {
		return models.TaskRef{}, fmt.Errorf("create task: %w", err)
	}
	if !cr.Success {
		return models.TaskRef{}, fmt.Errorf("create task: %s", strings.Join(cr.Errors, "; "))
	}
	return models.TaskRef{ID: cr.ID}, nil
}

// OpportunityURL links to the record in the Lightning UI once a session
// exists, else to the login host.
func (c *Client) OpportunityURL(id string) string {
	c.mu.Lock()
	base := c.instanceURL
	c.mu.Unlock()
	if base == "" {
		base = c.loginURL
	}
	return base + "/" + id
}

var _ domsvc.CRMClient = (*Client)(nil)
