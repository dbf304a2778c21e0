/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend is the HTTP client for the services the designer relies on:
// the template store, the render service, the print dispatcher and the
// live-data source.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"labeldesigner/internal/config"
	"labeldesigner/internal/domain"
	applog "labeldesigner/internal/log"
)

// Service names reported in ExternalServiceError.
const (
	ServiceStore  = "template store"
	ServiceRender = "render service"
	ServicePrint  = "print service"
	ServiceData   = "live data"
)

// Client is a minimal HTTP client for the backend API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
	log     *slog.Logger
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     applog.WithComponent("backend"),
	}
}

// NewFromConfig creates a client with the configured timeout and TLS policy.
func NewFromConfig(cfg config.BackendConfig, token string) *Client {
	c := NewClient(cfg.BaseURL, token)
	c.client.Timeout = cfg.Timeout()
	if cfg.TLSInsecure {
		c.client.Transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	return c
}

// errorBody is the error shape returned by the services.
type errorBody struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) doJSON(ctx context.Context, service, method, path string, body, dest any) (int, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return 0, err
	}
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("request failed", slog.String("method", method), slog.String("path", u.Path), slog.Any("err", err))
		return 0, &domain.ExternalServiceError{Service: service, Message: "service unreachable", Err: err}
	}
	defer resp.Body.Close()
	c.log.Debug("request done", slog.String("method", method), slog.String("path", u.Path),
		slog.Int("status", resp.StatusCode), slog.Duration("took", time.Since(start)))

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return resp.StatusCode, &domain.ExternalServiceError{Service: service, Status: resp.StatusCode, Message: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			if eb.Error != "" {
				msg = eb.Error
			} else if eb.Message != "" {
				msg = eb.Message
			}
		}
		return resp.StatusCode, &domain.ExternalServiceError{Service: service, Status: resp.StatusCode, Message: msg}
	}
	if dest == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return resp.StatusCode, &domain.ExternalServiceError{Service: service, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return resp.StatusCode, nil
}

// notFound maps a 404 from the service to a NotFoundError.
func notFound(err error, what, key string) error {
	var xe *domain.ExternalServiceError
	if errors.As(err, &xe) && xe.Status == http.StatusNotFound {
		return &domain.NotFoundError{What: what, Key: key}
	}
	return err
}

// Save stores doc in the template store.
func (c *Client) Save(ctx context.Context, doc domain.TemplateDocument) (domain.SaveResult, error) {
	var res domain.SaveResult
	if _, err := c.doJSON(ctx, ServiceStore, http.MethodPost, "/api/templates", doc, &res); err != nil {
		return domain.SaveResult{Success: false, Error: domain.UserMessage(err)}, err
	}
	if !res.Success {
		return res, &domain.ExternalServiceError{Service: ServiceStore, Message: res.Error}
	}
	if res.Name == "" {
		res.Name = doc.Name
	}
	return res, nil
}

// Load fetches a template document by name.
func (c *Client) Load(ctx context.Context, name string) (domain.TemplateDocument, error) {
	var doc domain.TemplateDocument
	_, err := c.doJSON(ctx, ServiceStore, http.MethodGet, "/api/templates/"+url.PathEscape(name), nil, &doc)
	if err != nil {
		return domain.TemplateDocument{}, notFound(err, "template", name)
	}
	return doc, nil
}

// List returns the metadata of the templates matching filter.
func (c *Client) List(ctx context.Context, filter domain.TemplateFilter) ([]domain.TemplateMeta, error) {
	q := url.Values{}
	if filter.TemplateType != "" {
		q.Set("type", filter.TemplateType)
	}
	if filter.NameContains != "" {
		q.Set("q", filter.NameContains)
	}
	path := "/api/templates"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var list []domain.TemplateMeta
	if _, err := c.doJSON(ctx, ServiceStore, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

type renderRequest struct {
	Template domain.TemplateDocument `json:"template"`
	Data     domain.Record           `json:"data,omitempty"`
	Copies   int                     `json:"copies,omitempty"`
}

type renderResponse struct {
	Success bool   `json:"success"`
	HTML    string `json:"html"`
	URL     string `json:"url"`
	Error   string `json:"error"`
}

// PreviewHTML asks the render service for preview markup. live may be nil.
func (c *Client) PreviewHTML(ctx context.Context, doc domain.TemplateDocument, live domain.Record) (string, error) {
	var res renderResponse
	if _, err := c.doJSON(ctx, ServiceRender, http.MethodPost, "/api/render/html", renderRequest{Template: doc, Data: live}, &res); err != nil {
		return "", err
	}
	if !res.Success {
		return "", &domain.ExternalServiceError{Service: ServiceRender, Message: res.Error}
	}
	return res.HTML, nil
}

// PreviewPDF asks the render service for a PDF and returns its URL.
func (c *Client) PreviewPDF(ctx context.Context, doc domain.TemplateDocument, copies int) (string, error) {
	if copies < 1 {
		copies = 1
	}
	var res renderResponse
	if _, err := c.doJSON(ctx, ServiceRender, http.MethodPost, "/api/render/pdf", renderRequest{Template: doc, Copies: copies}, &res); err != nil {
		return "", err
	}
	if !res.Success || res.URL == "" {
		msg := res.Error
		if msg == "" {
			msg = "no PDF returned"
		}
		return "", &domain.ExternalServiceError{Service: ServiceRender, Message: msg}
	}
	return c.resolve(res.URL), nil
}

// resolve makes a server-relative URL absolute.
func (c *Client) resolve(ref string) string {
	if strings.HasPrefix(ref, "/") {
		return c.BaseURL + ref
	}
	return ref
}

type printRequest struct {
	Template domain.TemplateDocument `json:"template"`
	Settings domain.PrintSettings    `json:"settings"`
}

// Send hands doc to the print dispatcher.
func (c *Client) Send(ctx context.Context, doc domain.TemplateDocument, settings domain.PrintSettings) (domain.PrintResult, error) {
	var res domain.PrintResult
	if _, err := c.doJSON(ctx, ServicePrint, http.MethodPost, "/api/print", printRequest{Template: doc, Settings: settings}, &res); err != nil {
		return domain.PrintResult{Success: false, Error: domain.UserMessage(err)}, err
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = res.Message
		}
		return res, &domain.ExternalServiceError{Service: ServicePrint, Message: msg}
	}
	return res, nil
}

type recordResponse struct {
	Data domain.Record `json:"data"`
}

// FetchRecord returns the live-data record with the given id.
func (c *Client) FetchRecord(ctx context.Context, id string) (domain.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &domain.ValidationError{Field: "record", Reason: "record id is required"}
	}
	var res recordResponse
	if _, err := c.doJSON(ctx, ServiceData, http.MethodGet, "/api/records/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, notFound(err, "record", id)
	}
	if res.Data == nil {
		res.Data = domain.Record{}
	}
	return res.Data, nil
}
