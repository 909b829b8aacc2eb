/* Copyright 2025 Stridewell Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package remote provides the interface to the hosted relational store and
// an HTTP implementation speaking its per-table REST convention.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// TableService is the per-table surface the sync engine consumes. Rows are
// plain key-value records matching the entity's serialized shape; timestamps
// travel as ISO-8601 strings. Upsert is keyed by the row's id so that
// retrying a push can never produce duplicate rows.
type TableService interface {
	Upsert(ctx context.Context, table string, row Row) error
	SelectAll(ctx context.Context, table, userID string) ([]Row, error)
}

// HTTPError represents an HTTP error response from the remote store
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsAuth returns true if the error indicates a missing or rejected credential
func (e *HTTPError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	return &http.Client{
		Transport: &rateLimitedTransport{
			transport: http.DefaultTransport,
			limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
		},
	}
}

// Client talks to the remote table service over HTTP. The service exposes
// one REST resource per table under /rest/v1, with row-level authorization
// tied to the bearer token.
type Client struct {
	Endpoint   string
	APIKey     string
	Token      string
	HTTPClient *http.Client
}

// NewClient constructs a client for the table service at the given endpoint.
// If httpClient is nil, a rate-limited default is used.
func NewClient(endpoint, apiKey, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewRateLimitedHTTPClient()
	}

	return &Client{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		Token:      token,
		HTTPClient: httpClient,
	}
}

func (c *Client) newReq(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s", c.Endpoint, path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("apikey", c.APIKey)
	if c.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// checkRespErr checks if the given http response indicates an error and
// returns a decoded error message if so.
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    string(bytes.TrimRight(body, "\n")),
	}
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "making http request")
	}

	if err := checkRespErr(res); err != nil {
		res.Body.Close()
		return nil, errors.Wrap(err, "server responded with an error")
	}

	return res, nil
}

// Upsert inserts or updates a single row in the given table, keyed by id
func (c *Client) Upsert(ctx context.Context, table string, row Row) error {
	b, err := json.Marshal([]Row{row})
	if err != nil {
		return errors.Wrap(err, "marshalling row")
	}

	path := fmt.Sprintf("/rest/v1/%s?on_conflict=id", table)
	req, err := c.newReq(ctx, "POST", path, b)
	if err != nil {
		return errors.Wrap(err, "getting request")
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	res, err := c.do(req)
	if err != nil {
		return errors.Wrapf(err, "upserting into %s", table)
	}
	res.Body.Close()

	return nil
}

// SelectAll fetches every row of the given table visible to the given user
func (c *Client) SelectAll(ctx context.Context, table, userID string) ([]Row, error) {
	v := url.Values{}
	v.Set("select", "*")
	v.Set("user_id", fmt.Sprintf("eq.%s", userID))

	path := fmt.Sprintf("/rest/v1/%s?%s", table, v.Encode())
	req, err := c.newReq(ctx, "GET", path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "getting request")
	}

	res, err := c.do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "selecting from %s", table)
	}
	defer res.Body.Close()

	var rows []Row
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return nil, errors.Wrap(err, "decoding response payload")
	}

	return rows, nil
}
