package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client is a thin HTTP client for the scheduler API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, http: httpClient}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func (c *Client) SubmitJob(ctx context.Context, req any) (string, error) {
	var reply struct {
		JobID string `json:"job_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/jobs", req, &reply); err != nil {
		return "", err
	}
	return reply.JobID, nil
}

func (c *Client) GetJob(ctx context.Context, id string, out any) error {
	return c.do(ctx, http.MethodGet, "/api/v1/jobs/"+id, nil, out)
}

func (c *Client) ListJobs(ctx context.Context, out any) error {
	return c.do(ctx, http.MethodGet, "/api/v1/jobs", nil, out)
}

func (c *Client) CancelJob(ctx context.Context, id string) (bool, error) {
	var reply struct {
		Cancelled bool `json:"cancelled"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/v1/jobs/"+id, nil, &reply); err != nil {
		return false, err
	}
	return reply.Cancelled, nil
}

func (c *Client) GetStats(ctx context.Context, out any) error {
	return c.do(ctx, http.MethodGet, "/api/v1/stats", nil, out)
}
