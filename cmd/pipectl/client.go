package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/pkg/validate"
)

// apiError — ответ сервиса с кодом не 2xx.
type apiError struct {
	Status  int
	Message string `json:"error"`
	Kind    string `json:"kind"`
}

func (e *apiError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("http %d: %s (%s)", e.Status, e.Message, e.Kind)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// client — тонкая обёртка над HTTP API сервиса.
type client struct {
	base string
	http *http.Client
}

func newClient(addr string, hc *http.Client) *client {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &client{base: addr, http: hc}
}

func (c *client) Publish(ctx context.Context, ev domain.Event) (domain.PublishResult, error) {
	var res domain.PublishResult
	path := "/topics/" + url.PathEscape(ev.Topic) + "/records"
	err := c.do(ctx, http.MethodPost, path, validate.NewEventPayload(ev), &res)
	return res, err
}

func (c *client) Topics(ctx context.Context) ([]domain.TopicInfo, error) {
	var out []domain.TopicInfo
	err := c.do(ctx, http.MethodGet, "/topics", nil, &out)
	return out, err
}

func (c *client) Fetch(ctx context.Context, topic string, partition int, from int64, limit int) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("from", strconv.FormatInt(from, 10))
	if limit > 0 {
		q.Set("max", strconv.Itoa(limit))
	}
	path := fmt.Sprintf("/topics/%s/partitions/%d/records?%s", url.PathEscape(topic), partition, q.Encode())
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *client) Consumers(ctx context.Context) ([]domain.ConsumerStatus, error) {
	var out []domain.ConsumerStatus
	err := c.do(ctx, http.MethodGet, "/consumers", nil, &out)
	return out, err
}

func (c *client) Resume(ctx context.Context, req domain.ResumeRequest) error {
	path := fmt.Sprintf("/consumers/%s/%s/%d/resume", url.PathEscape(req.Group), url.PathEscape(req.Topic), req.Partition)
	var body any
	if req.Offset != nil {
		body = map[string]int64{"offset": *req.Offset}
	}
	return c.do(ctx, http.MethodPost, path, body, nil)
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
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
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &apiError{Status: resp.StatusCode}
		if jErr := json.Unmarshal(data, apiErr); jErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
