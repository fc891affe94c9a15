// Package docsvc is a thin client for the external document service that
// owns DOC content. The drive only stores metadata; content and versions
// live on the other side of this client.
package docsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Document is the service's view of a document. Content is opaque to the
// drive and passed through unmodified.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Version int64  `json:"version"`
}

// StatusError reports a non-2xx response from the document service.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("docsvc: unexpected status %d: %s", e.Status, e.Body)
}

func IsNotFound(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Create(ctx context.Context, id, title, content string) (Document, error) {
	return c.send(ctx, http.MethodPost, "/api/documents", map[string]string{
		"id":      id,
		"title":   title,
		"content": content,
	})
}

func (c *Client) Get(ctx context.Context, id string) (Document, error) {
	return c.send(ctx, http.MethodGet, "/api/documents/"+id, nil)
}

// Update sends only the fields present; nil fields are left untouched on
// the service side.
func (c *Client) Update(ctx context.Context, id string, title, content *string) (Document, error) {
	body := map[string]string{}
	if title != nil {
		body["title"] = *title
	}
	if content != nil {
		body["content"] = *content
	}
	return c.send(ctx, http.MethodPut, "/api/documents/"+id, body)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.send(ctx, http.MethodDelete, "/api/documents/"+id, nil)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body any) (Document, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return Document{}, fmt.Errorf("docsvc: encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return Document{}, fmt.Errorf("docsvc: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("docsvc: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return Document{}, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode == http.StatusNoContent || method == http.MethodDelete {
		return Document{}, nil
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("docsvc: decode response: %w", err)
	}
	return doc, nil
}
