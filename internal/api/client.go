package api

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
	"time"
)

const clientTimeout = 30 * time.Second

// Client provides HTTP access to the daemon API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the daemon listening at baseURL
// (for example "http://127.0.0.1:8765").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// APIError carries the status code and error message of a failed request.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// IsNotFound reports whether the error is a 404 response from the daemon.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// SubmitJob submits a lecture URL for processing.
func (c *Client) SubmitJob(ctx context.Context, req SubmitJobRequest) (*SubmitJobResponse, error) {
	var resp SubmitJobResponse
	if err := c.post(ctx, "/api/jobs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Job fetches one job with its lecture and artifacts.
func (c *Client) Job(ctx context.Context, id string) (*JobDetailResponse, error) {
	var resp JobDetailResponse
	if err := c.get(ctx, "/api/jobs/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs lists recent jobs, newest first. A limit of zero uses the server default.
func (c *Client) Jobs(ctx context.Context, limit int) (*JobListResponse, error) {
	path := "/api/jobs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp JobListResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Lecture fetches one lecture with its artifacts and job history.
func (c *Client) Lecture(ctx context.Context, id string) (*LectureDetailResponse, error) {
	var resp LectureDetailResponse
	if err := c.get(ctx, "/api/lectures/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Courses lists the known course codes.
func (c *Client) Courses(ctx context.Context) (*CourseListResponse, error) {
	var resp CourseListResponse
	if err := c.get(ctx, "/api/courses", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CourseDates lists the lecture dates recorded for a course.
func (c *Client) CourseDates(ctx context.Context, course string) (*DateListResponse, error) {
	var resp DateListResponse
	if err := c.get(ctx, "/api/courses/"+url.PathEscape(course)+"/dates", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CourseLectures lists the lectures for a course on a given date.
func (c *Client) CourseLectures(ctx context.Context, course, date string) (*LectureListResponse, error) {
	path := "/api/courses/" + url.PathEscape(course) + "/dates/" + url.PathEscape(date) + "/lectures"
	var resp LectureListResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Metadata probes a URL without creating a job.
func (c *Client) Metadata(ctx context.Context, rawURL string) (*MetadataResponse, error) {
	query := url.Values{"url": {rawURL}}
	var resp MetadataResponse
	if err := c.get(ctx, "/api/metadata?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status snapshot.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/api/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &APIError{StatusCode: status, Message: payload.Error}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}
