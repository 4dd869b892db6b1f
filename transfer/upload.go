package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/reasonableperson/etrial-manager/batch"
	"github.com/reasonableperson/etrial-manager/tool"
	"github.com/reasonableperson/etrial-manager/types"
)

// StatusError is returned when the backend answers with anything but 200.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request failed: %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("request failed: %s", e.Status)
}

// Client uploads raw file bodies to <Target><UploadPath>?filename=<name> and
// issues action requests against the same backend.
type Client struct {
	httpClient      *http.Client
	target          string
	uploadPath      string
	speedLimitBytes int64
}

var _ batch.Uploader = (*Client)(nil)

// NewClient builds a client from the app config.
func NewClient(cfg types.AppConfig) (*Client, error) {
	hc, err := tool.NewHTTPClient(cfg.Proxy)
	if err != nil {
		return nil, err
	}
	return NewClientWithHTTP(hc, cfg), nil
}

// NewClientWithHTTP is NewClient with a caller-provided http.Client.
func NewClientWithHTTP(hc *http.Client, cfg types.AppConfig) *Client {
	return &Client{
		httpClient:      hc,
		target:          cfg.Target,
		uploadPath:      cfg.UploadPath,
		speedLimitBytes: cfg.SpeedLimitBytes,
	}
}

// Upload sends the file payload as an opaque byte stream with a fixed
// Content-Length and reports progress as bytes leave the reader.
func (c *Client) Upload(ctx context.Context, file types.DroppedFile, progress batch.ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("upload cancelled: %w", err)
	}
	url, err := tool.BuildUploadURL(c.target, c.uploadPath, file.Name)
	if err != nil {
		return err
	}
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	body := newProgressReader(ctx, src, file.Size, progress, c.speedLimitBytes)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		body.Close()
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.ContentLength = file.Size
	if file.Size == 0 {
		req.Body = http.NoBody
		body.Close()
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("upload cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to send upload request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return readStatusError(resp)
	}
	tool.DefaultLogger.Infof("Uploaded %s (%s) to %s", file.Name, tool.FormatKiB(file.Size), url)
	return nil
}

func readStatusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(snippet)}
}
