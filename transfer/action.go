package transfer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/reasonableperson/etrial-manager/tool"
)

// PostAction issues one empty-bodied action request, e.g.
// PostAction(ctx, "publish", hash, group). Only 200 counts as success; the
// caller refreshes its view on success and nothing is retried.
func (c *Client) PostAction(ctx context.Context, segments ...string) error {
	url, err := tool.BuildActionURL(c.target, segments...)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create action request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send action request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return readStatusError(resp)
	}
	tool.DefaultLogger.Infof("Action %s accepted", strings.Join(segments, "/"))
	return nil
}

// SplitActionPath turns "publish/<hash>/<group>" into its segments.
func SplitActionPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}
