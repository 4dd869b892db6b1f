package tool

import (
	"fmt"
	"net/url"
	"strings"
)

// EncodeURIComponent percent-encodes s for use as a query value, encoding
// spaces as %20 rather than '+'.
func EncodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// BuildUploadURL builds <base><path>?filename=<encoded name>.
func BuildUploadURL(base, path, fileName string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to parse upload URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("upload base %q must be an absolute URL", base)
	}
	u.RawQuery = "filename=" + EncodeURIComponent(fileName)
	return u.String(), nil
}

// BuildActionURL joins escaped path segments onto base,
// e.g. publish/<hash>/<group> -> <base>/publish/<hash>/<group>.
func BuildActionURL(base string, segments ...string) (string, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("action path must not be empty")
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		if s == "" {
			return "", fmt.Errorf("action path has an empty segment")
		}
		escaped = append(escaped, url.PathEscape(s))
	}
	return u.String() + "/" + strings.Join(escaped, "/"), nil
}
