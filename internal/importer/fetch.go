package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// FetchTimeout bounds a single remote import.
const FetchTimeout = 30 * time.Second

// IsRemote reports whether src is an http(s) URL rather than a file path.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// RemoteID derives a document id from the last path segment of rawURL.
func RemoteID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return ""
	}
	return DocumentID(path.Base(u.Path))
}

// Fetch downloads a document from rawURL. When dataPath is set the response
// must be a JSON object and the value at the dot-separated path is returned,
// which lets generators wrap the document in an envelope of their own.
func Fetch(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, dataPath string) ([]byte, error) {
	if client == nil {
		client = &http.Client{Timeout: FetchTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if dataPath == "" {
		return data, nil
	}
	return extractPath(data, dataPath)
}

// extractPath walks a dot-separated path of object keys.
func extractPath(data []byte, dataPath string) ([]byte, error) {
	current := json.RawMessage(data)
	for _, key := range strings.Split(dataPath, ".") {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(current, &obj); err != nil {
			return nil, fmt.Errorf("data path %q: %s is not an object", dataPath, key)
		}
		next, ok := obj[key]
		if !ok {
			return nil, fmt.Errorf("data path %q: missing key %s", dataPath, key)
		}
		current = next
	}
	return current, nil
}
