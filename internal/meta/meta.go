// Package meta fetches page metadata for new links.
package meta

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nikbrunner/linkhub/internal/settings"
)

// DefaultTimeout bounds a title fetch.
const DefaultTimeout = 5 * time.Second

// maxTitleBody caps how much of a page is read looking for <title>.
const maxTitleBody = 1 << 20

// NewHTTPClient returns a client that goes through the configured proxy,
// if any, and follows at most 10 redirects.
func NewHTTPClient(s settings.Settings, timeout time.Duration) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if raw := s.ProxyURL(); raw != "" {
		proxy, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// FetchTitle returns the trimmed text of the page's first <title>.
// It returns "" with no error when the page has no title.
func FetchTitle(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "linkhub/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: %s", rawURL, resp.Status)
	}
	return ParseTitle(io.LimitReader(resp.Body, maxTitleBody))
}

// ParseTitle extracts the first <title> from an HTML document.
func ParseTitle(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "title") {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			title = strings.Join(strings.Fields(b.String()), " ")
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title, nil
}
