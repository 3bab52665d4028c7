// Package health checks saved links for dead or unreachable targets.
package health

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nikbrunner/linkhub/internal/model"
)

// Status represents the health status of a URL.
type Status int

const (
	Healthy     Status = iota // 2xx or 3xx response
	Dead                      // 404 or 410 Gone
	Unreachable               // timeout, DNS failure, connection refused, etc.
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	default:
		return "unreachable"
	}
}

// Result holds the check result for a single link.
type Result struct {
	Link       model.Link
	Status     Status
	StatusCode int    // 0 if the connection failed
	Error      string // readable reason for unreachable links
}

// ProgressFunc is called after each URL is checked.
type ProgressFunc func(completed, total int)

// Options configures CheckLinks.
type Options struct {
	Client         *http.Client // required
	Concurrency    int          // default 10
	ExcludeDomains []string     // 404s here are reported as possibly private
	OnProgress     ProgressFunc
}

// DefaultTimeout is the per-request timeout for link checks.
const DefaultTimeout = 10 * time.Second

// DefaultExcludeDomains host private repositories that answer 404 without auth.
var DefaultExcludeDomains = []string{"github.com", "gitlab.com"}

// CheckLinks checks every link with a bounded pool of workers. Results keep
// the order of links. Links not reached before ctx ends are Unreachable.
func CheckLinks(ctx context.Context, links []model.Link, opts Options) []Result {
	if len(links) == 0 {
		return nil
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	exclude := make(map[string]bool)
	for _, domain := range opts.ExcludeDomains {
		exclude[strings.ToLower(domain)] = true
	}

	results := make([]Result, len(links))
	jobs := make(chan int, len(links))
	var wg sync.WaitGroup

	var progressMu sync.Mutex
	completed := 0

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = checkLink(ctx, opts.Client, links[idx], exclude)

				if opts.OnProgress != nil {
					progressMu.Lock()
					completed++
					opts.OnProgress(completed, len(links))
					progressMu.Unlock()
				}
			}
		}()
	}

	for i := range links {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

func checkLink(ctx context.Context, client *http.Client, link model.Link, exclude map[string]bool) Result {
	result := Result{Link: link}

	if err := ctx.Err(); err != nil {
		result.Status = Unreachable
		result.Error = "Canceled"
		return result
	}

	// HEAD first; some servers reject it, so fall back to GET.
	code, err := request(ctx, client, http.MethodHead, link.URL)
	if err != nil || code == http.StatusMethodNotAllowed || code == http.StatusBadRequest {
		code, err = request(ctx, client, http.MethodGet, link.URL)
	}
	if err != nil {
		result.Status = Unreachable
		result.Error = normalizeError(err)
		return result
	}

	result.StatusCode = code
	switch {
	case code >= 200 && code < 400:
		result.Status = Healthy
	case code == http.StatusNotFound || code == http.StatusGone:
		if isExcludedDomain(link.URL, exclude) {
			result.Status = Unreachable
			result.Error = "Possibly private (auth required)"
		} else {
			result.Status = Dead
		}
	default:
		result.Status = Unreachable
		result.Error = http.StatusText(code)
	}
	return result
}

func request(ctx context.Context, client *http.Client, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "linkhub/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.CopyN(io.Discard, resp.Body, 64<<10)
	return resp.StatusCode, nil
}

// isExcludedDomain matches the host and its subdomains against exclude.
func isExcludedDomain(rawURL string, exclude map[string]bool) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if exclude[host] {
		return true
	}
	for domain := range exclude {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// normalizeError simplifies verbose error messages into readable categories.
func normalizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "Canceled"
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "no such host"):
		return "DNS failure"
	case strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "certificate"):
		return "TLS/certificate error"
	case strings.Contains(lower, "network is unreachable"):
		return "Network unreachable"
	case strings.Contains(lower, "tls:"):
		return "TLS error"
	default:
		return err.Error()
	}
}
