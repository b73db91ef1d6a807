package datadog

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// NewTransport builds the HTTP transport for API calls. A configured proxy is
// attempted first; when the proxy URL is unusable or resolution fails for a
// request, the transport degrades to a direct connection and logs it, never
// failing the call itself.
// Params: proxyURL optional proxy endpoint; logger reports degradations.
// Returns: transport honoring the proxy-then-direct policy.
func NewTransport(proxyURL string, logger *slog.Logger) *http.Transport {
	transport := &http.Transport{}

	trimmed := strings.TrimSpace(proxyURL)
	if trimmed == "" {
		return transport
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		logger.Warn(
			"proxy configuration unusable, using direct connections",
			slog.String("proxy", trimmed),
		)
		return transport
	}

	resolve := http.ProxyURL(parsed)
	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		proxy, resolveErr := resolve(req)
		if resolveErr != nil {
			logger.Warn(
				"proxy resolution failed, falling back to direct connection",
				slog.String("host", req.URL.Host),
				slog.String("error", resolveErr.Error()),
			)
			return nil, nil
		}
		return proxy, nil
	}

	return transport
}
