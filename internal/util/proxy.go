package util

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc returns the proxy selector for the fetcher. Empty settings
// fall back to HTTP_PROXY, HTTPS_PROXY and NO_PROXY from the environment.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	env := httpproxy.FromEnvironment()

	cfg := &httpproxy.Config{
		HTTPProxy:  firstNonEmpty(httpProxy, env.HTTPProxy),
		HTTPSProxy: firstNonEmpty(httpsProxy, env.HTTPSProxy),
		NoProxy:    firstNonEmpty(noProxy, env.NoProxy),
	}
	proxyFor := cfg.ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return proxyFor(req.URL)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
