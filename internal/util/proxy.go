package util

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc builds a transport proxy selector from configuration.
// With no explicit proxy URLs it defers to the standard environment
// variables. noProxy is a comma-separated host list; a leading dot
// matches subdomains and "*" exempts everything.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	exempt := splitHosts(noProxy)

	return func(req *http.Request) (*url.URL, error) {
		if hostExempt(req.URL.Host, exempt) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func splitHosts(list string) []string {
	var out []string
	for _, h := range strings.Split(list, ",") {
		h = strings.TrimSpace(h)
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// hostExempt reports whether host (possibly host:port) matches an
// exemption entry, either exactly or as a subdomain of it.
func hostExempt(host string, exempt []string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	for _, e := range exempt {
		if e == "*" {
			return true
		}
		e = strings.TrimPrefix(e, ".")
		if host == e || strings.HasSuffix(host, "."+e) {
			return true
		}
	}
	return false
}
