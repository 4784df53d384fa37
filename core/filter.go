package core

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLFilter matches request URLs against patterns of the form
// "https://host/*". A trailing "*" matches any remainder; a pattern without
// one must match exactly.
type URLFilter struct {
	patterns []string
	hosts    map[string]struct{}
}

func NewURLFilter(patterns []string) (*URLFilter, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no intercept patterns configured")
	}
	f := &URLFilter{hosts: make(map[string]struct{})}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Count(p, "*") > 1 || (strings.Contains(p, "*") && !strings.HasSuffix(p, "*")) {
			return nil, fmt.Errorf("intercept pattern %q: only a single trailing '*' is supported", p)
		}
		u, err := url.Parse(strings.TrimSuffix(p, "*"))
		if err != nil {
			return nil, fmt.Errorf("intercept pattern %q: %w", p, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("intercept pattern %q: scheme and host are required", p)
		}
		f.patterns = append(f.patterns, p)
		f.hosts[strings.ToLower(u.Hostname())] = struct{}{}
	}
	if len(f.patterns) == 0 {
		return nil, fmt.Errorf("no intercept patterns configured")
	}
	return f, nil
}

// Patterns returns the accepted patterns.
func (f *URLFilter) Patterns() []string {
	return append([]string(nil), f.patterns...)
}

// Match reports whether rawURL falls under any pattern.
func (f *URLFilter) Match(rawURL string) bool {
	for _, p := range f.patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(rawURL, prefix) {
				return true
			}
		} else if rawURL == p {
			return true
		}
	}
	return false
}

// MatchHost reports whether hostport (as seen in a CONNECT request) belongs
// to a filtered host.
func (f *URLFilter) MatchHost(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	_, ok := f.hosts[strings.ToLower(host)]
	return ok
}
