package core

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"replicate/database"
	"replicate/logger"
	"replicate/models"
	"sync/atomic"
	"time"

	"github.com/elazarl/goproxy"
)

// RedirectMode decides how a rewritten request reaches its new destination.
type RedirectMode string

const (
	// RedirectModeRewrite forwards the request to the new URL transparently.
	RedirectModeRewrite RedirectMode = "rewrite"
	// RedirectModeRedirect answers 307 with the new URL as Location.
	RedirectModeRedirect RedirectMode = "redirect"
)

func ParseRedirectMode(s string) RedirectMode {
	if RedirectMode(s) == RedirectModeRedirect {
		return RedirectModeRedirect
	}
	return RedirectModeRewrite
}

// RedirectSink receives one completed entry per intercepted request.
type RedirectSink interface {
	Record(entry *models.RedirectLog) error
}

// DBRedirectSink writes entries to the redirect_log table.
type DBRedirectSink struct{}

func (DBRedirectSink) Record(entry *models.RedirectLog) error {
	return database.InsertRedirectLog(entry)
}

type InterceptorOptions struct {
	Patterns []string
	// CA signs the per-host certificates used to open intercepted HTTPS
	// connections.
	CA   *tls.Certificate
	Mode RedirectMode
	Sink RedirectSink
}

// Interceptor hooks a Rewriter into a goproxy server.
type Interceptor struct {
	rewriter *Rewriter
	opts     InterceptorOptions
	filter   *URLFilter
	active   atomic.Bool
}

func NewInterceptor(rewriter *Rewriter, opts InterceptorOptions) *Interceptor {
	if opts.Mode == "" {
		opts.Mode = RedirectModeRewrite
	}
	return &Interceptor{rewriter: rewriter, opts: opts}
}

// Active reports whether requests are currently being rewritten.
func (i *Interceptor) Active() bool {
	return i.active.Load()
}

// Detach stops rewriting. goproxy cannot drop handlers, so they stay
// installed and pass everything through.
func (i *Interceptor) Detach() {
	if i.active.Swap(false) {
		logger.ProxyInfo("Interceptor detached; requests pass through unchanged.")
	}
}

// Register installs the CONNECT, request and response hooks on proxy.
func (i *Interceptor) Register(proxy *goproxy.ProxyHttpServer) error {
	if proxy == nil {
		return errors.New("network hook unavailable: no proxy server")
	}
	if i.rewriter == nil {
		return errors.New("no rewriter configured")
	}
	filter, err := NewURLFilter(i.opts.Patterns)
	if err != nil {
		return fmt.Errorf("building request filter: %w", err)
	}
	if i.opts.CA == nil {
		return errors.New("no CA certificate loaded, HTTPS requests cannot be intercepted (run 'proxy init-ca')")
	}
	i.filter = filter

	mitm := &goproxy.ConnectAction{Action: goproxy.ConnectMitm, TLSConfig: goproxy.TLSConfigFromCA(i.opts.CA)}
	proxy.OnRequest().HandleConnect(goproxy.FuncHttpsHandler(func(host string, ctx *goproxy.ProxyCtx) (*goproxy.ConnectAction, string) {
		if i.Active() && i.filter.MatchHost(host) {
			logger.ProxyDebug("CONNECT %s (session %d): intercepting", host, ctx.Session)
			return mitm, host
		}
		return goproxy.OkConnect, host
	}))

	matches := goproxy.ReqConditionFunc(func(r *http.Request, ctx *goproxy.ProxyCtx) bool {
		return i.Active() && r.URL != nil && i.filter.Match(canonicalURL(r.URL))
	})
	proxy.OnRequest(matches).DoFunc(i.handleRequest)
	proxy.OnResponse().DoFunc(i.handleResponse)

	i.active.Store(true)
	logger.ProxyInfo("Interception registered for %v (mode %s).", filter.Patterns(), i.opts.Mode)
	return nil
}

func (i *Interceptor) handleRequest(r *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
	original := canonicalURL(r.URL)
	decision, err := i.rewriter.Rewrite(r.Context(), original)
	if err != nil {
		logger.ProxyError("REQ: %s %s - settings unavailable, passing through: %v", r.Method, original, err)
	}

	entry := &models.RedirectLog{
		Timestamp:   time.Now().UTC(),
		Method:      r.Method,
		OriginalURL: decision.Original,
		RedirectURL: decision.Redirect,
		Rule:        decision.Rule,
		ClientIP:    r.RemoteAddr,
	}
	ctx.UserData = entry

	if !decision.Changed() {
		logger.ProxyDebug("REQ: %s %s - rule %s, unchanged", r.Method, original, decision.Rule)
		return r, nil
	}

	target, err := url.Parse(decision.Redirect)
	if err != nil || target.Host == "" {
		logger.ProxyError("REQ: %s %s - configured base URL yields unusable destination '%s', passing through", r.Method, original, decision.Redirect)
		entry.RedirectURL = original
		return r, nil
	}

	if i.opts.Mode == RedirectModeRedirect {
		logger.ProxyInfo("REQ: %s %s -> 307 %s", r.Method, original, decision.Redirect)
		resp := goproxy.NewResponse(r, goproxy.ContentTypeText, http.StatusTemporaryRedirect, "")
		resp.Header.Set("Location", decision.Redirect)
		return r, resp
	}

	logger.ProxyInfo("REQ: %s %s -> %s", r.Method, original, decision.Redirect)
	r.URL = target
	r.Host = target.Host
	return r, nil
}

func (i *Interceptor) handleResponse(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
	entry, ok := ctx.UserData.(*models.RedirectLog)
	if !ok || entry == nil {
		return resp
	}
	ctx.UserData = nil

	entry.DurationMs = time.Since(entry.Timestamp).Milliseconds()
	if resp != nil {
		entry.StatusCode = resp.StatusCode
		logger.ProxyDebug("RESP: %d for %s %s (%d ms)", resp.StatusCode, entry.Method, entry.RedirectURL, entry.DurationMs)
	} else {
		logger.ProxyError("RESP: no response for %s %s: %v", entry.Method, entry.RedirectURL, ctx.Error)
	}

	if i.opts.Sink != nil {
		if err := i.opts.Sink.Record(entry); err != nil {
			logger.ProxyError("Could not record redirect for %s: %v", entry.OriginalURL, err)
		}
	}
	return resp
}

// canonicalURL renders u without a default port. Requests read from an
// intercepted TLS connection carry the CONNECT authority, e.g.
// "api.obsidian.md:443", which would otherwise defeat prefix matching.
func canonicalURL(u *url.URL) string {
	port := u.Port()
	if (u.Scheme == "https" && port == "443") || (u.Scheme == "http" && port == "80") {
		c := *u
		c.Host = u.Hostname()
		return c.String()
	}
	return u.String()
}

type proxyLogAdapter struct{}

func (proxyLogAdapter) Printf(format string, v ...any) {
	logger.ProxyDebug(format, v...)
}

// NewProxyServer returns a goproxy server logging into the proxy log.
func NewProxyServer(verbose bool) *goproxy.ProxyHttpServer {
	proxy := goproxy.NewProxyHttpServer()
	proxy.Verbose = verbose
	// Relay bodies with the encoding the upstream chose.
	proxy.KeepAcceptEncoding = true
	proxy.Logger = proxyLogAdapter{}
	return proxy
}
