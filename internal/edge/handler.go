package edge

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/storefront/internal/observability/metrics"
)

// hopHeaders are not forwarded to the origin
var hopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
	// The body must arrive uncompressed to be rewritten; the transport
	// negotiates and decodes compression itself.
	"Accept-Encoding",
}

// DefaultMaxHTMLBytes caps how much of an HTML document is buffered for rewriting
const DefaultMaxHTMLBytes int64 = 5 << 20

// Handler fetches each request from the origin and rewrites HTML heads with
// the tenant resolved from the request host
type Handler struct {
	origin         *url.URL
	client         *http.Client
	table          *Table
	forwardHeaders bool
	maxHTMLBytes   int64
	logger         *slog.Logger
}

// HandlerOptions configures a Handler
type HandlerOptions struct {
	// ForwardHeaders keeps every origin header on rewritten HTML responses.
	// When false only Content-Type is returned with rewritten HTML.
	ForwardHeaders bool
	// MaxHTMLBytes is the largest HTML body that is rewritten. Larger
	// documents are passed through unmodified. Zero means DefaultMaxHTMLBytes.
	MaxHTMLBytes int64
}

// NewHandler creates an edge handler proxying to origin
func NewHandler(origin *url.URL, client *http.Client, table *Table, opts HandlerOptions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = http.DefaultClient
	}
	if opts.MaxHTMLBytes <= 0 {
		opts.MaxHTMLBytes = DefaultMaxHTMLBytes
	}
	return &Handler{
		origin:         origin,
		client:         client,
		table:          table,
		forwardHeaders: opts.ForwardHeaders,
		maxHTMLBytes:   opts.MaxHTMLBytes,
		logger:         logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	meta := h.table.Resolve(r.Host, r.URL.Query().Get("tenant"))

	resp, err := h.fetch(r)
	if err != nil {
		h.logger.Error("origin fetch failed",
			slog.String("host", r.Host),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		metrics.ObserveEdgeResponse(meta.TenantID, "error")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		h.passThrough(w, resp, resp.Body)
		metrics.ObserveEdgeResponse(meta.TenantID, "passthrough")
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxHTMLBytes+1))
	if err != nil {
		h.logger.Error("failed to read origin body",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		metrics.ObserveEdgeResponse(meta.TenantID, "error")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	if int64(len(body)) > h.maxHTMLBytes {
		h.logger.Warn("html body over rewrite limit, passing through",
			slog.String("path", r.URL.Path),
			slog.Int64("limit_bytes", h.maxHTMLBytes),
		)
		h.passThrough(w, resp, io.MultiReader(bytes.NewReader(body), resp.Body))
		metrics.ObserveEdgeResponse(meta.TenantID, "passthrough")
		return
	}

	rewritten := Rewrite(string(body), meta)

	if h.forwardHeaders {
		copyHeaders(w.Header(), resp.Header)
		w.Header().Del("Content-Length")
		w.Header().Del("Etag")
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(rewritten)))
	w.WriteHeader(resp.StatusCode)
	if r.Method != http.MethodHead {
		io.WriteString(w, rewritten)
	}

	metrics.ObserveEdgeResponse(meta.TenantID, "rewritten")
	h.logger.Debug("rewrote document head",
		slog.String("tenant_id", meta.TenantID),
		slog.String("path", r.URL.Path),
	)
}

// fetch performs the single outbound request to the origin; no retries
func (h *Handler) fetch(r *http.Request) (*http.Response, error) {
	target := *h.origin
	target.Path = singleJoiningSlash(h.origin.Path, r.URL.Path)
	target.RawQuery = r.URL.RawQuery

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		return nil, err
	}
	copyHeaders(out.Header, r.Header)
	for _, hh := range hopHeaders {
		out.Header.Del(hh)
	}
	out.Header.Set("X-Forwarded-Host", r.Host)
	out.ContentLength = r.ContentLength

	start := time.Now()
	resp, err := h.client.Do(out)
	metrics.ObserveOriginFetch(time.Since(start))
	return resp, err
}

func (h *Handler) passThrough(w http.ResponseWriter, resp *http.Response, body io.Reader) {
	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("pass-through copy interrupted", slog.String("error", err.Error()))
	}
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func singleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
