// ABOUTME: Minimal REST dispatcher matching verb+path templates to handler callbacks.
// ABOUTME: Normalizes path params, query, cookies, headers and body into a Request.

package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// placeholderPattern matches {name} segments in a route template.
var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// allowedHeaders is the minimum set of headers permitted in CORS responses.
const allowedHeaders = "Content-Type, Authorization, X-Requested-With, Mcp-Session-Id"

// allowedMethods is the method list advertised in CORS responses.
const allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"

// Request is a normalized inbound HTTP request handed to route handlers.
// It is built once per dispatch and must not be retained after the handler
// returns.
type Request struct {
	// Context carries the lifetime of the underlying HTTP request.
	Context context.Context

	// PathParams holds values captured from {name} template segments.
	PathParams map[string]string

	// Query holds path params merged with URL query parameters. On key
	// collision the query value wins because it is merged second.
	Query map[string]string

	// Cookies holds request cookies by name.
	Cookies map[string]string

	// Headers holds the transport headers. Lookups via Headers.Get are
	// case-insensitive.
	Headers http.Header

	// Body is the decoded request body: a JSON value when the Content-Type
	// contains application/json (an empty body decodes to an empty object),
	// otherwise a flat form map.
	Body any
}

// Response is the value a handler returns for serialization at the transport
// boundary. A zero Status means 200. Header entries are applied before the
// body is written. A nil Body writes no body at all.
type Response struct {
	Status int
	Header http.Header
	Body   any
}

// SetHeader sets a response header, allocating the header map on first use.
func (r *Response) SetHeader(key, value string) {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	r.Header.Set(key, value)
}

// HandlerFunc processes a normalized request. Returning a *Error short-circuits
// to the error envelope with its declared status; any other error becomes a
// 500 envelope.
type HandlerFunc func(req *Request) (*Response, error)

// route pairs an HTTP method and compiled path template with its handler.
type route struct {
	method   string
	template string
	pattern  *regexp.Regexp
	handler  HandlerFunc
}

// Router dispatches HTTP requests against registered path templates in
// registration order. No route is more specific than another; callers must
// register more specific templates first.
type Router struct {
	routes []route
	logger *slog.Logger
}

// NewRouter creates an empty Router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger}
}

// Get registers a handler for GET requests on the given template.
func (rt *Router) Get(template string, handler HandlerFunc) {
	rt.add(http.MethodGet, template, handler)
}

// Post registers a handler for POST requests on the given template.
func (rt *Router) Post(template string, handler HandlerFunc) {
	rt.add(http.MethodPost, template, handler)
}

// Put registers a handler for PUT requests on the given template.
func (rt *Router) Put(template string, handler HandlerFunc) {
	rt.add(http.MethodPut, template, handler)
}

// Delete registers a handler for DELETE requests on the given template.
func (rt *Router) Delete(template string, handler HandlerFunc) {
	rt.add(http.MethodDelete, template, handler)
}

func (rt *Router) add(method, template string, handler HandlerFunc) {
	rt.routes = append(rt.routes, route{
		method:   method,
		template: template,
		pattern:  compileTemplate(template),
		handler:  handler,
	})
}

// compileTemplate turns a path template into an anchored matcher where each
// {name} placeholder captures one or more non-slash characters.
func compileTemplate(template string) *regexp.Regexp {
	expr := placeholderPattern.ReplaceAllString(template, `(?P<$1>[^/]+)`)
	return regexp.MustCompile("^" + expr + "$")
}

// matchPath returns captured path params, or nil when the path does not match.
func (r *route) matchPath(path string) map[string]string {
	m := r.pattern.FindStringSubmatch(path)
	if m == nil {
		return nil
	}
	params := make(map[string]string)
	for i, name := range r.pattern.SubexpNames() {
		if i > 0 && name != "" {
			params[name] = m[i]
		}
	}
	return params
}

// ServeHTTP implements http.Handler. OPTIONS requests are answered with a
// CORS preflight response on any path.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		rt.handlePreflight(w, r)
		return
	}

	path := r.URL.Path

	for i := range rt.routes {
		rte := &rt.routes[i]
		if rte.method != r.Method {
			continue
		}
		params := rte.matchPath(path)
		if params == nil {
			continue
		}

		req, rerr := rt.buildRequest(r, params)
		if rerr != nil {
			rt.writeError(w, rerr)
			return
		}

		resp, err := rte.handler(req)
		if err != nil {
			rerr, ok := err.(*Error)
			if !ok {
				rt.logger.Error("handler failed", "method", r.Method, "path", path, "error", err)
				rerr = &Error{Code: "internal_error", Message: err.Error(), Status: http.StatusInternalServerError}
			}
			rt.writeError(w, rerr)
			return
		}

		rt.writeResponse(w, resp)
		return
	}

	rt.writeError(w, &Error{Code: "not_found", Message: "Route not found", Status: http.StatusNotFound})
}

// buildRequest assembles the normalized Request for a matched route.
func (rt *Router) buildRequest(r *http.Request, pathParams map[string]string) (*Request, *Error) {
	// Path params first, query second so query wins on collision.
	query := make(map[string]string, len(pathParams))
	for k, v := range pathParams {
		query[k] = v
	}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}

	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}

	body, rerr := decodeBody(r)
	if rerr != nil {
		return nil, rerr
	}

	return &Request{
		Context:    r.Context(),
		PathParams: pathParams,
		Query:      query,
		Cookies:    cookies,
		Headers:    r.Header,
		Body:       body,
	}, nil
}

// decodeBody reads and decodes the request body. JSON content decodes to a
// JSON value (empty body becomes an empty object); everything else is parsed
// as URL-encoded form data into a flat map.
func decodeBody(r *http.Request) (any, *Error) {
	if r.Body == nil {
		return map[string]any{}, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		return nil, &Error{Code: "bad_request", Message: "failed to read request body", Status: http.StatusBadRequest}
	}
	if len(raw) > MaxRequestBodySize {
		return nil, &Error{Code: "payload_too_large", Message: "request body too large", Status: http.StatusRequestEntityTooLarge}
	}

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		if len(raw) == 0 {
			return map[string]any{}, nil
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil || v == nil {
			return map[string]any{}, nil
		}
		return v, nil
	}

	form := map[string]any{}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return form, nil
	}
	for k, vs := range values {
		if len(vs) > 0 {
			form[k] = vs[0]
		}
	}
	return form, nil
}

// setCORSHeaders re-asserts permissive cross-origin headers. Called
// unconditionally before any body is written, including on error paths.
func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", allowedMethods)
	h.Set("Access-Control-Allow-Headers", allowedHeaders)
}

// handlePreflight answers an OPTIONS request, echoing any client-requested
// headers merged with the minimum allowed set.
func (rt *Router) handlePreflight(w http.ResponseWriter, r *http.Request) {
	allowed := allowedHeaders
	if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
		allowed = requested + ", " + allowedHeaders
	}

	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", allowedMethods)
	h.Set("Access-Control-Allow-Headers", allowed)
	h.Set("Access-Control-Max-Age", "3600")
	w.WriteHeader(http.StatusOK)
}

// writeResponse serializes a handler response. The handler's status is never
// overridden; a zero status means 200.
func (rt *Router) writeResponse(w http.ResponseWriter, resp *Response) {
	setCORSHeaders(w.Header())
	if resp == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if resp.Body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
		rt.logger.Warn("failed to encode response body", "error", err)
	}
}

// writeError serializes a transport error envelope.
func (rt *Router) writeError(w http.ResponseWriter, e *Error) {
	setCORSHeaders(w.Header())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	if err := json.NewEncoder(w).Encode(e.envelope()); err != nil {
		rt.logger.Warn("failed to encode error envelope", "error", err)
	}
}
