package executor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/recalcitrant/querylib/internal/ast"
	"github.com/recalcitrant/querylib/internal/entity"
	"github.com/recalcitrant/querylib/internal/resultset"
	"github.com/recalcitrant/querylib/internal/sparql/generator"
)

// sharedTransport is the pooled connection pool every HTTPExecutor
// constructed by NewHTTP shares, per spec.md §5 "The HTTP executor owns a
// connection pool (keep-alive ~1 minute idle, ~5 minute max)" — grounded
// on go-stardog's http.Client construction, generalized with an explicit
// idle-connection bound instead of relying on http.DefaultTransport. The
// 5-minute figure is sharedClient's per-request Timeout; connections carry
// no maximum lifetime.
var sharedTransport = &http.Transport{
	MaxIdleConnsPerHost: 16,
	IdleConnTimeout:     1 * time.Minute,
}

var sharedClient = &http.Client{
	Transport: sharedTransport,
	Timeout:   5 * time.Minute,
}

// HTTPExecutor evaluates queries against a remote SPARQL 1.1 HTTP
// endpoint (spec.md §4.8, §6.4).
type HTTPExecutor struct {
	QueryEndpoint  string
	UpdateEndpoint string
	Credentials    *entity.Credentials
	client         *http.Client
}

// NewHTTP builds an HTTPExecutor sharing the package's pooled client.
func NewHTTP(queryEndpoint, updateEndpoint string, creds *entity.Credentials) *HTTPExecutor {
	return &HTTPExecutor{
		QueryEndpoint:  queryEndpoint,
		UpdateEndpoint: updateEndpoint,
		Credentials:    creds,
		client:         sharedClient,
	}
}

func (h *HTTPExecutor) SelectParsed(ctx context.Context, q *ast.Query, opts Options) (resultset.ResultSet, error) {
	accept := opts.Accept
	if accept == "" {
		accept = MediaSPARQLResultsJSON
	}
	body, err := h.queryGet(ctx, q, accept, opts)
	if err != nil {
		return resultset.ResultSet{}, err
	}
	if !strings.Contains(accept, "json") {
		return resultset.ResultSet{}, negotiationFailedError("SELECT requires a JSON accept type to parse a ResultSet")
	}
	var rs resultset.ResultSet
	if err := json.Unmarshal(body, &rs); err != nil {
		return resultset.ResultSet{}, protocolError("could not parse SPARQL-JSON response: " + err.Error())
	}
	return rs, nil
}

func (h *HTTPExecutor) ConstructParsed(ctx context.Context, q *ast.Query, opts Options) (string, error) {
	accept := opts.Accept
	if accept == "" {
		accept = MediaNQuads
	}
	body, err := h.queryGet(ctx, q, accept, opts)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (h *HTTPExecutor) Ask(ctx context.Context, q *ast.Query, opts Options) (bool, error) {
	accept := opts.Accept
	if accept == "" {
		accept = MediaSPARQLResultsJSON
	}
	body, err := h.queryGet(ctx, q, accept, opts)
	if err != nil {
		return false, err
	}
	if strings.Contains(accept, "json") {
		var rs resultset.ResultSet
		if err := json.Unmarshal(body, &rs); err != nil {
			return false, protocolError("could not parse ASK response: " + err.Error())
		}
		if rs.Boolean == nil {
			return false, protocolError("ASK response carried no boolean field")
		}
		return *rs.Boolean, nil
	}
	trimmed := strings.TrimSpace(string(body))
	switch strings.ToLower(trimmed) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, protocolError("ASK response was not a recognizable boolean: " + snippet(trimmed, 64))
	}
}

func (h *HTTPExecutor) Update(ctx context.Context, q *ast.Query) error {
	text, err := generator.Generate(q)
	if err != nil {
		return err
	}

	ctx, cancel := withDeadline(ctx, Options{})
	defer cancel()

	form := url.Values{"update": {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.UpdateEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return protocolError(err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.applyAuth(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return h.classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return httpStatusError(resp.StatusCode, string(b))
	}
	return nil
}

// queryGet issues the GET form of §6.4's query surface: "GET
// endpoint?query=<encoded>" with the caller-negotiated Accept header and
// HTTP Basic auth when configured.
func (h *HTTPExecutor) queryGet(ctx context.Context, q *ast.Query, accept string, opts Options) ([]byte, error) {
	text, err := generator.Generate(q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withDeadline(ctx, opts)
	defer cancel()

	u, err := url.Parse(h.QueryEndpoint)
	if err != nil {
		return nil, protocolError(err.Error())
	}
	qv := u.Query()
	qv.Set("query", text)
	u.RawQuery = qv.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, protocolError(err.Error())
	}
	req.Header.Set("Accept", accept)
	h.applyAuth(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, h.classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpStatusError(resp.StatusCode, string(body))
	}
	return body, nil
}

func (h *HTTPExecutor) applyAuth(req *http.Request) {
	if h.Credentials != nil && h.Credentials.Username != "" {
		req.SetBasicAuth(h.Credentials.Username, h.Credentials.Password)
	}
}

func (h *HTTPExecutor) classifyTransportError(err error) error {
	if errIsDeadlineExceeded(err) {
		return timeoutError(err.Error())
	}
	return BackendError{Kind: "Transport", Message: err.Error()}
}

func errIsDeadlineExceeded(err error) bool {
	return strings.Contains(err.Error(), "context deadline exceeded") ||
		strings.Contains(err.Error(), "Client.Timeout")
}
