package fetchtree

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/antflydb/xmlsource/internal/expand"
	"go.uber.org/zap"
)

// ScriptRunner executes the text a Script node's nested fetch produces
// and returns its output, or ok=false when the script yields nothing.
// pkg/mediasource's ScriptHook collaborator interface is adapted to this
// to keep fetchtree free of any host-framework import.
type ScriptRunner interface {
	RunScript(text string) (output string, ok bool)
}

// Fetcher recursively evaluates a FetchData Node into a string. Its zero
// value is not usable; build one with NewFetcher.
type Fetcher struct {
	HTTP      *http.Client
	Proxies   *ProxyPool
	UserAgent string
	Script    ScriptRunner
	Log       *zap.Logger
}

// NewFetcher builds a Fetcher. httpClient may be nil, in which case
// http.DefaultClient is used for non-proxied requests.
func NewFetcher(httpClient *http.Client, userAgent string, log *zap.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		HTTP:      httpClient,
		Proxies:   NewProxyPool(httpClient),
		UserAgent: userAgent,
		Log:       log,
	}
}

// Eval evaluates node against ectx. The returned ok is false when the
// node's evaluation legitimately yields nothing (a null result, not an
// error). err is non-nil only for genuine fetch or parse failures, or for
// ctx cancellation.
func (f *Fetcher) Eval(ctx context.Context, ectx *expand.Context, node *Node) (value string, ok bool, err error) {
	if node == nil {
		return "", false, nil
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	switch node.Kind {
	case URL:
		value, ok, err = f.evalURL(ctx, ectx, node)
	case REST:
		value, ok, err = f.evalREST(ctx, ectx, node)
	case Replace:
		value, ok, err = f.evalReplace(ctx, ectx, node)
	case Regexp:
		value, ok, err = f.evalRegexp(ctx, ectx, node)
	case Script:
		value, ok, err = f.evalScript(ctx, ectx, node)
	case NodeSelect:
		value, ok, err = f.evalNodeSelect(ctx, ectx, node)
	default:
		value, ok, err = node.RawValue.Expand(ectx), true, nil
	}
	if err == nil && ok {
		node.dump(value)
	}
	return value, ok, err
}

// evalNodeSelect evaluates a <key> binding's bare query/select text against
// the payload node currently in scope, the way a <priv> FetchData tree
// evaluates through the Fetcher instead of bypassing it.
func (f *Fetcher) evalNodeSelect(_ context.Context, ectx *expand.Context, node *Node) (string, bool, error) {
	if ectx.Node == nil {
		return "", false, nil
	}
	path := node.NodeSelectPath.Expand(ectx)
	if path == "" {
		return "", false, nil
	}
	return ectx.Node.SelectText(path)
}

func (f *Fetcher) evalURL(ctx context.Context, ectx *expand.Context, node *Node) (string, bool, error) {
	target, ok, err := f.Eval(ctx, ectx, node.URLInput)
	if err != nil {
		return "", false, fmt.Errorf("url: evaluate nested fetch: %w", err)
	}
	if !ok || target == "" {
		return "", false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", false, fmt.Errorf("url: build request for %q: %w", target, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	f.Log.Debug("fetching url", zap.String("url", target))
	resp, err := f.HTTP.Do(req)
	if err != nil {
		f.Log.Error("url fetch failed", zap.String("url", target), zap.Error(err))
		return "", false, fmt.Errorf("url: fetch %q: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("url: read body of %q: %w", target, err)
	}
	if resp.StatusCode >= 400 {
		f.Log.Error("url returned error status", zap.String("url", target), zap.Int("status", resp.StatusCode))
		return "", false, fmt.Errorf("url: %q returned status %d", target, resp.StatusCode)
	}
	return string(body), true, nil
}

func (f *Fetcher) evalScript(ctx context.Context, ectx *expand.Context, node *Node) (string, bool, error) {
	text, ok, err := f.Eval(ctx, ectx, node.ScriptInput)
	if err != nil {
		return "", false, fmt.Errorf("script: evaluate nested fetch: %w", err)
	}
	if !ok || text == "" {
		return "", false, nil
	}
	if f.Script == nil {
		return "", false, nil
	}
	f.Log.Debug("running script hook", zap.Int("input_len", len(text)))
	output, ok := f.Script.RunScript(text)
	if !ok {
		f.Log.Debug("script hook yielded nothing")
		return "", false, nil
	}
	return output, true, nil
}

func (f *Fetcher) evalREST(ctx context.Context, ectx *expand.Context, node *Node) (string, bool, error) {
	spec := node.RESTSpec
	if spec == nil || spec.Endpoint == "" {
		return "", false, nil
	}

	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}

	fn := spec.Function.Expand(ectx)
	if spec.Function != nil && !spec.Function.IsEmpty() && fn == "" {
		return "", false, nil
	}

	values := url.Values{}
	for _, p := range spec.Params {
		v := p.Value.Expand(ectx)
		if !p.Value.IsEmpty() && v == "" {
			return "", false, nil
		}
		values.Set(p.Name, v)
	}

	endpoint := strings.TrimRight(spec.Endpoint, "/")
	if fn != "" {
		endpoint += "/" + strings.TrimLeft(fn, "/")
	}

	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(values.Encode())
	} else if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return "", false, fmt.Errorf("rest: build request for %q: %w", endpoint, err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	if spec.Referer != nil {
		if referer := spec.Referer.Expand(ectx); referer != "" {
			req.Header.Set("Referer", referer)
		}
	}

	client := f.HTTP
	if f.Proxies != nil {
		client = f.Proxies.Client(ctx, spec.Endpoint, spec.OAuth)
	} else if spec.OAuth != nil {
		client = spec.OAuth.client(ctx)
	}

	f.Log.Debug("calling rest endpoint", zap.String("endpoint", endpoint), zap.String("method", method))
	resp, err := client.Do(req)
	if err != nil {
		f.Log.Error("rest call failed", zap.String("endpoint", endpoint), zap.Error(err))
		return "", false, fmt.Errorf("rest: call %q: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("rest: read response from %q: %w", endpoint, err)
	}
	if resp.StatusCode >= 400 {
		f.Log.Error("rest endpoint returned error status", zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode))
		return "", false, fmt.Errorf("rest: %q returned status %d", endpoint, resp.StatusCode)
	}
	return string(respBody), true, nil
}
