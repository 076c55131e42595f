// Package expand implements the one-pass %…% placeholder substitution
// engine: ExpandableString tracks whether a template is worth
// re-expanding, and Expander walks an ordered chain of token handlers
// resolving %key:…%, %param:…%, %buf:…%, %priv:…%, %conf:…%, and %str:…%
// placeholders against a Context.
package expand

import (
	"fmt"
	"strconv"
	"strings"
)

// State is an ExpandableString's lifecycle flag.
type State int

const (
	Unknown State = iota
	Expandable
	Unexpandable
)

// ExpandableString is immutable template text plus a lifecycle flag. Once
// an expansion's output equals its input, the string is marked
// Unexpandable and every subsequent call short-circuits to the original
// text.
type ExpandableString struct {
	template string
	state    State
}

// New creates an ExpandableString in the Unknown state.
func New(template string) *ExpandableString {
	return &ExpandableString{template: template, state: Unknown}
}

// String returns the raw template text.
func (e *ExpandableString) String() string {
	if e == nil {
		return ""
	}
	return e.template
}

// IsEmpty reports whether the template text is empty.
func (e *ExpandableString) IsEmpty() bool {
	return e == nil || e.template == ""
}

// Expand substitutes every recognized %…% token in the template against
// ctx, using the default handler chain. It is idempotent-cacheable: once a
// prior call observed no change, later calls skip the scan entirely.
func (e *ExpandableString) Expand(ctx *Context) string {
	if e == nil {
		return ""
	}
	if e.state == Unexpandable {
		return e.template
	}

	out := ExpandString(e.template, ctx)
	if out == e.template {
		e.state = Unexpandable
	} else {
		e.state = Expandable
	}
	return out
}

// handler resolves one token category, identified by its "prefix:" form
// (e.g. "key:", "param:"). name is the token text after the prefix.
type handler struct {
	prefix string
	resolve func(name string, ctx *Context) (string, bool)
}

var chain = []handler{
	{"key:", resolveKey},
	{"param:", resolveParam},
	{"buf:", resolveBuf},
	{"priv:", resolvePriv},
	{"conf:", resolveConf},
	{"str:", resolveStr},
}

// ExpandString scans s left-to-right for %…% tokens using the default
// handler chain. %% emits a literal %. A token matching no handler's
// prefix is left in place verbatim.
func ExpandString(s string, ctx *Context) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		start := strings.IndexByte(s[i:], '%')
		if start < 0 {
			b.WriteString(s[i:])
			break
		}
		start += i
		b.WriteString(s[i:start])

		end := strings.IndexByte(s[start+1:], '%')
		if end < 0 {
			// Unterminated token: emit the rest literally.
			b.WriteString(s[start:])
			break
		}
		end += start + 1

		token := s[start+1 : end]
		if token == "" {
			// %% -> literal %
			b.WriteByte('%')
			i = end + 1
			continue
		}

		if value, ok := dispatch(token, ctx); ok {
			b.WriteString(value)
		} else {
			b.WriteString(s[start : end+1])
		}
		i = end + 1
	}

	return b.String()
}

func dispatch(token string, ctx *Context) (string, bool) {
	for _, h := range chain {
		if name, ok := strings.CutPrefix(token, h.prefix); ok {
			return h.resolve(name, ctx)
		}
	}
	return "", false
}

func resolveKey(name string, ctx *Context) (string, bool) {
	if ctx == nil || ctx.Media == nil {
		return "", true
	}
	value, ok := ctx.Media.Key(name)
	if !ok {
		ctx.warnf("unknown metadata key %q in %%key:%s%%", name, name)
		return "", true
	}
	return coerce(value), true
}

func coerce(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func resolveParam(name string, ctx *Context) (string, bool) {
	if ctx == nil {
		return "", true
	}
	pageSize, pageNumber, pageOffset := Paginate(ctx.Skip, ctx.Count, ctx.MaxPageSize)
	switch name {
	case "search_text":
		return ctx.SearchText, true
	case "skip":
		return strconv.Itoa(ctx.Skip), true
	case "count":
		return strconv.Itoa(ctx.Count), true
	case "page_number":
		return strconv.Itoa(pageNumber), true
	case "page_size":
		return strconv.Itoa(pageSize), true
	case "page_offset":
		return strconv.Itoa(pageOffset), true
	default:
		ctx.warnf("unknown param %q in %%param:%s%%", name, name)
		return "", true
	}
}

func resolveBuf(name string, ctx *Context) (string, bool) {
	if ctx == nil || ctx.Buffers == nil {
		return "", true
	}
	return ctx.Buffers[name], true
}

func resolvePriv(name string, ctx *Context) (string, bool) {
	if ctx == nil || ctx.PrivateKeys == nil {
		return "", true
	}
	return ctx.PrivateKeys[ctx.SourceID+"::"+name], true
}

func resolveConf(name string, ctx *Context) (string, bool) {
	if ctx == nil || ctx.Config == nil {
		return "", true
	}
	return ctx.Config[name], true
}

func resolveStr(name string, ctx *Context) (string, bool) {
	if ctx == nil || ctx.Strings == nil {
		return "", true
	}
	value, _ := ctx.Strings.Lookup(name)
	return value, true
}
