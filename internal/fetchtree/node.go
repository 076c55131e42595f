// Package fetchtree implements the recursive FetchData tree and its
// evaluator, the Fetcher: a tagged variant (raw | url | rest | replace |
// regexp | script) whose evaluation yields a string payload, plus the
// reference-counted DataRef payload handle for sharing one fetched
// buffer across concurrent readers.
package fetchtree

import "github.com/antflydb/xmlsource/internal/expand"

// Kind tags which variant a Node holds.
type Kind int

const (
	Raw Kind = iota
	URL
	REST
	Replace
	Regexp
	Script
	NodeSelect
)

func (k Kind) String() string {
	switch k {
	case URL:
		return "url"
	case REST:
		return "rest"
	case Replace:
		return "replace"
	case Regexp:
		return "regexp"
	case Script:
		return "script"
	case NodeSelect:
		return "node-select"
	default:
		return "raw"
	}
}

// DumpSink optionally receives the (label, content) of every node
// evaluated, for diagnostic tracing of a FetchData tree. A nil sink does
// nothing.
type DumpSink func(label, content string)

// Node is a tagged FetchData variant. Exactly one of the variant-specific
// fields is populated, selected by Kind.
type Node struct {
	Kind Kind
	Dump DumpSink

	RawValue *expand.ExpandableString // Raw

	NodeSelectPath *expand.ExpandableString // NodeSelect: query/select path evaluated against expand.Context.Node

	URLInput *Node // URL

	ScriptInput *Node // Script: nested fetch yielding the script text to run

	RESTSpec *RESTSpec // REST

	ReplaceInput       *Node                     // Replace
	ReplaceExpression  *expand.ExpandableString  // Replace
	ReplaceReplacement *expand.ExpandableString  // Replace

	RegexpSub        []*Node                  // Regexp: each is itself Kind==Regexp; one without OutputID is evaluated and its result discarded
	RegexpBufferRef  string                   // Regexp: input is a named buffer lookup, mutually exclusive with RegexpInput
	RegexpInput      *Node                    // Regexp: input is a nested fetch, mutually exclusive with RegexpBufferRef
	RegexpExpression *expand.ExpandableString // Regexp, defaults to "(?ms)(.*)" when empty
	RegexpRepeat     bool                     // Regexp
	RegexpOutput     *expand.ExpandableString // Regexp, defaults to `\1` when nil
	RegexpOutputID   string                   // Regexp: id this sub-regexp's result is stored under
}

// RESTSpec describes a REST endpoint fetch node.
type RESTSpec struct {
	Endpoint string
	Method   string // GET or POST
	OAuth    *OAuthConfig
	Referer  *expand.ExpandableString
	Function *expand.ExpandableString
	Params   []RESTParam
}

// RESTParam is one (name, value) REST call parameter.
type RESTParam struct {
	Name  string
	Value *expand.ExpandableString
}

func (n *Node) dump(content string) {
	if n != nil && n.Dump != nil {
		n.Dump(n.Kind.String(), content)
	}
}
