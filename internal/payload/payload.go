// Package payload wraps a fetched-and-parsed result document (XML or
// JSON) and evaluates the XPath or JSONPath query/select expressions that
// a template dispatcher binds media templates against.
package payload

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/tidwall/gjson"
)

// Format identifies which parser produced a Document.
type Format int

const (
	XML Format = iota
	JSON
)

func (f Format) String() string {
	if f == JSON {
		return "json"
	}
	return "xml"
}

// Node is one matched element in a Document: either an *xmlquery.Node or a
// gjson.Result, depending on the owning Document's Format.
type Node struct {
	format Format
	xml    *xmlquery.Node
	json   gjson.Result
}

// Text returns the node's string value: an XML element/attribute/text
// node's text content, or a JSON scalar's string representation.
func (n Node) Text() string {
	if n.format == JSON {
		return n.json.String()
	}
	if n.xml == nil {
		return ""
	}
	return n.xml.InnerText()
}

// Eval evaluates pathExpr relative to this node's scope, letting a
// private-key binding query within the node it was extracted from.
func (n Node) Eval(pathExpr string, namespaces map[string]string) ([]Node, error) {
	if n.format == JSON {
		return evalJSONResult(n.json, pathExpr)
	}
	return evalXMLNode(n.xml, pathExpr, namespaces)
}

// Document is a parsed result payload.
type Document struct {
	format Format
	xmlDoc *xmlquery.Node
	jsonRaw string
}

// ParseXML parses raw bytes as an XML document.
func ParseXML(data []byte) (*Document, error) {
	doc, err := xmlquery.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parse xml payload: %w", err)
	}
	return &Document{format: XML, xmlDoc: doc}, nil
}

// ParseJSON parses raw bytes as a JSON document. Validity is checked
// eagerly so a malformed payload fails at fetch time, not at first query.
func ParseJSON(data []byte) (*Document, error) {
	s := string(data)
	if !gjson.Valid(s) {
		return nil, fmt.Errorf("parse json payload: invalid json")
	}
	return &Document{format: JSON, jsonRaw: s}, nil
}

// Format reports which parser produced this document.
func (d *Document) Format() Format {
	return d.format
}

// EvalAll evaluates a template's query/select path against the document
// root. The JSONPath special case — "$" alone denotes the whole root
// wrapped as a one-element array, not a tree dump — is
// handled here.
func (d *Document) EvalAll(pathExpr string, namespaces map[string]string) ([]Node, error) {
	if d.format == JSON {
		if strings.TrimSpace(pathExpr) == "$" {
			return []Node{{format: JSON, json: gjson.Parse(d.jsonRaw)}}, nil
		}
		return evalJSONResult(gjson.Parse(d.jsonRaw), pathExpr)
	}
	return evalXMLNode(d.xmlDoc, pathExpr, namespaces)
}

func evalJSONResult(root gjson.Result, pathExpr string) ([]Node, error) {
	result := root.Get(pathExpr)
	if !result.Exists() {
		return nil, nil
	}
	if result.IsArray() {
		items := result.Array()
		nodes := make([]Node, 0, len(items))
		for _, item := range items {
			nodes = append(nodes, Node{format: JSON, json: item})
		}
		return nodes, nil
	}
	return []Node{{format: JSON, json: result}}, nil
}

func evalXMLNode(node *xmlquery.Node, pathExpr string, namespaces map[string]string) ([]Node, error) {
	if node == nil {
		return nil, nil
	}

	if len(namespaces) == 0 {
		matches, err := xmlquery.QueryAll(node, pathExpr)
		if err != nil {
			return nil, fmt.Errorf("eval xpath %q: %w", pathExpr, err)
		}
		return wrapXML(matches), nil
	}

	expr, err := xpath.CompileWithNS(pathExpr, namespaces)
	if err != nil {
		return nil, fmt.Errorf("compile xpath %q: %w", pathExpr, err)
	}

	iter := expr.Select(xmlquery.CreateXPathNavigator(node))
	var matches []*xmlquery.Node
	for iter.MoveNext() {
		nav, ok := iter.Current().(*xmlquery.NodeNavigator)
		if !ok {
			continue
		}
		matches = append(matches, nav.Current())
	}
	return wrapXML(matches), nil
}

func wrapXML(matches []*xmlquery.Node) []Node {
	nodes := make([]Node, 0, len(matches))
	for _, m := range matches {
		nodes = append(nodes, Node{format: XML, xml: m})
	}
	return nodes
}
