package specdoc

import "encoding/xml"

// The raw encoding/xml structs mirror the on-disk source-definition
// document grammar directly; Parse converts them into the public,
// already-compiled-for-use types in specdoc.go.

type specXML struct {
	XMLName     xml.Name        `xml:"specification"`
	API         string          `xml:"api,attr"`
	Autosplit   int             `xml:"autosplit,attr"`
	UserAgent   string          `xml:"user-agent,attr"`
	ID          string          `xml:"id"`
	Name        string          `xml:"name"`
	Description string          `xml:"description"`
	Icon        string          `xml:"icon"`
	Strings     []stringXML     `xml:"strings>string"`
	Config      []configParamXML `xml:"config>param"`
	Script      string          `xml:"script"`
	Operations  []operationXML  `xml:"operation"`
}

type stringXML struct {
	ID     string `xml:"id,attr"`
	Locale string `xml:"locale,attr"`
	Text   string `xml:",chardata"`
}

type configParamXML struct {
	Name    string `xml:"name,attr"`
	Default string `xml:"default,attr"`
}

type operationXML struct {
	Type      string      `xml:"type,attr"`       // browse | search | resolve
	MediaType string      `xml:"media-type,attr"` // required input media type, empty matches any
	Require   *requireXML `xml:"require"`
	Results   []resultXML `xml:"result"`
	Provide   []mediaXML  `xml:"provide>media"`
}

type requireXML struct {
	Keys []keyRequireXML `xml:"key"`
}

type keyRequireXML struct {
	Name    string `xml:"name,attr"`
	Pattern string `xml:"pattern,attr"`
}

type resultXML struct {
	Ref    string  `xml:"ref,attr"`
	ID     string  `xml:"id,attr"`
	Cache  string  `xml:"cache,attr"` // seconds, empty means uncached
	Format string  `xml:"format,attr"` // xml | json
	Data   dataXML `xml:"data"`
}

type mediaXML struct {
	Select     string          `xml:"select,attr"`
	Namespaces []namespaceXML  `xml:"namespace"`
	Keys       []keyBindXML    `xml:"key"`
	Privs      []privBindXML   `xml:"priv"`
}

type namespaceXML struct {
	Prefix string `xml:"prefix,attr"`
	URI    string `xml:"uri,attr"`
}

// keyBindXML binds one metadata key. Its path is ordinarily the bare
// chardata content (an XPath/JSONPath select expression evaluated
// against the matched node); a nested <data> child instead compiles the
// full rest/regexp/replace/url FetchData grammar when a key needs more
// than a plain select. Force/Slow/Use mirror the original plugin's key
// grammar: a forced key must be fetched even when the host didn't ask for
// it, a slow key is reported separately from plain mandatory keys, and
// use="resolve" defers the key to a single nested resolve call instead of
// fetching it directly.
type keyBindXML struct {
	Name  string  `xml:"name,attr"`
	Type  string  `xml:"type,attr"` // string | int | float | datetime
	Path  string  `xml:",chardata"`
	Data  dataXML `xml:"data"`
	Force bool    `xml:"force,attr"`
	Slow  bool    `xml:"slow,attr"`
	Use   string  `xml:"use,attr"` // "resolve", or empty
}

type privBindXML struct {
	Name string  `xml:"name,attr"`
	Data dataXML `xml:"data"`
}

// dataXML is the single recursive FetchData grammar node: a "type"
// attribute selects the variant (raw | url | rest | replace | regexp),
// with variant-specific attributes and, for url/replace/regexp, a nested
// <data> child supplying the input. A regexp node's <sub> children are
// themselves type="regexp" nodes chained off its result.
type dataXML struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`

	// rest
	Endpoint     string     `xml:"endpoint,attr"`
	Method       string     `xml:"method,attr"`
	Referer      string     `xml:"referer,attr"`
	Params       []paramXML `xml:"param"`
	OAuthToken   string     `xml:"oauth-token,attr"`
	OAuthRefresh string     `xml:"oauth-refresh,attr"`
	OAuthType    string     `xml:"oauth-type,attr"`

	// replace / regexp
	Expression string `xml:"expression,attr"`
	Replacement string `xml:"replacement,attr"`
	Repeat     bool   `xml:"repeat,attr"`
	Output     string `xml:"output,attr"`
	OutputID   string `xml:"output-id,attr"`
	BufferRef  string `xml:"buffer,attr"`

	Children []dataXML `xml:"data"`
	Sub      []dataXML `xml:"sub"`
}

type paramXML struct {
	Name string `xml:"name,attr"`
	Text string `xml:",chardata"`
}
