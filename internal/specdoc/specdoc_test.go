package specdoc

import (
	"testing"
	"time"

	"github.com/antflydb/xmlsource/internal/fetchtree"
)

const sampleSpec = `<specification api="1" autosplit="20" user-agent="xmlsource/1.0">
  <id>example</id>
  <name>Example Source</name>
  <strings>
    <string id="greeting" locale="en">Hello</string>
    <string id="greeting" locale="fr">Bonjour</string>
  </strings>
  <config>
    <param name="endpoint" default="https://example.com/api"/>
  </config>
  <operation type="browse" media-type="video">
    <require>
      <key name="id" pattern="\d+"/>
    </require>
    <result id="main" cache="60" format="json">
      <data type="rest" endpoint="https://example.com/api" method="GET">
        <param>items/%key:id%</param>
        <param name="id">%key:id%</param>
      </data>
    </result>
    <provide>
      <media select="items">
        <key name="title" type="string">title</key>
        <key name="runtime" type="int" use="resolve">runtime</key>
        <key name="synopsis" type="string" force="true" slow="true">synopsis</key>
        <priv name="token">
          <data type="raw">%key:id%</data>
        </priv>
      </media>
    </provide>
  </operation>
  <operation type="search">
    <result ref="main"/>
    <provide>
      <media select="results">
        <key name="title" type="string">title</key>
      </media>
    </provide>
  </operation>
</specification>`

func TestParse(t *testing.T) {
	spec, err := Parse([]byte(sampleSpec), RuntimeOptions{Locale: "fr"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.ID != "example" || spec.Autosplit != 20 {
		t.Fatalf("spec = %+v", spec)
	}
	if len(spec.Operations) != 2 {
		t.Fatalf("len(Operations) = %d, want 2", len(spec.Operations))
	}

	greeting, ok := spec.Strings.Lookup("greeting")
	if !ok || greeting != "Bonjour" {
		t.Fatalf("Lookup(greeting) = (%q, %v), want (Bonjour, true)", greeting, ok)
	}

	browse := spec.Operations[0]
	if browse.Kind != Browse {
		t.Fatalf("Kind = %v, want Browse", browse.Kind)
	}
	if browse.MediaType != "video" || browse.RequiredType() != "video" {
		t.Fatalf("MediaType = %q, want video", browse.MediaType)
	}
	if len(browse.Reqs) != 1 || browse.Reqs[0].Key != "id" {
		t.Fatalf("Reqs = %+v", browse.Reqs)
	}
	if len(browse.Results) != 1 || browse.Results[0].Fetch.Kind != fetchtree.REST {
		t.Fatalf("Results = %+v", browse.Results)
	}
	if browse.Results[0].Fetch.RESTSpec.Function == nil {
		t.Fatalf("expected unnamed param to become the REST function path")
	}
	if len(browse.Templates) != 1 || browse.Templates[0].Select != "items" {
		t.Fatalf("Templates = %+v", browse.Templates)
	}
	if len(browse.Templates[0].Privs) != 1 {
		t.Fatalf("Privs = %+v", browse.Templates[0].Privs)
	}

	keys := browse.Templates[0].Keys
	if len(keys) != 3 {
		t.Fatalf("Keys = %+v", keys)
	}
	if keys[0].Fetch.Kind != fetchtree.NodeSelect {
		t.Fatalf("title key Fetch.Kind = %v, want NodeSelect", keys[0].Fetch.Kind)
	}
	if !keys[1].UseResolve {
		t.Fatalf("runtime key = %+v, want UseResolve", keys[1])
	}
	if !keys[2].Force || !keys[2].Slow {
		t.Fatalf("synopsis key = %+v, want Force and Slow", keys[2])
	}

	search := spec.Operations[1]
	if search.Kind != Search {
		t.Fatalf("Kind = %v, want Search", search.Kind)
	}
	if search.Results[0].ID != "main" || search.Results[0].Cache != 60*time.Second {
		t.Fatalf("expected search to reuse browse's \"main\" result via ref, got %+v", search.Results[0])
	}
	if search.Results[0].Fetch.Kind != fetchtree.REST {
		t.Fatalf("unexpected fetch tree reused via ref: %+v", search.Results[0].Fetch)
	}
}
