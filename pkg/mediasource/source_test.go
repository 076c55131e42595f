package mediasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/antflydb/xmlsource/internal/specdoc"
)

type staticKeys map[string]any

func (k staticKeys) Key(name string) (any, bool) {
	v, ok := k[name]
	return v, ok
}

func newTestSpec(t *testing.T, srvURL string) *specdoc.Specification {
	t.Helper()
	doc := `<specification api="1">
  <id>test-source</id>
  <name>Test Source</name>
  <operation type="browse">
    <require>
      <key name="genre"/>
    </require>
    <result id="browse-result" format="json">
      <data type="rest" endpoint="` + srvURL + `/browse" method="GET">
        <param name="genre">%key:genre%</param>
      </data>
    </result>
    <provide>
      <media select="items">
        <key name="title" type="string">title</key>
      </media>
    </provide>
  </operation>
  <operation type="search">
    <result format="json">
      <data type="rest" endpoint="` + srvURL + `/search" method="GET">
        <param name="q">%param:search_text%</param>
      </data>
    </result>
    <provide>
      <media select="items">
        <key name="title" type="string">title</key>
      </media>
    </provide>
  </operation>
  <operation type="resolve">
    <require>
      <key name="id"/>
    </require>
    <result format="json">
      <data type="rest" endpoint="` + srvURL + `/resolve" method="GET">
        <param name="id">%key:id%</param>
      </data>
    </result>
    <provide>
      <media select="$">
        <key name="title" type="string">title</key>
      </media>
    </provide>
  </operation>
</specification>`

	spec, err := specdoc.Parse([]byte(doc), specdoc.RuntimeOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return spec
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/browse", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"title":"Movie A"},{"title":"Movie B"}]}`))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"title":"Found It"}]}`))
	})
	mux.HandleFunc("/resolve", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"Resolved Item"}`))
	})
	return httptest.NewServer(mux)
}

func TestSource_Browse(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	spec := newTestSpec(t, srv.URL)

	src, err := New(Config{Spec: spec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	records, err := src.Browse(context.Background(), "", staticKeys{"genre": "comedy"}, 0, 0)
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	title, _ := records[0].Key("title")
	if title != "Movie A" {
		t.Fatalf("title = %v, want Movie A", title)
	}
}

func TestSource_Browse_NoMatch(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	spec := newTestSpec(t, srv.URL)

	src, err := New(Config{Spec: spec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := src.Browse(context.Background(), "", staticKeys{}, 0, 0); err == nil {
		t.Fatal("expected error when no requirement key present")
	}
}

func TestSource_Search(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	spec := newTestSpec(t, srv.URL)

	src, err := New(Config{Spec: spec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	records, err := src.Search(context.Background(), "", "anything", 0, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
}

func TestSource_Resolve(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	spec := newTestSpec(t, srv.URL)

	src, err := New(Config{Spec: spec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	record, err := src.Resolve(context.Background(), "", staticKeys{"id": "42"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	title, _ := record.Key("title")
	if title != "Resolved Item" {
		t.Fatalf("title = %v, want Resolved Item", title)
	}
}

func TestSource_MayResolve(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	spec := newTestSpec(t, srv.URL)

	src, err := New(Config{Spec: spec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	missing, ok := src.MayResolve(staticKeys{})
	if ok {
		t.Fatal("expected resolvable=false with no keys")
	}
	if len(missing) != 1 || missing[0] != "id" {
		t.Fatalf("missing = %v, want [id]", missing)
	}
}

func TestSource_CachedResultReusesParsedDocument(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/browse", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"items":[{"title":"Movie A"},{"title":"Movie B"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	doc := `<specification api="1">
  <id>test-source</id>
  <name>Test Source</name>
  <operation type="browse">
    <require>
      <key name="genre"/>
    </require>
    <result id="shared" cache="60" format="json">
      <data type="rest" endpoint="` + srv.URL + `/browse" method="GET">
        <param name="genre">%key:genre%</param>
      </data>
    </result>
    <provide>
      <media select="items">
        <key name="title" type="string">title</key>
      </media>
    </provide>
  </operation>
</specification>`

	spec, err := specdoc.Parse([]byte(doc), specdoc.RuntimeOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	src, err := New(Config{Spec: spec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 2; i++ {
		records, err := src.Browse(context.Background(), "", staticKeys{"genre": "comedy"}, 0, 0)
		if err != nil {
			t.Fatalf("Browse[%d]: %v", i, err)
		}
		if len(records) != 2 {
			t.Fatalf("Browse[%d]: len(records) = %d, want 2", i, len(records))
		}
		title, _ := records[0].Key("title")
		if title != "Movie A" {
			t.Fatalf("Browse[%d]: title = %v, want Movie A", i, title)
		}
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("server hit %d times, want 1 - a cache hit must reuse the parsed document, not re-fetch", hits)
	}
}

func TestSource_Cancel(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	spec := newTestSpec(t, srv.URL)

	src, err := New(Config{Spec: spec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if src.Cancel("never-started") {
		t.Fatal("expected Cancel on unknown operation id to return false")
	}
}
