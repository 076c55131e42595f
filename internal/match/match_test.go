package match

import "testing"

type fakeKeys map[string]any

func (f fakeKeys) Key(name string) (any, bool) {
	v, ok := f[name]
	return v, ok
}

type fakeCandidate struct {
	name string
	reqs Requirements
}

func (c fakeCandidate) Requirements() Requirements { return c.reqs }

func mustCompile(t *testing.T, rs Requirements) Requirements {
	t.Helper()
	if err := rs.CompileAll(); err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	return rs
}

func TestMatcher_FirstMatchWins(t *testing.T) {
	byGenre := fakeCandidate{"by-genre", mustCompile(t, Requirements{{Key: "genre"}})}
	byID := fakeCandidate{"by-id", mustCompile(t, Requirements{{Key: "id"}})}
	m := New(byGenre, byID)

	c, i, ok := m.Match(fakeKeys{"id": "42"})
	if !ok || i != 1 || c.(fakeCandidate).name != "by-id" {
		t.Fatalf("got (%v, %d, %v), want (by-id, 1, true)", c, i, ok)
	}
}

func TestMatcher_PatternAnchored(t *testing.T) {
	reqs := mustCompile(t, Requirements{{Key: "type", Pattern: "movie"}})
	c := fakeCandidate{"movies", reqs}
	m := New(c)

	if _, _, ok := m.Match(fakeKeys{"type": "not-a-movie-really"}); ok {
		t.Fatal("expected anchored pattern to reject partial match")
	}
	if _, _, ok := m.Match(fakeKeys{"type": "movie"}); !ok {
		t.Fatal("expected exact match to succeed")
	}
}

func TestMatcher_NoneMatch(t *testing.T) {
	reqs := mustCompile(t, Requirements{{Key: "id"}})
	m := New(fakeCandidate{"by-id", reqs})
	if _, _, ok := m.Match(fakeKeys{}); ok {
		t.Fatal("expected no match when required key absent")
	}
}

func TestMatcher_MayResolveReportsMissingKeys(t *testing.T) {
	reqs := mustCompile(t, Requirements{{Key: "id"}, {Key: "title"}})
	m := New(fakeCandidate{"needs-both", reqs})

	missing, ok := m.MayResolve(0, fakeKeys{"id": "1"})
	if !ok {
		t.Fatal("expected valid index")
	}
	if len(missing) != 1 || missing[0] != "title" {
		t.Fatalf("missing = %v, want [title]", missing)
	}
}

type typedKeys struct {
	fakeKeys
	mediaType string
}

func (k typedKeys) MediaType() string { return k.mediaType }

type typedCandidate struct {
	fakeCandidate
	required string
}

func (c typedCandidate) RequiredType() string { return c.required }

func TestMatcher_RequiredTypeFiltersCandidates(t *testing.T) {
	videoOnly := typedCandidate{fakeCandidate{"video", mustCompile(t, Requirements{{Key: "id"}})}, "video"}
	anyType := fakeCandidate{"any", mustCompile(t, Requirements{{Key: "id"}})}
	m := New(videoOnly, anyType)

	c, _, ok := m.Match(typedKeys{fakeKeys{"id": "1"}, "audio"})
	if !ok || c.(fakeCandidate).name != "any" {
		t.Fatalf("got (%v, %v), want the type-agnostic candidate to win when input type is audio", c, ok)
	}

	c, _, ok = m.Match(typedKeys{fakeKeys{"id": "1"}, "video"})
	if !ok || c.(typedCandidate).name != "video" {
		t.Fatalf("got (%v, %v), want the video-required candidate to win when input type is video", c, ok)
	}
}

func TestMatcher_First(t *testing.T) {
	a := fakeCandidate{"a", nil}
	b := fakeCandidate{"b", nil}
	m := New(a, b)
	c, ok := m.First()
	if !ok || c.(fakeCandidate).name != "a" {
		t.Fatalf("First() = %v, want a", c)
	}
}
