package dispatch

import (
	"context"
	"testing"

	"github.com/antflydb/xmlsource/internal/payload"
)

func TestDispatcher_WindowsAcrossTemplates(t *testing.T) {
	doc, err := payload.ParseJSON([]byte(`{"movies":[{"t":"a"},{"t":"b"}],"shows":[{"t":"c"},{"t":"d"}]}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}

	templates := []Template{
		{Select: "movies"},
		{Select: "shows"},
	}

	var got []string
	matched, err := New().Dispatch(context.Background(), doc, templates, 1, 2, func(ti int, n payload.Node) error {
		v, _ := n.Eval("t", nil)
		got = append(got, v[0].Text())
		return nil
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if matched != 4 {
		t.Fatalf("matched = %d, want 4", matched)
	}
	want := []string{"b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDispatcher_ZeroCountIsUnbounded(t *testing.T) {
	doc, err := payload.ParseJSON([]byte(`{"items":[{"t":"a"},{"t":"b"},{"t":"c"}]}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}

	var n int
	_, err = New().Dispatch(context.Background(), doc, []Template{{Select: "items"}}, 0, 0, func(int, payload.Node) error {
		n++
		return nil
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if n != 3 {
		t.Fatalf("emitted %d, want 3", n)
	}
}
