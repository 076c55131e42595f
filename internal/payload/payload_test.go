package payload

import "testing"

func TestParseXML_EvalAll(t *testing.T) {
	doc, err := ParseXML([]byte(`<items><item id="1">A</item><item id="2">B</item></items>`))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}
	nodes, err := doc.EvalAll("//item", nil)
	if err != nil {
		t.Fatalf("EvalAll: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(nodes))
	}
	if nodes[0].Text() != "A" || nodes[1].Text() != "B" {
		t.Errorf("unexpected text: %q, %q", nodes[0].Text(), nodes[1].Text())
	}
}

func TestParseJSON_EvalAll(t *testing.T) {
	doc, err := ParseJSON([]byte(`{"results":[{"title":"A"},{"title":"B"}]}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	nodes, err := doc.EvalAll("results", nil)
	if err != nil {
		t.Fatalf("EvalAll: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(nodes))
	}
	title, err := nodes[0].Eval("title", nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(title) != 1 || title[0].Text() != "A" {
		t.Errorf("title = %+v, want A", title)
	}
}

func TestParseJSON_DollarRootSpecialCase(t *testing.T) {
	doc, err := ParseJSON([]byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	nodes, err := doc.EvalAll("$", nil)
	if err != nil {
		t.Fatalf("EvalAll: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("len(nodes) = %d, want 1 (root wrapped as one-element array)", len(nodes))
	}
}

func TestParseJSON_InvalidPayload(t *testing.T) {
	if _, err := ParseJSON([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
