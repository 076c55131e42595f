package media

import "testing"

func TestConvertKey(t *testing.T) {
	if v, err := ConvertKey(TypeInt, "42"); err != nil || v.(int64) != 42 {
		t.Fatalf("int: got (%v, %v)", v, err)
	}
	if v, err := ConvertKey(TypeFloat, "3.5"); err != nil || v.(float64) != 3.5 {
		t.Fatalf("float: got (%v, %v)", v, err)
	}
	if _, err := ConvertKey(TypeDateTime, "2024-01-02T15:04:05Z"); err != nil {
		t.Fatalf("datetime: %v", err)
	}
	if v, err := ConvertKey(TypeString, "raw"); err != nil || v.(string) != "raw" {
		t.Fatalf("string: got (%v, %v)", v, err)
	}
	if _, err := ConvertKey(TypeInt, "not-a-number"); err == nil {
		t.Fatal("expected error for malformed int")
	}
}

func TestRecord_KeyLookup(t *testing.T) {
	r := New()
	r.Set("id", "42")
	v, ok := r.Key("id")
	if !ok || v != "42" {
		t.Fatalf("got (%v, %v)", v, ok)
	}
	if _, ok := r.Key("missing"); ok {
		t.Fatal("expected missing key to report false")
	}
}

func TestParsePrivateKeys(t *testing.T) {
	got, err := ParsePrivateKeys([]byte(`{"token":"abc","id":"42"}`))
	if err != nil {
		t.Fatalf("ParsePrivateKeys: %v", err)
	}
	if got["token"] != "abc" || got["id"] != "42" {
		t.Fatalf("got %v", got)
	}
}

func TestParsePrivateKeys_RejectsNonObjectRoot(t *testing.T) {
	if _, err := ParsePrivateKeys([]byte(`["not", "an", "object"]`)); err == nil {
		t.Fatal("expected error for non-object root")
	}
}

func TestParsePrivateKeys_RejectsNonStringValue(t *testing.T) {
	if _, err := ParsePrivateKeys([]byte(`{"count":42}`)); err == nil {
		t.Fatal("expected error for non-string value")
	}
}
