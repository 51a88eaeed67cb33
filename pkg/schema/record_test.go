package schema

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampSortsLexicographically(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	earlier := Timestamp(base)
	later := Timestamp(base.Add(time.Nanosecond))

	if len(earlier) != len(later) {
		t.Fatalf("timestamps differ in width: %q vs %q", earlier, later)
	}
	if !(earlier < later) {
		t.Fatalf("expected %q < %q", earlier, later)
	}
	if earlier != "2024-05-01T08:00:00.000000000Z" {
		t.Errorf("expected UTC rendering, got %q", earlier)
	}
}

func TestRecordID(t *testing.T) {
	cases := map[string]Record{
		"abc": {"id": "abc"},
		"42":  {"id": 42.0},
		"7":   {"id": json.Number("7")},
		"":    {},
	}
	for want, rec := range cases {
		if got := rec.ID(); got != want {
			t.Errorf("ID() = %q, want %q", got, want)
		}
	}
}

func TestMergeLeavesReceiver(t *testing.T) {
	orig := Record{"name": "Mug", "price": 500.0}
	merged := orig.Merge(Record{"price": 450.0})

	if merged["price"] != 450.0 || merged["name"] != "Mug" {
		t.Fatalf("unexpected merge result: %v", merged)
	}
	if orig["price"] != 500.0 {
		t.Fatalf("receiver modified: %v", orig)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Record{"items": []any{map[string]any{"sku": "a"}}}
	c := orig.Clone()
	c["items"].([]any)[0].(map[string]any)["sku"] = "b"

	if orig["items"].([]any)[0].(map[string]any)["sku"] != "a" {
		t.Fatal("clone shares nested state with the original")
	}
	if Record(nil).Clone() != nil {
		t.Fatal("clone of nil should be nil")
	}
}

func TestWithout(t *testing.T) {
	rec := Record{"id": "1", "createdAt": "x", "name": "n"}
	out := rec.Without(FieldID, FieldCreatedAt)
	if len(out) != 1 || out["name"] != "n" {
		t.Fatalf("unexpected result: %v", out)
	}
	if len(rec) != 3 {
		t.Fatal("receiver modified")
	}
}

func TestEncodeDecode(t *testing.T) {
	type item struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	rec, err := Encode(item{Name: "Mug", Price: 5})
	if err != nil {
		t.Fatal(err)
	}
	rec["id"] = "1"

	back, err := Decode[item](rec)
	if err != nil {
		t.Fatal(err)
	}
	if back != (item{Name: "Mug", Price: 5}) {
		t.Errorf("got %+v", back)
	}
}

func TestNormalizeEmail(t *testing.T) {
	// A decomposed "e" plus combining acute composes to one rune.
	if got := NormalizeEmail("  Rene\u0301@Example.COM "); got != "ren\u00e9@example.com" {
		t.Errorf("got %q", got)
	}
}
