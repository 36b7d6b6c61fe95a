package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("---\ntitle: Dal\n---\n"))
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	if a != Sum([]byte("---\ntitle: Dal\n---\n")) {
		t.Error("same input should give the same sum")
	}
	if a == Sum([]byte("---\ntitle: Dahl\n---\n")) {
		t.Error("different input should give a different sum")
	}
}

func TestParseETag(t *testing.T) {
	cases := map[string]string{
		`abc`:      "abc",
		`"abc"`:    "abc",
		`W/"abc"`:  "abc",
		`  "abc" `: "abc",
		``:         "",
	}
	for in, want := range cases {
		if got := ParseETag(in); got != want {
			t.Errorf("ParseETag(%q) = %q, want %q", in, got, want)
		}
	}
	if got := ParseETag(ETag("xyz")); got != "xyz" {
		t.Errorf("round trip = %q", got)
	}
}

func TestMatch(t *testing.T) {
	data := []byte("soup")
	sum := Sum(data)

	for _, tag := range []string{"", "*", sum, ETag(sum), "W/" + ETag(sum)} {
		if !Match(tag, data) {
			t.Errorf("Match(%q) = false, want true", tag)
		}
	}
	if Match(ETag(Sum([]byte("stew"))), data) {
		t.Error("stale tag should not match")
	}
}
