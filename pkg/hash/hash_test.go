package hash

import "testing"

func TestDouble(t *testing.T) {
	got := ToHex(Double([]byte("hello")))
	want := "9595c9df90075148eb06860365df33584b75bff782a510c6cd4883a419833d50"
	if got != want {
		t.Errorf("Double(\"hello\") = %s, want %s", got, want)
	}
}

func TestFromHexRoundTrip(t *testing.T) {
	h := Double([]byte("round trip me"))
	s := ToHex(h)
	got, err := FromHex(s)
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if got != h {
		t.Errorf("round trip mismatch: got %x want %x", got, h)
	}
}

func TestFromHexRejectsWrongLength(t *testing.T) {
	if _, err := FromHex("abcd"); err == nil {
		t.Error("expected error for short hex string")
	}
}

func TestConcatDeterministic(t *testing.T) {
	a := Double([]byte("a"))
	b := Double([]byte("b"))
	if Concat(a, b) != Concat(a, b) {
		t.Error("Concat is not deterministic")
	}
	if Concat(a, b) == Concat(b, a) {
		t.Error("Concat should not be commutative")
	}
}
