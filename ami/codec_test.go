package ami

import (
	"errors"
	"strings"
	"testing"
)

func exampleTxRoot() *Root {
	p := NewTree()
	p.Set("tx_tap_units", 27)
	p.Set("tx_tap_np1", 4)
	p.Set("tx_tap_nm1", 8)
	p.Set("tx_tap_nm2", 3)
	return &Root{Name: "example_tx", Params: p}
}

func TestEncodeExampleTx(t *testing.T) {
	got, err := Encode(exampleTxRoot())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "(example_tx (tx_tap_units 27) (tx_tap_np1 4) (tx_tap_nm1 8) (tx_tap_nm2 3))"
	if got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}

func TestRoundTripPreservesTree(t *testing.T) {
	sub := NewTree()
	sub.Set("Mode", "Repeater")
	sub.Set("Gain", 0.75)
	p := NewTree()
	p.Set("tx_tap_units", 27)
	p.Set("dcd_dj", -0.125)
	p.Set("label", "tap_sweep_a")
	p.Set("Reserved_Parameters", sub)
	p.Set("empty_branch", NewTree())
	root := &Root{Name: "example_tx", Params: p}

	text, err := Encode(root)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode(%q): %v", text, err)
	}
	if !back.Equal(root) {
		t.Fatalf("round trip mismatch:\n in: %v\nout: %v", text, back)
	}
}

func TestRoundTripKeepsIntegralFloatsAsFloats(t *testing.T) {
	p := NewTree()
	p.Set("rx_cdr_bandwidth", 2.0)
	root := &Root{Name: "example_rx", Params: p}

	text, err := Encode(root)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v, ok := back.Params.Get("rx_cdr_bandwidth")
	if !ok {
		t.Fatalf("rx_cdr_bandwidth missing after round trip")
	}
	if f, isFloat := v.(float64); !isFloat || f != 2.0 {
		t.Fatalf("rx_cdr_bandwidth = %v (%T), want float64 2.0", v, v)
	}
}

func TestEncodeRejectsDelimiterStrings(t *testing.T) {
	for _, bad := range []string{"a b", "x(y", "z)", "tab\there", ""} {
		p := NewTree()
		p.Set("note", bad)
		_, err := Encode(&Root{Name: "m", Params: p})
		if !errors.Is(err, ErrEncode) {
			t.Fatalf("Encode with leaf %q: err = %v, want ErrEncode", bad, err)
		}
	}
}

func TestEncodeRejectsBadNames(t *testing.T) {
	p := NewTree()
	p.Set("ok", 1)
	for _, bad := range []string{"", "two words", "par(en"} {
		_, err := Encode(&Root{Name: bad, Params: p})
		if !errors.Is(err, ErrEncode) {
			t.Fatalf("Encode with root %q: err = %v, want ErrEncode", bad, err)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"   \n\t",
		"(",
		"(name",
		"(name (a 1)",
		"(name (a 1)))",
		"name 1)",
		"(name 1 2)",
		"((x) 1)",
		"(name (a 1) junk)",
		"(root 5)",
		"(name (a 1)(a 2))",
		"(a 1) (b 2)",
	}
	for _, text := range cases {
		r, err := Decode(text)
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("Decode(%q): err = %v, want ErrDecode", text, err)
		}
		if r != nil {
			t.Fatalf("Decode(%q) returned partial tree %v", text, r)
		}
	}
}

func TestDecodeLeafTyping(t *testing.T) {
	text := "(m (count 42) (scale -1.5e-3) (mode Clock_Times))"
	r, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v, _ := r.Params.Get("count"); v != 42 {
		t.Fatalf("count = %v (%T), want int 42", v, v)
	}
	if v, _ := r.Params.Get("scale"); v != -1.5e-3 {
		t.Fatalf("scale = %v (%T), want float64 -0.0015", v, v)
	}
	if v, _ := r.Params.Get("mode"); v != "Clock_Times" {
		t.Fatalf("mode = %v (%T), want string", v, v)
	}
}

func TestDecodeIgnoresInsignificantWhitespace(t *testing.T) {
	text := "  ( example_tx\n\t( tx_tap_units   27 )\r\n ( tx_tap_np1 4 )\t(tx_tap_nm1 8) (tx_tap_nm2 3) ) "
	r, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !r.Equal(exampleTxRoot()) {
		t.Fatalf("whitespace-heavy decode mismatch: %#v", r)
	}
}

func TestDecodeNestedReservedParameters(t *testing.T) {
	text := strings.Join([]string{
		"(example_rx",
		" (Reserved_Parameters",
		"  (Init_Returns_Impulse (Usage Info) (Type Boolean) (Value True))",
		"  (Ignore_Bits (Usage Info) (Type Integer) (Value 10)))",
		" (Model_Specific (ctle_mode 1)))",
	}, "\n")
	r, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Name != "example_rx" {
		t.Fatalf("root = %q, want example_rx", r.Name)
	}
	rp, ok := r.Params.Get("Reserved_Parameters")
	if !ok {
		t.Fatalf("Reserved_Parameters missing")
	}
	ignoreBits, ok := rp.(*Tree).Get("Ignore_Bits")
	if !ok {
		t.Fatalf("Ignore_Bits missing")
	}
	if v, _ := ignoreBits.(*Tree).Get("Value"); v != 10 {
		t.Fatalf("Ignore_Bits Value = %v, want 10", v)
	}
}
