package embedding

import "testing"

func TestSimpleTokenizer(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, mask := tok.Tokenize("a red car on the street", 77)
	if len(ids) != 77 || len(mask) != 77 {
		t.Fatalf("lengths: ids=%d mask=%d", len(ids), len(mask))
	}
	if ids[0] != clipStartToken {
		t.Errorf("ids[0] = %d, want start token", ids[0])
	}
	// 6 words, so the end token sits at position 7.
	if ids[7] != clipEndToken {
		t.Errorf("ids[7] = %d, want end token", ids[7])
	}
	for i := 0; i <= 7; i++ {
		if mask[i] != 1 {
			t.Errorf("mask[%d] = %d, want 1", i, mask[i])
		}
	}
	for i := 8; i < 77; i++ {
		if mask[i] != 0 || ids[i] != 0 {
			t.Fatalf("padding at %d: id=%d mask=%d", i, ids[i], mask[i])
		}
	}
}

func TestSimpleTokenizer_Deterministic(t *testing.T) {
	tok := &SimpleTokenizer{}
	a1, _ := tok.Tokenize("hello world", 16)
	a2, _ := tok.Tokenize("Hello WORLD", 16) // case-insensitive
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatalf("tokenization not deterministic at %d: %d vs %d", i, a1[i], a2[i])
		}
	}
}

func TestSimpleTokenizer_Truncates(t *testing.T) {
	tok := &SimpleTokenizer{}
	long := ""
	for i := 0; i < 100; i++ {
		long += "word "
	}
	ids, mask := tok.Tokenize(long, 8)
	if len(ids) != 8 {
		t.Fatalf("len=%d", len(ids))
	}
	if mask[7] != 0 && ids[7] != clipEndToken {
		t.Errorf("expected truncation before maxTokens, got id=%d", ids[7])
	}
}

func TestSimpleTokenizer_DefaultMaxTokens(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, _ := tok.Tokenize("x", 0)
	if len(ids) != 77 {
		t.Errorf("default context length = %d, want 77", len(ids))
	}
}
