package bpe

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/graphtune/pkg/ai"
)

// byteEncoder maps every byte to its value, which makes lengths predictable.
type byteEncoder struct{}

func (byteEncoder) Encode(text string, _ []string, _ []string) []int {
	out := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		out[i] = int(text[i])
	}
	return out
}

const testPad = -1

func newTestTokenizer() *Tokenizer {
	return NewTokenizerWithEncoder(byteEncoder{}, testPad)
}

func TestTokenize_PadsShortTextToMaxLength(t *testing.T) {
	tok := newTestTokenizer()

	batch, err := tok.Tokenize(context.Background(), ai.TokenizeRequest{
		Text:       []string{"ab"},
		Padding:    ai.PaddingMaxLength,
		Truncation: true,
		MaxLength:  5,
	})
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	wantIDs := [][]int{{'a', 'b', testPad, testPad, testPad}}
	wantMask := [][]int{{1, 1, 0, 0, 0}}
	if !reflect.DeepEqual(batch[ai.FieldInputIDs], wantIDs) {
		t.Fatalf("input_ids = %v, want %v", batch[ai.FieldInputIDs], wantIDs)
	}
	if !reflect.DeepEqual(batch[ai.FieldAttentionMask], wantMask) {
		t.Fatalf("attention_mask = %v, want %v", batch[ai.FieldAttentionMask], wantMask)
	}
	if _, ok := batch[ai.FieldLabels]; ok {
		t.Fatal("labels should be absent without targets")
	}
}

func TestTokenize_TruncatesLongTextFromTheEnd(t *testing.T) {
	tok := newTestTokenizer()

	batch, err := tok.Tokenize(context.Background(), ai.TokenizeRequest{
		Text:       []string{"abcdefgh", "xy"},
		Padding:    ai.PaddingMaxLength,
		Truncation: true,
		MaxLength:  4,
	})
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	want := [][]int{{'a', 'b', 'c', 'd'}, {'x', 'y', testPad, testPad}}
	if !reflect.DeepEqual(batch[ai.FieldInputIDs], want) {
		t.Fatalf("input_ids = %v, want %v", batch[ai.FieldInputIDs], want)
	}
	for i, row := range batch[ai.FieldAttentionMask] {
		if len(row) != 4 {
			t.Fatalf("attention_mask[%d] has length %d, want 4", i, len(row))
		}
	}
}

func TestTokenize_NoTruncationKeepsLongSequences(t *testing.T) {
	tok := newTestTokenizer()

	batch, err := tok.Tokenize(context.Background(), ai.TokenizeRequest{
		Text:      []string{"abcdef"},
		Padding:   ai.PaddingMaxLength,
		MaxLength: 3,
	})
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if got := len(batch[ai.FieldInputIDs][0]); got != 6 {
		t.Fatalf("len(input_ids[0]) = %d, want 6", got)
	}
}

func TestTokenize_LongestAndNoPadding(t *testing.T) {
	tok := newTestTokenizer()

	longest, err := tok.Tokenize(context.Background(), ai.TokenizeRequest{
		Text:    []string{"a", "abc"},
		Padding: ai.PaddingLongest,
	})
	if err != nil {
		t.Fatalf("Tokenize(longest) error = %v", err)
	}
	if want := [][]int{{'a', testPad, testPad}, {'a', 'b', 'c'}}; !reflect.DeepEqual(longest[ai.FieldInputIDs], want) {
		t.Fatalf("longest input_ids = %v, want %v", longest[ai.FieldInputIDs], want)
	}

	none, err := tok.Tokenize(context.Background(), ai.TokenizeRequest{
		Text:    []string{"a", "abc"},
		Padding: ai.PaddingNone,
	})
	if err != nil {
		t.Fatalf("Tokenize(none) error = %v", err)
	}
	if want := [][]int{{'a'}, {'a', 'b', 'c'}}; !reflect.DeepEqual(none[ai.FieldInputIDs], want) {
		t.Fatalf("unpadded input_ids = %v, want %v", none[ai.FieldInputIDs], want)
	}
}

func TestTokenize_Targets(t *testing.T) {
	tok := newTestTokenizer()

	batch, err := tok.Tokenize(context.Background(), ai.TokenizeRequest{
		Text:       []string{"in"},
		TextTarget: []string{"output"},
		Padding:    ai.PaddingMaxLength,
		Truncation: true,
		MaxLength:  4,
	})
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}

	if want := [][]int{{'i', 'n', testPad, testPad}}; !reflect.DeepEqual(batch[ai.FieldInputIDs], want) {
		t.Fatalf("input_ids = %v, want %v", batch[ai.FieldInputIDs], want)
	}
	if want := [][]int{{'o', 'u', 't', 'p'}}; !reflect.DeepEqual(batch[ai.FieldLabels], want) {
		t.Fatalf("labels = %v, want %v", batch[ai.FieldLabels], want)
	}
}

func TestTokenize_InvalidRequests(t *testing.T) {
	tok := newTestTokenizer()

	tests := []struct {
		name string
		req  ai.TokenizeRequest
	}{
		{name: "negative max length", req: ai.TokenizeRequest{Text: []string{"a"}, MaxLength: -1}},
		{name: "max_length without length", req: ai.TokenizeRequest{Text: []string{"a"}, Padding: ai.PaddingMaxLength}},
		{name: "unknown padding", req: ai.TokenizeRequest{Text: []string{"a"}, Padding: "left", MaxLength: 2}},
		{name: "target length mismatch", req: ai.TokenizeRequest{Text: []string{"a", "b"}, TextTarget: []string{"c"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tok.Tokenize(context.Background(), tc.req); err == nil {
				t.Fatal("Tokenize() expected error")
			}
		})
	}
}

func TestTokenize_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestTokenizer().Tokenize(ctx, ai.TokenizeRequest{Text: []string{"a"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Tokenize() error = %v, want context.Canceled", err)
	}
}

func TestNewTokenizer_DefaultsPadToEndOfText(t *testing.T) {
	tests := []struct {
		name     string
		params   NewTokenizerParams
		wantPad  int
		wantName string
	}{
		{name: "default encoding", params: NewTokenizerParams{}, wantPad: 199999, wantName: DefaultEncoding},
		{name: "cl100k", params: NewTokenizerParams{Encoding: "cl100k_base"}, wantPad: 100257, wantName: "cl100k_base"},
		{name: "explicit pad", params: NewTokenizerParams{Encoding: "r50k_base", PadID: 7}, wantPad: 7, wantName: "r50k_base"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := NewTokenizer(tc.params)
			if err != nil {
				t.Fatalf("NewTokenizer() error = %v", err)
			}
			if tok.PadID() != tc.wantPad {
				t.Fatalf("PadID() = %d, want %d", tok.PadID(), tc.wantPad)
			}
			if tok.name != tc.wantName {
				t.Fatalf("name = %q, want %q", tok.name, tc.wantName)
			}
		})
	}
}

func TestNewTokenizer_UnknownEncoding(t *testing.T) {
	if _, err := NewTokenizer(NewTokenizerParams{Encoding: "gpt2_wordpiece"}); err == nil {
		t.Fatal("NewTokenizer() expected error for unknown encoding")
	}
}

func TestTokenizer_LoadsEncodingOnFirstUse(t *testing.T) {
	orig := getEncoding
	t.Cleanup(func() { getEncoding = orig })

	loads := 0
	getEncoding = func(name string) (Encoder, error) {
		loads++
		return byteEncoder{}, nil
	}

	tok, err := NewTokenizer(NewTokenizerParams{Encoding: "cl100k_base"})
	if err != nil {
		t.Fatalf("NewTokenizer() error = %v", err)
	}
	if loads != 0 {
		t.Fatalf("encoding loaded at construction")
	}

	for range 2 {
		ids, err := tok.Encode("hi")
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		if !reflect.DeepEqual(ids, []int{'h', 'i'}) {
			t.Fatalf("Encode() = %v", ids)
		}
	}
	if loads != 1 {
		t.Fatalf("expected 1 load, got %d", loads)
	}
}

func TestTokenizer_LoadErrorIsReturned(t *testing.T) {
	orig := getEncoding
	t.Cleanup(func() { getEncoding = orig })

	offline := errors.New("offline")
	getEncoding = func(name string) (Encoder, error) {
		return nil, offline
	}

	tok, err := NewTokenizer(NewTokenizerParams{})
	if err != nil {
		t.Fatalf("NewTokenizer() error = %v", err)
	}
	if _, err := tok.Encode("hi"); !errors.Is(err, offline) {
		t.Fatalf("Encode() error = %v, want offline", err)
	}
	_, err = tok.Tokenize(context.Background(), ai.TokenizeRequest{Text: []string{"hi"}})
	if !errors.Is(err, offline) {
		t.Fatalf("Tokenize() error = %v, want offline", err)
	}
}
