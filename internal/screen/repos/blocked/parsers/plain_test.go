package parsers

import (
	"bytes"
	"errors"
	"testing"

	"github.com/haukened/callscreen/internal/screen/common/log"
)

func TestParsePlainList_Basics(t *testing.T) {
	input := "\uFEFF+56912345678\n" + `
# spam callers
  +56999999999
+1 (900) 555-0100  # premium line

+56912345678
12345678#inline
`
	got, err := ParsePlainList(bytes.NewBufferString(input), "test", log.NewNoopLogger())
	if err != nil {
		t.Fatalf("ParsePlainList returned error: %v", err)
	}
	want := []string{"+56912345678", "+56999999999", "+1 (900) 555-0100", "12345678"}
	if len(got) != len(want) {
		t.Fatalf("got %d numbers %q, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("number[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParsePlainList_EmptyAndCommentsOnly(t *testing.T) {
	got, err := ParsePlainList(bytes.NewBufferString("# nothing\n\n   \n#more\n"), "test", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no numbers, got %q", got)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestParsePlainList_ReaderError(t *testing.T) {
	if _, err := ParsePlainList(errReader{}, "test", nil); err == nil {
		t.Fatal("expected error from failing reader")
	}
}
