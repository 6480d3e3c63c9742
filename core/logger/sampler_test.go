package logger

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestRatioSamplerCycle(t *testing.T) {
	s := newRatioSampler(2, 5)
	got := 0
	for i := 0; i < 20; i++ {
		if s.Allow() {
			got++
		}
	}
	if got != 8 {
		t.Fatalf("allowed %d of 20, want 8", got)
	}

	s.Set(0, 0)
	for i := 0; i < 3; i++ {
		if !s.Allow() {
			t.Fatal("disabled sampler must allow everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/50":  {1, 50},
		" 3/4 ": {3, 4},
		"20":    {1, 20},
		"off":   {0, 0},
		"all":   {1, 1},
		"x/2":   {0, 0},
		"-5":    {0, 0},
	}
	for raw, want := range cases {
		num, den := parseRatio(raw)
		if num != want[0] || den != want[1] {
			t.Fatalf("parseRatio(%q) = %d/%d, want %d/%d", raw, num, den, want[0], want[1])
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterFlushOrdersAfterWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{buf}, 16)
	for _, line := range []string{"a\n", "b\n", "c\n"} {
		if err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if buf.String() != "a\nb\nc\n" {
		t.Fatalf("buffer = %q", buf.String())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Write([]byte("late\n")); !errors.Is(err, errWriterClosed) {
		t.Fatalf("write after close = %v", err)
	}
}

func TestAsyncWriterReportsSinkError(t *testing.T) {
	w := newAsyncWriter([]io.Writer{failingWriter{}}, 16)
	_ = w.Write([]byte("x\n"))
	if err := w.Close(); err == nil {
		t.Fatal("sink error not reported")
	}
}
