package tutor

import (
	"strings"
	"testing"

	"github.com/m3rciful/lunabot/core/locale"
	"github.com/m3rciful/lunabot/core/telegram/state"
)

func TestBuildPersonaPrompt(t *testing.T) {
	p := BuildPersonaPrompt(state.Session{Level: state.LevelC1, Topic: "space travel"})
	for _, want := range []string{"You are Luna", "Speak ONLY in English. Adjust difficulty to C1. Topic: space travel.", "🌙✨💛"} {
		if !strings.Contains(p, want) {
			t.Fatalf("persona prompt missing %q: %s", want, p)
		}
	}
	if p != BuildPersonaPrompt(state.Session{Level: state.LevelC1, Topic: "space travel"}) {
		t.Fatal("persona prompt is not deterministic")
	}
}

func TestBuildCorrectionPrompt(t *testing.T) {
	p := BuildCorrectionPrompt(state.DefaultSession(), "I go to school yesterday")
	if !strings.Contains(p, "\n---\n") {
		t.Fatalf("separator line missing: %s", p)
	}
	if !strings.Contains(p, "سطح توضیحات: B1") {
		t.Fatalf("level context missing: %s", p)
	}
	if !strings.HasSuffix(p, "جمله کاربر:\nI go to school yesterday") {
		t.Fatalf("user text not appended verbatim: %s", p)
	}
}

func TestParseCorrection(t *testing.T) {
	cases := []struct {
		raw  string
		want Correction
	}{
		{"توضیح\n---\nI went to school yesterday.", Correction{"توضیح", "I went to school yesterday."}},
		{"  only explanation  ", Correction{"only explanation", ""}},
		{"a --- b --- c", Correction{"a --- b --- c", ""}},
		{"---", Correction{"", ""}},
	}
	for _, tc := range cases {
		if got := ParseCorrection(tc.raw); got != tc.want {
			t.Fatalf("ParseCorrection(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestRenderCorrection(t *testing.T) {
	cat, err := locale.New("fa")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	md, plain := RenderCorrection(cat, Correction{Explanation: "زمان فعل_گذشته", Corrected: "I went to school yesterday."})
	if !strings.Contains(md, "*توضیح (فارسی):*") || !strings.Contains(md, "`I went to school yesterday.`") {
		t.Fatalf("markdown = %s", md)
	}
	if !strings.Contains(md, `فعل\_گذشته`) {
		t.Fatalf("explanation not escaped: %s", md)
	}
	if strings.ContainsAny(plain, "*`") || !strings.Contains(plain, "فعل_گذشته") {
		t.Fatalf("plain = %s", plain)
	}

	md, _ = RenderCorrection(cat, Correction{Explanation: "no separator"})
	if strings.Contains(md, "`") {
		t.Fatalf("empty corrected rendered a code span: %s", md)
	}
}
