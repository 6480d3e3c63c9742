package locale

import (
	"strings"
	"testing"
)

var allIDs = []string{
	StartIntro, TopicAsk, PracticeStart, LevelChoose, LevelReprompt, LevelSet, TopicAskNew, TopicSet,
	DictionaryAsk, DictionaryMeaning, DictionaryFallback, BackDone, ChatNonEnglish, ChatNonText,
	ReplyFallback, CorrectionFallback, CorrectionBlock, CorrectionPlain, RateLimited, LabelChangeLevel, LabelChangeTopic,
	LabelDictionary, LabelBack, CommandStart,
}

func TestPersianCatalogIsDefault(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.Lang() != "fa" {
		t.Fatalf("lang = %s, want fa", c.Lang())
	}
	labels := map[string]string{
		LabelChangeLevel: "تغییر سطح",
		LabelChangeTopic: "تغییر موضوع",
		LabelDictionary:  "دیکشنری",
		LabelBack:        "بازگشت",
	}
	for id, want := range labels {
		if got := c.Text(id); got != want {
			t.Fatalf("%s = %q, want %q", id, got, want)
		}
	}
}

func TestEveryMessageExistsInEveryCatalog(t *testing.T) {
	for _, lang := range Supported {
		c, err := New(lang)
		if err != nil {
			t.Fatalf("new(%s): %v", lang, err)
		}
		for _, id := range allIDs {
			if got := c.Text(id); got == id || got == "" {
				t.Fatalf("%s: message %s missing", lang, id)
			}
		}
	}
}

func TestFormatInterpolates(t *testing.T) {
	c, err := New("fa")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got := c.Format(LevelSet, map[string]any{"Level": "B2"})
	if got != "سطح جدید تنظیم شد (B2). دوباره شروع کنیم 🌙✨💛" {
		t.Fatalf("level_set = %q", got)
	}
	meaning := c.Format(DictionaryMeaning, map[string]any{"Meaning": "ماه"})
	if meaning != "معنی فارسی:\nماه" {
		t.Fatalf("dictionary_meaning = %q", meaning)
	}
}

func TestEnglishCatalog(t *testing.T) {
	c, err := New("EN")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := c.Text(LabelBack); got != "Back" {
		t.Fatalf("label_back = %q", got)
	}
	if !strings.Contains(c.Text(StartIntro), "Luna") {
		t.Fatalf("intro missing persona name: %q", c.Text(StartIntro))
	}
}

func TestUnsupportedLanguage(t *testing.T) {
	if _, err := New("de"); err == nil {
		t.Fatal("expected error for unsupported language")
	}
}
