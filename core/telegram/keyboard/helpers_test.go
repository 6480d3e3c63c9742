package keyboard

import "testing"

func TestReplyButtonsKeepsRows(t *testing.T) {
	markup := ReplyButtons([]string{"A1", "A2"}, nil, []string{"B1"})
	if !markup.ResizeKeyboard {
		t.Fatal("expected resized keyboard")
	}
	if len(markup.ReplyKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.ReplyKeyboard))
	}
	if got := markup.ReplyKeyboard[0][1].Text; got != "A2" {
		t.Fatalf("second button = %q", got)
	}
	if got := markup.ReplyKeyboard[1][0].Text; got != "B1" {
		t.Fatalf("second row = %q", got)
	}
}

func TestRemoveKeyboard(t *testing.T) {
	if !RemoveKeyboard().RemoveKeyboard {
		t.Fatal("expected remove flag")
	}
}

func TestChunk(t *testing.T) {
	rows := Chunk([]string{"A1", "A2", "B1", "B2", "C1"}, 2)
	if len(rows) != 3 || len(rows[2]) != 1 || rows[2][0] != "C1" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if single := Chunk([]string{"x", "y"}, 0); len(single) != 2 {
		t.Fatalf("n<=1 should yield one per row: %v", single)
	}
}
