package telegram

import (
	"testing"

	"github.com/m3rciful/lunabot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryRegistersAndLooksUp(t *testing.T) {
	reg := NewRegistry()
	if !reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start", Aliases: []string{"begin"}}) {
		t.Fatal("valid command rejected")
	}
	if reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "again"}) {
		t.Fatal("duplicate command accepted")
	}
	if reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "help"}) {
		t.Fatal("command without slash accepted")
	}
	if reg.RegisterCommand("/debug", commands.Command{Handler: noop}) {
		t.Fatal("command without description accepted")
	}

	for _, name := range []string{"/start", "start", "/begin", "begin"} {
		key, _, ok := reg.LookupCommand(name)
		if !ok || key != "/start" {
			t.Fatalf("lookup %q = %q, %v", name, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand(""); ok {
		t.Fatal("empty lookup succeeded")
	}
}

func TestRegistryListHidesHidden(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"})
	reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "stats", Hidden: true})

	if got := reg.ListCommands(true); len(got) != 1 || got[0].Text != "/start" {
		t.Fatalf("visible commands = %+v", got)
	}
	if got := reg.ListCommands(false); len(got) != 2 || got[0].Text != "/start" || got[1].Text != "/stats" {
		t.Fatalf("all commands = %+v", got)
	}
}
