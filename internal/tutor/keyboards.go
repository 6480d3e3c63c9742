package tutor

import (
	"github.com/m3rciful/lunabot/core/locale"
	"github.com/m3rciful/lunabot/core/telegram/keyboard"
	"github.com/m3rciful/lunabot/core/telegram/state"
)

// Keyboard describes the reply keyboard attached to an outbound message.
// A zero Keyboard leaves whatever the user currently sees untouched.
type Keyboard struct {
	Rows   [][]string
	Remove bool
}

// labels holds the menu captions of the active catalog.
type labels struct {
	changeLevel string
	changeTopic string
	dictionary  string
	back        string
}

func loadLabels(cat *locale.Catalog) labels {
	return labels{
		changeLevel: cat.Text(locale.LabelChangeLevel),
		changeTopic: cat.Text(locale.LabelChangeTopic),
		dictionary:  cat.Text(locale.LabelDictionary),
		back:        cat.Text(locale.LabelBack),
	}
}

func levelKeyboard() Keyboard {
	tags := make([]string, len(state.Levels))
	for i, l := range state.Levels {
		tags[i] = string(l)
	}
	return Keyboard{Rows: keyboard.Chunk(tags, 2)}
}

func (l labels) mainMenu() Keyboard {
	return Keyboard{Rows: [][]string{{l.changeLevel, l.changeTopic, l.dictionary}}}
}

func (l labels) backOnly() Keyboard {
	return Keyboard{Rows: [][]string{{l.back}}}
}

func removeKeyboard() Keyboard {
	return Keyboard{Remove: true}
}
