package phrase

import (
	"testing"

	"contexto/internal/types"
)

func TestIsSystemPhrase(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"да", true},
		{"Да", true},
		{"Помощь", true},
		{"новая игра", true},
		{"давай новая игра", true},
		{"спасибо большое", true},
		{"аб", true},
		{"ёж", true},
		{"кот", false},
		{"решение", false},
		{"слово решение", false},
		// Substring matching is deliberately naive: "угадай" contains "да".
		{"угадай слово кот", true},
	}
	for _, tt := range tests {
		if got := IsSystemPhrase(tt.text); got != tt.want {
			t.Errorf("IsSystemPhrase(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestExtractWordFromPhrase(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"угадай слово кот", "кот", true},
		{"привет", "", false},
		{"", "", false},
		{"Проверь слово Дом", "дом", true},
		{"слово решение", "решение", true},
		{"я думаю машина", "машина", true},
		{"может быть стол", "стол", true},
		{"может стол", "стол", true},
		{"попробуй", "", false},
		{"проверь слово   ", "", false},
		{"моё слово   ответ  ", "ответ", true},
	}
	for _, tt := range tests {
		got, ok := ExtractWordFromPhrase(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExtractWordFromPhrase(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAnchorOrderMultiWordFirst(t *testing.T) {
	// A single-word anchor contained in a longer one must not match first.
	got, ok := ExtractWordFromPhrase("проверь слово дом")
	if !ok || got != "дом" {
		t.Errorf("got %q, %v; want дом", got, ok)
	}
	got, ok = ExtractWordFromPhrase("может быть стол")
	if !ok || got != "стол" {
		t.Errorf("got %q, %v; want стол", got, ok)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text   string
		want   types.Action
		wantOK bool
	}{
		{"новая игра", types.Action{Type: types.ActionNewGame}, true},
		{"Начать игру", types.Action{Type: types.ActionNewGame}, true},
		{"сдаюсь", types.Action{Type: types.ActionGiveUp}, true},
		{"подсказка", types.Action{Type: types.ActionGetHint}, true},
		{"помощь", types.Action{}, false},
		{"да", types.Action{}, false},
		{"слово решение", types.Action{Type: types.ActionGuessWord, Word: "решение"}, true},
		{"я думаю машина", types.Action{Type: types.ActionGuessWord, Word: "машина"}, true},
		{"Кот", types.Action{Type: types.ActionGuessWord, Word: "кот"}, true},
		{"какая сегодня погода", types.Action{}, false},
	}
	for _, tt := range tests {
		got, ok := Classify(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Classify(%q) = %+v, %v; want %+v, %v", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}
