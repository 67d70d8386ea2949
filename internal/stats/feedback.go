package stats

import "contexto/internal/types"

// Band is the hot/cold label for a single guess.
type Band string

const (
	BandVeryClose Band = "very close"
	BandWarmer    Band = "warmer"
	BandColder    Band = "colder"
	BandVeryFar   Band = "very far"
)

// BandFor maps one rank to its band using the same bounds as the tiers.
func BandFor(rank int, t Thresholds) Band {
	switch {
	case rank <= t.VeryClose:
		return BandVeryClose
	case rank <= t.RightTrack:
		return BandWarmer
	case rank <= t.KeepThinking:
		return BandColder
	default:
		return BandVeryFar
	}
}

var bandMessages = map[Band]string{
	BandVeryClose: "Очень близко!",
	BandWarmer:    "Теплее!",
	BandColder:    "Холоднее",
	BandVeryFar:   "Очень далеко",
}

// Narration texts shared by the HTTP and voice channels.
const (
	MsgWin          = "Поздравляем! Вы угадали секретное слово!"
	MsgMissingWord  = "Не расслышал слово, повторите пожалуйста."
	MsgUnknownWord  = "Я не знаю такого слова, попробуйте другое."
	MsgGuessFailed  = "Произошла ошибка при проверке слова"
	MsgGiveUpFailed = "Не удалось завершить игру, попробуйте ещё раз."
	MsgNewGame      = "Новая игра началась! Назовите любое слово."
	MsgNewGameError = "Ошибка при создании новой игры"
	MsgNoHint       = "Подсказок пока нет."
	MsgGameOver     = "Игра уже окончена. Скажите 'новая игра', чтобы начать заново."
	MsgNoSession    = "Игра не найдена. Скажите 'новая игра', чтобы начать."
)

// GuessFeedback is the narration event for a ranked guess.
func GuessFeedback(rank int, t Thresholds) types.Feedback {
	if rank == 1 {
		return types.Feedback{Kind: types.FeedbackSuccess, Text: MsgWin}
	}
	return types.Feedback{Kind: types.FeedbackInfo, Text: bandMessages[BandFor(rank, t)]}
}

// GiveUpFeedback reveals the target.
func GiveUpFeedback(target string) types.Feedback {
	return types.Feedback{Kind: types.FeedbackInfo, Text: "Загаданное слово: " + target}
}

// HintFeedback narrates a hint, or says there is none.
func HintFeedback(h types.Hint) types.Feedback {
	if h.Empty() {
		return types.Feedback{Kind: types.FeedbackInfo, Text: MsgNoHint}
	}
	return types.Feedback{Kind: types.FeedbackInfo, Text: "Подсказка: попробуйте слово '" + h.Word + "'"}
}
