package domain

import (
	"errors"
	"strings"
)

// ErrBannedWord - комментарий содержит запрещенное слово.
var ErrBannedWord = errors.New("comment contains a banned word")

// Warning - сообщение формы комментария с запрещенным словом.
const Warning = "Не ругайтесь!"

// BadWords - запрещенные слова.
var BadWords = [...]string{"редиска", "негодяй"}

// Banned проверяет содержит ли текст запрещенные слова.
// Регистр учитывается, слово может быть частью другого слова.
func Banned(text string) bool {
	for i := range BadWords {
		if strings.Contains(text, BadWords[i]) {
			return true
		}
	}
	return false
}
