package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// таблица транслитерации кириллицы.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "j", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	// украинские буквы
	'є': "ye", 'і': "i", 'ї': "yi", 'ґ': "g",
}

var (
	dashes    = regexp.MustCompile(`[-\s]+`)
	slugValid = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Slugify получает slug из заголовка: транслитерация кириллицы,
// удаление диакритики, замена пробелов на дефисы.
// Результат может быть пустым, если в title нет подходящих символов.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	for _, r := range s {
		if t, ok := translit[r]; ok {
			b.WriteString(t)
			continue
		}
		b.WriteRune(r)
	}

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, b.String())
	if err != nil {
		s = b.String()
	}

	b.Reset()
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	s = strings.TrimSpace(b.String())
	s = dashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if r := []rune(s); len(r) > maxSlugLen {
		s = strings.TrimRight(string(r[:maxSlugLen]), "-")
	}
	return s
}

// ValidSlug сообщает, что slug состоит только из латинских букв,
// цифр, дефисов и подчеркиваний.
func ValidSlug(slug string) bool {
	return slugValid.MatchString(slug)
}
