// пакет form описывает ошибки валидации полей формы
// и их представление в ответах API.
package form

import (
	"errors"
	"strconv"
	"unicode/utf8"
)

var (
	ErrRequired = errors.New("field is required")
	ErrTooLong  = errors.New("field value is too long")
	ErrInvalid  = errors.New("field value is invalid")
)

// RequiredMessage - сообщение для незаполненного обязательного поля.
const RequiredMessage = "Обязательное поле."

// Error - ошибка валидации конкретного поля формы.
// Message предназначено для показа пользователю,
// Err позволяет сравнивать ошибку через [errors.Is].
type Error struct {
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Required возвращает ошибку незаполненного поля field.
func Required(field string) *Error {
	return &Error{Field: field, Message: RequiredMessage, Err: ErrRequired}
}

// MaxLength проверяет, что длина value в символах не превышает n.
func MaxLength(field, value string, n int) *Error {
	if utf8.RuneCountInString(value) <= n {
		return nil
	}
	return &Error{
		Field:   field,
		Message: "Убедитесь, что это значение содержит не более " + strconv.Itoa(n) + " символов.",
		Err:     ErrTooLong,
	}
}

// Join объединяет ошибки полей в одну, пропуская nil.
// Возвращает nil, если ошибок нет.
func Join(errs ...*Error) error {
	var out []error
	for _, e := range errs {
		if e != nil {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return errors.Join(out...)
}

// Form - представление формы в ответе API:
// имя формы, значения полей и ошибки по полям.
type Form struct {
	Name   string              `json:"name"`
	Fields map[string]string   `json:"fields"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// New возвращает форму name с начальными значениями fields.
func New(name string, fields map[string]string) *Form {
	if fields == nil {
		fields = map[string]string{}
	}
	return &Form{Name: name, Fields: fields}
}

// Valid сообщает, что в форме нет ошибок.
func (f *Form) Valid() bool {
	return len(f.Errors) == 0
}

// AddError разбирает err и добавляет в форму все найденные ошибки полей.
// Возвращает false, если в err нет ни одной ошибки поля.
func (f *Form) AddError(err error) bool {
	found := false
	walk(err, func(e *Error) {
		if f.Errors == nil {
			f.Errors = make(map[string][]string)
		}
		f.Errors[e.Field] = append(f.Errors[e.Field], e.Message)
		found = true
	})
	return found
}

// Has сообщает, содержит ли err хотя бы одну ошибку поля.
func Has(err error) bool {
	found := false
	walk(err, func(*Error) { found = true })
	return found
}

func walk(err error, fn func(*Error)) {
	switch e := err.(type) {
	case nil:
		return
	case *Error:
		fn(e)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			walk(inner, fn)
		}
	default:
		var fe *Error
		if errors.As(err, &fe) {
			fn(fe)
		}
	}
}
