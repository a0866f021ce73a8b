package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// knownCode реализуют закрытые перечисления с таблицей кодов.
type knownCode interface {
	Valid() bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// notblank: строка не пустая после обрезки пробелов.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// known: значение входит в таблицу кодов перечисления.
	_ = v.RegisterValidation("known", func(fl validator.FieldLevel) bool {
		code, ok := fl.Field().Interface().(knownCode)
		return ok && code.Valid()
	})
	return v
}

// validateStruct прогоняет теги validate и собирает имена невалидных полей.
// extra добавляется к результату для проверок, которые не выражаются тегами.
func validateStruct(s any, extra ...string) error {
	fields := make([]string, 0, len(extra))
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ValidationError{Reason: err.Error()}
		}
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
	}
	fields = append(fields, extra...)
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
