// Package validate wraps go-playground/validator with english messages keyed by config names
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	perr "dumpsift/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Service holds a validator and its translator
type Service struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *Service
)

// Get returns the validator singleton, initializing on first use
// Struct fields are reported by their `cfg` tag so messages name the env key
func Get() *Service {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("cfg")
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		_ = v.RegisterValidation("column", validColumn)
		registerColumn(v, trans)

		vSvc = &Service{Validator: v, Translator: trans}
	})
	return vSvc
}

// Struct validates s and maps failures to a Validation error naming the first bad field
// Every failed field is listed in the message
func Struct(s any) error {
	svc := Get()
	err := svc.Validator.Struct(s)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		return perr.Wrap(inv, perr.ErrorCodeUnknown, "validator internal error")
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return perr.Wrap(err, perr.ErrorCodeValidation, "invalid options")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(svc.Translator))
	}
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", strings.Join(msgs, "; ")), verrs[0].Field())
}

// validColumn accepts CSV column names: non-empty, no separators or line breaks
func validColumn(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.TrimSpace(s) != "" && !strings.ContainsAny(s, ",\r\n")
}

func registerColumn(v *validator.Validate, trans ut.Translator) {
	_ = v.RegisterTranslation("column", trans,
		func(ut ut.Translator) error {
			return ut.Add("column", "{0} must be a plain column name", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("column", fe.Field())
			return msg
		},
	)
}
