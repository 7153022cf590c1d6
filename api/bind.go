package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ErrInvalidBody is returned for bodies that are not valid JSON or fail validation.
var ErrInvalidBody = errors.New("invalid request body")

const maxBodyBytes = 1 << 20

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

// requestValidator returns the shared validator with english messages and
// json field names.
func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		translator, _ = uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, translator)
		validate = v
	})
	return validate
}

// decodeJSON reads one JSON value into T and validates it. Unknown fields
// and trailing data are rejected.
func decodeJSON[T any](r *http.Request) (T, error) {
	var dst T
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dst); err != nil {
		if errors.Is(err, io.EOF) {
			return dst, fmt.Errorf("%w: empty body", ErrInvalidBody)
		}
		return dst, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if dec.More() {
		return dst, fmt.Errorf("%w: unexpected trailing data", ErrInvalidBody)
	}

	if err := requestValidator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return dst, fmt.Errorf("%w: %s", ErrInvalidBody, fe.Translate(translator))
		}
		return dst, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return dst, nil
}
