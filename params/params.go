// Package params validates incoming client-event payloads against a Go
// struct's tags using go-playground/validator and its English
// translator. Event payloads arrive pre-parsed as JSON objects rather
// than url.Values form data, so decoding goes through encoding/json
// instead of a form decoder.
package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// Config holds a configured validator and its English translator.
type Config struct {
	validator  *validator.Validate
	translator ut.Translator
}

// NewConfig builds a Config with the len/lte/min translations registered.
func NewConfig() (*Config, error) {
	v := validator.New()
	locale := en.New()
	uni := ut.New(locale, locale)
	t, ok := uni.GetTranslator("en")
	if !ok {
		return nil, errors.New("params: could not get english translator")
	}

	if err := v.RegisterTranslation("len", t,
		func(ut.Translator) error { return nil },
		func(ut ut.Translator, fe validator.FieldError) string {
			n := fe.Param()
			if n == "1" {
				return "must be 1 character"
			}
			return fmt.Sprintf("must be %s characters", n)
		}); err != nil {
		return nil, err
	}

	if err := v.RegisterTranslation("lte", t,
		func(ut.Translator) error { return nil },
		func(ut ut.Translator, fe validator.FieldError) string {
			return fmt.Sprintf("must be at most %v", fe.Param())
		}); err != nil {
		return nil, err
	}

	if err := v.RegisterTranslation("min", t,
		func(ut.Translator) error { return nil },
		func(ut ut.Translator, fe validator.FieldError) string {
			n := fe.Param()
			if n == "1" {
				return "must be at least 1 character"
			}
			return fmt.Sprintf("must be at least %s characters", n)
		}); err != nil {
		return nil, err
	}

	return &Config{validator: v, translator: t}, nil
}

// Decode unmarshals a client event's payload into dst, which must be a
// pointer to a struct with json tags.
func (c *Config) Decode(payload map[string]any, dst any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("params: marshal payload: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("params: decode payload: %w", err)
	}
	return nil
}

// Validate runs struct-tag validation over dst, returning a map of field
// name to translated error message. A nil map means dst was valid.
func (c *Config) Validate(dst any) (map[string]error, error) {
	err := c.validator.Struct(dst)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	typeName := structTypeName(dst)
	errMap := make(map[string]error, len(verrs))
	for field, msg := range verrs.Translate(c.translator) {
		errMap[strings.TrimPrefix(field, typeName+".")] = errors.New(msg)
	}
	return errMap, nil
}

// Bind decodes payload into dst and validates it in one step, the shape a
// view.EventHandler reaches for on every event payload it wants typed
// and checked.
func (c *Config) Bind(payload map[string]any, dst any) (map[string]error, error) {
	if err := c.Decode(payload, dst); err != nil {
		return nil, err
	}
	return c.Validate(dst)
}

// structTypeName returns dst's bare struct name (no package qualifier),
// matching the unqualified "StructName.Field" keys validator.FieldError
// reports.
func structTypeName(dst any) string {
	t := reflect.TypeOf(dst)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
