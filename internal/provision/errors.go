package provision

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError: ошибки ввода по полям, до каких-либо побочных эффектов.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// BatchError: пакет прервался на пире Index; пиры до него уже сохранены.
type BatchError struct {
	Index int
	Name  string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("peer %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// в ошибках: json-имена полей
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check прогоняет теги validate и добавляет extra-ошибки.
func check(v *validator.Validate, s any, extra map[string]string) error {
	fields := map[string]string{}
	if err := v.Struct(s); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return err
		}
		for _, fe := range ves {
			fields[fe.Field()] = message(fe)
		}
	}
	for k, msg := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = msg
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "ipv4":
		return "must be a valid IPv4 address"
	case "ipv4|hostname_rfc1123":
		return "must be an IPv4 address or a hostname"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}
