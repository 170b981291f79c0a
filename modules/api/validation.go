package api

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	domain "github.com/example/task-api/domain/task"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return domain.Status(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("task_priority", func(fl validator.FieldLevel) bool {
		return domain.Priority(fl.Field().String()).IsValid()
	})

	return v
}

// fieldErrors converts validator output into response details.
func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}

	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return details
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " should not be empty"
	case "min":
		if fe.Kind() == reflect.String {
			return field + " should not be empty"
		}
		return fmt.Sprintf("%s must not be less than %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be shorter than or equal to %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must not be greater than %s", field, fe.Param())
	case "task_status":
		return fmt.Sprintf("%s must be one of the following values: %s", field, joinValues(domain.Statuses))
	case "task_priority":
		return fmt.Sprintf("%s must be one of the following values: %s", field, joinValues(domain.Priorities))
	}
	return field + " is invalid"
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// decodeBody strictly decodes a JSON object body into dst.
// Fields outside allowed are rejected; null values are rejected unless listed in nullable.
// It returns the set of fields that were explicitly null.
func decodeBody(body []byte, dst any, allowed, nullable map[string]struct{}) (map[string]struct{}, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, invalidBody(FieldError{Field: "body", Message: "malformed JSON"})
		}
		return nil, invalidBody(FieldError{Field: "body", Message: "request body must be a JSON object"})
	}

	var details []FieldError
	nulls := make(map[string]struct{})
	for key, value := range raw {
		if _, ok := allowed[key]; !ok {
			details = append(details, FieldError{Field: key, Message: fmt.Sprintf("property %s should not exist", key)})
			continue
		}
		if string(bytes.TrimSpace(value)) == "null" {
			if _, ok := nullable[key]; !ok {
				details = append(details, FieldError{Field: key, Message: key + " should not be null"})
				continue
			}
			nulls[key] = struct{}{}
		}
	}
	if len(details) > 0 {
		sortDetails(details)
		return nil, invalidBody(details...)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return nil, invalidBody(decodeError(err))
	}

	return nulls, nil
}

func decodeError(err error) FieldError {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, errInvalidDate):
		return FieldError{Field: "dueDate", Message: errInvalidDate.Error()}
	case errors.As(err, &typeErr):
		return FieldError{Field: typeErr.Field, Message: fmt.Sprintf("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type))}
	}
	return FieldError{Field: "body", Message: "malformed JSON"}
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int64, reflect.Float64:
		return "number"
	}
	return "valid value"
}

var listQueryFields = fieldSet("page", "limit", "status", "priority", "isActive", "search")

// parseListQuery reads the list query string. Numbers are coerced from strings.
// isActive is applied only for the literal values "true" and "false".
func parseListQuery(c *fiber.Ctx) (*ListTasksQuery, error) {
	q := &ListTasksQuery{
		Page:  domain.DefaultPage,
		Limit: domain.DefaultLimit,
	}

	var details []FieldError
	for key, value := range c.Queries() {
		key, value = strings.Clone(key), strings.Clone(value)
		if _, ok := listQueryFields[key]; !ok {
			details = append(details, FieldError{Field: key, Message: fmt.Sprintf("property %s should not exist", key)})
			continue
		}

		switch key {
		case "page", "limit":
			if value == "" {
				continue
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				details = append(details, FieldError{Field: key, Message: key + " must be an integer number"})
				continue
			}
			if key == "page" {
				q.Page = n
			} else {
				q.Limit = n
			}
		case "status":
			status := value
			q.Status = &status
		case "priority":
			priority := value
			q.Priority = &priority
		case "isActive":
			switch value {
			case "true":
				active := true
				q.IsActive = &active
			case "false":
				active := false
				q.IsActive = &active
			}
		case "search":
			q.Search = value
		}
	}

	if len(details) > 0 {
		sortDetails(details)
		return nil, invalidRequest(details...)
	}
	return q, nil
}

// isUUID reports whether id is a canonical hyphenated UUID.
func isUUID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func sortDetails(details []FieldError) {
	slices.SortFunc(details, func(a, b FieldError) int {
		return cmp.Compare(a.Field, b.Field)
	})
}
