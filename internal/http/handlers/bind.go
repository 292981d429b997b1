package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/filmlib/internal/domain/film"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// FieldError is one problem with the request body. Rule is the failed
// validator tag, or "type", "syntax", "size" for decode failures.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

func (f FieldError) String() string {
	return "body[" + f.Field + "]: " + f.Message
}

var registerOnce sync.Once

// RegisterValidators adds the date rules used by film bodies to gin's
// validator. Safe to call more than once.
func RegisterValidators() error {
	var err error

	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}

		if err = v.RegisterValidation("isodate", isoDate); err != nil {
			return
		}
		err = v.RegisterValidation("notfuture", notFuture)
	})

	return err
}

func isoDate(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true
	}

	_, err := film.ParseDate(raw)
	return err == nil
}

// notFuture leaves malformed dates to isodate.
func notFuture(fl validator.FieldLevel) bool {
	d, err := film.ParseDate(fl.Field().String())
	if err != nil {
		return true
	}

	return !d.After(film.DateOf(time.Now()).Time)
}

// BindJSON decodes and validates the body. On failure it writes a 422 whose
// message joins every field problem, e.g. "body[title]: is required".
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondValidation(ctx, joinFieldErrors(collectFieldErrors(err, out)))

		return false
	}

	return true
}

// collectFieldErrors adds the rule failures of the other fields to a JSON
// type error. The decoder fills what it can before reporting the type error,
// so validating the partial struct still catches them. Rule failures on a
// field that already has a type error are dropped.
func collectFieldErrors(err error, out interface{}) []FieldError {
	fields := parseBindError(err, out)

	var unmatchedTypeError *json.UnmarshalTypeError
	if !errors.As(err, &unmatchedTypeError) {
		return fields
	}

	verr := binding.Validator.ValidateStruct(out)
	if verr == nil {
		return fields
	}

	bad := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		bad[f.Field] = struct{}{}
	}

	for _, f := range parseBindError(verr, out) {
		if _, ok := bad[f.Field]; ok {
			continue
		}
		fields = append(fields, f)
	}

	return fields
}

func joinFieldErrors(fields []FieldError) string {
	parts := make([]string, 0, len(fields))

	for _, f := range fields {
		parts = append(parts, f.String())
	}

	return strings.Join(parts, ", ")
}

func parseBindError(err error, out interface{}) []FieldError {
	rootType := baseStructType(out)

	// validator errors (struct bind tags)

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			field := jsonPathFromValidatorError(rootType, fieldError)
			rule := fieldError.Tag()

			fields = append(fields, FieldError{
				Field:   field,
				Rule:    rule,
				Message: validationMessage(rule, fieldError.Param()),
			})
		}
		return fields
	}

	// in the event of bad json

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) {
		return []FieldError{{Field: "json", Rule: "syntax", Message: "malformed JSON"}}
	}

	if errors.Is(err, io.EOF) {
		return []FieldError{{Field: "json", Rule: "required", Message: "request body is empty"}}
	}

	// in the event of a type mismatch

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := jsonPathFromDotPath(rootType, unmatchedTypeError.Field)

		if field == "" {
			field = strings.TrimSpace(unmatchedTypeError.Field)
		}

		return []FieldError{
			{
				Field:   field,
				Rule:    "type",
				Message: "must be of type " + jsonTypeName(unmatchedTypeError.Type),
			},
		}
	}

	// body too large
	var maxBytesError *http.MaxBytesError

	if errors.As(err, &maxBytesError) {
		return []FieldError{{Field: "json", Rule: "size", Message: fmt.Sprintf("must be at most %d bytes", maxBytesError.Limit)}}
	}

	// final fallback if the error could not be deciphered
	return []FieldError{{Field: "json", Rule: "decode", Message: err.Error()}}
}

// jsonTypeName names the JSON side of a Go type for messages.
func jsonTypeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil {
		return "unknown"
	}

	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	default:
		return t.String()
	}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

func jsonPathFromValidatorError(rootType reflect.Type, fieldError validator.FieldError) string {
	// Namespace format is usually "<StructName>.<Field>[.<NestedField>...]".
	namespace := fieldError.StructNamespace()
	if namespace == "" {
		namespace = fieldError.Namespace()
	}

	if namespace == "" {
		return fieldError.Field()
	}

	parts := strings.Split(namespace, ".")
	if len(parts) == 0 {
		return fieldError.Field()
	}

	if rootType != nil && rootType.Name() != "" && parts[0] == rootType.Name() {
		parts = parts[1:]
	}

	path := mapStructPathToJSONPath(rootType, parts)
	if path != "" {
		return path
	}

	return fieldError.Field()
}

func jsonPathFromDotPath(rootType reflect.Type, dotPath string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}

	return mapStructPathToJSONPath(rootType, strings.Split(dotPath, "."))
}

func mapStructPathToJSONPath(rootType reflect.Type, parts []string) string {
	if len(parts) == 0 {
		return ""
	}

	current := rootType
	out := make([]string, 0, len(parts))

	for _, rawPart := range parts {
		if rawPart == "" {
			continue
		}

		fieldName, indexSuffix := splitFieldIndex(rawPart)
		jsonName := fieldName

		nextType := reflect.Type(nil)
		if current != nil {
			for current.Kind() == reflect.Pointer {
				current = current.Elem()
			}

			if current.Kind() == reflect.Struct {
				if sf, ok := current.FieldByName(fieldName); ok {
					jsonName = jsonNameFromStructField(sf)
					nextType = sf.Type
				}
			}
		}

		out = append(out, jsonName+indexSuffix)

		if nextType != nil {
			current = unwindCollection(nextType)
		} else {
			current = nil
		}
	}

	return strings.Join(out, ".")
}

func splitFieldIndex(part string) (string, string) {
	idx := strings.Index(part, "[")
	if idx == -1 {
		return part, ""
	}

	return part[:idx], part[idx:]
}

func jsonNameFromStructField(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func unwindCollection(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}

	return nil
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "notfuture":
		return "must not be in the future"
	case "len":
		return "must be exactly " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
