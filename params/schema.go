package params

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/mitchellh/mapstructure"
)

// Schema builds a Validator from a struct prototype. Each pass decodes the
// raw map into a fresh copy of the struct with weak typing, so "42" fills an
// int field; decode failures become field errors, and exported fields tagged
// `required:"true"` must end up non-zero. Field names follow the
// mapstructure tag when present.
//
//	type createEntry struct {
//		Author  string `mapstructure:"author" json:"author" required:"true"`
//		Message string `mapstructure:"message" json:"message" required:"true"`
//		Website string `mapstructure:"website" json:"website"`
//	}
//
//	action.Params(params.Schema(createEntry{}))
func Schema(prototype any) Validator {
	t := reflect.TypeOf(prototype)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("params: schema prototype must be a struct, got %T", prototype))
	}
	return &schema{typ: t}
}

type schema struct {
	typ reflect.Type
}

func (s *schema) Validate(raw map[string]any) *Result {
	result := &Result{}
	target := reflect.New(s.typ)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target.Interface(),
		WeaklyTypedInput: true,
	})
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if err := decoder.Decode(raw); err != nil {
		var merr *mapstructure.Error
		if errors.As(err, &merr) {
			result.Errors = append(result.Errors, merr.Errors...)
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
	}
	value := target.Elem()
	for i := 0; i < s.typ.NumField(); i++ {
		field := s.typ.Field(i)
		if !field.IsExported() || field.Tag.Get("required") != "true" {
			continue
		}
		if value.Field(i).IsZero() {
			result.Errors = append(result.Errors, fieldName(field)+" is required")
		}
	}
	result.Values = map[string]any{}
	if err := remarshal(target.Interface(), &result.Values); err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	return result
}

func fieldName(field reflect.StructField) string {
	if tag := field.Tag.Get("mapstructure"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name
		}
	}
	return strings.ToLower(field.Name)
}

// remarshal converts the decoded struct back into a generic map through its
// JSON representation, so Result.Values is keyed like the raw input.
func remarshal(input, output any) error {
	data, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, output)
}
