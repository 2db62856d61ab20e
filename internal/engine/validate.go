package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/lazypower/mindgraph/internal/graph"
)

// NodeInput is the user-editable part of a node.
type NodeInput struct {
	Title string     `json:"title" yaml:"title" validate:"required,max=200"`
	Tags  []string   `json:"tags" yaml:"tags" validate:"max=32,dive,required,max=64"`
	Kind  graph.Kind `json:"kind,omitempty" yaml:"kind,omitempty" validate:"omitempty,oneof=note commitment"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a struct against its validate tags and wraps any failure
// in ErrInvalidInput.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidInput, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// normalize trims the title, cleans tags and defaults the kind.
func (in NodeInput) normalize() (NodeInput, error) {
	in.Title = collapseSpace(in.Title)
	in.Tags = sanitizeTags(in.Tags)
	if in.Kind == "" {
		in.Kind = graph.KindNote
	}
	if err := Validate(in); err != nil {
		return in, err
	}
	return in, nil
}

// sanitizeTags trims each tag, collapses inner whitespace, drops empties and
// removes duplicates while keeping first-seen order. Case is preserved since
// tags match exactly.
func sanitizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = collapseSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
