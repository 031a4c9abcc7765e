// Package definition reads proxy type definition files and drives blueprints
// from them.
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalid     = errors.New("invalid definition")
	ErrUnknownType = errors.New("unknown type")
)

var validate = validator.New()

// File is one definition document.
type File struct {
	Path      string  `yaml:"-"`
	Namespace string  `yaml:"namespace,omitempty"`
	Types     []*Type `yaml:"types" validate:"required,min=1,dive"`
}

// Type declares one proxy type. Type expressions use Go syntax: string,
// int32, []T, *int64 (by reference), Box[T], lib.IRepo[T].
type Type struct {
	Name       string   `yaml:"name" validate:"required,identifier"`
	Shape      string   `yaml:"shape,omitempty" validate:"omitempty,oneof=class interface"`
	Base       string   `yaml:"base,omitempty"`
	Interfaces []string `yaml:"interfaces,omitempty"`
	Abstract   bool     `yaml:"abstract,omitempty"`
	Sealed     bool     `yaml:"sealed,omitempty"`
	// Generics declares the type's own parameters; From copies them, with
	// constraints, from a template type instead.
	Generics []string `yaml:"generics,omitempty" validate:"excluded_with=From,dive,identifier"`
	From     string   `yaml:"from,omitempty"`

	Fields       []*Field       `yaml:"fields,omitempty" validate:"dive"`
	Constructors []*Constructor `yaml:"constructors,omitempty" validate:"dive"`
	Initializer  []*Instruction `yaml:"initializer,omitempty" validate:"dive"`
	Properties   []*Property    `yaml:"properties,omitempty" validate:"dive"`
	Methods      []*Method      `yaml:"methods,omitempty" validate:"dive"`
	Events       []*Event       `yaml:"events,omitempty" validate:"dive"`
	Nested       []*Type        `yaml:"nested,omitempty" validate:"dive"`
}

type Field struct {
	Name   string `yaml:"name" validate:"required,identifier"`
	Type   string `yaml:"type" validate:"required"`
	Static bool   `yaml:"static,omitempty"`
	Public bool   `yaml:"public,omitempty"`
}

type Constructor struct {
	Args []string      `yaml:"args,omitempty"`
	Body []*Instruction `yaml:"body,omitempty" validate:"dive"`
}

type Property struct {
	Name    string   `yaml:"name" validate:"required,identifier"`
	Type    string   `yaml:"type" validate:"required"`
	Index   []string `yaml:"index,omitempty"`
	Backing string   `yaml:"backing,omitempty" validate:"excluded_with=Index"`
	Get     bool     `yaml:"get,omitempty"`
	Set     bool     `yaml:"set,omitempty"`
	Virtual bool     `yaml:"virtual,omitempty"`
}

// Method is either declared explicitly (returns, args) or shaped after a
// template method named "Type.Method".
type Method struct {
	Name     string         `yaml:"name" validate:"required,identifier"`
	Template string         `yaml:"template,omitempty" validate:"excluded_with=Args Returns"`
	Returns  string         `yaml:"returns,omitempty"`
	Args     []string       `yaml:"args,omitempty"`
	Static   bool           `yaml:"static,omitempty"`
	Virtual  bool           `yaml:"virtual,omitempty"`
	Abstract bool           `yaml:"abstract,omitempty"`
	Locals   []string       `yaml:"locals,omitempty"`
	Body     []*Instruction `yaml:"body,omitempty" validate:"dive"`
}

type Event struct {
	Name    string `yaml:"name" validate:"required,identifier"`
	Handler string `yaml:"handler" validate:"required"`
}

// Instruction is one body instruction. Operands by opcode: ldarg, starg,
// ldloc, stloc take Index; ldfld, stfld take Field; call, callvirt take
// Method; newobj takes Type and Args; ldstr and ldc take Value, ldc also
// Type; br, brtrue, brfalse take Label, and Mark places a label.
type Instruction struct {
	Op     string   `yaml:"op,omitempty" validate:"required_without=Mark"`
	Index  *int     `yaml:"index,omitempty"`
	Field  string   `yaml:"field,omitempty"`
	Method string   `yaml:"method,omitempty"`
	Type   string   `yaml:"type,omitempty"`
	Args   []string `yaml:"args,omitempty"`
	Value  any      `yaml:"value,omitempty"`
	Label  string   `yaml:"label,omitempty"`
	Mark   string   `yaml:"mark,omitempty"`
}

// Load reads and validates a definition file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse decodes and validates a definition document. Unknown keys are
// rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	return &f, nil
}

func (t *Type) IsInterface() bool { return t.Shape == "interface" }

func describe(err error) string {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return err.Error()
	}
	messages := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		ns := ve.Namespace()
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		messages = append(messages, ns+": "+formatValidationError(ve))
	}
	return strings.Join(messages, "; ")
}

func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required", "required_without":
		return "required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "identifier":
		return "must be an identifier"
	case "excluded_with":
		return fmt.Sprintf("can not be combined with %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

func init() {
	_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return isIdentifier(fl.Field().String())
	})
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
