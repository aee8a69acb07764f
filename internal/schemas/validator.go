package schemas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Violation is a single contract violation found in a model response.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string { return v.Path + ": " + v.Message }

// Validator checks model responses against the compiled output contracts.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

var validatorSchemas = []string{
	SchemaAdvance, SchemaRaceResult, SchemaCharacterName,
	SchemaNamingProfile, SchemaCataclysm, SchemaDeaths,
}

// NewValidator compiles every known schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	for _, name := range validatorSchemas {
		doc, err := json.Marshal(SchemaByName(name))
		if err != nil {
			return nil, fmt.Errorf("marshal schema %s: %w", name, err)
		}
		if err := compiler.AddResource(resourceURL(name), bytes.NewReader(doc)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(validatorSchemas))}
	for _, name := range validatorSchemas {
		s, err := compiler.Compile(resourceURL(name))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = s
	}
	return v, nil
}

func resourceURL(name string) string { return "mem://worldforge/" + name + ".json" }

// ValidateRaceResult reports the violations of a single raceResults entry.
// A nil result means the entry honours the contract.
func (v *Validator) ValidateRaceResult(raw json.RawMessage) []Violation {
	return v.validate(SchemaRaceResult, raw)
}

// Validate checks data against the named schema and returns an error listing
// every violation.
func (v *Validator) Validate(name string, data []byte) error {
	violations := v.validate(name, data)
	if len(violations) == 0 {
		return nil
	}
	msg := violations[0].String()
	if len(violations) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(violations)-1)
	}
	return fmt.Errorf("%s: %s", name, msg)
}

func (v *Validator) validate(name string, data []byte) []Violation {
	s, ok := v.schemas[name]
	if !ok {
		return []Violation{{Path: "", Message: "unknown schema " + name}}
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []Violation{{Path: "", Message: "invalid json: " + err.Error()}}
	}
	err := s.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Violation{{Path: "", Message: err.Error()}}
	}
	out := leafViolations(ve, nil)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Message < out[j].Message
	})
	return out
}

func leafViolations(ve *jsonschema.ValidationError, acc []Violation) []Violation {
	if len(ve.Causes) == 0 {
		return append(acc, Violation{Path: ve.InstanceLocation, Message: ve.Message})
	}
	for _, c := range ve.Causes {
		acc = leafViolations(c, acc)
	}
	return acc
}
