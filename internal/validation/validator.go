// Package validation checks prompt headers against the library schema.
//
// SYSTEM ARCHITECTURE ROLE:
// The validator is the only component that handles untyped header data. It
// checks a models.Mapping against a Schema and, once valid, Project converts it
// into a typed models.Header for everything downstream.
//
// KEY RESPONSIBILITIES:
// - Check required fields are present
// - Check collection-shaped fields (tags, llm_model_compatibility, parameters,
//   plan_steps) have the right shape
// - Accumulate every violation of a document instead of stopping at the first
//
// VALIDATION FLOW:
// 1. The collector parses a header into a models.Mapping
// 2. Validate runs every field rule in declaration order
// 3. ValidationResult.ToAppErrors turns violations into SCHEMA_VIOLATION diagnostics
// 4. Project builds the typed header for valid documents
package validation

import (
	"fmt"

	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
)

// Field types understood by the validator
const (
	TypeAny         = "any"
	TypeString      = "string"
	TypeList        = "list"
	TypeMappingList = "mapping_list"
)

// PromptHeaderSchema is the name of the built-in header schema
const PromptHeaderSchema = "prompt_header"

// DefaultRequiredFields are the keys every prompt header must carry
var DefaultRequiredFields = []string{
	"id",
	"title",
	"description",
	"category",
	"tags",
	"version",
	"status",
	"llm_model_compatibility",
}

// fieldTypes declares the shape of every known header key, in report order
var fieldTypes = []struct {
	name string
	typ  string
}{
	{"id", TypeString},
	{"title", TypeString},
	{"description", TypeString},
	{"category", TypeString},
	{"sub_category", TypeString},
	{"tags", TypeList},
	{"version", TypeString},
	{"status", TypeString},
	{"llm_model_compatibility", TypeList},
	{"parameters", TypeMappingList},
	{"plan_task", TypeString},
	{"plan_steps", TypeMappingList},
}

// FieldValidator provides validation rules for individual fields
type FieldValidator struct {
	Name     string
	Required bool
	Type     string
}

// ValidationResult represents the result of validating one header
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Path   string            `json:"path"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Schema represents a validation schema. Fields are checked in order.
type Schema struct {
	Name   string
	Fields []FieldValidator
}

// Validator provides centralized validation functionality
type Validator struct {
	schemas map[string]*Schema
}

// NewValidator creates a validator with the built-in prompt header schema.
// An empty requiredFields uses DefaultRequiredFields.
func NewValidator(requiredFields []string) *Validator {
	v := &Validator{
		schemas: make(map[string]*Schema),
	}
	v.RegisterSchema(NewHeaderSchema(requiredFields))
	return v
}

// NewHeaderSchema builds the prompt header schema for a required field set
func NewHeaderSchema(requiredFields []string) *Schema {
	if len(requiredFields) == 0 {
		requiredFields = DefaultRequiredFields
	}
	required := make(map[string]bool, len(requiredFields))
	for _, f := range requiredFields {
		required[f] = true
	}

	schema := &Schema{Name: PromptHeaderSchema}
	known := make(map[string]bool)
	for _, ft := range fieldTypes {
		known[ft.name] = true
		schema.Fields = append(schema.Fields, FieldValidator{
			Name:     ft.name,
			Required: required[ft.name],
			Type:     ft.typ,
		})
	}
	// Required keys outside the known set are presence-checked only
	for _, f := range requiredFields {
		if !known[f] {
			schema.Fields = append(schema.Fields, FieldValidator{
				Name:     f,
				Required: true,
				Type:     TypeAny,
			})
		}
	}
	return schema
}

// RegisterSchema registers a validation schema
func (v *Validator) RegisterSchema(schema *Schema) {
	v.schemas[schema.Name] = schema
}

// Validate checks a header against the prompt header schema
func (v *Validator) Validate(data *models.Mapping, path string) *ValidationResult {
	return v.ValidateWith(PromptHeaderSchema, data, path)
}

// ValidateWith checks a header against a named schema
func (v *Validator) ValidateWith(schemaName string, data *models.Mapping, path string) *ValidationResult {
	result := &ValidationResult{Valid: true, Path: path}

	schema, exists := v.schemas[schemaName]
	if !exists {
		result.add("schema", "SCHEMA_NOT_FOUND", fmt.Sprintf("Validation schema '%s' not found", schemaName))
		return result
	}

	for _, field := range schema.Fields {
		v.validateField(field, data, result)
	}

	return result
}

// validateField validates a single field
func (v *Validator) validateField(field FieldValidator, data *models.Mapping, result *ValidationResult) {
	value, exists := data.Get(field.Name)

	if !exists {
		if field.Required {
			result.add(field.Name, "REQUIRED_FIELD_MISSING",
				fmt.Sprintf("Field '%s' is required", field.Name))
		}
		return
	}

	// A present key satisfies the presence check even when empty or null;
	// only collection fields reject a null value
	if value == nil && field.Type != TypeList && field.Type != TypeMappingList {
		return
	}

	switch field.Type {
	case TypeString:
		if _, ok := models.ScalarString(value); !ok {
			result.add(field.Name, "INVALID_TYPE",
				fmt.Sprintf("Field '%s' should be a single value, not a collection", field.Name))
		}

	case TypeList:
		items, ok := value.([]any)
		if !ok {
			result.add(field.Name, "INVALID_TYPE",
				fmt.Sprintf("Field '%s' should be a list", field.Name))
			return
		}
		for i, item := range items {
			if _, ok := models.ScalarString(item); !ok {
				result.add(field.Name, "INVALID_ELEMENT",
					fmt.Sprintf("Field '%s' item %d should be a single value", field.Name, i+1))
			}
		}

	case TypeMappingList:
		items, ok := value.([]any)
		if !ok {
			result.add(field.Name, "INVALID_TYPE",
				fmt.Sprintf("Field '%s' should be a list of mappings", field.Name))
			return
		}
		for i, item := range items {
			if _, ok := item.(*models.Mapping); !ok {
				result.add(field.Name, "INVALID_ELEMENT",
					fmt.Sprintf("Field '%s' item %d should be a mapping", field.Name, i+1))
			}
		}
	}
}

func (r *ValidationResult) add(field, code, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Code:    code,
		Message: message,
	})
}

// Fields returns the names of the fields that failed, in report order
func (r *ValidationResult) Fields() []string {
	var out []string
	for _, e := range r.Errors {
		out = append(out, e.Field)
	}
	return out
}

// ToAppErrors converts each violation into a SCHEMA_VIOLATION diagnostic
func (r *ValidationResult) ToAppErrors() []*errors.AppError {
	if r.Valid {
		return nil
	}
	out := make([]*errors.AppError, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, errors.SchemaViolation(r.Path, e.Field, e.Message).
			WithContext("rule", e.Code))
	}
	return out
}
