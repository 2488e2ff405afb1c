package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by this package matches exactly one of
// these through errors.Is, except storage errors, which are returned
// unchanged.
var (
	// ErrConfiguration marks invalid model definitions.
	ErrConfiguration = errors.New("model: invalid configuration")

	// ErrConnection marks a missing database handle.
	ErrConnection = errors.New("model: no connection")

	// ErrState marks operations that are invalid for the instance's state.
	ErrState = errors.New("model: invalid state")

	// ErrValidation marks writes rejected before reaching storage.
	ErrValidation = errors.New("model: validation failed")

	// ErrLookup marks names that could not be found.
	ErrLookup = errors.New("model: lookup failed")

	// ErrCardinality marks Get calls that did not match exactly one document.
	ErrCardinality = errors.New("model: unexpected number of documents")
)

// Specific errors, each belonging to one of the kinds above.
var (
	ErrNoPrimaryKey      = kindError(ErrState, "model: primary key has not been set")
	ErrMetaReadOnly      = kindError(ErrState, "model: the '_meta' attribute cannot be overwritten")
	ErrDeleted           = kindError(ErrState, "model: instance has been deleted")
	ErrRequiredField     = kindError(ErrValidation, "model: required field missing")
	ErrFieldType         = kindError(ErrValidation, "model: field has the wrong type")
	ErrNoFields          = kindError(ErrValidation, "model: no fields have been specified")
	ErrInvalidObjectID   = kindError(ErrValidation, "model: value cannot be converted to an object id")
	ErrAttributeNotFound = kindError(ErrLookup, "model: attribute not found")
	ErrUnknownModel      = kindError(ErrLookup, "model: model is not defined")
	ErrInvalidTypedField = kindError(ErrConfiguration, "model: fields must be a type, a typed list, or nil")
	ErrDuplicateModel    = kindError(ErrConfiguration, "model: model is already defined")
	ErrNoConnector       = kindError(ErrConnection, "model: no connector configured")

	ErrNoDocumentFound        = kindError(ErrCardinality, "model: no document found")
	ErrMultipleDocumentsFound = kindError(ErrCardinality, "model: multiple documents found")
)

type kindErr struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &kindErr{kind: kind, msg: msg}
}

func (e *kindErr) Error() string { return e.msg }

func (e *kindErr) Unwrap() error { return e.kind }

// NoDocumentFoundError is returned by Get when nothing matches.
type NoDocumentFoundError struct {
	Model string
	Query map[string]any
}

func (e *NoDocumentFoundError) Error() string {
	return fmt.Sprintf("no document found: '%s' matching query does not exist; the query was %v", e.Model, e.Query)
}

func (e *NoDocumentFoundError) Unwrap() error { return ErrNoDocumentFound }

// MultipleDocumentsFoundError is returned by Get when more than one
// document matches.
type MultipleDocumentsFoundError struct {
	Model string
	Count int64
	Query map[string]any
}

func (e *MultipleDocumentsFoundError) Error() string {
	return fmt.Sprintf("multiple documents found: get() returned more than one %q: it returned %d; the query was %v",
		e.Model, e.Count, e.Query)
}

func (e *MultipleDocumentsFoundError) Unwrap() error { return ErrMultipleDocumentsFound }

// RequiredFieldsError names the required fields of a model when a write
// would leave one of them out.
type RequiredFieldsError struct {
	Model    string
	Required []string
	Missing  []string
}

func (e *RequiredFieldsError) Error() string {
	return fmt.Sprintf("the '%s' object requires the fields %s; missing or removed: %s",
		e.Model, strings.Join(e.Required, ", "), strings.Join(e.Missing, ", "))
}

func (e *RequiredFieldsError) Unwrap() error { return ErrRequiredField }

// FieldTypeError reports a value that does not match its declared type.
type FieldTypeError struct {
	Field string
	Want  string
	Value any
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("the '%s' field must be of type %s, got %T", e.Field, e.Want, e.Value)
}

func (e *FieldTypeError) Unwrap() error { return ErrFieldType }

// AttributeError reports a name that is neither in the document nor set on
// the instance.
type AttributeError struct {
	Model string
	Name  string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("'%s' object has no attribute '%s'", e.Model, e.Name)
}

func (e *AttributeError) Unwrap() error { return ErrAttributeNotFound }

// IsConfiguration checks if the error is a model definition error.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsConnection checks if the error is caused by a missing database handle.
func IsConnection(err error) bool { return errors.Is(err, ErrConnection) }

// IsState checks if the error is an invalid-state error.
func IsState(err error) bool { return errors.Is(err, ErrState) }

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsLookup checks if the error is a lookup error.
func IsLookup(err error) bool { return errors.Is(err, ErrLookup) }

// IsNoDocumentFound checks if Get matched nothing.
func IsNoDocumentFound(err error) bool { return errors.Is(err, ErrNoDocumentFound) }

// IsMultipleDocumentsFound checks if Get matched more than one document.
func IsMultipleDocumentsFound(err error) bool { return errors.Is(err, ErrMultipleDocumentsFound) }
