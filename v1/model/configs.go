package model

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/yaml.v3"
)

// Defaults applied to every model before its declared options.
const (
	DefaultDatabase = "default"
	DefaultW        = 1
	IDField         = "_id"

	// CreatedField and ModifiedField are the public names stamped by Save
	// when AutoTimestamp is on. Both go through the model's field map.
	CreatedField  = "created"
	ModifiedField = "modified"
)

// Config configures the registry provided by FXModule.
type Config struct {
	// DefinitionsPath is an optional YAML file of model definitions loaded
	// with Registry.Load when the registry is created.
	DefinitionsPath string `yaml:"definitions_path" envconfig:"ODM_MODEL_DEFINITIONS"`
}

// Options is the declarative configuration of a model. Unset fields fall
// back to the parent model named by Extends, then to the defaults.
//
// Options can be written in Go or loaded from YAML with Registry.Load:
//
//	User:
//	  collection: users
//	  field_map:
//	    city: address.city
//	  required_fields: [name, email]
//	  typed_fields:
//	    age: int
//	    tags: [string]
//	  sort: -created
type Options struct {
	// Collection defaults to the lower-cased model name plus "s".
	Collection string `yaml:"collection"`

	// Database is the connection alias. Default: "default".
	Database string `yaml:"database"`

	// FieldMap maps public dotted names to storage dotted names.
	FieldMap map[string]string `yaml:"field_map"`

	// MapID maps "id" to "_id". Default: true.
	MapID *bool `yaml:"map_id"`

	RequiredFields StringList `yaml:"required_fields"`

	// Sort is the default sort applied by Find, e.g. "-created".
	Sort StringList `yaml:"sort"`

	// AutoTimestamp sets "created" and "modified" on Save. Default: true.
	AutoTimestamp *bool `yaml:"auto_timestamp"`

	// TypedFields declares the value type of fields. Values may be a
	// reflect.Type, a one-element []reflect.Type for arrays, a type name
	// (see TypeNames), a one-element list of a type name, or nil.
	TypedFields map[string]any `yaml:"typed_fields"`

	// W is the number of acknowledgements writes wait for; 0 disables
	// acknowledgement. Default: 1.
	W *int `yaml:"w"`

	// Deprecated: use W. Safe true is W 1, false is W 0. W wins when
	// both are set.
	Safe *bool `yaml:"safe"`

	// Extends names the parent model.
	Extends string `yaml:"extends"`

	// Attributes are extra reserved names stored on the instance rather
	// than in its document.
	Attributes []string `yaml:"attributes"`
}

// overlay returns o with every field declared in child replacing its own.
func (o Options) overlay(child Options) Options {
	if child.Collection != "" {
		o.Collection = child.Collection
	}
	if child.Database != "" {
		o.Database = child.Database
	}
	if child.FieldMap != nil {
		o.FieldMap = child.FieldMap
	}
	if child.MapID != nil {
		o.MapID = child.MapID
	}
	if child.RequiredFields != nil {
		o.RequiredFields = child.RequiredFields
	}
	if child.Sort != nil {
		o.Sort = child.Sort
	}
	if child.AutoTimestamp != nil {
		o.AutoTimestamp = child.AutoTimestamp
	}
	if child.TypedFields != nil {
		o.TypedFields = child.TypedFields
	}
	if child.W != nil {
		o.W = child.W
	}
	if child.Safe != nil {
		o.Safe = child.Safe
	}
	if child.Attributes != nil {
		o.Attributes = child.Attributes
	}
	o.Extends = child.Extends
	return o
}

// StringList is a list of names that also accepts a single scalar in YAML.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	return fmt.Errorf("%w: expected a name or a list of names at line %d", ErrConfiguration, node.Line)
}

// TypeNames are the type names accepted in TypedFields.
var TypeNames = map[string]reflect.Type{
	"string":   reflect.TypeFor[string](),
	"int":      reflect.TypeFor[int](),
	"int32":    reflect.TypeFor[int32](),
	"int64":    reflect.TypeFor[int64](),
	"float64":  reflect.TypeFor[float64](),
	"bool":     reflect.TypeFor[bool](),
	"objectid": reflect.TypeFor[primitive.ObjectID](),
	"time":     reflect.TypeFor[time.Time](),
	"map":      reflect.TypeFor[map[string]any](),
}

// TypeOf is shorthand for declaring a typed field in Go.
//
//	model.Options{TypedFields: map[string]any{"age": model.TypeOf[int]()}}
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// ListOf declares an array whose elements are all of type T.
func ListOf[T any]() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[T]()}
}

// FieldType is a resolved typed-field declaration.
type FieldType struct {
	Type reflect.Type
	List bool
}

func (f FieldType) String() string {
	if f.List {
		return "[" + f.Type.String() + "]"
	}
	return f.Type.String()
}

// Accepts reports whether v satisfies the declaration. Integer and float
// kinds are interchangeable within their family, since decoded documents
// rarely preserve the exact width.
func (f FieldType) Accepts(v any) bool {
	if !f.List {
		return acceptsValue(f.Type, v)
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false
	}
	for i := range rv.Len() {
		if !acceptsValue(f.Type, rv.Index(i).Interface()) {
			return false
		}
	}
	return true
}

func acceptsValue(t reflect.Type, v any) bool {
	if v == nil {
		return false
	}
	vt := reflect.TypeOf(v)
	if vt.AssignableTo(t) {
		return true
	}
	switch {
	case isInt(t.Kind()):
		return isInt(vt.Kind())
	case isFloat(t.Kind()):
		return isFloat(vt.Kind())
	case t.Kind() == reflect.Map && vt.Kind() == reflect.Map:
		return vt.Key().Kind() == reflect.String
	}
	return false
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// parseFieldType validates a TypedFields value. A nil result means the
// field is declared without a type check.
func parseFieldType(name string, v any) (*FieldType, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case reflect.Type:
		return &FieldType{Type: t}, nil
	case []reflect.Type:
		if len(t) == 1 && t[0] != nil {
			return &FieldType{Type: t[0], List: true}, nil
		}
	case string:
		if rt, ok := TypeNames[strings.ToLower(t)]; ok {
			return &FieldType{Type: rt}, nil
		}
	case []string:
		if len(t) == 1 {
			return parseListElement(name, t[0])
		}
	case []any:
		if len(t) == 1 {
			return parseListElement(name, t[0])
		}
	}
	return nil, fmt.Errorf("%w: field %q has %v", ErrInvalidTypedField, name, v)
}

func parseListElement(name string, v any) (*FieldType, error) {
	switch v.(type) {
	case reflect.Type, string:
		ft, err := parseFieldType(name, v)
		if err != nil {
			return nil, err
		}
		ft.List = true
		return ft, nil
	}
	return nil, fmt.Errorf("%w: field %q has a list of %v", ErrInvalidTypedField, name, v)
}

// Logger is an interface that matches the odm/v1/logger.Logger methods
// used by this package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger for warnings about model definitions and
// updates.
func WithLogger(l Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces time.Now for timestamping.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.clock = now
		}
	}
}

// FindOption configures Find.
type FindOption func(*findOptions)

type findOptions struct {
	sort  []string
	limit *int64
	skip  *int64
}

// WithSort overrides the model's default sort.
func WithSort(keys ...string) FindOption {
	return func(o *findOptions) { o.sort = keys }
}

// WithLimit limits the result set to n documents.
func WithLimit(n int64) FindOption {
	return func(o *findOptions) { o.limit = &n }
}

// WithSkip skips the first n documents.
func WithSkip(n int64) FindOption {
	return func(o *findOptions) { o.skip = &n }
}

// RawOption configures RawUpdate.
type RawOption func(*rawOptions)

type rawOptions struct {
	upsert bool
}

// WithUpsert inserts the document when it does not exist yet.
func WithUpsert() RawOption {
	return func(o *rawOptions) { o.upsert = true }
}
