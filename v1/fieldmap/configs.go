package fieldmap

// Logical connectives that hold lists of filters instead of field values.
const (
	And = "$and"
	Or  = "$or"
)

// operators lists the suffixes recognised by WithOperators, without the
// leading "$".
var operators = map[string]struct{}{
	"all":    {},
	"exists": {},
	"gt":     {},
	"gte":    {},
	"in":     {},
	"lt":     {},
	"lte":    {},
	"ne":     {},
	"near":   {},
	"nin":    {},
	"size":   {},
}

// IsOperator reports whether name is a recognised operator suffix.
func IsOperator(name string) bool {
	_, ok := operators[name]
	return ok
}

// IsLogical reports whether key is one of the logical connectives.
func IsLogical(key string) bool {
	return key == And || key == Or
}

type options struct {
	operators bool
	flatten   bool
}

// Option configures a call to Resolve.
type Option func(*options)

// WithOperators enables extraction of "__<operator>" suffixes.
func WithOperators() Option {
	return func(o *options) { o.operators = true }
}

// Flatten keeps resolved names dotted at the top level of the result.
func Flatten() Option {
	return func(o *options) { o.flatten = true }
}
