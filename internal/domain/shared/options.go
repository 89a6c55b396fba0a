package shared

import "reflect"

// ResultMode selects how far a raw storage result is converted.
type ResultMode int

const (
	// ModeFull runs the whole conversion chain up to the bound schema
	ModeFull ResultMode = iota
	// ModeEntity stops at the entity layer
	ModeEntity
	// ModeOriginal returns the storage result untouched
	ModeOriginal
)

func (m ResultMode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeEntity:
		return "entity"
	case ModeOriginal:
		return "original"
	default:
		return "unknown"
	}
}

// CallOptions are per-call knobs shared by every repository operation.
type CallOptions struct {
	Mode ResultMode
	// Optional turns a missing row into a nil result instead of ErrNotFound
	Optional     bool
	ExternalCode string
	CodeType     string
}

// CallOption configures CallOptions
type CallOption func(*CallOptions)

// WithMode sets the result mode of a call.
func WithMode(mode ResultMode) CallOption {
	return func(o *CallOptions) { o.Mode = mode }
}

// Optional makes a lookup return nil instead of ErrNotFound.
func Optional() CallOption {
	return func(o *CallOptions) { o.Optional = true }
}

// WithExternalCode attaches an external code to a created row.
func WithExternalCode(code, codeType string) CallOption {
	return func(o *CallOptions) {
		o.ExternalCode = code
		o.CodeType = codeType
	}
}

// ApplyCallOptions folds options into CallOptions.
func ApplyCallOptions(opts []CallOption) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Binding describes a schema bound to a storage model together with the
// relation paths to load in addition to the ones derived from the schema.
type Binding struct {
	Schema        reflect.Type
	ExtraSelect   []string
	ExtraPrefetch []string
	// Others binds additional models, keyed by model type
	Others map[reflect.Type]Binding
}

// BindOption configures a Binding
type BindOption func(*Binding)

// WithExtraSelect adds single-valued relation paths to load.
func WithExtraSelect(paths ...string) BindOption {
	return func(b *Binding) { b.ExtraSelect = append(b.ExtraSelect, paths...) }
}

// WithExtraPrefetch adds multi-valued relation paths to load.
func WithExtraPrefetch(paths ...string) BindOption {
	return func(b *Binding) { b.ExtraPrefetch = append(b.ExtraPrefetch, paths...) }
}

// WithOther binds schema to another model served by the same repository.
func WithOther(model, schema reflect.Type, opts ...BindOption) BindOption {
	return func(b *Binding) {
		if b.Others == nil {
			b.Others = make(map[reflect.Type]Binding)
		}
		other := Binding{Schema: schema}
		for _, opt := range opts {
			opt(&other)
		}
		b.Others[model] = other
	}
}

// NewBinding builds a Binding for schema.
func NewBinding(schema reflect.Type, opts ...BindOption) Binding {
	b := Binding{Schema: schema}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	return b
}

// ReturnTypes maps operations to result schemas at three levels of
// precedence: per operation, detail operations, and everything else.
type ReturnTypes struct {
	General      reflect.Type
	Detail       reflect.Type
	PerOperation map[string]reflect.Type
}
