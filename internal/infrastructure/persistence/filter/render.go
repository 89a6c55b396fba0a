package filter

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/storefront/backend/internal/domain/shared"
)

var (
	// ErrUnknownField is returned when a lookup names no column of the model.
	ErrUnknownField = errors.New("filter: unknown field")
	// ErrToManyPath is returned when a lookup crosses a multi-valued relation.
	ErrToManyPath = errors.New("filter: lookups across to-many relations are not supported")
	// ErrBadValue is returned when a value does not suit its operator.
	ErrBadValue = errors.New("filter: invalid value for operator")
)

// SchemaParser resolves GORM schema metadata of a model type.
type SchemaParser interface {
	Parse(model reflect.Type) (*schema.Schema, error)
	Namer() schema.Namer
}

// Renderer turns condition trees into GORM expressions for one model.
type Renderer struct {
	parser SchemaParser
	model  reflect.Type
}

// NewRenderer creates a renderer for model
func NewRenderer(parser SchemaParser, model reflect.Type) *Renderer {
	return &Renderer{parser: parser, model: model}
}

// Rendered is a compiled condition and the relation joins it needs.
type Rendered struct {
	Expr  clause.Expression
	Joins []string
}

// Apply adds the joins not already in joined and the condition to db.
func (r Rendered) Apply(db *gorm.DB, joined func(path string) bool) *gorm.DB {
	for _, path := range r.Joins {
		if joined == nil || !joined(path) {
			db = db.Joins(path)
		}
	}
	if r.Expr != nil {
		db = db.Where(r.Expr)
	}
	return db
}

// Render renders n. A nil node or an empty group renders to a nil Expr.
func (r *Renderer) Render(n *Node) (Rendered, error) {
	joins := map[string]struct{}{}
	expr, err := r.render(n, joins)
	if err != nil {
		return Rendered{}, err
	}
	out := Rendered{Expr: expr}
	for path := range joins {
		out.Joins = append(out.Joins, path)
	}
	sort.Strings(out.Joins)
	return out, nil
}

// Column resolves a lookup path such as "category__name" to a column and
// the join path it needs, if any.
func (r *Renderer) Column(field string) (clause.Column, string, error) {
	s, err := r.parser.Parse(r.model)
	if err != nil {
		return clause.Column{}, "", err
	}

	segments := strings.Split(field, lookupSep)
	relations := make([]string, 0, len(segments)-1)
	for _, seg := range segments[:len(segments)-1] {
		rel := findRelation(s, r.parser.Namer(), seg)
		if rel == nil {
			return clause.Column{}, "", fmt.Errorf("%w: %s on %s", ErrUnknownField, field, r.model.Name())
		}
		if rel.Type == schema.HasMany || rel.Type == schema.Many2Many {
			return clause.Column{}, "", fmt.Errorf("%w: %s", ErrToManyPath, field)
		}
		relations = append(relations, rel.Name)
		s = rel.FieldSchema
	}

	f := s.LookUpField(segments[len(segments)-1])
	if f == nil || f.DBName == "" {
		return clause.Column{}, "", fmt.Errorf("%w: %s on %s", ErrUnknownField, field, r.model.Name())
	}
	if len(relations) == 0 {
		return clause.Column{Table: clause.CurrentTable, Name: f.DBName}, "", nil
	}
	return clause.Column{Table: strings.Join(relations, "__"), Name: f.DBName}, strings.Join(relations, "."), nil
}

// findRelation matches name against relation names, case-insensitively or
// in their column form ("order_status" for OrderStatus).
func findRelation(s *schema.Schema, namer schema.Namer, name string) *schema.Relationship {
	if rel, ok := s.Relationships.Relations[name]; ok {
		return rel
	}
	for relName, rel := range s.Relationships.Relations {
		if strings.EqualFold(relName, name) || namer.ColumnName("", relName) == name {
			return rel
		}
	}
	return nil
}

func (r *Renderer) render(n *Node, joins map[string]struct{}) (clause.Expression, error) {
	if n == nil {
		return nil, nil
	}

	var expr clause.Expression
	if n.IsLeaf() {
		col, join, err := r.Column(n.Field)
		if err != nil {
			return nil, err
		}
		if join != "" {
			joins[join] = struct{}{}
		}
		value := n.Value
		if ref, ok := value.(shared.Reference); ok {
			refCol, refJoin, err := r.Column(ref.Field)
			if err != nil {
				return nil, err
			}
			if refJoin != "" {
				joins[refJoin] = struct{}{}
			}
			value = refCol
		}
		if expr, err = condition(col, n.Operator, value); err != nil {
			return nil, fmt.Errorf("%s: %w", n.Lookup(), err)
		}
	} else {
		exprs := make([]clause.Expression, 0, len(n.Children))
		for _, child := range n.Children {
			e, err := r.render(child, joins)
			if err != nil {
				return nil, err
			}
			if e != nil {
				exprs = append(exprs, e)
			}
		}
		switch {
		case len(exprs) == 0:
			return nil, nil
		case len(exprs) == 1:
			expr = exprs[0]
		case n.Combinator == Or:
			expr = clause.Or(exprs...)
		default:
			expr = clause.And(exprs...)
		}
	}

	if n.Negated {
		return negation{expr: expr}, nil
	}
	return expr, nil
}

// negation renders NOT (expr) for leaves and groups alike.
type negation struct {
	expr clause.Expression
}

func (n negation) Build(builder clause.Builder) {
	builder.WriteString("NOT (")
	n.expr.Build(builder)
	builder.WriteByte(')')
}

func condition(col clause.Column, op Operator, value any) (clause.Expression, error) {
	switch op {
	case Exact, "":
		return clause.Eq{Column: col, Value: value}, nil
	case IExact:
		return clause.Expr{SQL: "LOWER(?) = LOWER(?)", Vars: []any{col, value}}, nil
	case Gt:
		return clause.Gt{Column: col, Value: value}, nil
	case Gte:
		return clause.Gte{Column: col, Value: value}, nil
	case Lt:
		return clause.Lt{Column: col, Value: value}, nil
	case Lte:
		return clause.Lte{Column: col, Value: value}, nil
	case In:
		return clause.IN{Column: col, Values: toSlice(value)}, nil
	case Contains, IContains, StartsWith, IStartsWith, EndsWith, IEndsWith:
		return like(col, op, value)
	case IsNull:
		isNull, ok := value.(bool)
		if !ok {
			return nil, ErrBadValue
		}
		if isNull {
			return clause.Eq{Column: col, Value: nil}, nil
		}
		return clause.Neq{Column: col, Value: nil}, nil
	case Range:
		bounds := toSlice(value)
		if len(bounds) != 2 {
			return nil, ErrBadValue
		}
		return clause.Expr{SQL: "? BETWEEN ? AND ?", Vars: []any{col, bounds[0], bounds[1]}}, nil
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrBadValue, op)
	}
}

func like(col clause.Column, op Operator, value any) (clause.Expression, error) {
	s, ok := value.(string)
	if !ok {
		return nil, ErrBadValue
	}
	pattern := EscapeLike(s)
	switch op {
	case Contains, IContains:
		pattern = "%" + pattern + "%"
	case StartsWith, IStartsWith:
		pattern = pattern + "%"
	case EndsWith, IEndsWith:
		pattern = "%" + pattern
	}
	if op == IContains || op == IStartsWith || op == IEndsWith {
		return clause.Expr{SQL: "LOWER(?) LIKE LOWER(?) ESCAPE '!'", Vars: []any{col, pattern}}, nil
	}
	return clause.Expr{SQL: "? LIKE ? ESCAPE '!'", Vars: []any{col, pattern}}, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// EscapeLike escapes LIKE wildcards in s using "!" as the escape character.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func toSlice(value any) []any {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return nil
	}
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{value}
}
