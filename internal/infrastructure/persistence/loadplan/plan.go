package loadplan

import (
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Prefetch is a multi-valued relation path, optionally loaded with its own
// nested plan.
type Prefetch struct {
	Path string
	Plan *LoadPlan
}

// LoadPlan is a deduplicated set of relation paths to load eagerly.
//
// Paths use GORM's dotted notation ("Items", "Category.Parent"). A nested
// prefetch keeps its sub-plan separate from the parent's select set; when the
// same path is added both plain and nested, the nested form wins and two
// nested forms merge their sub-plans.
type LoadPlan struct {
	selects    map[string]struct{}
	prefetches map[string]*LoadPlan
}

// NewLoadPlan creates an empty plan
func NewLoadPlan() *LoadPlan {
	return &LoadPlan{
		selects:    make(map[string]struct{}),
		prefetches: make(map[string]*LoadPlan),
	}
}

// Select adds single-valued relation paths.
func (p *LoadPlan) Select(paths ...string) *LoadPlan {
	for _, path := range paths {
		if path != "" {
			p.selects[path] = struct{}{}
		}
	}
	return p
}

// Prefetch adds multi-valued relation paths without nested plans.
func (p *LoadPlan) Prefetch(paths ...string) *LoadPlan {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, ok := p.prefetches[path]; !ok {
			p.prefetches[path] = nil
		}
	}
	return p
}

// PrefetchNested adds a multi-valued relation loaded with sub.
func (p *LoadPlan) PrefetchNested(path string, sub *LoadPlan) *LoadPlan {
	if sub == nil || sub.Empty() {
		return p.Prefetch(path)
	}
	if existing := p.prefetches[path]; existing != nil {
		existing.Merge(sub)
		return p
	}
	p.prefetches[path] = sub.Clone()
	return p
}

// Merge unions other into p.
func (p *LoadPlan) Merge(other *LoadPlan) *LoadPlan {
	if other == nil {
		return p
	}
	for path := range other.selects {
		p.selects[path] = struct{}{}
	}
	for path, sub := range other.prefetches {
		p.PrefetchNested(path, sub)
	}
	return p
}

// mergePrefixed folds other under prefix. Selects become "prefix.path" and
// prefetches keep their sub-plans under the prefixed lookup.
func (p *LoadPlan) mergePrefixed(prefix string, other *LoadPlan) {
	for path := range other.selects {
		p.selects[prefix+"."+path] = struct{}{}
	}
	for path, sub := range other.prefetches {
		p.PrefetchNested(prefix+"."+path, sub)
	}
}

// Clone returns a deep copy.
func (p *LoadPlan) Clone() *LoadPlan {
	out := NewLoadPlan()
	if p == nil {
		return out
	}
	for path := range p.selects {
		out.selects[path] = struct{}{}
	}
	for path, sub := range p.prefetches {
		if sub == nil {
			out.prefetches[path] = nil
			continue
		}
		out.prefetches[path] = sub.Clone()
	}
	return out
}

// Empty reports whether the plan loads nothing.
func (p *LoadPlan) Empty() bool {
	return p == nil || (len(p.selects) == 0 && len(p.prefetches) == 0)
}

// HasSelect reports whether path is joined.
func (p *LoadPlan) HasSelect(path string) bool {
	if p == nil {
		return false
	}
	_, ok := p.selects[path]
	return ok
}

// SelectPaths returns the joined paths in order.
func (p *LoadPlan) SelectPaths() []string {
	if p == nil {
		return nil
	}
	paths := make([]string, 0, len(p.selects))
	for path := range p.selects {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Prefetches returns the preloaded paths in order.
func (p *LoadPlan) Prefetches() []Prefetch {
	if p == nil {
		return nil
	}
	out := make([]Prefetch, 0, len(p.prefetches))
	for path, sub := range p.prefetches {
		out = append(out, Prefetch{Path: path, Plan: sub})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// PrefetchPaths returns the preloaded paths without their sub-plans.
func (p *LoadPlan) PrefetchPaths() []string {
	prefetches := p.Prefetches()
	paths := make([]string, len(prefetches))
	for i, pf := range prefetches {
		paths[i] = pf.Path
	}
	return paths
}

// String renders the plan as select=[...] prefetch=[...].
func (p *LoadPlan) String() string {
	var b strings.Builder
	b.WriteString("select=[")
	b.WriteString(strings.Join(p.SelectPaths(), " "))
	b.WriteString("] prefetch=[")
	for i, pf := range p.Prefetches() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(pf.Path)
		if pf.Plan != nil {
			b.WriteString("{")
			b.WriteString(pf.Plan.String())
			b.WriteString("}")
		}
	}
	b.WriteString("]")
	return b.String()
}

// Apply configures db to load the plan: joins for selects and preloads for
// prefetches, each nested plan applied to its own preload query.
func (p *LoadPlan) Apply(db *gorm.DB) *gorm.DB {
	if p.Empty() {
		return db
	}
	for _, path := range p.SelectPaths() {
		db = db.Joins(path)
	}
	for _, pf := range p.Prefetches() {
		if pf.Plan == nil {
			db = db.Preload(pf.Path)
			continue
		}
		sub := pf.Plan
		db = db.Preload(pf.Path, func(tx *gorm.DB) *gorm.DB {
			return sub.Apply(tx)
		})
	}
	return db
}
