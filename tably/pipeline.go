package tably

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Verb is one deferred pipeline stage: a named table transformation.
// Stage constructors mirror the eager Table methods; Pipe applies them
// left to right, which is semantically identical to nesting the method
// calls outside-in.
type Verb struct {
	name  string
	apply func(*Table) (*Table, error)
}

// Name returns the verb's name.
func (v Verb) Name() string { return v.name }

// Stage wraps an arbitrary table transformation as a pipeline verb.
func Stage(name string, fn func(*Table) (*Table, error)) Verb {
	return Verb{name: name, apply: fn}
}

// Filter is the deferred form of Table.Filter.
func Filter(preds ...Expr) Verb {
	return Stage("filter", func(t *Table) (*Table, error) { return t.Filter(preds...) })
}

// FilterWith is the deferred form of Table.FilterWith.
func FilterWith(env *Env, preds ...Expr) Verb {
	return Stage("filter", func(t *Table) (*Table, error) { return t.FilterWith(env, preds...) })
}

// Arrange is the deferred form of Table.Arrange.
func Arrange(keys ...Expr) Verb {
	return Stage("arrange", func(t *Table) (*Table, error) { return t.Arrange(keys...) })
}

// ArrangeByGroup is the deferred form of Table.ArrangeByGroup.
func ArrangeByGroup(keys ...Expr) Verb {
	return Stage("arrange", func(t *Table) (*Table, error) { return t.ArrangeByGroup(keys...) })
}

// Select is the deferred form of Table.Select.
func Select(exprs ...Expr) Verb {
	return Stage("select", func(t *Table) (*Table, error) { return t.Select(exprs...) })
}

// SelectWith is the deferred form of Table.SelectWith.
func SelectWith(env *Env, exprs ...Expr) Verb {
	return Stage("select", func(t *Table) (*Table, error) { return t.SelectWith(env, exprs...) })
}

// Rename is the deferred form of Table.Rename.
func Rename(exprs ...Expr) Verb {
	return Stage("rename", func(t *Table) (*Table, error) { return t.Rename(exprs...) })
}

// Relocate is the deferred form of Table.Relocate.
func Relocate(anchor Anchor, exprs ...Expr) Verb {
	return Stage("relocate", func(t *Table) (*Table, error) { return t.Relocate(anchor, exprs...) })
}

// Mutate is the deferred form of Table.Mutate.
func Mutate(exprs ...Expr) Verb {
	return Stage("mutate", func(t *Table) (*Table, error) { return t.Mutate(exprs...) })
}

// MutateWith is the deferred form of Table.MutateWith.
func MutateWith(env *Env, exprs ...Expr) Verb {
	return Stage("mutate", func(t *Table) (*Table, error) { return t.MutateWith(env, exprs...) })
}

// Transmute is the deferred form of Table.Transmute.
func Transmute(exprs ...Expr) Verb {
	return Stage("transmute", func(t *Table) (*Table, error) { return t.Transmute(exprs...) })
}

// Summarise is the deferred form of Table.Summarise.
func Summarise(exprs ...Expr) Verb {
	return Stage("summarise", func(t *Table) (*Table, error) { return t.Summarise(exprs...) })
}

// GroupBy is the deferred form of Table.GroupBy.
func GroupBy(exprs ...Expr) Verb {
	return Stage("group_by", func(t *Table) (*Table, error) { return t.GroupBy(exprs...) })
}

// Ungroup is the deferred form of Table.Ungroup.
func Ungroup() Verb {
	return Stage("ungroup", func(t *Table) (*Table, error) { return t.Ungroup(), nil })
}

// Slice is the deferred form of Table.Slice.
func Slice(exprs ...Expr) Verb {
	return Stage("slice", func(t *Table) (*Table, error) { return t.Slice(exprs...) })
}

// SliceHead is the deferred form of Table.SliceHead.
func SliceHead(n int) Verb {
	return Stage("slice_head", func(t *Table) (*Table, error) { return t.SliceHead(n) })
}

// SliceTail is the deferred form of Table.SliceTail.
func SliceTail(n int) Verb {
	return Stage("slice_tail", func(t *Table) (*Table, error) { return t.SliceTail(n) })
}

// SliceMin is the deferred form of Table.SliceMin.
func SliceMin(key Expr, n int) Verb {
	return Stage("slice_min", func(t *Table) (*Table, error) { return t.SliceMin(key, n) })
}

// SliceMax is the deferred form of Table.SliceMax.
func SliceMax(key Expr, n int) Verb {
	return Stage("slice_max", func(t *Table) (*Table, error) { return t.SliceMax(key, n) })
}

// SliceSample is the deferred form of Table.SliceSample.
func SliceSample(spec SampleSpec) Verb {
	return Stage("slice_sample", func(t *Table) (*Table, error) { return t.SliceSample(spec) })
}

// Distinct is the deferred form of Table.Distinct.
func Distinct(exprs ...Expr) Verb {
	return Stage("distinct", func(t *Table) (*Table, error) { return t.Distinct(exprs...) })
}

// Count is the deferred form of Table.Count.
func Count(exprs ...Expr) Verb {
	return Stage("count", func(t *Table) (*Table, error) { return t.Count(exprs...) })
}

// Pipeline threads a table through a verb sequence. A failing stage
// aborts the run and surfaces as a StageError carrying the stage index
// and verb name.
type Pipeline struct {
	stages []Verb
	logger *slog.Logger
}

// NewPipeline creates a pipeline from the given stages.
func NewPipeline(stages ...Verb) *Pipeline {
	return &Pipeline{stages: stages}
}

// WithLogger attaches a logger; each run then logs per-stage progress
// under a fresh run id.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	p.logger = l
	return p
}

// Then appends further stages.
func (p *Pipeline) Then(stages ...Verb) *Pipeline {
	p.stages = append(p.stages, stages...)
	return p
}

// Run applies the stages left to right.
func (p *Pipeline) Run(t *Table) (*Table, error) {
	log := p.logger
	if log != nil {
		log = log.With(slog.String("run_id", uuid.NewString()))
		log.Debug("pipeline start",
			slog.Int("stages", len(p.stages)),
			slog.Int("rows", t.NumRows()),
			slog.Int("columns", t.NumColumns()))
	}
	cur := t
	for i, v := range p.stages {
		start := time.Now()
		next, err := v.apply(cur)
		if err != nil {
			if log != nil {
				log.Error("pipeline stage failed",
					slog.Int("stage", i),
					slog.String("verb", v.name),
					slog.Any("error", err))
			}
			return nil, &StageError{Stage: i, Verb: v.name, Err: err}
		}
		if log != nil {
			log.Debug("pipeline stage done",
				slog.Int("stage", i),
				slog.String("verb", v.name),
				slog.Int("rows", next.NumRows()),
				slog.Int("columns", next.NumColumns()),
				slog.Duration("elapsed", time.Since(start)))
		}
		cur = next
	}
	return cur, nil
}

// Pipe applies the stages to t immediately.
func Pipe(t *Table, stages ...Verb) (*Table, error) {
	return NewPipeline(stages...).Run(t)
}
