// Package pipeline runs an analysis as a sequence of stages over items
// drawn from a channel. Steps inside a stage run concurrently; stages run
// in order, so a later stage can rely on everything an earlier one wrote.
package pipeline

import (
	"context"
	"log"
	"sync"
)

// Step is one named unit of analysis that mutates the item in place. Steps
// sharing a stage run concurrently against the same item and must write to
// disjoint fields. A failing step returns an error; the pipeline logs it
// under the step's name and keeps going.
type Step[T any] struct {
	Name string
	Run  func(ctx context.Context, item *T) error
}

// NamedStep wraps fn as a Step labelled name for failure logs.
func NamedStep[T any](name string, fn func(ctx context.Context, item *T) error) Step[T] {
	return Step[T]{Name: name, Run: fn}
}

// Stage groups steps that are independent of each other and therefore safe
// to start together. The pipeline waits for every step in the stage before
// moving on.
type Stage[T any] struct {
	steps []Step[T]
}

// NewStage constructs a Stage from the provided steps.
func NewStage[T any](steps ...Step[T]) Stage[T] {
	return Stage[T]{steps: steps}
}

// Pipeline applies its stages to every item arriving on an input channel.
// Generic over the item type T.
type Pipeline[T any] struct {
	stages []Stage[T]
	done   func(ctx context.Context, item *T)
}

// New constructs a Pipeline from the provided stages, applied in order.
func New[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// OnDone registers a callback invoked after every stage has finished for an
// item. This is where callers persist results or acknowledge the message
// that carried the item in.
func (p *Pipeline[T]) OnDone(fn func(ctx context.Context, item *T)) *Pipeline[T] {
	p.done = fn
	return p
}

// Process consumes items until the input channel closes. For each item the
// stages run sequentially with a barrier between them; step errors are
// logged, never fatal, so one bad image cannot stall the stream. Steps
// observe ctx for cancellation of their own work.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T) {
	for item := range in {
		for _, stage := range p.stages {
			var wg sync.WaitGroup
			for _, step := range stage.steps {
				wg.Add(1)
				go func(step Step[T]) {
					defer wg.Done()
					if err := step.Run(ctx, item); err != nil {
						log.Printf("step %s failed: %v", step.Name, err)
					}
				}(step)
			}
			wg.Wait()
		}
		if p.done != nil {
			p.done(ctx, item)
		}
	}
}
