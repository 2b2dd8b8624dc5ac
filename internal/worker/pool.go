// Package worker provides a parallel image processing worker pool.
package worker

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Processor transforms one input file into one output file.
// Skipped reports that the output already existed and force was not set.
type Processor interface {
	Process(ctx context.Context, input, output string, force bool) (skipped bool, err error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, input, output string, force bool) (bool, error)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, input, output string, force bool) (bool, error) {
	return f(ctx, input, output, force)
}

// Task represents a single image job.
type Task struct {
	Input  string
	Output string
	Force  bool
}

// Result represents the outcome of an image job.
type Result struct {
	Task    Task
	Err     error
	Elapsed time.Duration
	Skipped bool
}

// Counts summarizes a batch in flight. Done includes Failed and Skipped.
type Counts struct {
	Done    int
	Total   int
	Failed  int
	Skipped int
}

// Processed is the number of images that were actually written.
func (c Counts) Processed() int {
	return c.Done - c.Failed - c.Skipped
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(Counts)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Processor  Processor
	OnProgress ProgressFunc
}

// Pool manages parallel image processing.
type Pool struct {
	workers    int
	processor  Processor
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		processor:  cfg.Processor,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all tasks and returns one result per task.
// Tasks are processed in parallel by the configured number of workers.
// Once ctx is cancelled the remaining tasks are reported with ctx.Err()
// without being started.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	// Collect results in a separate goroutine
	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		c := Counts{Total: len(tasks)}
		for result := range resultCh {
			results = append(results, result)

			c.Done++
			switch {
			case result.Err != nil:
				c.Failed++
			case result.Skipped:
				c.Skipped++
			}
			if p.onProgress != nil {
				p.onProgress(c)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		if err := ctx.Err(); err != nil {
			results <- Result{Task: task, Err: err}
			continue
		}

		start := time.Now()
		skipped, err := p.processor.Process(ctx, task.Input, task.Output, task.Force)

		results <- Result{
			Task:    task,
			Skipped: skipped,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}

// OutputPath names the output of input inside dir: the input base name
// with suffix appended before the new extension.
// OutputPath("in/cat.jpg", "out", "-sharp", ".jpg") is "out/cat-sharp.jpg".
func OutputPath(input, dir, suffix, ext string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+suffix+ext)
}

// Plan builds one task per input.
func Plan(inputs []string, dir, suffix, ext string, force bool) []Task {
	tasks := make([]Task, 0, len(inputs))
	for _, in := range inputs {
		tasks = append(tasks, Task{Input: in, Output: OutputPath(in, dir, suffix, ext), Force: force})
	}
	return tasks
}
