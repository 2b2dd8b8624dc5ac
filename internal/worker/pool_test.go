package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// mockProcessor simulates image processing for testing
type mockProcessor struct {
	delay     time.Duration
	failFiles map[string]bool // inputs that should fail
	existing  map[string]bool // outputs that already exist
	callCount atomic.Int32
}

func (m *mockProcessor) Process(ctx context.Context, input, output string, force bool) (bool, error) {
	m.callCount.Add(1)

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(m.delay):
	}

	if m.failFiles != nil && m.failFiles[input] {
		return false, errors.New("simulated failure")
	}
	if !force && m.existing != nil && m.existing[output] {
		return true, nil
	}
	return false, nil
}

func photoTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		in := fmt.Sprintf("photos/img_%03d.jpg", i)
		tasks[i] = Task{Input: in, Output: OutputPath(in, "out", "-edit", ".png")}
	}
	return tasks
}

func TestPool_BasicExecution(t *testing.T) {
	proc := &mockProcessor{delay: 10 * time.Millisecond}

	pool := New(Config{
		Workers:   2,
		Processor: proc,
	})

	tasks := photoTasks(3)
	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}

	for _, r := range results {
		if r.Err != nil {
			t.Errorf("Unexpected error for %s: %v", r.Task.Input, r.Err)
		}
		if r.Skipped {
			t.Errorf("Did not expect %s to be skipped", r.Task.Input)
		}
	}

	if proc.callCount.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d processor calls, got %d", len(tasks), proc.callCount.Load())
	}
}

func TestPool_Parallelism(t *testing.T) {
	proc := &mockProcessor{delay: 50 * time.Millisecond}

	pool := New(Config{
		Workers:   4,
		Processor: proc,
	})

	tasks := photoTasks(8)

	start := time.Now()
	results := pool.Run(context.Background(), tasks)
	elapsed := time.Since(start)

	// With 4 workers and 8 tasks at 50ms each, should take ~100ms (2 batches)
	maxExpected := 200 * time.Millisecond
	if elapsed > maxExpected {
		t.Errorf("Expected parallel execution in ~100ms, took %v", elapsed)
	}

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	tasks := photoTasks(3)
	failFile := tasks[1].Input
	proc := &mockProcessor{
		delay:     10 * time.Millisecond,
		failFiles: map[string]bool{failFile: true},
	}

	pool := New(Config{
		Workers:   2,
		Processor: proc,
	})

	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}

	var successCount, failCount int
	for _, r := range results {
		if r.Err != nil {
			failCount++
			if r.Task.Input != failFile {
				t.Errorf("Unexpected failure for %s", r.Task.Input)
			}
		} else {
			successCount++
		}
	}

	if successCount != 2 {
		t.Errorf("Expected 2 successes, got %d", successCount)
	}
	if failCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failCount)
	}
}

func TestPool_SkipExisting(t *testing.T) {
	tasks := photoTasks(2)
	proc := &mockProcessor{existing: map[string]bool{tasks[0].Output: true}}

	results := New(Config{Workers: 1, Processor: proc}).Run(context.Background(), tasks)

	skipped := 0
	for _, r := range results {
		if r.Skipped {
			skipped++
			if r.Task.Output != tasks[0].Output {
				t.Errorf("Unexpected skip of %s", r.Task.Output)
			}
		}
	}
	if skipped != 1 {
		t.Errorf("Expected 1 skipped, got %d", skipped)
	}

	tasks[0].Force = true
	results = New(Config{Workers: 1, Processor: proc}).Run(context.Background(), tasks[:1])
	if results[0].Skipped {
		t.Error("Expected forced task to run")
	}
}

func TestPool_Cancellation(t *testing.T) {
	proc := &mockProcessor{delay: 100 * time.Millisecond}

	pool := New(Config{
		Workers:   2,
		Processor: proc,
	})

	tasks := photoTasks(10)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, tasks)
	elapsed := time.Since(start)

	if elapsed > 200*time.Millisecond {
		t.Errorf("Expected early cancellation, took %v", elapsed)
	}

	// Every task is reported, cancelled or not.
	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}

	var cancelledCount int
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelledCount++
		}
	}
	if cancelledCount != len(tasks) {
		t.Errorf("Expected all %d tasks cancelled, got %d", len(tasks), cancelledCount)
	}
	if proc.callCount.Load() != 2 {
		t.Errorf("Expected only the first 2 tasks to start, got %d", proc.callCount.Load())
	}
}

func TestPool_ProgressCallback(t *testing.T) {
	proc := &mockProcessor{delay: 10 * time.Millisecond, failFiles: map[string]bool{"photos/img_001.jpg": true}}

	var progressCalls atomic.Int32
	var last Counts

	pool := New(Config{
		Workers:   2,
		Processor: proc,
		OnProgress: func(c Counts) {
			progressCalls.Add(1)
			last = c
		},
	})

	tasks := photoTasks(3)
	pool.Run(context.Background(), tasks)

	if progressCalls.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d progress callbacks, got %d", len(tasks), progressCalls.Load())
	}
	if last.Done != len(tasks) {
		t.Errorf("Expected Done=%d, got %d", len(tasks), last.Done)
	}
	if last.Total != len(tasks) {
		t.Errorf("Expected Total=%d, got %d", len(tasks), last.Total)
	}
	if last.Failed != 1 {
		t.Errorf("Expected last.Failed=1, got %d", last.Failed)
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	proc := &mockProcessor{}

	pool := New(Config{
		Workers:   2,
		Processor: proc,
	})

	results := pool.Run(context.Background(), nil)

	if len(results) != 0 {
		t.Errorf("Expected 0 results for empty tasks, got %d", len(results))
	}

	if proc.callCount.Load() != 0 {
		t.Errorf("Expected 0 processor calls for empty tasks, got %d", proc.callCount.Load())
	}
}

func TestProcessorFunc(t *testing.T) {
	var got string
	pool := New(Config{Processor: ProcessorFunc(func(_ context.Context, in, out string, _ bool) (bool, error) {
		got = in + "->" + out
		return false, nil
	})})

	pool.Run(context.Background(), []Task{{Input: "a.png", Output: "b.png"}})
	if got != "a.png->b.png" {
		t.Errorf("Expected a.png->b.png, got %s", got)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, dir, suffix, ext string
		expected                string
	}{
		{"in/cat.jpg", "out", "-sharp", ".jpg", filepath.Join("out", "cat-sharp.jpg")},
		{"dog.final.png", "", "", ".png", "dog.final.png"},
		{"/abs/path/noext", "o", "-cut", ".png", filepath.Join("o", "noext-cut.png")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := OutputPath(tt.input, tt.dir, tt.suffix, tt.ext); got != tt.expected {
				t.Errorf("OutputPath(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}

	tasks := Plan([]string{"a.jpg", "b.jpg"}, "out", "-x", ".png", true)
	if len(tasks) != 2 || !tasks[1].Force || tasks[1].Output != filepath.Join("out", "b-x.png") {
		t.Errorf("Unexpected plan: %+v", tasks)
	}
}
