package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/mdpolish/internal/model"
	"github.com/ppiankov/mdpolish/internal/pipeline"
)

// Enhancer is the part of the pipeline batch jobs call
type Enhancer interface {
	EnhanceFile(ctx context.Context, path, out string, src pipeline.PageSource) (*pipeline.Result, error)
	EnhanceURL(ctx context.Context, rawURL string) (*pipeline.Result, error)
}

// FileTask is one page file to enhance
type FileTask struct {
	Path   string
	Out    string // Output path; may equal Path
	Source pipeline.PageSource
}

// FileJob enhances a page file
type FileJob struct {
	Task     FileTask
	Enhancer Enhancer
}

// Execute runs the job
func (j *FileJob) Execute(ctx context.Context) Result {
	res := &PageResult{Source: j.Task.Path, Output: j.Task.Out}
	out, err := j.Enhancer.EnhanceFile(ctx, j.Task.Path, j.Task.Out, j.Task.Source)
	if err != nil {
		res.Error = err
		return res
	}
	res.Report = out.Report
	return res
}

// URLJob fetches and enhances a remote page, waiting on the host limiter first
type URLJob struct {
	URL      string
	Enhancer Enhancer
	Limiter  *Limiter
}

// Execute runs the job
func (j *URLJob) Execute(ctx context.Context) Result {
	res := &PageResult{Source: j.URL}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.URL); err != nil {
			res.Error = fmt.Errorf("rate limit: %w", err)
			return res
		}
	}

	out, err := j.Enhancer.EnhanceURL(ctx, j.URL)
	if err != nil {
		res.Error = err
		return res
	}
	res.Report = out.Report
	res.HTML = out.HTML
	return res
}

// PageResult is the outcome of one page job
type PageResult struct {
	Source string
	Output string
	Report *model.PageReport
	HTML   []byte // Enhanced page for URL jobs; file jobs write to Output
	Error  error
}

// GetError returns the job error
func (r *PageResult) GetError() error {
	return r.Error
}

// Outcome converts the result into its run report form
func (r *PageResult) Outcome() model.PageOutcome {
	o := model.PageOutcome{Source: r.Source, Output: r.Output, Report: r.Report}
	if r.Error != nil {
		o.Error = r.Error.Error()
		o.Report = nil
	}
	return o
}

// BatchProcessor enhances many pages concurrently
type BatchProcessor struct {
	enhancer    Enhancer
	concurrency int
	limiter     *Limiter
	onResult    func(*PageResult)
}

// NewBatchProcessor creates a batch processor. URL jobs are limited to
// requestsPerSecond per host; zero disables limiting.
func NewBatchProcessor(enhancer Enhancer, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		enhancer:    enhancer,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
	}
}

// OnResult registers a callback run as each page completes
func (b *BatchProcessor) OnResult(fn func(*PageResult)) {
	b.onResult = fn
}

// ProcessFiles enhances page files; results are sorted by source path
func (b *BatchProcessor) ProcessFiles(ctx context.Context, tasks []FileTask) []*PageResult {
	jobs := make([]Job, 0, len(tasks))
	for _, t := range tasks {
		jobs = append(jobs, &FileJob{Task: t, Enhancer: b.enhancer})
	}
	return b.run(ctx, jobs)
}

// ProcessURLs fetches and enhances pages; results are sorted by URL
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*PageResult {
	jobs := make([]Job, 0, len(urls))
	for _, u := range urls {
		jobs = append(jobs, &URLJob{URL: u, Enhancer: b.enhancer, Limiter: b.limiter})
	}
	return b.run(ctx, jobs)
}

// ProcessFile reads URLs from a file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*PageResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}
	return b.ProcessURLs(ctx, urls), nil
}

func (b *BatchProcessor) run(ctx context.Context, jobs []Job) []*PageResult {
	if len(jobs) == 0 {
		return []*PageResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	if b.onResult != nil {
		pool.OnResult(func(r Result) { b.onResult(r.(*PageResult)) })
	}
	pool.Start()

	for _, job := range jobs {
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	pages := make([]*PageResult, len(results))
	for i, r := range results {
		pages[i] = r.(*PageResult)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Source < pages[j].Source })
	return pages
}

// ReadURLsFromFile reads one URL per line, skipping blanks, comments and duplicates
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
