package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/KseniyaZaitseva1/bloggpt/internal/errs"
	"github.com/KseniyaZaitseva1/bloggpt/internal/metrics"
	"github.com/KseniyaZaitseva1/bloggpt/internal/model"
	"github.com/KseniyaZaitseva1/bloggpt/pkg/llm"

	"github.com/google/uuid"
)

type NewsFetcher interface {
	Fetch(ctx context.Context, topic string) (string, error)
	Source() string
}

type Generator interface {
	Generate(ctx context.Context, topic, digest string) (*llm.Result, error)
}

type JobStore interface {
	SaveJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
}

type UsageRecorder interface {
	RecordUsage(ctx context.Context, apiName string, requests int, tokens int64) error
}

type Options struct {
	JobTimeout time.Duration
	Metrics    *metrics.Metrics
	// Usage is optional; nil disables accounting.
	Usage UsageRecorder
}

const (
	defaultJobTimeout = 2 * time.Minute
	jobSaveTimeout    = 5 * time.Second
	usageTimeout      = 2 * time.Second
	generatorAPIName  = "openai"
)

type Pipeline struct {
	news         NewsFetcher
	generator    Generator
	jobs         JobStore
	usage        UsageRecorder
	metrics      *metrics.Metrics
	jobTimeout   time.Duration
	usageTimeout time.Duration

	newID func() string
	now   func() time.Time
	wg    sync.WaitGroup
}

func New(news NewsFetcher, generator Generator, jobs JobStore, opts Options) *Pipeline {
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = defaultJobTimeout
	}
	return &Pipeline{
		news:         news,
		generator:    generator,
		jobs:         jobs,
		usage:        opts.Usage,
		metrics:      opts.Metrics,
		jobTimeout:   opts.JobTimeout,
		usageTimeout: usageTimeout,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// Generate fetches news for the topic and runs the generation chain in the
// caller's context. Nothing is fetched for an empty topic.
func (p *Pipeline) Generate(ctx context.Context, topic string) (*model.Post, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errs.BadInputError{Msg: "topic must not be empty"}
	}

	start := time.Now()
	post, err := p.run(ctx, topic)
	p.metrics.Pipeline(start, err)
	return post, err
}

func (p *Pipeline) run(ctx context.Context, topic string) (*model.Post, error) {
	digest, err := p.news.Fetch(ctx, topic)
	p.metrics.NewsFetch(err)
	p.recordUsage(ctx, p.news.Source(), 1, 0)
	if err != nil {
		return nil, errs.UpstreamError{Service: p.news.Source(), Err: err}
	}

	res, err := p.generator.Generate(ctx, topic, digest)
	if err != nil {
		step, cause := llm.StepBody, err
		var stepErr *llm.StepError
		if errors.As(err, &stepErr) {
			step, cause = stepErr.Step, stepErr.Err
			p.recordUsage(ctx, generatorAPIName, stepErr.Calls, stepErr.CompletionTokens)
		}
		p.metrics.Generation(step, 0, err)
		return nil, errs.GenerationError{Step: step, Err: cause}
	}

	p.metrics.Generation("", res.CompletionTokens, nil)
	p.recordUsage(ctx, generatorAPIName, res.Calls, res.CompletionTokens)

	return &model.Post{
		Topic:            topic,
		Title:            res.Title,
		MetaDescription:  res.MetaDescription,
		Body:             res.Body,
		Model:            res.Model,
		Calls:            res.Calls,
		CompletionTokens: res.CompletionTokens,
		GeneratedAt:      p.now(),
	}, nil
}

// Submit validates the topic, stores a processing job and runs the pipeline
// in the background. The job outlives the request that created it.
func (p *Pipeline) Submit(ctx context.Context, topic string) (*model.Job, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errs.BadInputError{Msg: "topic must not be empty"}
	}

	now := p.now()
	job := &model.Job{
		ID:        p.newID(),
		Topic:     topic,
		Status:    model.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.jobs.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	p.wg.Add(1)
	go p.runJob(*job)

	return job, nil
}

func (p *Pipeline) runJob(job model.Job) {
	defer p.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
	defer cancel()

	post, err := p.Generate(ctx, job.Topic)
	job.UpdatedAt = p.now()
	if err != nil {
		job.Status = model.StatusFailed
		job.Error = err.Error()
		slog.Error("deferred generation failed", "job_id", job.ID, "topic", job.Topic, "error", err)
	} else {
		job.Status = model.StatusCompleted
		job.Post = post
		slog.Info("deferred generation completed",
			"job_id", job.ID,
			"topic", job.Topic,
			"title", post.Title,
			"meta_description", post.MetaDescription,
			"body_chars", utf8.RuneCountInString(post.Body),
		)
		slog.Debug("deferred generation body", "job_id", job.ID, "post_content", post.Body)
	}
	p.metrics.Job(job.Status)

	saveCtx, saveCancel := context.WithTimeout(context.Background(), jobSaveTimeout)
	defer saveCancel()
	if err := p.jobs.SaveJob(saveCtx, &job); err != nil {
		slog.Error("error saving job result", "job_id", job.ID, "error", err)
	}
}

func (p *Pipeline) Job(ctx context.Context, id string) (*model.Job, error) {
	return p.jobs.GetJob(ctx, id)
}

// Wait blocks until every background job has finished or ctx is done.
func (p *Pipeline) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) recordUsage(ctx context.Context, apiName string, requests int, tokens int64) {
	if p.usage == nil || requests == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.usageTimeout)
	defer cancel()
	if err := p.usage.RecordUsage(ctx, apiName, requests, tokens); err != nil {
		slog.Warn("error recording api usage", "api", apiName, "error", err)
	}
}
