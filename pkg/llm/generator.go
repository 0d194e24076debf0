package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type BodyStrategy string

const (
	BodySingle      BodyStrategy = "single"
	BodyParagraphs  BodyStrategy = "paragraphs"
	BodyIncremental BodyStrategy = "incremental"
)

// Hard ceiling for incremental rounds, independent of the token arithmetic.
const maxIncrementRounds = 50

type GeneratorConfig struct {
	Title     Params
	Meta      Params
	Body      Params
	Paragraph Params

	// Combined asks for the whole post in one call instead of the chain.
	Combined bool

	BodyStrategy BodyStrategy
	BodyMinChars int
	BodyRounds   int

	IncrementTokens int64
	TokenBudget     int64

	// TrimChars of 0 leaves the body untouched.
	TrimChars int
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Title: Params{MaxTokens: 50, Temperature: 0.5, Stop: []string{"\n"}},
		Meta:  Params{MaxTokens: 150, Temperature: 0.5, Stop: []string{"."}},
		Body: Params{
			MaxTokens:        1500,
			Temperature:      0.5,
			PresencePenalty:  0.3,
			FrequencyPenalty: 0.3,
		},
		Paragraph: Params{
			MaxTokens:        400,
			Temperature:      0.5,
			PresencePenalty:  0.3,
			FrequencyPenalty: 0.3,
		},
		BodyStrategy:    BodySingle,
		BodyMinChars:    2000,
		BodyRounds:      5,
		IncrementTokens: 100,
		TokenBudget:     1000,
	}
}

type Result struct {
	Title            string
	MetaDescription  string
	Body             string
	Model            string
	Calls            int
	CompletionTokens int64
}

type Generator struct {
	completer Completer
	cfg       GeneratorConfig
}

func NewGenerator(completer Completer, cfg GeneratorConfig) *Generator {
	return &Generator{completer: completer, cfg: cfg}
}

func (g *Generator) Generate(ctx context.Context, topic, digest string) (*Result, error) {
	if g.cfg.Combined {
		return g.GenerateCombined(ctx, topic, digest)
	}
	return g.GenerateChain(ctx, topic, digest)
}

// GenerateChain runs title, meta and body in order. The first failing call
// ends the chain and no later call is made.
func (g *Generator) GenerateChain(ctx context.Context, topic, digest string) (*Result, error) {
	res := &Result{Model: g.completer.Model()}

	title, err := g.complete(ctx, res, TitlePrompt(topic, digest), g.cfg.Title)
	if err != nil {
		return nil, stepFailed(StepTitle, res, err)
	}
	res.Title = cleanTitle(title.Text)

	meta, err := g.complete(ctx, res, MetaPrompt(res.Title, digest), g.cfg.Meta)
	if err != nil {
		return nil, stepFailed(StepMeta, res, err)
	}
	res.MetaDescription = strings.TrimSpace(meta.Text)

	body, err := g.body(ctx, res, topic, digest)
	if err != nil {
		return nil, stepFailed(StepBody, res, err)
	}
	res.Body = TrimToSentence(body, g.cfg.TrimChars)

	return res, nil
}

// GenerateCombined asks for the whole post in one call and splits it on the
// section markers.
func (g *Generator) GenerateCombined(ctx context.Context, topic, digest string) (*Result, error) {
	res := &Result{Model: g.completer.Model()}

	params := g.cfg.Body
	params.MaxTokens += g.cfg.Title.MaxTokens + g.cfg.Meta.MaxTokens

	out, err := g.complete(ctx, res, CombinedPrompt(topic, digest, g.cfg.BodyMinChars), params)
	if err != nil {
		return nil, stepFailed(StepBody, res, err)
	}

	title, meta, body, err := parseSections(out.Text)
	if err != nil {
		return nil, stepFailed(StepParse, res, err)
	}

	res.Title = cleanTitle(title)
	res.MetaDescription = meta
	res.Body = TrimToSentence(body, g.cfg.TrimChars)
	return res, nil
}

func (g *Generator) complete(ctx context.Context, res *Result, prompt string, params Params) (*Completion, error) {
	out, err := g.completer.Complete(ctx, prompt, params)
	res.Calls++
	if err != nil {
		return nil, err
	}
	res.CompletionTokens += out.CompletionTokens
	return out, nil
}

func (g *Generator) body(ctx context.Context, res *Result, topic, digest string) (string, error) {
	switch g.cfg.BodyStrategy {
	case BodyParagraphs:
		return g.paragraphBody(ctx, res, topic, digest)
	case BodyIncremental:
		return g.incrementalBody(ctx, res, topic, digest)
	case BodySingle, "":
		out, err := g.complete(ctx, res, BodyPrompt(topic, digest, g.cfg.BodyMinChars), g.cfg.Body)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(out.Text), nil
	default:
		return "", fmt.Errorf("unknown body strategy %q", g.cfg.BodyStrategy)
	}
}

func (g *Generator) paragraphBody(ctx context.Context, res *Result, topic, digest string) (string, error) {
	rounds := g.cfg.BodyRounds
	if rounds < 1 {
		rounds = 1
	}

	var paragraphs []string
	for round := 0; round < rounds; round++ {
		out, err := g.complete(ctx, res, ParagraphPrompt(topic, digest, paragraphs), g.cfg.Paragraph)
		if err != nil {
			return "", err
		}

		text := strings.TrimSpace(out.Text)
		if text == "" {
			break
		}
		paragraphs = append(paragraphs, text)
	}

	return strings.Join(paragraphs, "\n\n"), nil
}

func (g *Generator) incrementalBody(ctx context.Context, res *Result, topic, digest string) (string, error) {
	increment := g.cfg.IncrementTokens
	budget := g.cfg.TokenBudget
	if increment < 1 || budget < 1 {
		return "", fmt.Errorf("incremental body needs positive increment and budget")
	}

	rounds := int(budget/increment) + 1
	if rounds > maxIncrementRounds {
		rounds = maxIncrementRounds
	}

	var sb strings.Builder
	var used int64
	for round := 0; round < rounds && used < budget; round++ {
		params := g.cfg.Body
		params.MaxTokens = min(increment, budget-used)

		prompt := BodyPrompt(topic, digest, g.cfg.BodyMinChars)
		if sb.Len() > 0 {
			prompt = ContinuationPrompt(topic, digest, sb.String())
		}

		out, err := g.complete(ctx, res, prompt, params)
		if err != nil {
			return "", err
		}

		piece := cutToSentenceEnd(strings.TrimSpace(out.Text))
		if piece == "" {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(piece)

		// Some backends omit usage; count the full allowance so the loop still advances.
		spent := out.CompletionTokens
		if spent <= 0 {
			spent = params.MaxTokens
		}
		used += spent
	}

	return sb.String(), nil
}

var errMissingSections = errors.New("response has fewer than 3 sections")

// parseSections accepts each marker once, in TITLE, META, BODY order. Once
// BODY is open every remaining line belongs to it, so subheadings such as
// "Meta:" inside the post stay in the body.
func parseSections(text string) (title, meta, body string, err error) {
	order := []string{titleMarker, metaMarker, bodyMarker}
	sections := map[string]*strings.Builder{}
	var current *strings.Builder
	next := 0

	for _, line := range strings.Split(stripCodeFence(text), "\n") {
		if next < len(order) {
			if marker, rest, ok := splitMarker(line, order[next:]); ok {
				for order[next] != marker {
					next++
				}
				next++
				current = &strings.Builder{}
				sections[marker] = current
				line = rest
			}
		}
		if current == nil {
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}

	get := func(marker string) string {
		if b, ok := sections[marker]; ok {
			return strings.TrimSpace(b.String())
		}
		return ""
	}

	title, meta, body = get(titleMarker), get(metaMarker), get(bodyMarker)
	if title == "" || meta == "" || body == "" {
		return "", "", "", fmt.Errorf("%w: got %d", errMissingSections, countNonEmpty(title, meta, body))
	}
	return title, meta, body, nil
}

func splitMarker(line string, markers []string) (marker, rest string, ok bool) {
	trimmed := strings.TrimLeft(strings.TrimSpace(line), "*# ")
	for _, m := range markers {
		if len(trimmed) >= len(m) && strings.EqualFold(trimmed[:len(m)], m) {
			return m, strings.TrimLeft(trimmed[len(m):], "* "), true
		}
	}
	return "", "", false
}

func stepFailed(step string, res *Result, err error) *StepError {
	return &StepError{Step: step, Err: err, Calls: res.Calls, CompletionTokens: res.CompletionTokens}
}

func countNonEmpty(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}
