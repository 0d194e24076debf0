package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

type fakeCompleter struct {
	replies []Completion
	failAt  int
	err     error
	prompts []string
	params  []Params
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, params Params) (*Completion, error) {
	f.prompts = append(f.prompts, prompt)
	f.params = append(f.params, params)
	call := len(f.prompts)
	if f.err != nil && call == f.failAt {
		return nil, f.err
	}
	if call > len(f.replies) {
		return &Completion{}, nil
	}
	reply := f.replies[call-1]
	return &reply, nil
}

func (f *fakeCompleter) Model() string {
	return "fake-model"
}

func reply(text string, tokens int64) Completion {
	return Completion{Text: text, FinishReason: "stop", CompletionTokens: tokens}
}

const evDigest = "EV sales surge in Q3\nNew battery tech unveiled\nGovernment incentives expanded"

func TestGenerate_Chain(t *testing.T) {
	fc := &fakeCompleter{replies: []Completion{
		reply("  \"The Electric Surge\"  ", 5),
		reply(" EVs are selling faster than ever ", 8),
		reply("Body text. More body.\n", 20),
	}}
	g := NewGenerator(fc, DefaultGeneratorConfig())

	res, err := g.Generate(context.Background(), "electric vehicles", evDigest)

	assert.Equal(t, nil, err)
	assert.Equal(t, "The Electric Surge", res.Title)
	assert.Equal(t, "EVs are selling faster than ever", res.MetaDescription)
	assert.Equal(t, "Body text. More body.", res.Body)
	assert.Equal(t, "fake-model", res.Model)
	assert.Equal(t, 3, res.Calls)
	assert.Equal(t, int64(33), res.CompletionTokens)

	assert.Equal(t, 3, len(fc.prompts))
	for _, p := range fc.prompts {
		assert.Equal(t, true, strings.Contains(p, evDigest))
	}
	assert.Equal(t, true, strings.Contains(fc.prompts[0], "electric vehicles"))
	assert.Equal(t, true, strings.Contains(fc.prompts[1], "The Electric Surge"))
	assert.Equal(t, true, strings.Contains(fc.prompts[2], "electric vehicles"))

	assert.Equal(t, int64(50), fc.params[0].MaxTokens)
	assert.Equal(t, []string{"\n"}, fc.params[0].Stop)
	assert.Equal(t, int64(150), fc.params[1].MaxTokens)
	assert.Equal(t, []string{"."}, fc.params[1].Stop)
	assert.Equal(t, int64(1500), fc.params[2].MaxTokens)
	assert.Equal(t, 0.3, fc.params[2].PresencePenalty)
}

func TestGenerate_StopsAtFirstFailure(t *testing.T) {
	cause := errors.New("rate limited")

	for failAt, step := range map[int]string{1: StepTitle, 2: StepMeta, 3: StepBody} {
		fc := &fakeCompleter{
			replies: []Completion{reply("t", 1), reply("m", 1), reply("b", 1)},
			failAt:  failAt,
			err:     cause,
		}
		g := NewGenerator(fc, DefaultGeneratorConfig())

		res, err := g.Generate(context.Background(), "topic", evDigest)

		assert.Equal(t, (*Result)(nil), res)
		var stepErr *StepError
		assert.Equal(t, true, errors.As(err, &stepErr))
		assert.Equal(t, step, stepErr.Step)
		assert.Equal(t, true, errors.Is(err, cause))
		assert.Equal(t, failAt, len(fc.prompts))
	}
}

func TestGenerate_TrimsBody(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.TrimChars = 30
	fc := &fakeCompleter{replies: []Completion{
		reply("Title", 1),
		reply("Meta", 1),
		reply("First sentence here. Second sentence is cut off mid", 10),
	}}

	res, err := NewGenerator(fc, cfg).Generate(context.Background(), "topic", evDigest)

	assert.Equal(t, nil, err)
	assert.Equal(t, "First sentence here.", res.Body)
}

func TestGenerate_Paragraphs(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.BodyStrategy = BodyParagraphs
	fc := &fakeCompleter{replies: []Completion{
		reply("Title", 1),
		reply("Meta", 1),
		reply("Paragraph one.", 10),
		reply("Paragraph two.", 10),
		reply("   ", 0),
		reply("never requested", 0),
	}}

	res, err := NewGenerator(fc, cfg).Generate(context.Background(), "topic", evDigest)

	assert.Equal(t, nil, err)
	assert.Equal(t, "Paragraph one.\n\nParagraph two.", res.Body)
	assert.Equal(t, 5, len(fc.prompts))
	assert.Equal(t, true, strings.Contains(fc.prompts[3], "Paragraph one."))
	assert.Equal(t, true, strings.Contains(fc.prompts[4], "Paragraph two."))
	assert.Equal(t, int64(400), fc.params[2].MaxTokens)
}

func TestGenerate_ParagraphsRoundCap(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.BodyStrategy = BodyParagraphs
	cfg.BodyRounds = 5
	replies := []Completion{reply("Title", 1), reply("Meta", 1)}
	for i := 0; i < 10; i++ {
		replies = append(replies, reply("More.", 10))
	}
	fc := &fakeCompleter{replies: replies}

	res, err := NewGenerator(fc, cfg).Generate(context.Background(), "topic", evDigest)

	assert.Equal(t, nil, err)
	assert.Equal(t, 2+5, len(fc.prompts))
	assert.Equal(t, 5, strings.Count(res.Body, "More."))
}

func TestGenerate_Incremental(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.BodyStrategy = BodyIncremental
	cfg.IncrementTokens = 100
	cfg.TokenBudget = 250
	fc := &fakeCompleter{replies: []Completion{
		reply("Title", 1),
		reply("Meta", 1),
		reply("Intro sentence. Half a sent", 100),
		reply("Middle part! Another", 100),
		reply("Closing words?", 50),
		reply("never requested.", 50),
	}}

	res, err := NewGenerator(fc, cfg).Generate(context.Background(), "topic", evDigest)

	assert.Equal(t, nil, err)
	assert.Equal(t, "Intro sentence. Middle part! Closing words?", res.Body)
	assert.Equal(t, 5, len(fc.prompts))
	assert.Equal(t, int64(100), fc.params[2].MaxTokens)
	assert.Equal(t, int64(100), fc.params[3].MaxTokens)
	assert.Equal(t, int64(50), fc.params[4].MaxTokens)
	assert.Equal(t, true, strings.Contains(fc.prompts[3], "Intro sentence."))
}

func TestGenerate_IncrementalEmptyIncrementStops(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.BodyStrategy = BodyIncremental
	fc := &fakeCompleter{replies: []Completion{
		reply("Title", 1),
		reply("Meta", 1),
		reply("Only sentence.", 20),
		reply("", 0),
	}}

	res, err := NewGenerator(fc, cfg).Generate(context.Background(), "topic", evDigest)

	assert.Equal(t, nil, err)
	assert.Equal(t, "Only sentence.", res.Body)
	assert.Equal(t, 4, len(fc.prompts))
}

func TestGenerate_IncrementalZeroUsageStillTerminates(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.BodyStrategy = BodyIncremental
	cfg.IncrementTokens = 100
	cfg.TokenBudget = 300
	replies := []Completion{reply("Title", 1), reply("Meta", 1)}
	for i := 0; i < 20; i++ {
		replies = append(replies, reply("Again.", 0))
	}
	fc := &fakeCompleter{replies: replies}

	_, err := NewGenerator(fc, cfg).Generate(context.Background(), "topic", evDigest)

	assert.Equal(t, nil, err)
	assert.Equal(t, 2+3, len(fc.prompts))
}

func TestGenerate_IncrementalRoundCeiling(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.BodyStrategy = BodyIncremental
	cfg.IncrementTokens = 1
	cfg.TokenBudget = 1000
	replies := []Completion{reply("Title", 1), reply("Meta", 1)}
	for i := 0; i < 100; i++ {
		replies = append(replies, reply("Tiny.", 0))
	}
	fc := &fakeCompleter{replies: replies}

	_, err := NewGenerator(fc, cfg).Generate(context.Background(), "topic", evDigest)

	assert.Equal(t, nil, err)
	assert.Equal(t, 2+maxIncrementRounds, len(fc.prompts))
}

func TestGenerateCombined(t *testing.T) {
	fc := &fakeCompleter{replies: []Completion{
		reply("TITLE: \"Charged Up\"\nMETA: Why EV sales keep climbing.\nBODY:\n## Intro\nEVs are everywhere.\n\nMore detail.", 200),
	}}

	res, err := NewGenerator(fc, DefaultGeneratorConfig()).GenerateCombined(context.Background(), "electric vehicles", evDigest)

	assert.Equal(t, nil, err)
	assert.Equal(t, "Charged Up", res.Title)
	assert.Equal(t, "Why EV sales keep climbing.", res.MetaDescription)
	assert.Equal(t, "## Intro\nEVs are everywhere.\n\nMore detail.", res.Body)
	assert.Equal(t, 1, res.Calls)
	assert.Equal(t, int64(1500+50+150), fc.params[0].MaxTokens)
}

func TestGenerateCombined_MissingSection(t *testing.T) {
	fc := &fakeCompleter{replies: []Completion{
		reply("TITLE: Charged Up\nBODY:\nSome body.", 50),
	}}

	res, err := NewGenerator(fc, DefaultGeneratorConfig()).GenerateCombined(context.Background(), "topic", evDigest)

	assert.Equal(t, (*Result)(nil), res)
	var stepErr *StepError
	assert.Equal(t, true, errors.As(err, &stepErr))
	assert.Equal(t, StepParse, stepErr.Step)
	assert.Equal(t, true, errors.Is(err, errMissingSections))
}

func TestGenerateCombined_MarkerLinesInsideBody(t *testing.T) {
	fc := &fakeCompleter{replies: []Completion{
		reply("TITLE: Charged Up\nMETA: Why EVs sell.\nBODY:\nIntro paragraph.\n\nMeta: the industry view\nAnalysts expect growth.", 120),
	}}

	res, err := NewGenerator(fc, DefaultGeneratorConfig()).GenerateCombined(context.Background(), "electric vehicles", evDigest)

	assert.Equal(t, nil, err)
	assert.Equal(t, "Charged Up", res.Title)
	assert.Equal(t, "Why EVs sell.", res.MetaDescription)
	assert.Equal(t, "Intro paragraph.\n\nMeta: the industry view\nAnalysts expect growth.", res.Body)
}

func TestParseSections_MarkersAcceptedOnceInOrder(t *testing.T) {
	title, meta, body, err := parseSections("TITLE: Hello\nMETA: World\nTitle: not a new title\nBODY:\nText.\nBody: still text.\nTITLE: still text")

	assert.Equal(t, nil, err)
	assert.Equal(t, "Hello", title)
	assert.Equal(t, "World\nTitle: not a new title", meta)
	assert.Equal(t, "Text.\nBody: still text.\nTITLE: still text", body)
}

func TestGenerate_FailureCarriesSpend(t *testing.T) {
	fc := &fakeCompleter{
		replies: []Completion{reply("Title", 4), reply("Meta", 6), reply("b", 1)},
		failAt:  3,
		err:     errors.New("timeout"),
	}

	_, err := NewGenerator(fc, DefaultGeneratorConfig()).Generate(context.Background(), "topic", evDigest)

	var stepErr *StepError
	assert.Equal(t, true, errors.As(err, &stepErr))
	assert.Equal(t, StepBody, stepErr.Step)
	assert.Equal(t, 3, stepErr.Calls)
	assert.Equal(t, int64(10), stepErr.CompletionTokens)
}

func TestParseSections_MarkdownMarkers(t *testing.T) {
	title, meta, body, err := parseSections("**Title:** Hello\n**Meta:** World\n**Body:**\nText.")

	assert.Equal(t, nil, err)
	assert.Equal(t, "Hello", title)
	assert.Equal(t, "World", meta)
	assert.Equal(t, "Text.", body)
}

func TestGenerate_CombinedLayout(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.Combined = true
	fc := &fakeCompleter{replies: []Completion{
		reply("TITLE: One\nMETA: Two\nBODY:\nThree.", 30),
	}}

	res, err := NewGenerator(fc, cfg).Generate(context.Background(), "topic", evDigest)

	assert.Equal(t, nil, err)
	assert.Equal(t, "One", res.Title)
	assert.Equal(t, 1, len(fc.prompts))
}
