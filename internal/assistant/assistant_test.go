package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamilbot/internal/chat"
	"tamilbot/internal/grounding"
	"tamilbot/internal/llm"
	"tamilbot/internal/metrics"
	"tamilbot/internal/tools"
	"tamilbot/internal/wiki"
)

type pages map[string]*wiki.Page

func (p pages) Page(ctx context.Context, title, lang string) (*wiki.Page, error) {
	if page, ok := p[lang+"|"+title]; ok {
		return page, nil
	}
	return &wiki.Page{Title: title}, nil
}

type provider struct {
	results []tools.SearchResult
	err     error
	calls   int
}

func (p *provider) Name() string { return "fake" }

func (p *provider) Search(ctx context.Context, query, lang string, maxResults int) ([]tools.SearchResult, error) {
	p.calls++
	return p.results, p.err
}

type generator struct {
	text    string
	err     error
	noCred  bool
	prompts []string
}

func (g *generator) HasCredentials() bool { return !g.noCred }

func (g *generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}

type fixture struct {
	pages    pages
	provider *provider
	gen      *generator
	asst     *Assistant
}

func newFixture(p pages, prov *provider, gen *generator) *fixture {
	lookup := wiki.NewLookup(p, wiki.DefaultOptions(), nil)
	searcher := tools.NewSearcher(prov, nil, tools.DefaultSearcherOptions(), nil)
	policy := grounding.NewPolicy(lookup, searcher, grounding.DefaultSufficiencyThreshold, metrics.New(), nil)
	return &fixture{
		pages:    p,
		provider: prov,
		gen:      gen,
		asst:     New(policy, gen, []string{"திருக்குறள் பற்றிய தகவல்", "சங்க இலக்கிய காலம்"}, metrics.New(), nil),
	}
}

func TestAsk_EncyclopediaOnly(t *testing.T) {
	f := newFixture(pages{
		"ta|திருக்குறள்": {Exists: true, Title: "திருக்குறள்", Summary: strings.Repeat("கு", 600), URL: "https://ta.wikipedia.org/wiki/திருக்குறள்"},
	}, &provider{}, &generator{text: "திருக்குறள் திருவள்ளுவரால் எழுதப்பட்டது."})

	var conv chat.Conversation
	reply, err := f.asst.Ask(context.Background(), &conv, "திருக்குறள்")
	require.NoError(t, err)

	assert.Equal(t, 0, f.provider.calls)
	assert.Equal(t, "விக்கிப்பீடியா (தமிழ்)", reply.Turn.SourceLabel)
	assert.Equal(t, "https://ta.wikipedia.org/wiki/திருக்குறள்", reply.Turn.SourceURL)
	assert.True(t, reply.UsedKnowledge)
	assert.False(t, reply.UsedSearch)

	turns := conv.All()
	require.Len(t, turns, 2)
	assert.Equal(t, chat.RoleUser, turns[0].Role)
	assert.Equal(t, "திருக்குறள்", turns[0].Content)
	assert.Equal(t, "திருக்குறள் திருவள்ளுவரால் எழுதப்பட்டது.", turns[1].Content)
}

func TestAsk_SearchOnly(t *testing.T) {
	f := newFixture(pages{}, &provider{results: []tools.SearchResult{
		{Title: "ஒன்று", Snippet: "a"}, {Title: "இரண்டு", Snippet: "b"}, {Title: "மூன்று", Snippet: "c"},
	}}, &generator{text: "பதில்"})

	var conv chat.Conversation
	reply, err := f.asst.Ask(context.Background(), &conv, "அறியப்படாத தலைப்பு")
	require.NoError(t, err)

	assert.Equal(t, 1, f.provider.calls)
	assert.Equal(t, "இணையத் தேடல்", reply.Turn.SourceLabel)
	assert.Empty(t, reply.Turn.SourceURL)
	assert.Contains(t, f.gen.prompts[0], grounding.SearchHeader+"ஒன்று\na\n\nஇரண்டு\nb\n\nமூன்று\nc")
	assert.NotContains(t, f.gen.prompts[0], grounding.KnowledgeHeader)
}

func TestAsk_GenerationFailureRecordsApology(t *testing.T) {
	genErr := &llm.GenerationError{Reason: llm.ReasonService, Err: errors.New("connection reset")}
	f := newFixture(pages{}, &provider{}, &generator{err: genErr})

	var conv chat.Conversation
	reply, err := f.asst.Ask(context.Background(), &conv, "கேள்வி")
	require.NoError(t, err)

	assert.True(t, reply.Failed)
	assert.Equal(t, Apology, reply.Turn.Content)
	assert.Empty(t, reply.Turn.SourceLabel)
	assert.Empty(t, reply.Turn.SourceURL)
	require.Equal(t, 2, conv.Len())
	assert.Equal(t, Apology, conv.All()[1].Content)

	// the conversation continues
	f.gen.err = nil
	f.gen.text = "சரி"
	_, err = f.asst.Ask(context.Background(), &conv, "மீண்டும்")
	require.NoError(t, err)
	assert.Equal(t, 4, conv.Len())
}

func TestAsk_NoSources(t *testing.T) {
	f := newFixture(pages{}, &provider{}, &generator{text: "இந்தக் கேள்விக்கு எனக்கு துல்லியமான பதில் தெரியவில்லை"})

	var conv chat.Conversation
	reply, err := f.asst.Ask(context.Background(), &conv, "xyz")
	require.NoError(t, err)

	assert.Equal(t, "தகவல் ஆதாரம் கிடைக்கவில்லை", reply.Turn.SourceLabel)
	want := grounding.SystemInstructions + "\n\n" + grounding.QuestionHeader + "xyz\n\n" + grounding.ClosingInstruction
	assert.Equal(t, want, f.gen.prompts[0])
	assert.Equal(t, want, reply.Prompt)
}

func TestAsk_SecondaryLanguageLabel(t *testing.T) {
	f := newFixture(pages{
		"en|Pallava": {Exists: true, Title: "Pallava dynasty", Summary: strings.Repeat("p", 900), URL: "https://en.wikipedia.org/wiki/Pallava_dynasty"},
	}, &provider{}, &generator{text: "பல்லவர்கள்"})

	var conv chat.Conversation
	reply, err := f.asst.Ask(context.Background(), &conv, "Pallava")
	require.NoError(t, err)
	assert.Equal(t, "விக்கிப்பீடியா (ஆங்கிலம்)", reply.Turn.SourceLabel)
	assert.Contains(t, f.gen.prompts[0], wiki.SecondaryNotice)
}

func TestAsk_EmptyQuery(t *testing.T) {
	f := newFixture(pages{}, &provider{}, &generator{text: "x"})
	var conv chat.Conversation
	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := f.asst.Ask(context.Background(), &conv, q)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
	assert.Equal(t, 0, conv.Len())
	assert.Empty(t, f.gen.prompts)
}

func TestAsk_MissingCredentials(t *testing.T) {
	p := &provider{}
	f := newFixture(pages{}, p, &generator{noCred: true})
	var conv chat.Conversation
	_, err := f.asst.Ask(context.Background(), &conv, "திருக்குறள்")
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, 0, conv.Len())
	assert.Equal(t, 0, p.calls)
	assert.False(t, f.asst.Configured())
}

func TestAskQuickStart(t *testing.T) {
	f := newFixture(pages{}, &provider{}, &generator{text: "ok"})
	var conv chat.Conversation

	_, err := f.asst.AskQuickStart(context.Background(), &conv, 1)
	require.NoError(t, err)
	assert.Equal(t, "சங்க இலக்கிய காலம்", conv.All()[0].Content)

	_, err = f.asst.AskQuickStart(context.Background(), &conv, 7)
	assert.ErrorIs(t, err, ErrUnknownQuickStart)
	assert.Equal(t, 2, conv.Len())
}
