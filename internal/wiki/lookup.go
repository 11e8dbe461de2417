// internal/wiki/lookup.go
package wiki

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tamilbot/internal/utils"
)

// SecondaryNotice is prefixed to content that came from the secondary
// language edition.
const SecondaryNotice = "[தமிழ் விக்கிப்பீடியாவில் தகவல் கிடைக்கவில்லை. ஆங்கில விக்கிப்பீடியா தகவல்:]\n"

// ErrNoArticle is returned when no attempt produced a usable article.
var ErrNoArticle = errors.New("no wikipedia article found")

// Language tells which edition a record came from.
type Language int

const (
	Primary Language = iota
	Secondary
)

func (l Language) String() string {
	if l == Secondary {
		return "secondary"
	}
	return "primary"
}

// Record is the single knowledge record used for a query.
type Record struct {
	Content  string
	Title    string
	URL      string
	Language Language
	Code     string // language code the record was fetched with
}

// PageFetcher is satisfied by *Client.
type PageFetcher interface {
	Page(ctx context.Context, title, lang string) (*Page, error)
}

// Attempt describes one title/language pair tried during a lookup.
type Attempt struct {
	Title string
	Lang  string
	Err   error
}

// LookupError collects the transport failures seen while looking up a
// query. It is wrapped by ErrNoArticle.
type LookupError struct {
	Query    string
	Attempts []Attempt
}

func (e *LookupError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s/%s: %v", a.Lang, a.Title, a.Err))
	}
	return fmt.Sprintf("lookup %q: %s", e.Query, strings.Join(parts, "; "))
}

func (e *LookupError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

type Options struct {
	PrimaryLanguage   string
	SecondaryLanguage string
	FallbackEnabled   bool
	DomainKeywords    []string
	MinSummaryLength  int
	PrimaryMaxChars   int
	SecondaryMaxChars int
}

func DefaultOptions() Options {
	return Options{
		PrimaryLanguage:   "ta",
		SecondaryLanguage: "en",
		FallbackEnabled:   true,
		DomainKeywords:    []string{"தமிழ்", "இலக்கியம்", "வரலாறு", "பண்பாடு", "கவிதை", "சங்க இலக்கியம்"},
		MinSummaryLength:  100,
		PrimaryMaxChars:   1500,
		SecondaryMaxChars: 1000,
	}
}

// Lookup runs the attempt order against a PageFetcher: the query verbatim,
// the query with each domain keyword, then the secondary language.
type Lookup struct {
	fetcher PageFetcher
	opts    Options
	logger  *zap.Logger
}

func NewLookup(fetcher PageFetcher, opts Options, logger *zap.Logger) *Lookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lookup{fetcher: fetcher, opts: opts, logger: logger}
}

// Lookup returns the first usable record. Transport errors on one attempt
// never stop the next one.
func (l *Lookup) Lookup(ctx context.Context, query string) (*Record, error) {
	query = strings.TrimSpace(query)
	lookupErr := &LookupError{Query: query}

	try := func(title, lang string) (*Page, bool) {
		page, err := l.fetcher.Page(ctx, title, lang)
		if err != nil {
			l.logger.Debug("wikipedia attempt failed",
				zap.String("title", title), zap.String("lang", lang), zap.Error(err))
			lookupErr.Attempts = append(lookupErr.Attempts, Attempt{Title: title, Lang: lang, Err: err})
			return nil, false
		}
		if !page.Exists || utils.RuneLen(strings.TrimSpace(page.Summary)) <= l.opts.MinSummaryLength {
			return nil, false
		}
		return page, true
	}

	primary := l.opts.PrimaryLanguage
	titles := make([]string, 0, len(l.opts.DomainKeywords)+1)
	titles = append(titles, query)
	for _, kw := range l.opts.DomainKeywords {
		titles = append(titles, query+" "+kw)
	}
	for _, title := range titles {
		if ctx.Err() != nil {
			break
		}
		if page, ok := try(title, primary); ok {
			l.logger.Debug("wikipedia hit", zap.String("title", page.Title), zap.String("lang", primary))
			return &Record{
				Content:  utils.Truncate(strings.TrimSpace(page.Summary), l.opts.PrimaryMaxChars),
				Title:    page.Title,
				URL:      page.URL,
				Language: Primary,
				Code:     primary,
			}, nil
		}
	}

	if l.opts.FallbackEnabled && l.opts.SecondaryLanguage != "" && ctx.Err() == nil {
		secondary := l.opts.SecondaryLanguage
		if page, ok := try(query, secondary); ok {
			l.logger.Debug("wikipedia secondary hit", zap.String("title", page.Title), zap.String("lang", secondary))
			return &Record{
				Content:  SecondaryNotice + utils.Truncate(strings.TrimSpace(page.Summary), l.opts.SecondaryMaxChars),
				Title:    page.Title,
				URL:      page.URL,
				Language: Secondary,
				Code:     secondary,
			}, nil
		}
	}

	if ctx.Err() != nil {
		lookupErr.Attempts = append(lookupErr.Attempts, Attempt{Title: query, Err: ctx.Err()})
	}
	if len(lookupErr.Attempts) == 0 {
		return nil, ErrNoArticle
	}
	return nil, fmt.Errorf("%w: %w", ErrNoArticle, lookupErr)
}
