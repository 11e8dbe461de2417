package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamilbot/internal/utils"
)

type fakeProvider struct {
	results []SearchResult
	err     error
	calls   int
	lang    string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Search(ctx context.Context, query, lang string, maxResults int) ([]SearchResult, error) {
	f.calls++
	f.lang = lang
	return f.results, f.err
}

func TestSearcher_FormatsTopThree(t *testing.T) {
	p := &fakeProvider{results: []SearchResult{
		{Title: "<b>திருக்குறள்</b>", Snippet: "திருவள்ளுவர் &amp; குறள்"},
		{Title: "B", Snippet: "two"},
		{Title: "C", Snippet: "three"},
		{Title: "D", Snippet: "four"},
	}}
	s := NewSearcher(p, nil, DefaultSearcherOptions(), nil)

	text, err := s.Search(context.Background(), "திருக்குறள்")
	require.NoError(t, err)
	assert.Equal(t, "திருக்குறள்\nதிருவள்ளுவர் & குறள்\n\nB\ntwo\n\nC\nthree", text)
	assert.Equal(t, "ta", p.lang)
}

func TestSearcher_Truncates(t *testing.T) {
	p := &fakeProvider{results: []SearchResult{
		{Title: "t", Snippet: strings.Repeat("அ", 1000)},
		{Title: "t", Snippet: strings.Repeat("ஆ", 1000)},
	}}
	s := NewSearcher(p, nil, DefaultSearcherOptions(), nil)

	text, err := s.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 1500, utils.RuneLen(text))
	assert.Equal(t, text, utils.Truncate(text, 1500))
}

func TestSearcher_Errors(t *testing.T) {
	s := NewSearcher(&fakeProvider{}, nil, DefaultSearcherOptions(), nil)
	_, err := s.Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNoResults)

	s = NewSearcher(&fakeProvider{err: ErrCredentialsMissing}, nil, DefaultSearcherOptions(), nil)
	_, err = s.Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrCredentialsMissing)

	s = NewSearcher(&fakeProvider{results: []SearchResult{{Title: " ", Snippet: "<p></p>"}}}, nil, DefaultSearcherOptions(), nil)
	_, err = s.Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	boom := errors.New("boom")
	p := &fakeProvider{err: boom}
	cb := NewCircuitBreaker(2, time.Minute, nil)
	now := time.Now()
	cb.now = func() time.Time { return now }
	s := NewSearcher(p, cb, DefaultSearcherOptions(), nil)

	for i := 0; i < 2; i++ {
		_, err := s.Search(context.Background(), "q")
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, StateOpen, cb.State())

	_, err := s.Search(context.Background(), "q")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, p.calls)

	now = now.Add(time.Minute)
	p.err = nil
	p.results = []SearchResult{{Title: "t", Snippet: "s"}}
	_, err = s.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 3, p.calls)
}

func TestCircuitBreaker_IgnoresNoResults(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute, nil)
	s := NewSearcher(&fakeProvider{}, cb, DefaultSearcherOptions(), nil)
	for i := 0; i < 3; i++ {
		_, err := s.Search(context.Background(), "q")
		assert.ErrorIs(t, err, ErrNoResults)
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestGoogleClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "key", q.Get("key"))
		assert.Equal(t, "cx", q.Get("cx"))
		assert.Equal(t, "lang_ta", q.Get("lr"))
		assert.Equal(t, "3", q.Get("num"))
		fmt.Fprint(w, `{"items":[
			{"title":"One","htmlTitle":"<b>One</b>","link":"https://a","snippet":"first","htmlSnippet":"<b>first</b>"},
			{"title":"Two","link":"https://b","snippet":"second"}
		]}`)
	}))
	defer srv.Close()

	c := NewGoogleClient(srv.URL, "key", "cx", time.Second)
	results, err := c.Search(context.Background(), "q", "ta", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "<b>One</b>", results[0].Title)
	assert.Equal(t, "https://a", results[0].URL)
	assert.Equal(t, "second", results[1].Snippet)
}

func TestGoogleClient_Failures(t *testing.T) {
	_, err := NewGoogleClient("", "", "cx", time.Second).Search(context.Background(), "q", "ta", 3)
	assert.ErrorIs(t, err, ErrCredentialsMissing)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"quota exceeded"}}`)
	}))
	defer srv.Close()
	_, err = NewGoogleClient(srv.URL, "key", "cx", time.Second).Search(context.Background(), "q", "ta", 3)
	assert.ErrorContains(t, err, "quota exceeded")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer empty.Close()
	results, err := NewGoogleClient(empty.URL, "key", "cx", time.Second).Search(context.Background(), "q", "ta", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearXNGClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "ta", r.URL.Query().Get("language"))
		fmt.Fprint(w, `{"results":[{"title":"a","url":"u1","content":"c1"},{"title":"b","url":"u2","content":"c2"}]}`)
	}))
	defer srv.Close()

	results, err := NewSearXNGClient(srv.URL+"/search", time.Second).Search(context.Background(), "q", "ta", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, SearchResult{Title: "a", Snippet: "c1", URL: "u1"}, results[0])

	_, err = NewSearXNGClient("", time.Second).Search(context.Background(), "q", "ta", 1)
	assert.ErrorIs(t, err, ErrCredentialsMissing)
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(NewSearXNGClient("http://x", time.Second), NewGoogleClient("", "k", "c", time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{ProviderGoogle, ProviderSearxNG}, r.Names())

	p, err := r.Get(ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, p.Name())

	_, err = r.Get("bing")
	assert.Error(t, err)
	assert.Error(t, r.Register(NewSearXNGClient("http://y", time.Second)))

	_, err = NewRegistry(NewSearXNGClient("http://x", time.Second), NewSearXNGClient("http://y", time.Second))
	assert.Error(t, err)
}
