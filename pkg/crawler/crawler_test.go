package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/fetcher"
)

// testOptions disables the politeness delay so tests run fast
func testOptions(budget int) Options {
	opts := DefaultOptions()
	opts.PageBudget = budget
	opts.PolitenessDelay = 0
	opts.Timeout = 5 * time.Second
	return opts
}

// siteServer serves pages by path; robots.txt is 404 unless present in pages.
type siteServer struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
	log  []string
}

func newSiteServer(t *testing.T, pages map[string]string) *siteServer {
	t.Helper()
	s := &siteServer{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		if r.URL.Path != "/robots.txt" {
			s.log = append(s.log, r.URL.Path)
		}
		s.mu.Unlock()

		body, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *siteServer) requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

func pageURLs(result *models.CrawlResult) []string {
	urls := make([]string, 0, len(result.Pages))
	for _, p := range result.Pages {
		urls = append(urls, p.URL)
	}
	return urls
}

func TestNewZeroOptions(t *testing.T) {
	c, err := New("https://example.com", Options{}, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultPageBudget, c.opts.PageBudget)
	assert.Equal(t, fetcher.DefaultUserAgent, c.opts.UserAgent)
	assert.False(t, c.opts.RespectRobots)
	assert.Equal(t, rate.Inf, c.limiter.Limit())

	defaults, err := New("https://example.com", DefaultOptions(), nil)
	require.NoError(t, err)
	assert.True(t, defaults.opts.RespectRobots)
	assert.Equal(t, rate.Every(time.Second), defaults.limiter.Limit())
}

func TestNewCrawler(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		budget  int
		wantErr bool
	}{
		{name: "valid URL", url: "https://example.com", budget: 10, wantErr: false},
		{name: "default budget", url: "https://example.com", budget: 0, wantErr: false},
		{name: "invalid URL", url: "not-a-url", budget: 10, wantErr: true},
		{name: "empty URL", url: "", budget: 10, wantErr: true},
		{name: "negative budget", url: "https://example.com", budget: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.url, testOptions(tt.budget), nil)
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, models.ErrConfiguration)
				assert.Nil(t, c)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, c)
				assert.Equal(t, StateIdle, c.State())
			}
		})
	}
}

func TestCrawlSinglePage(t *testing.T) {
	server := newSiteServer(t, map[string]string{
		"/": `
			<!DOCTYPE html>
			<html>
			<head>
				<title>Test Page</title>
				<meta name="description" content="Test description">
			</head>
			<body>
				<h1>Test Content</h1>
				<p>This is test content.</p>
				<a href="mailto:test@example.com">Email</a>
				<p>Write to test@example.com</p>
				<p>Call us: +1-234-567-8900</p>
			</body>
			</html>
		`,
	})

	c, err := New(server.URL, testOptions(10), nil)
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateComplete, c.State())
	assert.Equal(t, server.URL, result.BaseURL)
	assert.Len(t, result.Pages, 1)

	page := result.Pages[0]
	assert.Equal(t, server.URL+"/", page.URL)
	assert.Equal(t, "Test Page", page.Title)
	assert.Equal(t, "Test description", page.Description)
	assert.Contains(t, page.TextPreview, "Test Content")
	assert.Contains(t, page.Contacts["emails"], "test@example.com")
	assert.Contains(t, page.Contacts["phones"], "(234) 567-8900")
	assert.Equal(t, []string{"test@example.com"}, result.Contacts["emails"])
}

func TestCrawlMultiplePages(t *testing.T) {
	server := newSiteServer(t, map[string]string{
		"/": `<html><body>
				<a href="/page1">Page 1</a>
				<a href="/page2">Page 2</a>
				</body></html>`,
		"/page1": `<html><body>Page 1 <a href="/">home</a></body></html>`,
		"/page2": `<html><body>Page 2 <a href="/page1">again</a></body></html>`,
	})

	c, err := New(server.URL, testOptions(10), nil)
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Pages, 3)
	assert.Equal(t, []string{"/", "/page1", "/page2"}, server.requests())
	assert.Equal(t, 3, result.Visited)
}

func TestBudgetAndScope(t *testing.T) {
	other := newSiteServer(t, map[string]string{"/": `<html><body>elsewhere</body></html>`})
	server := newSiteServer(t, map[string]string{
		"/": `<html><body>
				<a href="` + other.URL + `">Other</a>
				<a href="/about">About</a>
				<a href="/contact">Contact</a>
				</body></html>`,
		"/about":   `<html><body>About us</body></html>`,
		"/contact": `<html><body>Contact us</body></html>`,
	})

	c, err := New(server.URL, testOptions(2), nil)
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{server.URL + "/", server.URL + "/about"}, pageURLs(result))
	assert.Empty(t, other.requests())

	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)
	assert.Equal(t, serverURL.Host, result.Domain)
}

func TestBreadthFirstOrder(t *testing.T) {
	server := newSiteServer(t, map[string]string{
		"/":     `<a href="/a">a</a><a href="/b">b</a>`,
		"/a":    `<a href="/a1">a1</a><a href="/b">b</a>`,
		"/b":    `<a href="/b1">b1</a>`,
		"/a1":   `<a href="/deep">deep</a>`,
		"/b1":   `leaf`,
		"/deep": `leaf`,
	})

	c, err := New(server.URL, testOptions(50), nil)
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		server.URL + "/",
		server.URL + "/a",
		server.URL + "/b",
		server.URL + "/a1",
		server.URL + "/b1",
		server.URL + "/deep",
	}, pageURLs(result))
}

func TestNoDuplicateVisits(t *testing.T) {
	server := newSiteServer(t, map[string]string{
		"/":  `<a href="/x">x</a><a href="/y">y</a><a href="/x#top">x again</a>`,
		"/x": `<a href="/">home</a><a href="/y">y</a>`,
		"/y": `<a href="/x">x</a><a href="/">home</a>`,
	})

	c, err := New(server.URL, testOptions(50), nil)
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, u := range pageURLs(result) {
		assert.False(t, seen[u], "visited twice: %s", u)
		seen[u] = true
	}
	assert.Len(t, result.Pages, 3)
	for _, path := range []string{"/", "/x", "/y"} {
		assert.Equal(t, 1, server.hits[path], path)
	}
}

func TestRespectRobotsTxt(t *testing.T) {
	server := newSiteServer(t, map[string]string{
		"/robots.txt": `
User-agent: *
Disallow: /private/
Allow: /public/
`,
		"/": `<html><body>
				<a href="/public/page">Public</a>
				<a href="/private/page">Private</a>
				</body></html>`,
		"/public/page":  `<html><body>Public page</body></html>`,
		"/private/page": `<html><body>Private page</body></html>`,
	})

	c, err := New(server.URL, testOptions(10), nil)
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	urls := pageURLs(result)
	assert.Contains(t, urls, server.URL+"/")
	assert.Contains(t, urls, server.URL+"/public/page")
	assert.NotContains(t, urls, server.URL+"/private/page")
	assert.Zero(t, server.hits["/private/page"])
	assert.Equal(t, 1, server.hits["/robots.txt"])
	assert.Equal(t, 3, result.Visited)
}

func TestRobotsIgnoredWhenDisabled(t *testing.T) {
	server := newSiteServer(t, map[string]string{
		"/robots.txt":   "User-agent: *\nDisallow: /\n",
		"/":             `<a href="/private/page">Private</a>`,
		"/private/page": `secret`,
	})

	opts := testOptions(10)
	opts.RespectRobots = false
	c, err := New(server.URL, opts, nil)
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Pages, 2)
	assert.Zero(t, server.hits["/robots.txt"])
}

func TestPolicyFailOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/":
			w.Write([]byte(`<a href="/private/page">Private</a>`))
		default:
			w.Write([]byte(`page`))
		}
	}))
	defer server.Close()

	c, err := New(server.URL, testOptions(10), nil)
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{server.URL + "/", server.URL + "/private/page"}, pageURLs(result))
}

func TestFetchFailureSkipsURL(t *testing.T) {
	server := newSiteServer(t, map[string]string{
		"/":       `<a href="/broken">broken</a><a href="/missing">missing</a><a href="/ok">ok</a>`,
		"/broken": `never served`,
		"/ok":     `fine`,
	})

	c, err := New(server.URL, testOptions(10), nil)
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{server.URL + "/", server.URL + "/ok"}, pageURLs(result))
	assert.Equal(t, 4, result.Visited)
	assert.Equal(t, 1, server.hits["/broken"])
}

func TestContactsAndTermsAccumulated(t *testing.T) {
	server := newSiteServer(t, map[string]string{
		"/": `<p>Contact info@acme.com about our cloud platform</p>
			  <a href="/team">team</a>`,
		"/team": `<p>Reach info@acme.com or jobs@acme.com, cloud software</p>
			  <div>Headquarters: Austin, TX</div>`,
	})

	c, err := New(server.URL, testOptions(10), nil)
	require.NoError(t, err)

	result, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"info@acme.com", "jobs@acme.com"}, result.Contacts["emails"])
	assert.Equal(t, []string{"Headquarters: Austin, TX"}, result.Contacts["headquarters"])
	assert.ElementsMatch(t, []string{"platform", "cloud", "software"}, result.BusinessTerms)

	assert.Equal(t, []string{"info@acme.com"}, result.Pages[0].Contacts["emails"])
	assert.Equal(t, []string{"info@acme.com", "jobs@acme.com"}, result.Pages[1].Contacts["emails"])
}

func TestPolitenessDelay(t *testing.T) {
	var mu sync.Mutex
	var requestTimes []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		mu.Lock()
		requestTimes = append(requestTimes, time.Now())
		mu.Unlock()
		w.Write([]byte(`<a href="/1">1</a><a href="/2">2</a>`))
	}))
	defer server.Close()

	opts := testOptions(3)
	opts.PolitenessDelay = 100 * time.Millisecond
	c, err := New(server.URL, opts, nil)
	require.NoError(t, err)

	_, err = c.Crawl(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requestTimes, 3)
	for i := 1; i < len(requestTimes); i++ {
		gap := requestTimes[i].Sub(requestTimes[i-1])
		// Allow some tolerance for timer granularity
		assert.Greater(t, gap.Milliseconds(), int64(80))
	}
}

func TestCrawlCancelled(t *testing.T) {
	server := newSiteServer(t, map[string]string{"/": `home`})

	c, err := New(server.URL, testOptions(10), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := c.Crawl(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Pages)
}

func TestCrawlRunsOnce(t *testing.T) {
	server := newSiteServer(t, map[string]string{"/": `home`})

	c, err := New(server.URL, testOptions(10), nil)
	require.NoError(t, err)

	_, err = c.Crawl(context.Background())
	require.NoError(t, err)

	_, err = c.Crawl(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func BenchmarkCrawl(b *testing.B) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
			<html>
			<head><title>Test</title></head>
			<body>
				<p>Content</p>
				<a href="/page1">Link 1</a>
				<a href="/page2">Link 2</a>
			</body>
			</html>
		`))
	}))
	defer server.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c, _ := New(server.URL, testOptions(10), nil)
		c.Crawl(context.Background())
	}
}
