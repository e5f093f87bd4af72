// Package extract pulls the readable body text out of an article page.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jdholdren/touchline/internal/touchline"
)

const (
	// Paragraphs at or under this many characters are treated as chrome, not copy.
	minParagraphLength = 30
	// The joined paragraphs need as much text as a matched container.
	minFallbackLength = 100
)

// Policy is one entry in the content search: the first selector whose text
// reaches MinLength characters wins.
type Policy struct {
	Selector  string
	MinLength int
}

// DefaultPolicies are ordered from the most specific container to the most generic.
var DefaultPolicies = []Policy{
	{Selector: "article", MinLength: 100},
	{Selector: `[role="main"]`, MinLength: 100},
	{Selector: ".article-body", MinLength: 100},
	{Selector: ".story-body", MinLength: 100},
	{Selector: ".article__body", MinLength: 100},
	{Selector: ".post-content", MinLength: 100},
	{Selector: ".entry-content", MinLength: 100},
	{Selector: "main", MinLength: 100},
}

// Elements that never hold article copy.
const noise = "script, style, nav, header, footer, aside, .ad, .ads, .advertisement, .social-share, .related-articles, [role='navigation'], [role='banner']"

// Extractor fetches article pages and finds their body text.
type Extractor struct {
	client   *http.Client
	timeout  time.Duration
	policies []Policy
}

func New(client *http.Client, timeout time.Duration, policies []Policy) *Extractor {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = touchline.DefaultFetchTimeout
	}
	if len(policies) == 0 {
		policies = DefaultPolicies
	}

	return &Extractor{
		client:   client,
		timeout:  timeout,
		policies: policies,
	}
}

// Crawl fetches the page at link and returns its body text.
//
// It never raises: every failure comes back as a [*touchline.Failure] tagged
// with why there's no content.
func (e *Extractor) Crawl(ctx context.Context, link string) (string, error) {
	if link == "" {
		return "", touchline.Fail(touchline.ReasonTransport, errors.New("article has no link"))
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", touchline.Fail(touchline.ReasonTransport, fmt.Errorf("error building request: %w", err))
	}
	req.Header.Set("User-Agent", touchline.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", touchline.Fail(transportReason(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.WarnContext(ctx, "unexpected status crawling article", "url", link, "status", resp.StatusCode)
		return "", touchline.Fail(touchline.ReasonHTTPStatus, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	text, err := e.Text(resp.Body)
	if err != nil {
		// The body can time out mid-read too
		if reason := transportReason(err); reason == touchline.ReasonTimeout {
			return "", touchline.Fail(reason, err)
		}
		return "", err
	}

	return text, nil
}

// Text finds the body text in an html document.
//
// The policies are tried in order, then every reasonably long paragraph is
// joined together as a last resort.
func (e *Extractor) Text(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", touchline.Fail(touchline.ReasonParse, fmt.Errorf("error parsing document: %w", err))
	}

	doc.Find(noise).Remove()

	for _, p := range e.policies {
		sel := doc.Find(p.Selector)
		if sel.Length() == 0 {
			continue
		}

		text := collapse(sel.Text())
		if utf8.RuneCountInString(text) >= p.MinLength {
			return text, nil
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) > minParagraphLength {
			paragraphs = append(paragraphs, text)
		}
	})
	if text := strings.Join(paragraphs, "\n\n"); utf8.RuneCountInString(text) >= minFallbackLength {
		return text, nil
	}

	return "", touchline.Fail(touchline.ReasonThinContent, errors.New("no article text found"))
}

// Squashes every run of whitespace down to a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func transportReason(err error) touchline.Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return touchline.ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return touchline.ReasonTimeout
	}
	return touchline.ReasonTransport
}

// Origin says where an article's content came from.
type Origin string

const (
	OriginCrawled     Origin = "crawled"
	OriginRSSFallback Origin = "rss_fallback"
)

// Descriptions at or under this many characters aren't worth summarizing.
const minDescriptionLength = 20

// Content is the text handed to the summarizer.
type Content struct {
	Text   string
	Origin Origin
	// Why the crawl didn't produce the text, set only for fallbacks
	Reason touchline.Reason
}

// Content crawls link and falls back to the feed description when the page
// gives nothing back.
//
// A fallback with a short description comes back with empty text so that
// summarizing it fails fast.
func (e *Extractor) Content(ctx context.Context, link, description string) Content {
	text, err := e.Crawl(ctx, link)
	if err == nil {
		return Content{Text: text, Origin: OriginCrawled}
	}

	reason := touchline.ReasonOf(err)
	slog.InfoContext(ctx, "crawl failed, falling back to description", "url", link, "reason", reason, "error", err)

	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > minDescriptionLength {
		return Content{Text: description, Origin: OriginRSSFallback, Reason: reason}
	}
	return Content{Origin: OriginRSSFallback, Reason: reason}
}
