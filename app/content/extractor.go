package content

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const maxBodyLength = 5000

// Extractor fetches a URL and derives title/caption/image metadata from it.
// Open Graph tags are the primary source for every platform; website sources
// additionally get readability article-body extraction.
type Extractor struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewExtractor(httpClient *http.Client, userAgent string, timeout time.Duration) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Run fetches the URL and extracts platform-appropriate metadata. A network
// error, timeout, or non-2xx response yields a *FetchError; individual
// missing fields are left empty rather than failing.
func (e *Extractor) Run(ctx context.Context, rawURL string, platform Platform) (*Metadata, error) {
	data, err := e.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	meta := &Metadata{
		URL:      rawURL,
		Platform: platform,
		Title:    metaContent(doc, "meta[property='og:title']"),
		Caption:  metaContent(doc, "meta[property='og:description']"),
		ImageURL: metaContent(doc, "meta[property='og:image']"),
	}

	switch platform {
	case PlatformInstagram:
		// Instagram puts the caption in og:description; derive a short
		// title from it instead of the og:title boilerplate.
		meta.Title = cleanInstagramTitle(meta.Caption)
	case PlatformYoutube:
		if id := youtubeVideoID(rawURL); id != "" {
			meta.ImageURL = "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"
		}
	case PlatformTwitter:
		if meta.Caption == "" {
			meta.Caption = metaContent(doc, "meta[name='description']")
		}
		meta.Caption = stripTweetAttribution(meta.Caption)
	case PlatformWebsite:
		e.extractWebsite(doc, data, meta)
	}

	slog.Debug("Metadata extracted",
		"url", rawURL,
		"platform", string(platform),
		"title", meta.Title,
		"body_length", len(meta.Body))

	return meta, nil
}

func (e *Extractor) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	// Browser-like headers; many platforms reject non-browser agents.
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	return data, nil
}

// extractWebsite fills in generic-page fallbacks and the article body.
func (e *Extractor) extractWebsite(doc *goquery.Document, data []byte, meta *Metadata) {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta.Title = title
	}
	if meta.Caption == "" {
		meta.Caption = metaContent(doc, "meta[name='description']")
	}
	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		slog.Debug("Article body extraction failed", "url", meta.URL, "error", err)
		return
	}

	body := strings.TrimSpace(article.TextContent)
	if len(body) > maxBodyLength {
		body = body[:maxBodyLength]
	}
	meta.Body = body

	if meta.Caption == "" && body != "" {
		if len(body) > 500 {
			meta.Caption = body[:500]
		} else {
			meta.Caption = body
		}
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	if value, ok := doc.Find(selector).First().Attr("content"); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

var (
	hashtagRe     = regexp.MustCompile(`#\w+`)
	mentionRe     = regexp.MustCompile(`@\w+`)
	emojiRe       = regexp.MustCompile(`[\x{1F300}-\x{1F5FF}\x{1F600}-\x{1F64F}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}\x{2702}-\x{27B0}]+`)
	multiDotRe    = regexp.MustCompile(`\.{2,}`)
	attributionRe = regexp.MustCompile(`—\s*\S+\s*\(@\w+\)\s*\w+\s+\d+,\s*\d+`)
	youtubeWatchRe = regexp.MustCompile(`v=([^&]+)`)
	youtubeShortRe = regexp.MustCompile(`youtu\.be/([^?]+)`)
)

// cleanInstagramTitle derives a short title from a raw caption: hashtags,
// mentions, and emoji are stripped; the first sentence wins when it fits.
func cleanInstagramTitle(caption string) string {
	if caption == "" {
		return ""
	}

	text := hashtagRe.ReplaceAllString(caption, "")
	text = mentionRe.ReplaceAllString(text, "")
	text = emojiRe.ReplaceAllString(text, "")
	text = multiDotRe.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")

	if idx := strings.Index(text, "."); idx >= 0 {
		first := strings.TrimSpace(text[:idx])
		if first != "" && len(first) <= 60 {
			return first + "."
		}
	}

	if len(text) > 60 {
		text = text[:60]
	}
	return strings.TrimSpace(text)
}

func youtubeVideoID(url string) string {
	if strings.Contains(url, "youtube.com") {
		if m := youtubeWatchRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	if strings.Contains(url, "youtu.be") {
		if m := youtubeShortRe.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// stripTweetAttribution removes the trailing "— Author (@handle) Month D, YYYY"
// suffix that Twitter embeds append to tweet text.
func stripTweetAttribution(text string) string {
	return strings.TrimSpace(attributionRe.ReplaceAllString(text, ""))
}
