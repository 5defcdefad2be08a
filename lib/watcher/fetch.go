package watcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http/cookiejar"
	"strings"
	"time"

	"shelfwatch/lib/htmlutil"
	"shelfwatch/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

// Page is one successfully fetched rendering of the product page.
type Page struct {
	StatusCode int
	Doc        *goquery.Document
	// Text is the page's visible text plus the labels of its buttons,
	// links and submit inputs, whitespace-collapsed. Purchase controls
	// often carry the availability wording the body text omits.
	Text string
}

func ParsePage(statusCode int, body []byte) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}
	text := htmlutil.PageText(doc)
	controls := htmlutil.ControlTexts(doc)
	if len(controls) > 0 {
		text = text + " " + strings.Join(controls, " ")
	}
	return Page{
		StatusCode: statusCode,
		Doc:        doc,
		Text:       text,
	}, nil
}

type FetchErrorKind string

const (
	FetchTimeout    FetchErrorKind = "timeout"
	FetchConnection FetchErrorKind = "connection"
	FetchHttpStatus FetchErrorKind = "http_status"
	FetchUnknown    FetchErrorKind = "unknown"
)

// FetchError carries what went wrong with a page fetch. StatusCode is
// only set for the http_status kind.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchHttpStatus {
		return fmt.Sprintf("fetch failed: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("fetch failed (%s): %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func classifyFetchError(err error) FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FetchTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FetchConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return FetchConnection
	}
	return FetchUnknown
}

// PageSource is anything the loop can pull a page from.
type PageSource interface {
	Fetch(ctx context.Context) (Page, error)
}

type Fetcher struct {
	http *resty.Client
	url  string
}

func NewFetcher(url string, timeout time.Duration) (Fetcher, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return Fetcher{}, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	client.SetHeader("accept-language", "en-US,en;q=0.5")
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "watcher/http")

	return Fetcher{http: client, url: url}, nil
}

// Fetch performs one GET of the product page. Failures come back as a
// *FetchError; retrying is the caller's business, never Fetch's.
func (f Fetcher) Fetch(ctx context.Context) (Page, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	res, err := f.http.R().SetContext(ctx).Get(f.url)
	if err != nil {
		ferr := &FetchError{Kind: classifyFetchError(err), Err: err}
		span.RecordError(ferr)
		span.SetStatus(codes.Error, "fetch failed")
		return Page{}, ferr
	}
	if !res.IsSuccess() {
		ferr := &FetchError{Kind: FetchHttpStatus, StatusCode: res.StatusCode()}
		span.RecordError(ferr)
		span.SetStatus(codes.Error, "fetch failed")
		return Page{}, ferr
	}

	page, err := ParsePage(res.StatusCode(), res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return Page{}, &FetchError{Kind: FetchUnknown, Err: err}
	}
	return page, nil
}
