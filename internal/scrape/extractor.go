package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/jonesrussell/regcheck/internal/common/transport"
	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/logger"
)

// detailsPath is the site path serving a vehicle's details page directly.
const detailsPath = "cardetails/"

// Status codes the site uses when its defenses trigger.
const (
	statusOK        = 200
	statusForbidden = 403
	statusTooMany   = 429
)

// nonContentSelectors lists elements stripped before reading page text.
const nonContentSelectors = "script, style, noscript"

// Config configures the fast extractor.
type Config struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	RateLimit   time.Duration
	RateBurst   int
	MaxBodySize int64
}

// Extractor performs tier-two lookups: one direct GET of the details page,
// parsed from its text. No internal retries; a failure is classified and
// handed back so the orchestrator decides whether to escalate.
type Extractor struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	log         logger.Interface
	baseURL     string
	userAgent   string
	maxBodySize int64
}

// NewExtractor creates a fast extractor.
func NewExtractor(cfg Config, log logger.Interface) *Extractor {
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Extractor{
		httpClient:  transport.NewHTTPClient(cfg.Timeout),
		limiter:     rate.NewLimiter(rate.Every(cfg.RateLimit), burst),
		log:         log,
		baseURL:     cfg.BaseURL,
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.MaxBodySize,
	}
}

// Extract fetches and parses the details page for a normalized registration.
// Failures map onto the lookup taxonomy: ErrVehicleNotFound is authoritative,
// ErrBlocked and ErrTimeout signal the caller to escalate.
func (e *Extractor) Extract(ctx context.Context, registration string) (*domain.VehicleRecord, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter wait: %s", domain.ErrTimeout, err.Error())
	}

	start := time.Now()

	body, statusCode, finalURL, err := e.fetchPage(ctx, e.detailsURL(registration))
	if err != nil {
		return nil, classifyFetchError(err)
	}

	if statusCode != statusOK {
		return nil, classifyStatus(statusCode)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty response body", domain.ErrBlocked)
	}

	// Defenses sometimes answer 200 with a redirect off the details page.
	if !strings.Contains(finalURL, detailsPath) {
		return nil, fmt.Errorf("%w: redirected to %s", domain.ErrBlocked, finalURL)
	}

	text, err := pageText(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBlocked, err.Error())
	}

	if ContainsNotFoundMarker(text) {
		return nil, fmt.Errorf("no vehicle found for %s: %w", registration, domain.ErrVehicleNotFound)
	}

	if ContainsBlockedMarker(text) {
		return nil, fmt.Errorf("%w: challenge page served", domain.ErrBlocked)
	}

	record := ParseVehicleText(registration, text, time.Now())
	if !HasEssentialData(record) {
		return nil, fmt.Errorf("%w: page rendered without vehicle data", domain.ErrBlocked)
	}

	record.Source = domain.SourceLiveScraping
	record.ScrapedAt = time.Now()

	e.log.Info("fast extraction completed",
		"registration", registration,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return record, nil
}

// detailsURL builds the direct details-page URL. The site routes lowercase
// registrations.
func (e *Extractor) detailsURL(registration string) string {
	return e.baseURL + detailsPath + strings.ToLower(registration)
}

// fetchPage performs the single HTTP GET with browser-like headers.
func (e *Extractor) fetchPage(
	ctx context.Context,
	pageURL string,
) (body []byte, statusCode int, finalURL string, err error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if reqErr != nil {
		return nil, 0, "", fmt.Errorf("create request: %w", reqErr)
	}

	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, doErr := e.httpClient.Do(req)
	if doErr != nil {
		return nil, 0, "", fmt.Errorf("http fetch: %w", doErr)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, e.maxBodySize)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, resp.StatusCode, "", fmt.Errorf("read response body: %w", readErr)
	}

	return body, resp.StatusCode, resp.Request.URL.String(), nil
}

// pageText extracts visible text from the HTML document.
func pageText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find(nonContentSelectors).Remove()

	if pageBody := doc.Find("body").First(); pageBody.Length() > 0 {
		return pageBody.Text(), nil
	}

	return doc.Text(), nil
}

// classifyFetchError maps transport failures onto the lookup taxonomy.
// Timeouts escalate as ErrTimeout; everything else is treated as the site
// defending itself.
func classifyFetchError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s", domain.ErrTimeout, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s", domain.ErrBlocked, err.Error())
}

// classifyStatus maps non-200 responses. 403 and 429 are explicit defense
// responses; any other status on a page that always serves 200 is assumed
// to be defense as well.
func classifyStatus(statusCode int) error {
	switch statusCode {
	case statusForbidden, statusTooMany:
		return fmt.Errorf("%w: http status %d", domain.ErrBlocked, statusCode)
	default:
		return fmt.Errorf("%w: unexpected http status %d", domain.ErrBlocked, statusCode)
	}
}
