// Package crawler walks the paginated catalogue and harvests detail records.
//
// The harvest is strictly sequential: discovery, listing-page link
// collection, and detail extraction each complete one request at a time,
// with a mandatory delay after every fetch enforced by per-collector rate
// limits. Transport failures are counted and reported, never raised out of
// the run; the only fatal condition is an unreachable base catalogue URL.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rmachado/go-book-harvest/config"
	"github.com/rmachado/go-book-harvest/models"
	"github.com/rmachado/go-book-harvest/parser"
)

// seenCacheSize bounds the per-run detail-link dedupe set. Eviction only
// risks a duplicate fetch, never lost data.
const seenCacheSize = 8192

// CheckpointSink receives the full in-progress record set after every Nth
// successful extraction. Sink failures are logged and never abort the run.
type CheckpointSink func(records []*models.RawBook, count int) error

// Crawler harvests raw book records from a catalogue site.
type Crawler struct {
	cfg     *config.Config
	base    *url.URL
	listing *colly.Collector
	detail  *colly.Collector
	seen    *lru.Cache[string, struct{}]
	sink    CheckpointSink
	Metrics *Metrics

	requestCount int64

	mu           sync.Mutex
	errorsByType map[string]int

	// Per-visit capture slots. The crawl is single-threaded, so one slot
	// per collector is enough.
	pageItems int
	pageLinks []string
	current   *models.RawBook
}

// New builds a crawler configured from cfg. sink may be nil to disable
// checkpointing.
func New(cfg *config.Config, sink CheckpointSink) (*Crawler, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	seen, err := lru.New[string, struct{}](seenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init seen cache: %w", err)
	}

	c := &Crawler{
		cfg:          cfg,
		base:         base,
		seen:         seen,
		sink:         sink,
		Metrics:      NewMetrics(),
		errorsByType: make(map[string]int),
	}

	c.listing, err = c.newCollector(cfg.ListingDelay, "listing")
	if err != nil {
		return nil, err
	}
	c.detail, err = c.newCollector(cfg.DetailDelay, "detail")
	if err != nil {
		return nil, err
	}

	c.listing.OnHTML("article.product_pod", func(e *colly.HTMLElement) {
		c.pageItems++
		href := e.ChildAttr("h3 a", "href")
		if href == "" {
			return
		}
		if link := parser.NormalizeDetailLink(c.base, href); link != "" {
			c.pageLinks = append(c.pageLinks, link)
		}
	})

	c.detail.OnHTML("html", func(e *colly.HTMLElement) {
		c.current = parser.ExtractBook(e.DOM, e.Request.URL.String())
	})

	return c, nil
}

func (c *Crawler) newCollector(delay time.Duration, phase string) (*colly.Collector, error) {
	collector := colly.NewCollector(
		colly.AllowedDomains(c.base.Host),
		colly.UserAgent(c.cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(c.cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   c.cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       delay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		current := atomic.AddInt64(&c.requestCount, 1)
		c.Metrics.IncRequest(phase)
		if current%50 == 0 {
			slog.Debug("harvest request progress",
				slog.Int64("requests", current),
				slog.String("url", r.URL.String()),
			)
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			c.Metrics.ObserveDuration(time.Since(start))
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		requestURL := ""
		if r != nil {
			statusCode = r.StatusCode
			if r.Request != nil && r.Request.URL != nil {
				requestURL = r.Request.URL.String()
			}
		}
		category := errorTypeLabel(classifyError(err, statusCode))

		c.mu.Lock()
		c.errorsByType[category]++
		c.mu.Unlock()

		c.Metrics.IncError(category)
		slog.Error("page unavailable",
			slog.String("url", requestURL),
			slog.String("category", category),
			slog.Any("error", err),
		)
	})

	return collector, nil
}

// SetTransport replaces the HTTP transport on both collectors.
func (c *Crawler) SetTransport(rt http.RoundTripper) {
	c.listing.WithTransport(rt)
	c.detail.WithTransport(rt)
}

// Run performs a full harvest: discover listing pages, collect detail
// links, extract one record per detail page. The returned HarvestResult is
// always populated, including when the run fails fatally.
func (c *Crawler) Run(ctx context.Context) ([]*models.RawBook, *models.HarvestResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.HarvestResult{StartTime: time.Now()}
	defer func() {
		result.EndTime = time.Now()
		result.RequestCount = int(atomic.LoadInt64(&c.requestCount))
		result.ErrorsByType = c.snapshotErrors()
	}()

	pages, err := c.discoverListingPages(ctx, result)
	if err != nil {
		return nil, result, err
	}
	result.PagesDiscovered = len(pages)
	slog.Info("catalogue discovery complete", slog.Int("pages", len(pages)))

	links := c.collectDetailLinks(ctx, pages, result)
	slog.Info("detail links collected", slog.Int("links", len(links)))

	records := c.harvestDetails(ctx, links, result)
	result.RecordsHarvested = len(records)
	return records, result, nil
}

// discoverListingPages walks catalogue pages starting from the base URL
// until a page is unavailable or yields no item entries. The terminating
// page is excluded. An unreachable base page is the only fatal outcome.
func (c *Crawler) discoverListingPages(ctx context.Context, result *models.HarvestResult) ([]string, error) {
	items, _, err := c.visitListing(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("base catalogue unreachable at %s: %w", c.cfg.BaseURL, err)
	}
	if items == 0 {
		return nil, nil
	}

	pages := []string{c.cfg.BaseURL}
	c.Metrics.IncPages()

	for page := 2; len(pages) < c.cfg.MaxPages; page++ {
		if ctx.Err() != nil {
			break
		}
		pageURL := c.listingPageURL(page)
		items, _, err := c.visitListing(pageURL)
		if err != nil {
			result.PagesFailed++
			break
		}
		if items == 0 {
			break
		}
		pages = append(pages, pageURL)
		c.Metrics.IncPages()
		slog.Debug("found catalogue page", slog.String("url", pageURL))
	}

	return pages, nil
}

// collectDetailLinks re-walks each discovered page and gathers normalized
// detail URLs in discovery order, deduplicated within the run.
func (c *Crawler) collectDetailLinks(ctx context.Context, pages []string, result *models.HarvestResult) []string {
	var links []string
	for _, page := range pages {
		if ctx.Err() != nil {
			break
		}
		_, pageLinks, err := c.visitListing(page)
		if err != nil {
			result.PagesFailed++
			continue
		}
		for _, link := range pageLinks {
			if _, dup := c.seen.Get(link); dup {
				continue
			}
			c.seen.Add(link, struct{}{})
			links = append(links, link)
		}
	}
	return links
}

// harvestDetails fetches and extracts each detail page. One item's failure
// never affects the others. sequence ids follow link discovery order, so a
// failed page leaves a gap.
func (c *Crawler) harvestDetails(ctx context.Context, links []string, result *models.HarvestResult) []*models.RawBook {
	records := make([]*models.RawBook, 0, len(links))
	for i, link := range links {
		if ctx.Err() != nil {
			slog.Info("harvest cancelled", slog.Int("harvested", len(records)))
			break
		}

		book, err := c.visitDetail(link)
		if err != nil {
			result.DetailsFailed++
			continue
		}
		if book == nil {
			result.RecordsDropped++
			c.Metrics.IncDropped()
			slog.Warn("record dropped, missing title", slog.String("url", link))
			continue
		}

		book.ID = i + 1
		records = append(records, book)
		c.Metrics.IncItems()

		if c.sink != nil && len(records)%c.cfg.CheckpointEvery == 0 {
			if err := c.sink(records, len(records)); err != nil {
				slog.Error("checkpoint write failed",
					slog.Int("count", len(records)),
					slog.Any("error", err),
				)
			} else {
				result.CheckpointsWritten++
				c.Metrics.IncCheckpoints()
			}
		}
	}
	return records
}

// visitListing fetches one listing page and reports its item count and
// normalized detail links.
func (c *Crawler) visitListing(pageURL string) (items int, links []string, err error) {
	c.pageItems = 0
	c.pageLinks = nil
	if err := c.listing.Visit(pageURL); err != nil {
		return 0, nil, err
	}
	return c.pageItems, c.pageLinks, nil
}

// visitDetail fetches one detail page. A nil record with nil error means
// the page parsed but had no title.
func (c *Crawler) visitDetail(detailURL string) (*models.RawBook, error) {
	c.current = nil
	if err := c.detail.Visit(detailURL); err != nil {
		return nil, err
	}
	return c.current, nil
}

func (c *Crawler) listingPageURL(page int) string {
	ref, err := url.Parse(fmt.Sprintf("catalogue/page-%d.html", page))
	if err != nil {
		return ""
	}
	return c.base.ResolveReference(ref).String()
}

func (c *Crawler) snapshotErrors() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.errorsByType))
	for k, v := range c.errorsByType {
		out[k] = v
	}
	return out
}
