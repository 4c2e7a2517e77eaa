package crawler

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cardealworker/config"
	"cardealworker/helpers"
	"cardealworker/internal/ad"
	"cardealworker/internal/extractor"
	"cardealworker/internal/observability"
	"cardealworker/logger"
	errs "cardealworker/pkg/errors"
	"cardealworker/services/storage"

	"github.com/PuerkitoBio/goquery"
)

const component = "crawler"

// FetchFunc fetches one URL and returns the status code with the UTF-8
// body. Swappable in tests.
type FetchFunc func(url string) (int, []byte, error)

// Crawler drives the paginated search and resolves each newly seen ad
// through the raw page cache or a live fetch. Single-threaded: one
// request in flight at a time, with politeness delays between them.
type Crawler struct {
	cfg     *config.Config
	store   storage.Storage
	session *Session
	fetch   FetchFunc
	sleep   func(time.Duration)
	log     *logger.Logger
}

// New creates a crawler with the default HTTP fetcher.
func New(cfg *config.Config, store storage.Storage) *Crawler {
	return &Crawler{
		cfg:     cfg,
		store:   store,
		session: NewSession(cfg.SeenSetLimit),
		fetch:   helpers.FetchPage,
		sleep:   time.Sleep,
		log:     logger.ForCrawler(),
	}
}

func (c *Crawler) searchURL(page int) string {
	params := c.cfg.SearchParams()
	params.Set("pageNumber", strconv.Itoa(page))
	return c.cfg.SearchURL + "?" + params.Encode()
}

// ScrapeSearch walks the paginated search results and resolves every
// unseen ad. The first page without result items terminates the crawl
// without error; the endpoint exposes no total count to trust. Single
// ad failures are logged and skipped, only a failure of the search
// endpoint itself is returned.
func (c *Crawler) ScrapeSearch() ([]ad.Record, error) {
	if c.cfg.MaxPages > 50 {
		c.log.Warn().Int("max_pages", c.cfg.MaxPages).Msg("pages beyond 50 do not yield new results")
	}

	// the seen-set only dedups within one crawl; ads resolved in an
	// earlier epoch come back from the page cache, and ads that failed
	// last time get retried
	c.session.Reset()

	var records []ad.Record
	for page := 1; page <= c.cfg.MaxPages; page++ {
		url := c.searchURL(page)
		c.log.Debug().Str("url", url).Msg("Fetching search page")

		status, body, err := c.fetch(url)
		if err != nil {
			return nil, errs.NewSystemic(component, "search endpoint unreachable", err)
		}
		if status != http.StatusOK {
			return nil, errs.NewNetwork(component, "search page returned status "+strconv.Itoa(status), nil)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, errs.New(errs.ErrorTypeStructureMismatch, component, "unreadable search page", err)
		}

		items := doc.Find("div.cBox-body--resultitem")
		if items.Length() == 0 {
			// pagination is done; this is the sole termination signal
			break
		}

		c.sleep(c.cfg.SearchDelay)

		items.Each(func(_ int, item *goquery.Selection) {
			adID, ok := c.resultItemID(item)
			if !ok {
				return
			}
			if c.session.Seen(adID) {
				return
			}
			record := c.ScrapeAd(adID)
			c.session.MarkSeen(adID)
			if record != nil {
				records = append(records, *record)
			}
		})
	}

	return ad.DedupeLastWins(records), nil
}

// resultItemID extracts the listing identifier from a search result
// item. Items without one are logged and skipped, not fatal.
func (c *Crawler) resultItemID(item *goquery.Selection) (int64, bool) {
	raw, exists := item.Find("a").First().Attr("data-ad-id")
	if !exists {
		c.log.Warn().Str("item", strings.TrimSpace(item.Text())).Msg("result item without ad id")
		return 0, false
	}
	adID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		c.log.Warn().Str("ad_id", raw).Msg("result item with non-numeric ad id")
		return 0, false
	}
	return adID, true
}

// ScrapeAd resolves one ad, preferring a cached raw page over the
// network. Returns nil on any single-ad failure; the crawl continues.
func (c *Crawler) ScrapeAd(adID int64) *ad.Record {
	url := c.cfg.AdURL(adID)

	if c.store.Exists(adID) {
		cached, err := c.store.Get(adID)
		if err == nil {
			record, err := extractor.Extract(string(cached))
			if err == nil {
				record.URL = url
				observability.CacheHits.Inc()
				return record
			}
			c.log.Warn().Err(err).Int64("ad_id", adID).Msg("cached page failed extraction, refetching")
		} else {
			c.log.Warn().Err(err).Int64("ad_id", adID).Msg("cache read failed, refetching")
		}
	}

	c.sleep(c.cfg.AdDelay)
	c.log.Debug().Str("url", url).Msg("Fetching ad page")

	status, body, err := c.fetch(url)
	if err != nil {
		c.log.Warn().Err(err).Int64("ad_id", adID).Msg("ad page fetch failed")
		return nil
	}
	if status != http.StatusOK {
		c.log.Warn().Int("status", status).Int64("ad_id", adID).Msg("ad page returned non-200")
		return nil
	}

	// persist the raw page on a true cache miss before extraction is
	// even attempted; a refetch may only overwrite an existing blob
	// once the fresh page extracted cleanly, so a bad fetch can never
	// clobber a good cached copy
	existed := c.store.Exists(adID)
	if !existed {
		if err := c.store.Put(adID, body); err != nil {
			c.log.Warn().Err(err).Int64("ad_id", adID).Msg("failed to store raw page")
		}
	}

	record, err := extractor.Extract(string(body))
	if err != nil {
		observability.ExtractionFailures.Inc()
		c.log.Warn().Err(err).Int64("ad_id", adID).Msg("ad page failed extraction")
		return nil
	}

	if existed {
		if err := c.store.Put(adID, body); err != nil {
			c.log.Warn().Err(err).Int64("ad_id", adID).Msg("failed to store raw page")
		}
	}

	record.URL = url
	observability.AdsScraped.Inc()
	return record
}
