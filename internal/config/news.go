package config

import (
	"fmt"
	"time"
)

const (
	EnvNewsFeeds    = "KYCDESK_NEWS_FEEDS"
	EnvNewsTimeout  = "KYCDESK_NEWS_TIMEOUT"
	EnvNewsCacheTTL = "KYCDESK_NEWS_CACHE_TTL"
)

// DefaultFeeds are the regulatory and fintech sources shown on the news page.
var DefaultFeeds = []string{
	"https://thefintechtimes.com/feed/",
	"https://a-teaminsight.com/category/regtech-insight/feed/",
	"https://www.pymnts.com/feed/",
	"https://www.cnbc.com/id/10000664/device/rss/rss.html",
}

// NewsConfig lists the RSS feeds aggregated by the news endpoint.
type NewsConfig struct {
	Feeds    []string `toml:"feeds"`
	Timeout  string   `toml:"timeout"`
	CacheTTL string   `toml:"cache_ttl"`
}

func (c *NewsConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout)
}

func (c *NewsConfig) CacheTTLDuration() time.Duration {
	return parseDuration(c.CacheTTL)
}

func (c *NewsConfig) Finalize() error {
	if len(c.Feeds) == 0 {
		c.Feeds = append([]string(nil), DefaultFeeds...)
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "15m"
	}

	envList(EnvNewsFeeds, &c.Feeds)
	envString(EnvNewsTimeout, &c.Timeout)
	envString(EnvNewsCacheTTL, &c.CacheTTL)

	if len(c.Feeds) == 0 {
		return fmt.Errorf("at least one feed required")
	}
	if err := validateDuration("timeout", c.Timeout); err != nil {
		return err
	}
	return validateDuration("cache_ttl", c.CacheTTL)
}

func (c *NewsConfig) Merge(overlay *NewsConfig) {
	mergeList(&c.Feeds, overlay.Feeds)
	mergeString(&c.Timeout, overlay.Timeout)
	mergeString(&c.CacheTTL, overlay.CacheTTL)
}
