package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	defaultPageSize             = 20
	defaultRefreshTimeout       = 15 * time.Second
	defaultRequestTimeout       = 30 * time.Second
	defaultMaxResponseBodyBytes = int64(10 << 20)
	defaultSnapshotCacheTTL     = 5 * time.Minute
)

// Config holds client settings. CatalogPageBodyBytes raises or lowers the
// body limit for catalog page fetches only; zero keeps MaxResponseBodyBytes.
type Config struct {
	ClientName           string        `koanf:"client_name" mapstructure:"client_name"`
	AuthBaseURL          string        `koanf:"auth_base_url" mapstructure:"auth_base_url"`
	CatalogBaseURL       string        `koanf:"catalog_base_url" mapstructure:"catalog_base_url"`
	PageSize             int           `koanf:"page_size" mapstructure:"page_size"`
	RefreshTimeout       time.Duration `koanf:"refresh_timeout" mapstructure:"refresh_timeout"`
	RequestTimeout       time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
	MaxResponseBodyBytes int64         `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
	CatalogPageBodyBytes int64         `koanf:"catalog_page_body_bytes" mapstructure:"catalog_page_body_bytes"`
	SnapshotCacheTTL     time.Duration `koanf:"snapshot_cache_ttl" mapstructure:"snapshot_cache_ttl"`
}

func DefaultConfig() Config {
	return Config{
		ClientName:           "catalogsync",
		PageSize:             defaultPageSize,
		RefreshTimeout:       defaultRefreshTimeout,
		RequestTimeout:       defaultRequestTimeout,
		MaxResponseBodyBytes: defaultMaxResponseBodyBytes,
		SnapshotCacheTTL:     defaultSnapshotCacheTTL,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ClientName) == "" {
		return fmt.Errorf("core: client_name is required")
	}
	if err := validateBaseURL("auth_base_url", c.AuthBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("catalog_base_url", c.CatalogBaseURL); err != nil {
		return err
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("core: page_size must be positive")
	}
	if c.RefreshTimeout <= 0 {
		return fmt.Errorf("core: refresh_timeout must be positive")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("core: request_timeout must not be negative")
	}
	if c.CatalogPageBodyBytes < 0 {
		return fmt.Errorf("core: catalog_page_body_bytes must not be negative")
	}
	return nil
}

func validateBaseURL(field string, raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("core: %s is required", field)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: %s is invalid: %q", field, raw)
	}
	return nil
}

// endpoint joins a base url and path segments without doubling slashes.
func endpoint(base string, segments ...string) string {
	out := strings.TrimRight(strings.TrimSpace(base), "/")
	for _, segment := range segments {
		segment = strings.Trim(strings.TrimSpace(segment), "/")
		if segment == "" {
			continue
		}
		out += "/" + url.PathEscape(segment)
	}
	return out
}
