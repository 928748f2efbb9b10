package translation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/models"

	gocache "github.com/patrickmn/go-cache"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// LocaleSource resolves the reseller whose locale selects the text.
type LocaleSource interface {
	ResolveReseller(ctx context.Context, id int64) (*models.Reseller, error)
}

// MissingTextError names the key and the last locale tried when no catalog
// text exists. It matches ErrMissing.
type MissingTextError struct {
	Key    TemplateKey
	Locale string
	err    error
}

func (e *MissingTextError) Error() string {
	return fmt.Sprintf("no text for %s in locale %s: %v", e.Key, e.Locale, e.err)
}

func (e *MissingTextError) Unwrap() error { return e.err }

// Renderer turns a template key into text for a reseller.
type Renderer struct {
	catalog       Catalog
	locales       LocaleSource
	defaultLocale string
	cache         *gocache.Cache
	logger        logger.Logger
}

type RendererOptions struct {
	Catalog       Catalog
	Locales       LocaleSource // optional; without it every reseller gets DefaultLocale
	DefaultLocale string
	CacheTTL      time.Duration // zero disables caching
	Logger        logger.Logger
}

func NewRenderer(opts RendererOptions) *Renderer {
	r := &Renderer{
		catalog:       opts.Catalog,
		locales:       opts.Locales,
		defaultLocale: opts.DefaultLocale,
		logger:        opts.Logger,
	}
	if r.defaultLocale == "" {
		r.defaultLocale = "en"
	}
	if r.logger == nil {
		r.logger = logger.NewNoOpLogger()
	}
	if opts.CacheTTL > 0 {
		r.cache = gocache.New(opts.CacheTTL, time.Minute)
	}
	return r
}

// Render looks up key for the reseller's locale, falling back to the default
// locale, and substitutes {{NAME}} placeholders from vars. Placeholders with
// no value are removed.
func (r *Renderer) Render(ctx context.Context, key TemplateKey, vars map[string]string, resellerID int64) (string, error) {
	if !key.Valid() {
		return "", fmt.Errorf("unknown template key %q", key)
	}

	locale := r.localeFor(ctx, resellerID)
	text, err := r.lookup(ctx, key, locale, resellerID)
	if errors.Is(err, ErrMissing) && locale != r.defaultLocale {
		locale = r.defaultLocale
		text, err = r.lookup(ctx, key, locale, resellerID)
	}
	if errors.Is(err, ErrMissing) {
		return "", &MissingTextError{Key: key, Locale: locale, err: err}
	}
	if err != nil {
		return "", err
	}

	return Substitute(text, vars), nil
}

func (r *Renderer) localeFor(ctx context.Context, resellerID int64) string {
	if r.locales == nil {
		return r.defaultLocale
	}
	reseller, err := r.locales.ResolveReseller(ctx, resellerID)
	if err != nil {
		r.logger.Warn("Falling back to default locale", map[string]interface{}{
			"resellerId": resellerID,
			"error":      err.Error(),
		})
		return r.defaultLocale
	}
	if reseller == nil || reseller.Locale == "" {
		return r.defaultLocale
	}
	return reseller.Locale
}

func (r *Renderer) lookup(ctx context.Context, key TemplateKey, locale string, resellerID int64) (string, error) {
	cacheKey := string(key) + "|" + locale + "|" + strconv.FormatInt(resellerID, 10)
	if r.cache != nil {
		if v, ok := r.cache.Get(cacheKey); ok {
			return v.(string), nil
		}
	}

	text, err := r.catalog.Lookup(ctx, key, locale, resellerID)
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		r.cache.SetDefault(cacheKey, text)
	}
	return text, nil
}

// Substitute replaces {{NAME}} placeholders with vars[NAME].
func Substitute(text string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		return vars[name]
	})
}
