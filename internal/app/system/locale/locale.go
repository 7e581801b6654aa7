// Package locale resolves the request language and looks up localized
// messages from an in-process catalog.
package locale

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyUserOrgSuffix = "USER_ORG_SUFFIX"
)

// Default is used when the request carries no usable language preference.
var Default = language.English

// supported lists the catalog languages, Default first.
var supported = []language.Tag{language.English, language.Chinese}

var (
	cat     = newCatalog()
	matcher = language.NewMatcher(supported)
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(Default))
	set := func(tag language.Tag, key, msg string) {
		if err := b.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}
	set(language.English, KeyUserOrgSuffix, "'s Workspace")
	set(language.Chinese, KeyUserOrgSuffix, "的工作空间")
	return b
}

type ctxKey struct{}

// WithLocale returns a copy of ctx carrying tag.
func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, ctxKey{}, tag)
}

// FromContext returns the locale stored on ctx, or Default.
func FromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(ctxKey{}).(language.Tag); ok {
		return tag
	}
	return Default
}

// Match picks the supported language closest to an Accept-Language header.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return supported[idx]
}

// Message formats key in the locale on ctx.
func Message(ctx context.Context, key string, args ...any) string {
	p := message.NewPrinter(FromContext(ctx), message.Catalog(cat))
	return p.Sprintf(key, args...)
}

// Middleware stores the Accept-Language match on the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := Match(r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), tag)))
	})
}
