package i18n

import "net/http"

// Middleware injects a localizer into every request context. The server
// language is the default; a lang query parameter switches one request,
// which lets a bilingual class share a single deployment.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	def := NewLocalizer(defaultLang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := def
			if lang := r.URL.Query().Get("lang"); lang != "" {
				loc = NewLocalizer(lang)
			}
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
