package middleware

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kaayjang/kaayjang-web/internal/app/i18n"
	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/observability/metrics"
	"github.com/kaayjang/kaayjang-web/internal/app/session"
)

// Define typed context keys
type contextKey string

const (
	UserContextKey contextKey = "user"
	LangContextKey contextKey = "lang"
	EpochKey       contextKey = "sessionEpoch"
)

// cookie session key holding the selected language
const sessionLangKey = "lang"

// SessionSource is the read side of the session manager.
type SessionSource interface {
	Snapshot() session.Snapshot
}

// SameOriginMiddleware guards the process-wide session. Requests must name
// one of allowedHosts in their Host header, and state-changing requests
// must come from a page this server rendered. Browsers send Sec-Fetch-Site
// or Origin on those; clients that send neither are not browsers and are
// let through.
func SameOriginMiddleware(allowedHosts []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		host := (&url.URL{Host: c.Request.Host}).Hostname()
		if len(allowedHosts) > 0 && !slices.Contains(allowedHosts, host) {
			c.AbortWithStatus(http.StatusMisdirectedRequest)
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if site := c.GetHeader("Sec-Fetch-Site"); site != "" && site != "same-origin" && site != "none" {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		if origin := c.GetHeader("Origin"); origin != "" {
			u, err := url.Parse(origin)
			if err != nil || u.Host != c.Request.Host {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}

		c.Next()
	}
}

// SecurityMiddleware adds security headers
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("X-XSS-Protection", "1; mode=block")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// HTMX and the Tailwind play CDN are the only external scripts.
		csp := "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://unpkg.com https://cdn.tailwindcss.com; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data: https: blob:; " +
			"connect-src 'self'"
		c.Writer.Header().Set("Content-Security-Policy", csp)

		c.Next()
	}
}

// OTELGinMiddleware returns the OpenTelemetry middleware for Gin
func OTELGinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// ObservabilityMiddleware records request count and latency per route.
func ObservabilityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx := c.Request.Context()
		m := metrics.Get()
		m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		))
		m.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
		))
	}
}

// SessionMiddleware exposes the current identity to handlers. The snapshot
// is taken once per request so a page never mixes two sessions.
func SessionMiddleware(src SessionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := src.Snapshot()
		if snap.Status.HasIdentity() && snap.User != nil {
			c.Set(string(UserContextKey), snap.User)
		}
		c.Set(string(EpochKey), snap.Epoch)
		c.Next()
	}
}

// RequireAuth sends anonymous visitors to the login page.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserFromContext(c) == nil {
			handleAuthRedirect(c, "/login")
			return
		}
		c.Next()
	}
}

// RequireRole lets through only users holding one of roles. It must run
// after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUserFromContext(c)
		if user == nil {
			handleAuthRedirect(c, "/login")
			return
		}
		if !slices.Contains(roles, user.Role) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// LanguageMiddleware resolves the UI language from the cookie session,
// falling back to the Accept-Language header. Needs sessions.Sessions.
func LanguageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := ""
		if v, ok := sessions.Default(c).Get(sessionLangKey).(string); ok {
			lang = i18n.Normalize(v)
		}
		if lang == "" {
			lang = i18n.Match(c.GetHeader("Accept-Language"))
		}
		c.Set(string(LangContextKey), lang)
		c.Next()
	}
}

// SetLanguage stores lang in the cookie session for later requests.
func SetLanguage(c *gin.Context, lang string) error {
	lang = i18n.Normalize(lang)
	s := sessions.Default(c)
	s.Set(sessionLangKey, lang)
	c.Set(string(LangContextKey), lang)
	return s.Save()
}

// GetLanguage returns the language resolved for this request.
func GetLanguage(c *gin.Context) string {
	if lang := c.GetString(string(LangContextKey)); lang != "" {
		return lang
	}
	return i18n.Default
}

// handleAuthRedirect handles redirects for both regular and HTMX requests
func handleAuthRedirect(c *gin.Context, redirectURL string) {
	if c.GetHeader("HX-Request") == "true" {
		// HTMX follows HX-Redirect on the client side
		c.Header("HX-Redirect", redirectURL)
		c.AbortWithStatus(http.StatusUnauthorized)
	} else {
		c.Redirect(http.StatusFound, redirectURL)
		c.Abort()
	}
}

// GetUserFromContext extracts user information from Gin context
func GetUserFromContext(c *gin.Context) *models.User {
	user, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil
	}

	return userModel
}

// GetEpochFromContext returns the session epoch seen when the request began.
func GetEpochFromContext(c *gin.Context) uint64 {
	v, ok := c.Get(string(EpochKey))
	if !ok {
		return 0
	}
	epoch, _ := v.(uint64)
	return epoch
}
