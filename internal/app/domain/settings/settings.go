package settings

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kaayjang/kaayjang-web/internal/app/domain"
	"github.com/kaayjang/kaayjang-web/internal/app/middleware"
)

type SettingsHandlers struct {
	*domain.BaseHandler
}

func NewSettingsHandlers(base *domain.BaseHandler) *SettingsHandlers {
	return &SettingsHandlers{BaseHandler: base}
}

// UpdateLanguage stores the chosen language in the session cookie and sends
// the browser back to the page it came from.
func (h *SettingsHandlers) UpdateLanguage(c *gin.Context) {
	lang := c.PostForm("lang")
	if err := middleware.SetLanguage(c, lang); err != nil {
		h.Logger.Error("Failed to save language preference", zap.String("lang", lang), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	h.Logger.Debug("Language updated", zap.String("lang", middleware.GetLanguage(c)))
	domain.Redirect(c, backTo(c))
}

// backTo returns the referring path when it belongs to this site, "/"
// otherwise.
func backTo(c *gin.Context) string {
	ref, err := url.Parse(c.GetHeader("Referer"))
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != c.Request.Host) {
		return "/"
	}
	back := url.URL{Path: ref.Path, RawQuery: ref.RawQuery}
	return back.String()
}
