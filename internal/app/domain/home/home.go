package home

import (
	"github.com/gin-gonic/gin"

	"github.com/kaayjang/kaayjang-web/internal/app/components"
	"github.com/kaayjang/kaayjang-web/internal/app/domain"
	"github.com/kaayjang/kaayjang-web/internal/app/middleware"
)

type HomeHandlers struct {
	*domain.BaseHandler
}

func NewHomeHandlers(base *domain.BaseHandler) *HomeHandlers {
	return &HomeHandlers{BaseHandler: base}
}

func (h *HomeHandlers) ShowHomePage(c *gin.Context) {
	user := middleware.GetUserFromContext(c)
	h.RenderPage(c, "Home", "Home", components.HomePage(middleware.GetLanguage(c), user))
}
