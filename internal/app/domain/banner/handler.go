package banner

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaayjang/kaayjang-web/internal/app/components"
	"github.com/kaayjang/kaayjang-web/internal/app/domain"
)

type Handlers struct {
	*domain.BaseHandler
	rotator *Rotator
}

func NewHandlers(base *domain.BaseHandler, rotator *Rotator) *Handlers {
	return &Handlers{BaseHandler: base, rotator: rotator}
}

// Banner renders the visible banner. The layout polls it every rotation
// interval; an empty body hides the slot.
func (h *Handlers) Banner(c *gin.Context) {
	b, index, total := h.rotator.Current(c.Request.Context())
	h.Render(c, http.StatusOK, components.AdBanner(b, index, total))
}
