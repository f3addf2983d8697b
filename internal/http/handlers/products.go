package handlers

import (
	"net/http"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/http/middleware"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
)

func (a *API) GetProduct(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		RespondDomainError(c, domain.ValidationError{Field: "id", Msg: "required"})
		return
	}
	it, err := a.Catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": it, "link": it.Link()})
}

// GetProductSheet returns a printable PDF of one product (inline).
func (a *API) GetProductSheet(c *gin.Context) {
	svc := services.DocsService{
		Catalog:   a.Catalog,
		RequestID: middleware.GetRequestID(c),
		FontPath:  a.PDFFontPath,
	}
	pdfBytes, filename, err := svc.GenerateProductSheet(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
