package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/http/middleware"
	"storefront/internal/services"
	"storefront/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type productRequest struct {
	ExternalID    int64    `json:"externalId"`
	Category      string   `json:"category" binding:"required"`
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
	Images        []string `json:"images"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice"`
	Fabrics       []string `json:"fabrics"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	IsNew         bool     `json:"isNew"`
}

type filterOptionsRequest struct {
	Fabrics []string `json:"fabrics"`
	Colors  []string `json:"colors"`
	Sizes   []string `json:"sizes"`
}

// ParseToken adapts AuthService for middleware.Auth.
func (a *API) ParseToken(raw string) (string, string, error) {
	claims, err := a.Auth.Parse(raw)
	if err != nil {
		return "", "", err
	}
	return claims.Subject, claims.Role, nil
}

// AdminLogin exchanges admin credentials for a bearer token.
func (a *API) AdminLogin(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	token, exp, err := a.Auth.Login(req.Username, req.Password, utils.NowUTC())
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			RespondError(c, http.StatusUnauthorized, "invalid username or password", nil)
			return
		}
		RespondError(c, http.StatusInternalServerError, "failed to sign token", err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "admin", "login", "admin signed in", zap.String("user", req.Username))
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": exp.Format(time.RFC3339),
		"role":      services.RoleAdmin,
	})
}

// PutProduct creates (id "new") or replaces a catalog item.
func (a *API) PutProduct(c *gin.Context) {
	var req productRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	creating := id == "new"
	if creating {
		id = ""
	}

	saved, err := a.Catalog.SaveItem(c.Request.Context(), models.CatalogItem{
		ID:            id,
		ExternalID:    req.ExternalID,
		Category:      category,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Image:         req.Image,
		Images:        req.Images,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Fabrics:       req.Fabrics,
		Sizes:         req.Sizes,
		Colors:        req.Colors,
		IsNew:         req.IsNew,
		Active:        true,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	utils.LogEvent(middleware.GetRequestID(c), "admin", "save_product", "product saved",
		zap.String("product_id", saved.ID), zap.String("user", middleware.UserName(c)))
	status := http.StatusOK
	if creating {
		status = http.StatusCreated
	}
	c.JSON(status, saved)
}

// DeleteProduct hides a product from listings.
func (a *API) DeleteProduct(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := a.Catalog.RemoveItem(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "admin", "delete_product", "product hidden",
		zap.String("product_id", id), zap.String("user", middleware.UserName(c)))
	c.Status(http.StatusNoContent)
}

// PutFilterOptions replaces the option lists of a section.
func (a *API) PutFilterOptions(c *gin.Context) {
	category, err := domain.ParseCategory(c.Param("category"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	var req filterOptionsRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	cfg := models.FilterConfig{
		Category: category,
		Fabrics:  domain.NormalizeTags(req.Fabrics),
		Colors:   domain.NormalizeTags(req.Colors),
		Sizes:    domain.NormalizeTags(req.Sizes),
	}
	if err := a.Catalog.SaveFilterConfig(c.Request.Context(), cfg); err != nil {
		RespondDomainError(c, err)
		return
	}
	fresh, err := a.Catalog.FilterConfig(c.Request.Context(), category)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, fresh)
}

func (a *API) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.Cache.GetStats())
}

// FlushCache drops every cached filter configuration.
func (a *API) FlushCache(c *gin.Context) {
	n := a.Catalog.InvalidateAll(c.Request.Context())
	utils.LogEvent(middleware.GetRequestID(c), "admin", "flush_cache", "filter configs dropped", zap.Int("keys", n))
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
