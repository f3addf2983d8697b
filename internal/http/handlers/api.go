package handlers

import (
	"storefront/internal/cache"
	"storefront/internal/services"
)

// API carries the services the storefront handlers call.
type API struct {
	Catalog  *services.CatalogService
	Sessions *services.SessionManager
	Auth     services.AuthService
	Cache    *cache.Cache

	// PDFFontPath is passed to product sheets; empty means built-in font.
	PDFFontPath string
}
