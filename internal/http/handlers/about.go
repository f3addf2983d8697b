package handlers

import (
	"net/http"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

type Section struct {
	Category domain.Category `json:"category,omitempty"`
	Title    string          `json:"title"`
	Path     string          `json:"path"`
}

var sectionTitles = map[domain.Category]string{
	domain.CategoryWomen:    "Женщинам",
	domain.CategoryMen:      "Мужчинам",
	domain.CategoryChildren: "Детям",
}

// Sections lists the storefront navigation: the catalog sections followed
// by the about page.
func Sections() []Section {
	out := make([]Section, 0, len(domain.Categories())+1)
	for _, cat := range domain.Categories() {
		out = append(out, Section{Category: cat, Title: sectionTitles[cat], Path: "/api/catalog/" + string(cat)})
	}
	return append(out, Section{Title: "О нас", Path: "/api/about"})
}

// About is the fourth, static Section of the storefront.
func About(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"title":           "О нас",
		"defaultCategory": domain.DefaultCategory,
		"sections":        Sections(),
	})
}
