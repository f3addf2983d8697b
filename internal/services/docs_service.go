package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/models"
	"storefront/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders printable product sheets.
type DocsService struct {
	Catalog   *CatalogService
	RequestID string
	// FontPath is a UTF-8 TrueType font. Without it text is transliterated
	// to Latin for the built-in Helvetica.
	FontPath string
	Loader   func(ctx context.Context, id string) (models.CatalogItem, error)
}

func (s DocsService) GenerateProductSheet(ctx context.Context, id string) ([]byte, string, error) {
	it, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "docs", "generate_sheet", fmt.Sprintf("product_id=%s", it.ID))
	return buildProductSheetPDF(it, s.FontPath)
}

func (s DocsService) load(ctx context.Context, id string) (models.CatalogItem, error) {
	if s.Loader != nil {
		return s.Loader(ctx, id)
	}
	return s.Catalog.GetItem(ctx, id)
}

func buildProductSheetPDF(it models.CatalogItem, fontPath string) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family, text := "Helvetica", translit
	if fontPath != "" {
		pdf.AddUTF8Font("body", "", fontPath)
		pdf.AddUTF8Font("body", "B", fontPath)
		pdf.AddUTF8Font("body", "I", fontPath)
		family, text = "body", strings.TrimSpace
	}
	pdf.SetTitle(text(it.Title), fontPath != "")
	pdf.AddPage()

	pdf.SetFont(family, "B", 18)
	pdf.MultiCell(0, 9, text(safe(it.Title, "-")), "", "", false)
	pdf.Ln(4)

	pdf.SetFont(family, "", 12)
	price := utils.FormatRubles(it.Price)
	if it.OriginalPrice != nil && *it.OriginalPrice > it.Price {
		price += "  (" + utils.FormatRubles(*it.OriginalPrice) + ")"
	}
	lines := []string{
		fmt.Sprintf("Article    : %s", safe(it.ID, "-")),
		fmt.Sprintf("Section    : %s", safe(string(it.Category), "-")),
		fmt.Sprintf("Price      : %s", strings.ReplaceAll(price, "₽", "RUB")),
		fmt.Sprintf("Sizes      : %s", joinOr(it.Sizes, "-")),
		fmt.Sprintf("Colors     : %s", joinOr(it.Colors, "-")),
		fmt.Sprintf("Fabrics    : %s", joinOr(it.Fabrics, "-")),
	}
	if it.IsNew {
		lines = append(lines, "Label      : new")
	}
	if link := it.Link(); link != "" {
		lines = append(lines, "Marketplace: "+link)
	}
	for _, l := range lines {
		pdf.Cell(0, 7, text(l))
		pdf.Ln(7)
	}

	if d := strings.TrimSpace(it.Description); d != "" {
		pdf.Ln(4)
		pdf.SetFont(family, "I", 10)
		pdf.MultiCell(0, 6, text(d), "", "", false)
	}

	pdf.Ln(6)
	pdf.SetFont(family, "", 8)
	pdf.Cell(0, 5, "Generated "+time.Now().Format("2006-01-02 15:04"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("PRODUCT_%s_%s.pdf", safeFilenamePart(it.ID), safeFilenamePart(translit(it.Title)))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

var cyrillic = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo", 'ж': "zh",
	'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n", 'о': "o",
	'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts",
	'ч': "ch", 'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu",
	'я': "ya",
}

// translit maps Cyrillic to Latin and drops other runes the core fonts
// cannot draw.
func translit(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		lower := []rune(strings.ToLower(string(r)))[0]
		if lat, ok := cyrillic[lower]; ok {
			if lower != r && lat != "" {
				lat = strings.ToUpper(lat[:1]) + lat[1:]
			}
			b.WriteString(lat)
			continue
		}
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
