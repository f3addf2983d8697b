package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	intconfig "storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/repositories"
	"storefront/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// main creates the catalog schema and loads sample items for every section.
// Usage: go run ./cmd/seed [-force] [-hash <password>]
func main() {
	force := flag.Bool("force", false, "seed even when products already exist")
	hash := flag.String("hash", "", "print a bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	flag.Parse()

	if *hash != "" {
		out, err := bcrypt.GenerateFromPassword([]byte(*hash), bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	logger, err := utils.InitLogger(true)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := intconfig.ConnectDB()
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer intconfig.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	created, err := repositories.EnsureSchema(ctx, db)
	if err != nil {
		logger.Fatal("failed to create schema", zap.Error(err))
	}
	logger.Info("schema ready", zap.Strings("created", created))

	var existing int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&existing); err != nil {
		logger.Fatal("failed to count products", zap.Error(err))
	}
	if existing > 0 && !*force {
		logger.Info("products already present, nothing to do", zap.Int("count", existing))
		return
	}

	repo := repositories.CatalogRepository{DB: db}
	for _, cfg := range sampleFilters() {
		if err := repo.ReplaceFilterOptions(ctx, cfg); err != nil {
			logger.Fatal("failed to seed filter options", zap.String("category", string(cfg.Category)), zap.Error(err))
		}
	}
	n := 0
	for _, it := range sampleItems() {
		if _, err := repo.UpsertItem(ctx, it); err != nil {
			logger.Fatal("failed to seed product", zap.String("title", it.Title), zap.Error(err))
		}
		n++
	}
	logger.Info("seed complete", zap.Int("products", n))
}

func sampleFilters() []models.FilterConfig {
	return []models.FilterConfig{
		{
			Category: domain.CategoryWomen,
			Fabrics:  []string{"Хлопок", "Лён", "Шёлк", "Вискоза"},
			Colors:   []string{"Белый", "Чёрный", "Бежевый", "Красный", "Синий"},
			Sizes:    []string{"XS", "S", "M", "L", "XL"},
		},
		{
			Category: domain.CategoryMen,
			Fabrics:  []string{"Хлопок", "Лён", "Шерсть", "Деним"},
			Colors:   []string{"Белый", "Чёрный", "Серый", "Синий"},
			Sizes:    []string{"S", "M", "L", "XL", "XXL"},
		},
		{
			Category: domain.CategoryChildren,
			Fabrics:  []string{"Хлопок", "Трикотаж", "Флис"},
			Colors:   []string{"Жёлтый", "Зелёный", "Розовый", "Голубой"},
			Sizes:    []string{"92", "104", "116", "128", "140"},
		},
	}
}

func item(cat domain.Category, title string, price float64, old float64, isNew bool, fabrics, colors, sizes []string) models.CatalogItem {
	it := models.CatalogItem{
		Category: cat,
		Title:    title,
		Price:    price,
		Fabrics:  fabrics,
		Colors:   colors,
		Sizes:    sizes,
		IsNew:    isNew,
		Active:   true,
	}
	if old > price {
		it.OriginalPrice = &old
	}
	return it
}

func sampleItems() []models.CatalogItem {
	w, m, c := domain.CategoryWomen, domain.CategoryMen, domain.CategoryChildren
	return []models.CatalogItem{
		item(w, "Платье льняное миди", 6490, 7990, true, []string{"Лён"}, []string{"Бежевый"}, []string{"S", "M", "L"}),
		item(w, "Платье шёлковое вечернее", 12500, 0, true, []string{"Шёлк"}, []string{"Чёрный"}, []string{"XS", "S", "M"}),
		item(w, "Блуза хлопковая", 2990, 3490, false, []string{"Хлопок"}, []string{"Белый"}, []string{"S", "M", "L", "XL"}),
		item(w, "Юбка плиссе", 3990, 0, false, []string{"Вискоза"}, []string{"Красный", "Синий"}, []string{"XS", "S", "M"}),
		item(w, "Сарафан летний", 4590, 0, true, []string{"Хлопок", "Лён"}, []string{"Синий"}, []string{"M", "L"}),
		item(w, "Жакет оверсайз", 8990, 10990, false, []string{"Вискоза"}, []string{"Чёрный", "Бежевый"}, []string{"S", "M", "L", "XL"}),
		item(m, "Рубашка льняная", 4290, 0, true, []string{"Лён"}, []string{"Белый"}, []string{"M", "L", "XL"}),
		item(m, "Джинсы прямые", 5490, 6490, false, []string{"Деним"}, []string{"Синий"}, []string{"S", "M", "L", "XL", "XXL"}),
		item(m, "Свитер шерстяной", 7990, 0, true, []string{"Шерсть"}, []string{"Серый"}, []string{"L", "XL"}),
		item(m, "Футболка базовая", 1490, 0, false, []string{"Хлопок"}, []string{"Чёрный", "Белый"}, []string{"S", "M", "L", "XL", "XXL"}),
		item(c, "Комбинезон флисовый", 3290, 3990, true, []string{"Флис"}, []string{"Розовый"}, []string{"92", "104"}),
		item(c, "Футболка детская", 890, 0, false, []string{"Хлопок"}, []string{"Жёлтый", "Зелёный"}, []string{"104", "116", "128"}),
		item(c, "Платье для девочки", 2490, 0, true, []string{"Трикотаж"}, []string{"Розовый"}, []string{"116", "128", "140"}),
		item(c, "Худи с капюшоном", 2990, 3490, false, []string{"Трикотаж"}, []string{"Голубой"}, []string{"104", "116", "128", "140"}),
	}
}
