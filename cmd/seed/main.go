package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
)

// SeedProduct represents one entry of the product seed file.
type SeedProduct struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
	InStock     bool   `json:"in_stock"`
}

func main() {
	file := flag.String("file", "data/products.json", "path to the product seed file")
	flag.Parse()

	log.Println("Starting seed script...")

	// Load configuration
	cfg := config.Load()

	// Connect to database
	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	// Run migrations to ensure schema is up to date
	if err := gormDB.AutoMigrate(&model.Product{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Load products from the seed file
	log.Printf("Loading products from: %s", *file)
	products, err := loadProducts(*file)
	if err != nil {
		log.Fatalf("Failed to load products: %v", err)
	}
	log.Printf("Loaded %d products from file", len(products))

	// Wholesale-replace the catalog
	productRepo := repository.NewProductRepository(gormDB)
	ctx := context.Background()

	log.Println("Replacing product catalog...")
	if err := productRepo.ReplaceAll(ctx, products); err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	// Invalidate the cached catalog listing
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	_ = cacheClient.Delete(ctx, service.ProductListCacheKey)

	log.Printf("Seed completed successfully! %d products inserted", len(products))
}

// loadProducts reads and parses the product seed file.
func loadProducts(path string) ([]model.Product, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var entries []SeedProduct
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	products := make([]model.Product, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		price, err := decimal.NewFromString(entry.Price)
		if err != nil {
			log.Printf("Skipping product %q with invalid price: %s", entry.Slug, entry.Price)
			skipped++
			continue
		}

		products = append(products, model.Product{
			Name:        entry.Name,
			Slug:        entry.Slug,
			Description: entry.Description,
			Price:       price,
			Category:    entry.Category,
			ImageURL:    entry.ImageURL,
			InStock:     entry.InStock,
		})
	}

	if skipped > 0 {
		log.Printf("Skipped %d invalid products", skipped)
	}

	return products, nil
}
