// Package seed provides the initial product catalog.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/huertohogar/storefront/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Products []domain.Product `yaml:"products"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() ([]domain.Product, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads a catalog from path, falling back to the embedded catalog when path is empty.
func LoadFile(path string) ([]domain.Product, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and validates every product.
func Parse(data []byte) ([]domain.Product, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("seed: decode catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(file.Products))
	var problems []error
	for i, product := range file.Products {
		switch {
		case strings.TrimSpace(product.ID) == "":
			problems = append(problems, fmt.Errorf("product %d: id is required", i))
		case product.Price < 0 || product.Stock < 0:
			problems = append(problems, fmt.Errorf("product %s: price and stock must be non-negative", product.ID))
		case product.DiscountPrice != nil && *product.DiscountPrice < 0:
			problems = append(problems, fmt.Errorf("product %s: discount price must be non-negative", product.ID))
		}
		if _, dup := seen[product.ID]; dup {
			problems = append(problems, fmt.Errorf("product %s: duplicate id", product.ID))
		}
		seen[product.ID] = struct{}{}
		if file.Products[i].Reviews == nil {
			file.Products[i].Reviews = []domain.Review{}
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("seed: invalid catalog: %w", errors.Join(problems...))
	}
	return file.Products, nil
}
