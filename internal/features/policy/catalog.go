package policy

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

// Product is a purchasable offering. Buying one creates a Policy of its type.
type Product struct {
	ProductID       string   `yaml:"product_id" json:"product_id"`
	PolicyType      Type     `yaml:"policy_type" json:"policy_type"`
	Name            string   `yaml:"name" json:"name"`
	PremiumAmount   float64  `yaml:"premium_amount" json:"premium_amount"`
	CoverageAmount  float64  `yaml:"coverage_amount" json:"coverage_amount"`
	CoverageDetails string   `yaml:"coverage_details" json:"coverage_details"`
	TermMonths      int      `yaml:"term_months" json:"term_months"`
	Popular         bool     `yaml:"popular" json:"popular"`
	AgeDiscount     bool     `yaml:"age_discount" json:"age_discount"`
	Features        []string `yaml:"features" json:"features"`
}

//go:embed catalog.yaml
var catalogYAML []byte

var catalog = mustLoadCatalog(catalogYAML)

func mustLoadCatalog(data []byte) []Product {
	var doc struct {
		Products []Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		panic("policy: invalid catalog: " + err.Error())
	}
	return doc.Products
}

func findProduct(id string) (Product, bool) {
	for _, p := range catalog {
		if p.ProductID == id {
			return p, true
		}
	}
	return Product{}, false
}
