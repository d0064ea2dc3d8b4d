package scoring

import (
	"sort"
	"strings"

	"product-transparency/backend/internal/catalog"
)

// ProductData is the disclosure summary sent to the scoring service.
type ProductData struct {
	IngredientsDisclosed bool     `json:"ingredients_disclosed"`
	SourcingInfo         bool     `json:"sourcing_info"`
	Certifications       []string `json:"certifications"`
	EnvironmentalImpact  string   `json:"environmental_impact"`
}

// certificationSignals maps select answers that imply a certification.
var certificationSignals = map[string]map[string]string{
	"organic_status": {
		"100% organic":      "organic",
		"organic":           "organic",
		"made with organic": "organic",
	},
	"gmo_status": {
		"gmo-free certified": "non-gmo",
	},
	"animal_testing": {
		"cruelty-free certified": "cruelty-free",
	},
}

// DeriveProductData summarizes a submission's answers for scoring.
func DeriveProductData(answers map[string]any) ProductData {
	data := ProductData{
		IngredientsDisclosed: !catalog.IsBlank(answers["ingredients"]),
		SourcingInfo:         !catalog.IsBlank(answers["sourcing"]),
		Certifications:       []string{},
		EnvironmentalImpact:  "unknown",
	}

	seen := make(map[string]struct{})
	add := func(cert string) {
		cert = strings.ToLower(strings.TrimSpace(cert))
		if cert == "" {
			return
		}
		if _, ok := seen[cert]; ok {
			return
		}
		seen[cert] = struct{}{}
		data.Certifications = append(data.Certifications, cert)
	}
	for _, cert := range catalog.AnswerList(answers["certifications"]) {
		add(cert)
	}
	for key, signals := range certificationSignals {
		value := strings.ToLower(catalog.AnswerText(answers[key]))
		if cert, ok := signals[value]; ok {
			add(cert)
		}
	}
	sort.Strings(data.Certifications)

	environmental := 0
	for _, key := range []string{"sustainability", "carbon_footprint"} {
		if !catalog.IsBlank(answers[key]) {
			environmental++
		}
	}
	switch environmental {
	case 2:
		data.EnvironmentalImpact = "low"
	case 1:
		data.EnvironmentalImpact = "medium"
	}
	return data
}
