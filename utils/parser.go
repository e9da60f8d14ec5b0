package utils

import (
	"log"
	"regexp"
	"strconv"
	"strings"
)

// priceRegex finds the first number-like pattern in a free-form price string.
// It handles integers (1,079), decimals (49.99), and thousands separators.
var priceRegex = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// ParsePrice extracts a numeric value from price text the model copied off
// the page, such as "$49", "€1,299.00" or "From 119.00". The CSV output keeps
// the original text; this value only feeds the history database's numeric
// column. Unparseable input yields 0.
func ParsePrice(priceStr string) float64 {
	if priceStr == "" {
		return 0.0
	}

	foundPrice := priceRegex.FindString(priceStr)
	if foundPrice == "" {
		return 0.0
	}

	cleanedStr := strings.ReplaceAll(foundPrice, ",", "")

	price, err := strconv.ParseFloat(cleanedStr, 64)
	if err != nil {
		log.Printf("ParsePrice: Failed to parse '%s' from original string '%s': %v", cleanedStr, priceStr, err)
		return 0.0
	}

	return price
}
