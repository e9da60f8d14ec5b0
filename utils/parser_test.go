package utils

import "testing"

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected float64
	}{
		{"Dollar Price", "$49", 49.0},
		{"Price With Comma", "€1,299.00", 1299.00},
		{"Price With Prefix Text", "From 119.00", 119.00},
		{"Integer Price", "99", 99.0},
		{"Empty String", "", 0.0},
		{"Invalid String", "No Price", 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := ParsePrice(tc.input)
			if result != tc.expected {
				t.Errorf("ParsePrice(%q) = %f; want %f", tc.input, result, tc.expected)
			}
		})
	}
}
