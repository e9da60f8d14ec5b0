package models

import (
	"reflect"
	"testing"
)

func TestCSVRow(t *testing.T) {
	price := "$49"
	rating := "120"

	testCases := []struct {
		name    string
		listing ProductListing
		want    []string
	}{
		{
			"All Fields",
			ProductListing{BrandName: "Acme", ProductName: "Chair", Price: &price, RatingCount: &rating},
			[]string{"Acme", "Chair", "$49", "120"},
		},
		{
			"Absent Optionals",
			ProductListing{BrandName: "Acme", ProductName: "Lamp"},
			[]string{"Acme", "Lamp", "", ""},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.listing.CSVRow(); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("CSVRow() = %v; want %v", got, tc.want)
			}
		})
	}
}
