package view

import (
	"strconv"
	"strings"

	"adopt-dashboard/internal/errors"
)

// stateFIPS maps US state codes to the numeric FIPS ids used by the
// us-10m topojson state features.
var stateFIPS = map[string]int{
	"AL": 1, "AK": 2, "AZ": 4, "AR": 5, "CA": 6, "CO": 8, "CT": 9, "DE": 10,
	"FL": 12, "GA": 13, "HI": 15, "ID": 16, "IL": 17, "IN": 18, "IA": 19,
	"KS": 20, "KY": 21, "LA": 22, "ME": 23, "MD": 24, "MA": 25, "MI": 26,
	"MN": 27, "MS": 28, "MO": 29, "MT": 30, "NE": 31, "NV": 32, "NH": 33,
	"NJ": 34, "NM": 35, "NY": 36, "NC": 37, "ND": 38, "OH": 39, "OK": 40,
	"OR": 41, "PA": 42, "RI": 44, "SC": 45, "SD": 46, "TN": 47, "TX": 48,
	"UT": 49, "VT": 50, "VA": 51, "WA": 53, "WV": 54, "WI": 55, "WY": 56,
}

var fipsState = func() map[int]string {
	m := make(map[int]string, len(stateFIPS))
	for code, id := range stateFIPS {
		m[id] = code
	}
	return m
}()

// FIPS returns the FIPS id for a region code, or 0 when the region is not a
// mapped US state.
func FIPS(region string) int {
	return stateFIPS[strings.ToUpper(strings.TrimSpace(region))]
}

// RegionFromFIPS translates a map click on a state feature into a region
// code.
func RegionFromFIPS(id int) (string, error) {
	code, ok := fipsState[id]
	if !ok {
		return "", errors.InvalidSelection("region", strconv.Itoa(id), "not a known state FIPS id")
	}
	return code, nil
}
