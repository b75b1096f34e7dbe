package carbon

import "strings"

// locationAliases maps country, state and city names (plus ISO country
// codes) to canonical AWS-style region codes. Canonical region codes and
// unrecognized strings pass through unchanged.
//
//nolint:gochecknoglobals // Immutable lookup table
var locationAliases = map[string]string{
	"california": "us-west-1",
	"oregon":     "us-west-2",
	"washington": "us-west-2",
	"virginia":   "us-east-1",
	"ohio":       "us-east-2",
	"ireland":    "eu-west-1",
	"germany":    "eu-central-1",
	"singapore":  "ap-southeast-1",
	"japan":      "ap-northeast-1",
	"de":         "eu-central-1",
	"ie":         "eu-west-1",
	"sg":         "ap-southeast-1",
	"jp":         "ap-northeast-1",
}

// NormalizeLocation lowercases and trims a location identifier and maps
// known aliases to canonical region codes.
func NormalizeLocation(location string) string {
	location = strings.ToLower(strings.TrimSpace(location))

	if region, ok := locationAliases[location]; ok {
		return region
	}

	return location
}
