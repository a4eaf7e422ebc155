package sdkruntime

import "strings"

// Region is a deployment locale. Each region has its own token authority.
type Region string

const (
	RegionEU Region = "eu"
	RegionUS Region = "us"
)

// DefaultAuthorities maps each region to its token authority base URL.
var DefaultAuthorities = map[Region]string{
	RegionEU: "https://auth.wlloyalty.net",
	RegionUS: "https://auth.us.wlloyalty.net",
}

// usMarker identifies US base URLs, e.g. https://api.rewards.us.wlloyalty.net/v1.
const usMarker = ".us."

// RegionFromBaseURL returns RegionUS when baseURL contains the US marker and
// RegionEU otherwise.
func RegionFromBaseURL(baseURL string) Region {
	if strings.Contains(strings.ToLower(baseURL), usMarker) {
		return RegionUS
	}
	return RegionEU
}

// Valid reports whether r is a known region.
func (r Region) Valid() bool {
	_, ok := DefaultAuthorities[r]
	return ok
}
