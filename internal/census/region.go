// Package census turns a region identifier into a normalized demographic
// profile built from the Census ACS API, falling back to synthetic profiles
// when the API cannot answer.
package census

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrResolution means a region id cannot be mapped to a queryable geography.
	ErrResolution = eris.New("census: region cannot be resolved")
	// ErrUpstream means the Census API was unreachable or returned unusable data.
	ErrUpstream = eris.New("census: upstream failure")
)

// RegionKind distinguishes ZIP and congressional district regions.
type RegionKind int

const (
	// RegionZIP is a 5-digit ZIP Code Tabulation Area.
	RegionZIP RegionKind = iota + 1
	// RegionDistrict is a congressional district such as CA-12.
	RegionDistrict
)

func (k RegionKind) String() string {
	switch k {
	case RegionZIP:
		return "zip"
	case RegionDistrict:
		return "district"
	default:
		return "unknown"
	}
}

// Region is a parsed region identifier.
type Region struct {
	ID    string
	Kind  RegionKind
	ZIP   string
	State string
	// District is the two-digit Census district code ("12", "00" for at-large).
	District string
}

var (
	zipPattern      = regexp.MustCompile(`^\d{5}$`)
	districtPattern = regexp.MustCompile(`^([A-Z]{2})-(\d{1,2})$`)
)

// ParseRegion parses a ZIP ("94110") or district ("CA-12", "ny-03") id.
// Ids of any other shape wrap ErrResolution.
func ParseRegion(raw string) (Region, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))

	if zipPattern.MatchString(id) {
		return Region{ID: id, Kind: RegionZIP, ZIP: id}, nil
	}

	m := districtPattern.FindStringSubmatch(id)
	if m == nil {
		return Region{}, eris.Wrapf(ErrResolution, "unrecognized region %q", raw)
	}
	n, _ := strconv.Atoi(m[2])
	return Region{
		ID:       id,
		Kind:     RegionDistrict,
		State:    m[1],
		District: fmt.Sprintf("%02d", n),
	}, nil
}

// NormalizeID returns the canonical form of a region id used for cache keys.
// Unparseable ids are upper-cased and trimmed.
func NormalizeID(raw string) string {
	r, err := ParseRegion(raw)
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(raw))
	}
	if r.Kind == RegionDistrict {
		n, _ := strconv.Atoi(r.District)
		return fmt.Sprintf("%s-%d", r.State, n)
	}
	return r.ID
}
