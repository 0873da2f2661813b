package census

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// DistrictZIPs maps canonical district ids ("CA-12") to the ZIPs they cover.
type DistrictZIPs map[string][]string

type districtFile struct {
	Districts map[string][]string `yaml:"districts"`
}

// LoadDistrictZIPs reads a district map file:
//
//	districts:
//	  CA-12: ["94102", "94103"]
func LoadDistrictZIPs(path string) (DistrictZIPs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "census: open district map %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ParseDistrictZIPs(f)
}

// ParseDistrictZIPs decodes a district map, canonicalizing district ids and
// dropping ZIPs that are not 5 digits.
func ParseDistrictZIPs(r io.Reader) (DistrictZIPs, error) {
	var raw districtFile
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "census: decode district map")
	}
	out := make(DistrictZIPs, len(raw.Districts))
	for id, zips := range raw.Districts {
		region, err := ParseRegion(id)
		if err != nil || region.Kind != RegionDistrict {
			return nil, eris.Errorf("census: district map: invalid district id %q", id)
		}
		key := NormalizeID(id)
		for _, z := range zips {
			if zipPattern.MatchString(z) {
				out[key] = append(out[key], z)
			}
		}
	}
	return out, nil
}

// aggregateZIPs fetches every ZIP with at most limit requests in flight and
// merges the successful results. It fails only when no ZIP succeeded.
func aggregateZIPs(ctx context.Context, src Source, zips []string, limit int, log *zap.Logger) (*Counts, []string, error) {
	if len(zips) == 0 {
		return nil, nil, eris.Wrap(ErrResolution, "district has no ZIPs")
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	var mu sync.Mutex
	results := make(map[string]*Counts, len(zips))
	for _, zip := range zips {
		g.Go(func() error {
			c, err := src.FetchZIP(gctx, zip)
			if err != nil {
				log.Debug("census: zip fetch failed during aggregation", zap.String("zip", zip), zap.Error(err))
				return nil
			}
			if c.Population <= 0 {
				return nil
			}
			mu.Lock()
			results[zip] = c
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(results) == 0 {
		return nil, nil, eris.Wrap(ErrUpstream, "no ZIP in district returned data")
	}

	used := make([]string, 0, len(results))
	for _, zip := range zips {
		if _, ok := results[zip]; ok {
			used = append(used, zip)
		}
	}
	parts := make([]*Counts, 0, len(used))
	for _, zip := range used {
		parts = append(parts, results[zip])
	}
	return mergeCounts(parts), used, nil
}

// mergeCounts sums counts and population-weights the medians.
func mergeCounts(parts []*Counts) *Counts {
	var out Counts
	var incomeWeighted, ageWeighted float64
	for _, c := range parts {
		out.Population += c.Population
		out.White += c.White
		out.Black += c.Black
		out.Asian += c.Asian
		out.Hispanic += c.Hispanic
		out.Bachelors += c.Bachelors
		out.Masters += c.Masters
		out.Professional += c.Professional
		out.Doctorate += c.Doctorate
		incomeWeighted += float64(c.MedianIncome) * float64(c.Population)
		ageWeighted += c.MedianAge * float64(c.Population)
	}
	if out.Population > 0 {
		out.MedianIncome = int(incomeWeighted/float64(out.Population) + 0.5)
		out.MedianAge = ageWeighted / float64(out.Population)
	}
	return &out
}
