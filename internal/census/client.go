package census

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/constituent-twin/internal/fetcher"
	"github.com/sells-group/constituent-twin/internal/monitoring"
)

// ACS variable codes requested for every geography.
const (
	varPopulation   = "B01003_001E"
	varWhite        = "B02001_002E"
	varBlack        = "B02001_003E"
	varAsian        = "B02001_005E"
	varHispanic     = "B03003_003E"
	varMedianIncome = "B19013_001E"
	varBachelors    = "B15003_022E"
	varMasters      = "B15003_023E"
	varProfessional = "B15003_024E"
	varDoctorate    = "B15003_025E"
	varMedianAge    = "B01002_001E"
)

// Variables is the fixed variable list, in request order.
var Variables = []string{
	varPopulation, varWhite, varBlack, varAsian, varHispanic, varMedianIncome,
	varBachelors, varMasters, varProfessional, varDoctorate, varMedianAge,
}

// Counts holds the raw values of one Census response row.
type Counts struct {
	Population   int
	White        int
	Black        int
	Asian        int
	Hispanic     int
	MedianIncome int
	Bachelors    int
	Masters      int
	Professional int
	Doctorate    int
	MedianAge    float64
}

// Degrees returns the number of bachelor's-or-higher degree holders.
func (c Counts) Degrees() int {
	return c.Bachelors + c.Masters + c.Professional + c.Doctorate
}

// Source fetches raw Census counts for a geography.
type Source interface {
	FetchZIP(ctx context.Context, zip string) (*Counts, error)
	FetchDistrict(ctx context.Context, stateFIPS, district string) (*Counts, error)
}

// ClientOptions configures a Census API client.
type ClientOptions struct {
	BaseURL string
	Year    int
	Dataset string
	APIKey  string
}

// Client queries the Census ACS API through a fetcher.
type Client struct {
	f    fetcher.Fetcher
	opts ClientOptions
}

// NewClient creates a Census API client.
func NewClient(f fetcher.Fetcher, opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.census.gov/data"
	}
	if opts.Year == 0 {
		opts.Year = 2022
	}
	if opts.Dataset == "" {
		opts.Dataset = "acs/acs5"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Client{f: f, opts: opts}
}

// FetchZIP fetches counts for a ZIP Code Tabulation Area.
func (c *Client) FetchZIP(ctx context.Context, zip string) (*Counts, error) {
	counts, err := c.fetch(ctx, "zip code tabulation area:"+zip, "")
	monitoring.ObserveCensusFetch(RegionZIP.String(), err)
	return counts, err
}

// FetchDistrict fetches counts for a congressional district within a state.
func (c *Client) FetchDistrict(ctx context.Context, stateFIPS, district string) (*Counts, error) {
	counts, err := c.fetch(ctx, "congressional district:"+district, "state:"+stateFIPS)
	monitoring.ObserveCensusFetch(RegionDistrict.String(), err)
	return counts, err
}

// URL builds the request URL for a geography filter.
func (c *Client) URL(forGeo, inGeo string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%d/%s?get=%s&for=%s",
		c.opts.BaseURL, c.opts.Year, c.opts.Dataset,
		strings.Join(Variables, ","), url.PathEscape(forGeo),
	)
	if inGeo != "" {
		b.WriteString("&in=" + url.PathEscape(inGeo))
	}
	if c.opts.APIKey != "" {
		b.WriteString("&key=" + url.QueryEscape(c.opts.APIKey))
	}
	return b.String()
}

func (c *Client) fetch(ctx context.Context, forGeo, inGeo string) (*Counts, error) {
	rows, err := fetcher.GetJSON[[][]string](ctx, c.f, c.URL(forGeo, inGeo))
	if err != nil {
		return nil, eris.Wrapf(ErrUpstream, "%s: %v", forGeo, err)
	}
	counts, err := ParseResponse(*rows)
	if err != nil {
		return nil, eris.Wrapf(err, "%s", forGeo)
	}
	return counts, nil
}

// ParseResponse reads the first data row of a Census 2-D array response,
// locating columns by the header row.
func ParseResponse(rows [][]string) (*Counts, error) {
	if len(rows) < 2 {
		return nil, eris.Wrap(ErrUpstream, "no data rows")
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		colIdx[col] = i
	}
	for _, v := range Variables {
		if _, ok := colIdx[v]; !ok {
			return nil, eris.Wrapf(ErrUpstream, "missing column %s", v)
		}
	}

	record := rows[1]
	get := func(name string) string { return getColIdx(record, colIdx, name) }

	return &Counts{
		Population:   parseCount(get(varPopulation)),
		White:        parseCount(get(varWhite)),
		Black:        parseCount(get(varBlack)),
		Asian:        parseCount(get(varAsian)),
		Hispanic:     parseCount(get(varHispanic)),
		MedianIncome: parseCount(get(varMedianIncome)),
		Bachelors:    parseCount(get(varBachelors)),
		Masters:      parseCount(get(varMasters)),
		Professional: parseCount(get(varProfessional)),
		Doctorate:    parseCount(get(varDoctorate)),
		MedianAge:    parseFloatOr(get(varMedianAge), 0),
	}, nil
}

func getColIdx(record []string, colIdx map[string]int, name string) string {
	i, ok := colIdx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseCount parses a Census count. Census encodes missing estimates as large
// negative sentinels (e.g. -666666666), which become 0.
func parseCount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		n = int(f)
	}
	return max(n, 0)
}

func parseFloatOr(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}
