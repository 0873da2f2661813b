package census

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/constituent-twin/internal/fetcher"
)

// censusRows builds a Census-style 2-D response for the given values,
// keyed by variable code.
func censusRows(vals map[string]string, geo ...string) [][]string {
	header := append([]string{}, Variables...)
	row := make([]string, len(Variables))
	for i, v := range Variables {
		row[i] = vals[v]
		if row[i] == "" {
			row[i] = "0"
		}
	}
	for i := 0; i+1 < len(geo); i += 2 {
		header = append(header, geo[i])
		row = append(row, geo[i+1])
	}
	return [][]string{header, row}
}

func scenarioCA12() map[string]string {
	return map[string]string{
		varPopulation:   "700000",
		varWhite:        "400000",
		varBlack:        "80000",
		varHispanic:     "150000",
		varAsian:        "50000",
		varMedianIncome: "98000",
		varBachelors:    "140000",
		varMasters:      "50000",
		varProfessional: "7000",
		varDoctorate:    "3000",
		varMedianAge:    "37.9",
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	return NewClient(f, ClientOptions{BaseURL: srv.URL, Year: 2022, Dataset: "acs/acs5", APIKey: "k123"})
}

func TestClient_FetchDistrict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2022/acs/acs5", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, strings.Join(Variables, ","), q.Get("get"))
		assert.Equal(t, "congressional district:12", q.Get("for"))
		assert.Equal(t, "state:06", q.Get("in"))
		assert.Equal(t, "k123", q.Get("key"))
		_ = json.NewEncoder(w).Encode(censusRows(scenarioCA12(), "state", "06", "congressional district", "12"))
	})

	counts, err := c.FetchDistrict(context.Background(), "06", "12")
	require.NoError(t, err)
	assert.Equal(t, 700000, counts.Population)
	assert.Equal(t, 150000, counts.Hispanic)
	assert.Equal(t, 200000, counts.Degrees())
	assert.InDelta(t, 37.9, counts.MedianAge, 0.001)
}

func TestClient_FetchZIP(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "zip code tabulation area:94110", r.URL.Query().Get("for"))
		assert.Empty(t, r.URL.Query().Get("in"))
		_ = json.NewEncoder(w).Encode(censusRows(map[string]string{varPopulation: "74633"}))
	})

	counts, err := c.FetchZIP(context.Background(), "94110")
	require.NoError(t, err)
	assert.Equal(t, 74633, counts.Population)
}

func TestClient_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"bad request", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "error: unknown/unsupported geography hierarchy", http.StatusBadRequest)
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("<html>")) }},
		{"header only", func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode([][]string{Variables})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(t, tt.h).FetchZIP(context.Background(), "94110")
			assert.ErrorIs(t, err, ErrUpstream)
		})
	}
}

func TestClient_URLWithoutKey(t *testing.T) {
	c := NewClient(nil, ClientOptions{})
	u := c.URL("zip code tabulation area:10001", "")
	assert.True(t, strings.HasPrefix(u, "https://api.census.gov/data/2022/acs/acs5?get=B01003_001E,"))
	assert.Contains(t, u, "&for=zip%20code%20tabulation%20area:10001")
	assert.NotContains(t, u, "key=")
}

func TestParseResponse(t *testing.T) {
	t.Run("columns located by header", func(t *testing.T) {
		rows := [][]string{
			{varMedianAge, varPopulation, varWhite, varBlack, varAsian, varHispanic, varMedianIncome,
				varBachelors, varMasters, varProfessional, varDoctorate},
			{"41.2", "1000", "500", "100", "50", "200", "-666666666", "10", "5", "1", "1"},
		}
		c, err := ParseResponse(rows)
		require.NoError(t, err)
		assert.Equal(t, 1000, c.Population)
		assert.Equal(t, 0, c.MedianIncome)
		assert.InDelta(t, 41.2, c.MedianAge, 0.001)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := ParseResponse([][]string{{varPopulation}, {"1000"}})
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("short row", func(t *testing.T) {
		c, err := ParseResponse([][]string{Variables, {"1000"}})
		require.NoError(t, err)
		assert.Equal(t, 1000, c.Population)
		assert.Equal(t, 0, c.White)
	})
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, 42, parseCount("42"))
	assert.Equal(t, 42, parseCount("42.7"))
	assert.Equal(t, 0, parseCount("-666666666"))
	assert.Equal(t, 0, parseCount("null"))
	assert.Equal(t, 0, parseCount(""))
}
