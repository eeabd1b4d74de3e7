package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/dataforge/dataforge/internal/core"
	"github.com/dataforge/dataforge/internal/core/infer"
)

const defaultDataHubBaseURL = "https://datahub.io"

// DataHubFetcher adapts a CKAN-style open-data portal: JSON package search
// for candidates and an HTML resource preview page scraped for sample rows.
type DataHubFetcher struct {
	Client  *http.Client
	BaseURL string
	Logger  *zap.Logger
}

type ckanSearchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Results []ckanPackage `json:"results"`
	} `json:"result"`
}

type ckanPackage struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	Notes        string `json:"notes"`
	NumDownloads int64  `json:"num_downloads"`
	Tracking     struct {
		Total int64 `json:"total"`
	} `json:"tracking_summary"`
}

// Source identifies the catalog.
func (f *DataHubFetcher) Source() core.SourceType {
	return core.SourceDataHub
}

// Search queries the portal's package_search action. Failures degrade to an
// empty result.
func (f *DataHubFetcher) Search(ctx context.Context, topic string) ([]core.CandidateSource, error) {
	if f == nil {
		return nil, errors.New("datahub fetcher is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	query := SanitizeQuery(topic)
	if query == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, SearchTimeout)
	defer cancel()

	endpoint := f.baseURL().ResolveReference(&url.URL{
		Path:     "/api/3/action/package_search",
		RawQuery: url.Values{"q": {query}}.Encode(),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build datahub search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client().Do(req)
	if err != nil {
		f.warn("datahub search failed", query, err)
		return nil, nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode != http.StatusOK {
		f.warn("datahub search returned unexpected status", query, fmt.Errorf("status %d", resp.StatusCode))
		return nil, nil
	}

	var payload ckanSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || !payload.Success {
		f.warn("datahub search payload malformed", query, err)
		return nil, nil
	}

	base := f.baseURL()
	candidates := make([]core.CandidateSource, 0, len(payload.Result.Results))
	for _, pkg := range payload.Result.Results {
		if strings.TrimSpace(pkg.Name) == "" {
			continue
		}
		title := pkg.Title
		if title == "" {
			title = pkg.Name
		}
		candidates = append(candidates, core.CandidateSource{
			SourceType:    core.SourceDataHub,
			Name:          title,
			URL:           base.ResolveReference(&url.URL{Path: "/dataset/" + pkg.Name}).String(),
			Reference:     pkg.Name,
			Description:   pkg.Notes,
			DownloadCount: pkg.NumDownloads,
			VoteCount:     pkg.Tracking.Total,
		})
	}
	return candidates, nil
}

// Sample loads the dataset's HTML preview page and scrapes the first data
// table. Pages without a usable table yield (nil, nil).
func (f *DataHubFetcher) Sample(ctx context.Context, reference string) (*core.SampleResult, error) {
	if f == nil {
		return nil, errors.New("datahub fetcher is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ref := strings.TrimSpace(reference)
	if ref == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, SampleTimeout)
	defer cancel()

	endpoint := f.baseURL().ResolveReference(&url.URL{Path: "/dataset/" + ref + "/preview"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build datahub sample request: %w", err)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		f.warn("datahub sample fetch failed", ref, err)
		return nil, nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode != http.StatusOK {
		f.warn("datahub sample returned unexpected status", ref, fmt.Errorf("status %d", resp.StatusCode))
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		f.warn("datahub sample page malformed", ref, err)
		return nil, nil
	}

	result := scrapePreviewTable(doc, ref)
	if result == nil {
		f.warn("datahub sample page has no preview table", ref, nil)
	}
	return result, nil
}

// scrapePreviewTable extracts header and rows from the first table on a
// preview page. Returns nil when the page carries no usable table.
func scrapePreviewTable(doc *goquery.Document, fileName string) *core.SampleResult {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil
	}

	var names []string
	table.Find("th").Each(func(_ int, cell *goquery.Selection) {
		names = append(names, strings.TrimSpace(cell.Text()))
	})

	var rows []map[string]string
	total := 0
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		total++
		if len(rows) >= previewRowLimit {
			return
		}
		row := make(map[string]string, len(names))
		tr.Find("td").Each(func(i int, td *goquery.Selection) {
			if i < len(names) {
				row[names[i]] = strings.TrimSpace(td.Text())
			}
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})

	if len(names) == 0 || len(rows) == 0 {
		return nil
	}

	return &core.SampleResult{
		FileName:   fileName,
		TotalRows:  total,
		Columns:    infer.ProfileColumns(names, rows),
		SampleRows: infer.ExtractSample(rows, infer.MaxSampleValues),
	}
}

func (f *DataHubFetcher) baseURL() *url.URL {
	if f != nil && f.BaseURL != "" {
		if parsed, err := url.Parse(f.BaseURL); err == nil {
			return parsed
		}
	}
	parsed, _ := url.Parse(defaultDataHubBaseURL)
	return parsed
}

func (f *DataHubFetcher) client() *http.Client {
	if f != nil && f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *DataHubFetcher) warn(msg, subject string, err error) {
	if f == nil || f.Logger == nil {
		return
	}
	f.Logger.Warn(msg, zap.String("subject", subject), zap.Error(err))
}
