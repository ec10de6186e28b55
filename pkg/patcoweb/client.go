// Package patcoweb scrapes the PATCO schedules page for the metadata the
// pipeline needs: the regular schedule's effective date and PDF, and today's
// special schedule PDF link if one is posted.
package patcoweb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// DefaultUserAgent mimics a desktop browser; the schedule site rejects
// obvious bot agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ScheduleInfo is the scraped snapshot of the schedules page.
type ScheduleInfo struct {
	RegularEffectiveDate  string    `json:"regular_schedule_effective_date"`
	RegularPDFURL         string    `json:"regular_schedule_pdf_url"`
	HasSpecialSchedule    bool      `json:"has_special_schedule"`
	SpecialSchedulePDFURL string    `json:"special_schedule_pdf_url"`
	SpecialScheduleText   string    `json:"special_schedule_text"`
	FetchedAt             time.Time `json:"currentTimestamp"`
}

type Client struct {
	pageURL    string
	baseURL    string
	userAgent  string
	httpClient *http.Client

	now func() time.Time
}

func New(pageURL, baseURL string) *Client {
	return &Client{
		pageURL:   pageURL,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

var (
	effectiveRe = regexp.MustCompile(`Effective\s+(\d{1,2}/\d{1,2}/\d{2,4})`)
	anchorRe    = regexp.MustCompile(`(?is)<a[^>]+href="([^"]+\.pdf)"[^>]*>(.*?)</a>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	linkDateRe  = regexp.MustCompile(`(?:[A-Za-z]+,\s*)?([A-Za-z]+ \d{1,2}, \d{4})`)
)

// FetchScheduleInfo downloads and scrapes the schedules page.
func (c *Client) FetchScheduleInfo(ctx context.Context) (*ScheduleInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching schedules page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading schedules page: %w", err)
	}

	return c.parse(string(body)), nil
}

func (c *Client) parse(page string) *ScheduleInfo {
	now := c.now()
	info := &ScheduleInfo{FetchedAt: now}

	if m := effectiveRe.FindStringSubmatch(page); m != nil {
		info.RegularEffectiveDate = m[1]
	}

	today := now.Format("January 2, 2006")
	for _, m := range anchorRe.FindAllStringSubmatch(page, -1) {
		href, text := m[1], strings.TrimSpace(tagRe.ReplaceAllString(m[2], ""))

		dm := linkDateRe.FindStringSubmatch(text)
		if dm == nil {
			// First PDF link with no date text is taken as the regular
			// schedule; dated links belong to the special section.
			if info.RegularPDFURL == "" {
				info.RegularPDFURL = c.resolve(href)
			}
			continue
		}

		linkDate, err := time.Parse("January 2, 2006", dm[1])
		if err != nil {
			continue
		}
		if !info.HasSpecialSchedule && linkDate.Format("January 2, 2006") == today {
			info.HasSpecialSchedule = true
			info.SpecialSchedulePDFURL = c.resolve(href)
			info.SpecialScheduleText = text
		}
	}

	return info
}

// resolve turns the page's relative hrefs into absolute URLs.
func (c *Client) resolve(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	href = strings.TrimPrefix(href, "..")
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return c.baseURL + href
}
