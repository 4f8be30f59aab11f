package hotmart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/username/vendasbanco/src/logger"
	"github.com/username/vendasbanco/src/utils"
)

const maxResultsPerPage = "100"

// ErrInvalidDate marks a malformed caller-supplied date. It is user input
// error, not an upstream failure.
var ErrInvalidDate = errors.New("invalid date format")

// Client fetches the sales history from the upstream API. Pagination is
// strictly sequential: the next cursor depends on the previous response.
type Client struct {
	httpClient *http.Client
	tokens     *TokenManager
	salesURL   string

	defaultStartDate string
	today            func() time.Time
}

func NewClient(tokens *TokenManager, salesURL, defaultStartDate string, timeout time.Duration) *Client {
	return &Client{
		httpClient:       &http.Client{Timeout: timeout},
		tokens:           tokens,
		salesURL:         salesURL,
		defaultStartDate: defaultStartDate,
		today:            time.Now,
	}
}

// FetchSalesHistory retrieves all sales approved within the inclusive
// calendar-date range. Empty dates fall back to the configured default start
// date and today. On an HTTP failure mid-pagination it stops and returns
// whatever was accumulated so far; the sync is best effort, not atomic.
func (c *Client) FetchSalesHistory(ctx context.Context, startDate, endDate string) ([]SaleItem, error) {
	if startDate == "" {
		startDate = c.defaultStartDate
	}
	if endDate == "" {
		endDate = c.today().Format(utils.DayFormat)
	}

	startDay, err := utils.ParseDay(startDate)
	if err != nil {
		logger.L.Error("Invalid start_date for sales fetch", "startDate", startDate, "error", err)
		return nil, fmt.Errorf("%w: start_date %q", ErrInvalidDate, startDate)
	}
	endDay, err := utils.ParseDay(endDate)
	if err != nil {
		logger.L.Error("Invalid end_date for sales fetch", "endDate", endDate, "error", err)
		return nil, fmt.Errorf("%w: end_date %q", ErrInvalidDate, endDate)
	}

	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		// No token means no upstream call at all for this cycle.
		logger.L.Error("Aborting sales fetch, no valid token", "error", err)
		return nil, err
	}

	startMs := utils.StartOfDayMillis(startDay)
	endMs := utils.EndOfDayMillis(endDay)

	var sales []SaleItem
	pageToken := ""
	page := 1

	for {
		reqURL, err := c.buildPageURL(startMs, endMs, pageToken)
		if err != nil {
			return sales, fmt.Errorf("building sales request URL: %w", err)
		}

		logger.L.Info("Requesting sales page", "page", page, "url", reqURL)
		body, err := c.getPage(ctx, reqURL, token)
		if err != nil {
			// Partial results are acceptable; keep what earlier pages yielded.
			logger.L.Error("Sales page request failed, returning partial results",
				"page", page, "accumulated", len(sales), "error", err)
			return sales, nil
		}

		var pageResp SalesHistoryResponse
		if err := json.Unmarshal(body, &pageResp); err != nil {
			logger.L.Error("Failed to decode sales page, returning partial results",
				"page", page, "accumulated", len(sales), "body", string(body), "error", err)
			return sales, nil
		}

		sales = append(sales, pageResp.Items...)

		pageToken = pageResp.PageInfo.NextPageToken
		if pageToken == "" {
			break
		}
		page++
	}

	logger.L.Info("Sales fetch complete", "records", len(sales), "pages", page)
	return sales, nil
}

func (c *Client) buildPageURL(startMs, endMs int64, pageToken string) (string, error) {
	u, err := url.Parse(c.salesURL)
	if err != nil {
		return "", err
	}
	params := url.Values{}
	params.Set("start_date", strconv.FormatInt(startMs, 10))
	params.Set("end_date", strconv.FormatInt(endMs, 10))
	params.Set("max_results", maxResultsPerPage)
	if pageToken != "" {
		params.Set("page_token", pageToken)
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (c *Client) getPage(ctx context.Context, reqURL, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sales request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading sales response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sales request returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
