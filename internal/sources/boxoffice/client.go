//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package boxoffice scrapes the BoxOfficeMojo weekly domestic charts.
package boxoffice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/internal/match"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources"
)

// SourceName labels BoxOfficeMojo requests in logs and metrics.
const SourceName = "boxofficemojo"

// Column names added to every scraped row.
const (
	ColumnYear = "year"
	ColumnWeek = "week"
)

// minCells is the smallest row that carries a release.
const minCells = 3

// Client fetches weekly charts.
type Client struct {
	baseURL string
	req     *sources.Requester
	now     func() time.Time
}

// New creates a BoxOfficeMojo client.
func New(baseURL string, opts ...sources.RequesterOption) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("boxoffice base url required")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		req:     sources.NewRequester(SourceName, opts...),
		now:     time.Now,
	}, nil
}

// Chart is one scraped week: the header names and the rows keyed by them.
type Chart struct {
	Year    int
	Week    int
	Headers []string
	Rows    []map[string]string
}

// Weekly fetches the chart of (year, week). The period is validated
// before any request is made.
func (c *Client) Weekly(ctx context.Context, year, week int) (*Chart, error) {
	if err := match.ValidatePeriod(year, week, c.now()); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/weekly/%dW%02d/", c.baseURL, year, week)
	body, err := c.req.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("weekly %dW%02d: %w", year, week, err)
	}

	chart, err := ParseChart(body)
	if err != nil {
		return nil, fmt.Errorf("weekly %dW%02d: %w", year, week, err)
	}
	chart.Year, chart.Week = year, week
	for _, row := range chart.Rows {
		row[ColumnYear] = strconv.Itoa(year)
		row[ColumnWeek] = strconv.Itoa(week)
	}

	logging.Debug().
		Int("year", year).
		Int("week", week).
		Int("rows", len(chart.Rows)).
		Msg("Fetched weekly chart")
	return chart, nil
}

// ParseChart extracts the mojo-body-table of a chart page. The first row
// names the columns; cells mentioning "hidden" are skipped and rows with
// fewer than three cells are ignored.
func ParseChart(page []byte) (*Chart, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse chart: %w", err)
	}

	table := doc.Find("table.mojo-body-table").First()
	if table.Length() == 0 {
		return &Chart{}, nil
	}

	chart := &Chart{}
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			chart.Headers = visibleText(tr.Find("th"))
			return
		}
		cells := visibleText(tr.Find("td"))
		if len(cells) < minCells {
			return
		}
		row := make(map[string]string, len(chart.Headers)+2)
		for j, h := range chart.Headers {
			if j < len(cells) {
				row[h] = cells[j]
			}
		}
		chart.Rows = append(chart.Rows, row)
	})
	return chart, nil
}

func visibleText(cells *goquery.Selection) []string {
	var out []string
	cells.Each(func(_ int, cell *goquery.Selection) {
		html, err := goquery.OuterHtml(cell)
		if err == nil && strings.Contains(html, "hidden") {
			return
		}
		out = append(out, strings.ReplaceAll(cell.Text(), "\n", ""))
	})
	return out
}
