package performance

import (
	"strconv"
	"strings"

	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/match"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/boxoffice"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// Chart columns read from the scraped rows.
const (
	ColumnRank     = "Rank"
	ColumnRelease  = "Release"
	ColumnGross    = "Gross"
	ColumnTheaters = "Theaters"
	ColumnWeeks    = "Weeks"
)

// ParseRows converts scraped chart records to matcher rows. Records
// without a usable period or title are skipped and counted.
func ParseRows(records []map[string]string) (rows []match.Row, skipped int) {
	rows = make([]match.Row, 0, len(records))
	for _, rec := range records {
		year, yerr := strconv.Atoi(strings.TrimSpace(rec[boxoffice.ColumnYear]))
		week, werr := strconv.Atoi(strings.TrimSpace(rec[boxoffice.ColumnWeek]))
		title := strings.TrimSpace(rec[ColumnRelease])
		if yerr != nil || werr != nil || title == "" {
			skipped++
			continue
		}
		rows = append(rows, match.Row{
			Year:     year,
			Week:     week,
			Title:    title,
			Rank:     parseNumber(rec[ColumnRank]),
			Gross:    parseNumber(rec[ColumnGross]),
			Theaters: parseNumber(rec[ColumnTheaters]),
			Weeks:    parseNumber(rec[ColumnWeeks]),
		})
	}
	return rows, skipped
}

var numberCleaner = strings.NewReplacer(",", "", "$", "")

// parseNumber reads a chart figure like "$1,234,567". Dashes, blanks and
// anything unparseable count as zero.
func parseNumber(s string) int64 {
	s = strings.TrimSpace(numberCleaner.Replace(s))
	if s == "" || s == "-" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Catalogue builds the match candidates from raw movies. Movies without a
// release date cannot be matched and are left out.
func Catalogue(raw []tmdb.Movie) []match.Movie {
	raw = entities.DedupeLast(raw, func(m tmdb.Movie) int64 { return m.ID })
	out := make([]match.Movie, 0, len(raw))
	for _, m := range raw {
		released := tmdb.ParseDate(m.ReleaseDate)
		if released == nil {
			continue
		}
		out = append(out, match.Movie{MovieID: m.ID, Title: m.Title, ReleaseDate: *released})
	}
	return out
}

// ChartRecords flattens charts to CSV rows under a shared header: year and
// week first, then every chart column in first-seen order.
func ChartRecords(charts []boxoffice.Chart) (header []string, rows [][]string) {
	header = []string{boxoffice.ColumnYear, boxoffice.ColumnWeek}
	seen := map[string]bool{boxoffice.ColumnYear: true, boxoffice.ColumnWeek: true}
	for _, c := range charts {
		for _, h := range c.Headers {
			if !seen[h] {
				seen[h] = true
				header = append(header, h)
			}
		}
	}
	for _, c := range charts {
		for _, rec := range c.Rows {
			row := make([]string, len(header))
			for i, h := range header {
				row[i] = rec[h]
			}
			rows = append(rows, row)
		}
	}
	return header, rows
}

type rowKey struct {
	weekEnd string
	movie   int64
}

var columns = []string{"week_end_date", "movie_id", "rank", "domestic_gross", "domestic_theaters_count"}

// Batch converts matches to a warehouse batch. Two titles resolving to the
// same movie in one week keep the later match.
func Batch(perfs []match.Performance) *warehouse.Batch {
	perfs = entities.DedupeLast(perfs, func(p match.Performance) rowKey {
		return rowKey{p.WeekEndDate.Format(tmdb.DateLayout), p.MovieID}
	})
	b := warehouse.NewBatch(columns...)
	for _, p := range perfs {
		b.Rows = append(b.Rows, []any{
			p.WeekEndDate, p.MovieID, p.Rank, p.DomesticGross, p.DomesticTheatersCount,
		})
	}
	return b
}
