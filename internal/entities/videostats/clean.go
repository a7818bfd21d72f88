package videostats

import (
	"sort"
	"strconv"
	"time"

	"github.com/pgEdge/pgedge-boxoffice/internal/entities"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/tmdb"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/vimeo"
	"github.com/pgEdge/pgedge-boxoffice/internal/sources/youtube"
	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

// Video sites as reported by TMDB.
const (
	SiteYouTube = "YouTube"
	SiteVimeo   = "Vimeo"
)

// Key is one video of one movie.
type Key struct {
	MovieID     int64
	Key         string
	Site        string
	Type        string
	PublishedAt string
}

// Counts are the engagement counters of one video.
type Counts struct {
	Views     *int64
	Likes     *int64
	Favorites *int64
	Comments  *int64
}

// Record is one cleaned video statistics row.
type Record struct {
	MovieID     int64
	VideoKeyID  string
	Site        string
	Type        string
	PublishedAt *time.Time
	Counts
}

// Keys lists the distinct videos of the raw movies.
func Keys(raw []tmdb.Movie) []Key {
	var keys []Key
	for _, m := range raw {
		for _, v := range m.Videos.Results {
			if v.Key == "" {
				continue
			}
			keys = append(keys, Key{
				MovieID:     m.ID,
				Key:         v.Key,
				Site:        v.Site,
				Type:        v.Type,
				PublishedAt: v.PublishedAt,
			})
		}
	}
	return entities.DedupeLast(keys, func(k Key) videoID { return videoID{k.MovieID, k.Key} })
}

type videoID struct {
	movie int64
	key   string
}

// BySite returns the distinct video ids of site, sorted.
func BySite(keys []Key, site string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range keys {
		if k.Site == site && !seen[k.Key] {
			seen[k.Key] = true
			out = append(out, k.Key)
		}
	}
	sort.Strings(out)
	return out
}

// YouTubeCounts indexes YouTube statistics by video id. Hidden or
// malformed counters stay null.
func YouTubeCounts(videos []youtube.Video) map[string]Counts {
	out := make(map[string]Counts, len(videos))
	for _, v := range videos {
		out[v.ID] = Counts{
			Views:     parseCount(v.Statistics.ViewCount),
			Likes:     parseCount(v.Statistics.LikeCount),
			Favorites: parseCount(v.Statistics.FavoriteCount),
			Comments:  parseCount(v.Statistics.CommentCount),
		}
	}
	return out
}

// VimeoCounts indexes Vimeo statistics by key. Vimeo has no favourites.
func VimeoCounts(videos []vimeo.Video) map[string]Counts {
	out := make(map[string]Counts, len(videos))
	for _, v := range videos {
		out[v.Key] = Counts{
			Views:    v.Plays,
			Likes:    v.Likes,
			Comments: v.Comments,
		}
	}
	return out
}

// Join pairs every key with the statistics of its site. Keys without
// statistics are dropped.
func Join(keys []Key, stats Stats) []Record {
	var out []Record
	for _, k := range keys {
		counts, ok := stats[k.Site][k.Key]
		if !ok {
			continue
		}
		out = append(out, Record{
			MovieID:     k.MovieID,
			VideoKeyID:  k.Key,
			Site:        k.Site,
			Type:        k.Type,
			PublishedAt: parseTime(k.PublishedAt),
			Counts:      counts,
		})
	}
	return entities.DedupeLast(out, func(r Record) videoID { return videoID{r.MovieID, r.VideoKeyID} })
}

func parseCount(s *string) *int64 {
	if s == nil {
		return nil
	}
	n, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

var columns = []string{
	"movie_id", "video_key_id", "video_site", "video_type", "published_at",
	"view_count", "like_count", "favourite_count", "comment_count",
}

// Batch converts records to a warehouse batch.
func Batch(records []Record) *warehouse.Batch {
	b := warehouse.NewBatch(columns...)
	for _, r := range records {
		b.Rows = append(b.Rows, []any{
			r.MovieID, r.VideoKeyID, r.Site, r.Type, r.PublishedAt,
			r.Views, r.Likes, r.Favorites, r.Comments,
		})
	}
	return b
}
