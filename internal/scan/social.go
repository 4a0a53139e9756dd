package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oppradar/opportunity-radar/internal/models"
)

// socialPost is one post/video in a keyword search result.
type socialPost struct {
	PublishedAt time.Time
	Engagement  float64
}

// trendSnapshot summarizes a keyword's activity split into the most-recent
// 24h window and the prior 24h window.
type trendSnapshot struct {
	RecentCount   int
	OlderCount    int
	AvgEngagement float64
}

type socialPlatform interface {
	name() string
	searchURL(keyword string) string
	fetchPosts(ctx context.Context, client *http.Client, keyword string) ([]socialPost, error)
}

// SocialTrendScanner detects keywords gaining traction across configured
// platforms. A candidate is emitted only when average engagement and trend
// velocity both clear their thresholds.
type SocialTrendScanner struct {
	Keywords       []string
	MinEngagement  float64
	TrendThreshold float64
	Client         *http.Client
	Limiter        *Limiter
	Cache          *Cache

	platforms []socialPlatform
}

func NewSocialTrendScanner(youtubeAPIKey, redditUserAgent string, keywords []string, tun Tunables, limiter *Limiter, cache *Cache) *SocialTrendScanner {
	s := &SocialTrendScanner{
		Keywords:       keywords,
		MinEngagement:  tun.minEngagement(),
		TrendThreshold: tun.trendThreshold(),
		Client:         &http.Client{Timeout: 20 * time.Second},
		Limiter:        limiter,
		Cache:          cache,
	}
	if youtubeAPIKey != "" {
		s.platforms = append(s.platforms, &youtubePlatform{apiKey: youtubeAPIKey})
	}
	if redditUserAgent != "" {
		s.platforms = append(s.platforms, &redditPlatform{userAgent: redditUserAgent})
	}
	return s
}

func (s *SocialTrendScanner) Name() string { return "social_trends" }

// HasPlatforms reports whether at least one platform credential was
// configured; without any, the loader skips this scanner.
func (s *SocialTrendScanner) HasPlatforms() bool { return len(s.platforms) > 0 }

// trendVelocity is the relative growth between two adjacent 24h windows.
func trendVelocity(recentCount, olderCount int) float64 {
	if olderCount > 0 {
		return float64(recentCount-olderCount) / float64(olderCount)
	}
	if recentCount > 5 {
		return 1
	}
	return 0
}

func snapshotPosts(posts []socialPost, now time.Time) trendSnapshot {
	var snap trendSnapshot
	var engagementSum float64
	dayAgo := now.Add(-24 * time.Hour)
	twoDaysAgo := now.Add(-48 * time.Hour)

	for _, p := range posts {
		switch {
		case p.PublishedAt.After(dayAgo):
			snap.RecentCount++
			engagementSum += p.Engagement
		case p.PublishedAt.After(twoDaysAgo):
			snap.OlderCount++
		}
	}
	if snap.RecentCount > 0 {
		snap.AvgEngagement = engagementSum / float64(snap.RecentCount)
	}
	return snap
}

func (s *SocialTrendScanner) Scan(ctx context.Context) ([]RawCandidate, error) {
	if len(s.platforms) == 0 {
		return nil, ErrMissingCredential
	}

	var candidates []RawCandidate
	var lastErr error
	now := time.Now().UTC()
	bucket := now.Truncate(time.Hour).Format("2006010215")

	for _, platform := range s.platforms {
		for _, keyword := range s.Keywords {
			cacheKey := fmt.Sprintf("%s:%s:%s", platform.name(), keyword, bucket)

			var snap trendSnapshot
			if cached, ok := s.Cache.Get(s.Name(), cacheKey); ok {
				snap = cached.(trendSnapshot)
			} else {
				if err := s.Limiter.Wait(ctx, s.Name()); err != nil {
					return candidates, err
				}
				posts, err := platform.fetchPosts(ctx, s.Client, keyword)
				if err != nil {
					log.Printf("[SocialTrends] %s search for %q failed: %v", platform.name(), keyword, err)
					lastErr = err
					continue
				}
				snap = snapshotPosts(posts, now)
				s.Cache.Set(s.Name(), cacheKey, snap)
			}

			velocity := trendVelocity(snap.RecentCount, snap.OlderCount)
			if snap.AvgEngagement < s.MinEngagement || velocity < s.TrendThreshold {
				continue
			}

			candidates = append(candidates, s.trendCandidate(platform, keyword, snap, velocity))
		}
	}

	if lastErr != nil {
		return candidates, &ScanError{Scanner: s.Name(), Err: lastErr}
	}
	log.Printf("[SocialTrends] %d trending keywords across %d platforms", len(candidates), len(s.platforms))
	return candidates, nil
}

func (s *SocialTrendScanner) trendCandidate(platform socialPlatform, keyword string, snap trendSnapshot, velocity float64) RawCandidate {
	competition := models.CompetitionLow
	switch {
	case snap.RecentCount > 50:
		competition = models.CompetitionHigh
	case snap.RecentCount > 20:
		competition = models.CompetitionMedium
	}

	return RawCandidate{
		Source: s.Name(),
		Type:   models.TypeTrendingTopic,
		Title:  fmt.Sprintf("Trending on %s: %s", platform.name(), keyword),
		Description: fmt.Sprintf("%q is accelerating on %s: %d posts in the last 24h vs %d the day before (%.0f%% growth, avg engagement %.0f).",
			keyword, platform.name(), snap.RecentCount, snap.OlderCount, velocity*100, snap.AvgEngagement),
		URL:              platform.searchURL(keyword),
		PotentialRevenue: snap.AvgEngagement * (1 + velocity) * 2,
		CompetitionLevel: competition,
		Keywords:         []string{keyword},
		Metadata: map[string]interface{}{
			"platform":       platform.name(),
			"trend_velocity": velocity,
			"recent_count":   snap.RecentCount,
			"older_count":    snap.OlderCount,
			"avg_engagement": snap.AvgEngagement,
		},
	}
}

// youtubePlatform searches recent videos and reads view/like counts for
// engagement.
type youtubePlatform struct {
	apiKey string
}

func (p *youtubePlatform) name() string { return "youtube" }

func (p *youtubePlatform) searchURL(keyword string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(keyword)
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

type youtubeVideosResponse struct {
	Items []struct {
		ID         string `json:"id"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (p *youtubePlatform) fetchPosts(ctx context.Context, client *http.Client, keyword string) ([]socialPost, error) {
	publishedAfter := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)
	searchEndpoint := fmt.Sprintf(
		"https://www.googleapis.com/youtube/v3/search?part=snippet&type=video&order=date&maxResults=50&q=%s&publishedAfter=%s&key=%s",
		url.QueryEscape(keyword), url.QueryEscape(publishedAfter), p.apiKey)

	var search youtubeSearchResponse
	if err := getJSON(ctx, client, searchEndpoint, nil, &search); err != nil {
		return nil, err
	}
	if len(search.Items) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(search.Items))
	published := make(map[string]time.Time, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID == "" {
			continue
		}
		ids = append(ids, item.ID.VideoID)
		published[item.ID.VideoID] = item.Snippet.PublishedAt
	}

	statsEndpoint := fmt.Sprintf(
		"https://www.googleapis.com/youtube/v3/videos?part=statistics&id=%s&key=%s",
		strings.Join(ids, ","), p.apiKey)

	var videos youtubeVideosResponse
	if err := getJSON(ctx, client, statsEndpoint, nil, &videos); err != nil {
		return nil, err
	}

	posts := make([]socialPost, 0, len(videos.Items))
	for _, v := range videos.Items {
		views, _ := strconv.ParseFloat(v.Statistics.ViewCount, 64)
		likes, _ := strconv.ParseFloat(v.Statistics.LikeCount, 64)
		posts = append(posts, socialPost{
			PublishedAt: published[v.ID],
			Engagement:  views/100 + likes,
		})
	}
	return posts, nil
}

// redditPlatform uses the public search JSON endpoint; engagement is
// upvotes plus weighted comments.
type redditPlatform struct {
	userAgent string
}

func (p *redditPlatform) name() string { return "reddit" }

func (p *redditPlatform) searchURL(keyword string) string {
	return "https://www.reddit.com/search/?q=" + url.QueryEscape(keyword)
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				CreatedUTC  float64 `json:"created_utc"`
				Score       float64 `json:"score"`
				NumComments float64 `json:"num_comments"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (p *redditPlatform) fetchPosts(ctx context.Context, client *http.Client, keyword string) ([]socialPost, error) {
	endpoint := fmt.Sprintf("https://www.reddit.com/search.json?q=%s&sort=new&t=week&limit=100", url.QueryEscape(keyword))

	var resp redditSearchResponse
	headers := map[string]string{"User-Agent": p.userAgent}
	if err := getJSON(ctx, client, endpoint, headers, &resp); err != nil {
		return nil, err
	}

	posts := make([]socialPost, 0, len(resp.Data.Children))
	for _, child := range resp.Data.Children {
		posts = append(posts, socialPost{
			PublishedAt: time.Unix(int64(child.Data.CreatedUTC), 0).UTC(),
			Engagement:  child.Data.Score + 2*child.Data.NumComments,
		})
	}
	return posts, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrMissingCredential
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
