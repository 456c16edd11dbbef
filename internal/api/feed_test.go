package api

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"

	"estate_bot/internal/model"
)

func TestApartmentsFeed(t *testing.T) {
	store := newTestStore(t)
	seeded := seed(t, store, 3, func(i int, l *model.Listing) {
		if i == 2 {
			l.District = "Юнусабадский"
			l.Images = []model.Image{{Path: "apartments/a.jpg"}}
		}
	})
	h := newRouter(store, Options{PageSize: 2})

	rec := get(t, h, "/api/apartments/feed/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("content type = %q", ct)
	}

	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	if err != nil {
		t.Fatalf("parse feed: %v", err)
	}
	if feed.FeedType != "rss" {
		t.Errorf("feed type = %q", feed.FeedType)
	}

	var links []string
	for _, item := range feed.Items {
		links = append(links, item.Link)
	}
	want := []string{
		"http://example.com/api/apartments/3/",
		"http://example.com/api/apartments/2/",
	}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	newest := feed.Items[0]
	if !strings.Contains(newest.Title, "Юнусабадский") {
		t.Errorf("title = %q", newest.Title)
	}
	if newest.PublishedParsed == nil || !newest.PublishedParsed.Equal(seeded[2].CreatedAt.Truncate(time.Second)) {
		t.Errorf("published = %v, want %v", newest.PublishedParsed, seeded[2].CreatedAt)
	}
	if len(newest.Enclosures) != 1 || newest.Enclosures[0].URL != "http://example.com/media/apartments/a.jpg" {
		t.Errorf("enclosures = %+v", newest.Enclosures)
	}
}

func TestApartmentsFeedFilters(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, 3, func(i int, l *model.Listing) {
		if i == 2 {
			l.District = "Юнусабадский"
		}
	})
	h := newRouter(store, Options{})

	v := url.Values{"district": {"Юнусабадский"}}
	rec := get(t, h, "/api/apartments/feed?"+v.Encode())

	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	if err != nil {
		t.Fatalf("parse feed: %v", err)
	}
	if len(feed.Items) != 1 || feed.Items[0].Link != "http://example.com/api/apartments/3/" {
		t.Errorf("items = %+v", feed.Items)
	}
}
