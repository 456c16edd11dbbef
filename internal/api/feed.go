package api

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"estate_bot/internal/api/dto"
	"estate_bot/internal/filter"
	"estate_bot/internal/model"
)

type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	GUID        string        `xml:"guid"`
	PubDate     string        `xml:"pubDate"`
	Description string        `xml:"description"`
	Category    string        `xml:"category"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

// apartmentsFeed handles GET /api/apartments/feed/: the first page of the
// same search as the list endpoint, as RSS 2.0.
func (h *handler) apartmentsFeed(w http.ResponseWriter, r *http.Request) {
	log := loggerFrom(r.Context())
	q := filter.ParseQuery(r.URL.Query())

	listings, _, err := h.store.SearchListings(r.Context(), q, h.pageSize, 0)
	if err != nil {
		log.Error("search listings for feed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error."})
		return
	}

	base := h.base(r)
	doc := rss{
		Version: "2.0",
		Channel: rssChannel{
			Title:       "Новые квартиры",
			Link:        base + "/api/apartments/",
			Description: "Последние объявления о продаже квартир",
			Items:       make([]rssItem, 0, len(listings)),
		},
	}
	for _, l := range listings {
		doc.Channel.Items = append(doc.Channel.Items, newFeedItem(l, base))
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(doc); err != nil {
		log.Error("encode feed", "error", err)
	}
}

func newFeedItem(l model.Listing, base string) rssItem {
	link := base + "/api/apartments/" + strconv.FormatInt(l.ID, 10) + "/"
	item := rssItem{
		Title: fmt.Sprintf("%d-комн. квартира, %s, %s м², $%d",
			l.Rooms, l.District, strconv.FormatFloat(l.Area, 'f', -1, 64), l.Price),
		Link:        link,
		GUID:        link,
		PubDate:     l.CreatedAt.UTC().Format(time.RFC1123Z),
		Description: strings.TrimSpace(l.Address + "\n" + l.Description),
		Category:    l.Type,
	}
	if len(l.Images) > 0 {
		item.Enclosure = &rssEnclosure{URL: dto.ImageURL(base, l.Images[0].Path), Type: "image/jpeg"}
	}
	return item
}
