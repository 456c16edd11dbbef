// Package dto holds the JSON shapes of the listing API. The API renders them
// and the bot client and import command decode them.
package dto

import (
	"strings"
	"time"

	"estate_bot/internal/model"
)

// Image is the wire form of a listing photo.
type Image struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"image_url"`
	Order    int    `json:"order"`
}

// Listing is the wire form of a listing.
type Listing struct {
	ID           int64     `json:"id"`
	Type         string    `json:"type"`
	District     string    `json:"district"`
	Condition    string    `json:"condition"`
	Area         float64   `json:"area"`
	Rooms        int       `json:"rooms"`
	Price        int       `json:"price"`
	Address      string    `json:"address"`
	Orientation  string    `json:"orientation"`
	Floor        int       `json:"floor"`
	FloorsTotal  int       `json:"floors_total"`
	Description  string    `json:"description"`
	ContactName  string    `json:"contact_name"`
	ContactPhone string    `json:"contact_phone"`
	Images       []Image   `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Page is one page of listing search results. Next and Previous are
// absolute URLs or null.
type Page struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []Listing `json:"results"`
}

// FromModel renders l with image URLs resolved against baseURL.
func FromModel(l model.Listing, baseURL string) Listing {
	images := make([]Image, 0, len(l.Images))
	for _, img := range l.Images {
		images = append(images, Image{
			ID:       img.ID,
			ImageURL: ImageURL(baseURL, img.Path),
			Order:    img.Order,
		})
	}
	return Listing{
		ID:           l.ID,
		Type:         l.Type,
		District:     l.District,
		Condition:    l.Condition,
		Area:         l.Area,
		Rooms:        l.Rooms,
		Price:        l.Price,
		Address:      l.Address,
		Orientation:  l.Orientation,
		Floor:        l.Floor,
		FloorsTotal:  l.FloorsTotal,
		Description:  l.Description,
		ContactName:  l.ContactName,
		ContactPhone: l.ContactPhone,
		Images:       images,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// Model converts the wire form back into a domain listing. Image paths hold
// the URLs as received.
func (r Listing) Model() model.Listing {
	l := model.Listing{
		ID:           r.ID,
		Type:         r.Type,
		District:     r.District,
		Condition:    r.Condition,
		Area:         r.Area,
		Rooms:        r.Rooms,
		Price:        r.Price,
		Address:      r.Address,
		Orientation:  r.Orientation,
		Floor:        r.Floor,
		FloorsTotal:  r.FloorsTotal,
		Description:  r.Description,
		ContactName:  r.ContactName,
		ContactPhone: r.ContactPhone,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	for _, img := range r.Images {
		l.Images = append(l.Images, model.Image{ID: img.ID, Path: img.ImageURL, Order: img.Order})
	}
	return l
}

// MediaPrefix is the URL path under which image files are served.
const MediaPrefix = "/media/"

// ImageURL makes a stored image path absolute. Paths that already are URLs
// pass through.
func ImageURL(baseURL, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(baseURL, "/") + MediaPrefix + strings.TrimLeft(path, "/")
}
