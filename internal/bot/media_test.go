package bot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"estate_bot/internal/model"
)

func TestResolveMedia(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "listings"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "listings", "a.jpg"), []byte("jpg"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		apiBase string
		ref     string
		want    tgbotapi.RequestFileData
	}{
		{
			name:    "public url",
			apiBase: "http://localhost:8000/api",
			ref:     "https://cdn.estate.uz/a.jpg",
			want:    tgbotapi.FileURL("https://cdn.estate.uz/a.jpg"),
		},
		{
			name:    "relative path against public api",
			apiBase: "https://estate.uz/api/",
			ref:     "listings/a.jpg",
			want:    tgbotapi.FileURL("https://estate.uz/listings/a.jpg"),
		},
		{
			name:    "rooted path against public api",
			apiBase: "https://estate.uz/api",
			ref:     "/media/listings/a.jpg",
			want:    tgbotapi.FileURL("https://estate.uz/media/listings/a.jpg"),
		},
		{
			name:    "loopback url uploaded from disk",
			apiBase: "http://localhost:8000/api",
			ref:     "http://127.0.0.1:8000/media/listings/a.jpg",
			want:    tgbotapi.FilePath(filepath.Join(root, "listings", "a.jpg")),
		},
		{
			name:    "relative path against local api",
			apiBase: "http://localhost:8000/api",
			ref:     "media/listings/a.jpg",
			want:    tgbotapi.FilePath(filepath.Join(root, "listings", "a.jpg")),
		},
		{
			name:    "missing local file",
			apiBase: "http://localhost:8000/api",
			ref:     "http://localhost:8000/media/listings/b.jpg",
		},
		{
			name:    "traversal stays inside the media root",
			apiBase: "http://localhost:8000/api",
			ref:     "http://localhost:8000/media/../../etc/passwd",
		},
		{
			name:    "unsupported scheme",
			apiBase: "http://localhost:8000/api",
			ref:     "ftp://estate.uz/a.jpg",
		},
		{
			name:    "blank",
			apiBase: "http://localhost:8000/api",
			ref:     "  ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMediaResolver(tt.apiBase, root)
			got, ok := m.resolve(tt.ref)
			if tt.want == nil {
				if ok {
					t.Fatalf("resolve(%q) = %v, want nothing", tt.ref, got)
				}
				return
			}
			if !ok {
				t.Fatalf("resolve(%q) failed", tt.ref)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("resolve(%q) mismatch (-want +got):\n%s", tt.ref, diff)
			}
		})
	}
}

func TestResolveLoopbackWithoutMediaRoot(t *testing.T) {
	m := newMediaResolver("http://localhost:8000/api", "")
	if got, ok := m.resolve("/media/a.jpg"); ok {
		t.Errorf("resolve = %v, want nothing without a local media root", got)
	}
}

func TestPhotosCappedAtAlbumSize(t *testing.T) {
	m := newMediaResolver("https://estate.uz/api", "")
	if got := len(m.photos(withImages(sampleListing(1), 12))); got != maxPhotos {
		t.Errorf("photos = %d, want %d", got, maxPhotos)
	}
}

func withImages(l model.Listing, n int) model.Listing {
	for i := range n {
		l.Images = append(l.Images, model.Image{Path: "https://cdn.estate.uz/" + string(rune('a'+i)) + ".jpg", Order: i})
	}
	return l
}

func TestSendListing(t *testing.T) {
	long := sampleListing(3)
	long.Description = strings.Repeat("очень просторная ", 80)

	tests := []struct {
		name       string
		listing    model.Listing
		failPhotos bool
		wantKinds  []string
		wantPhotos int
	}{
		{"text only", sampleListing(1), false, []string{"message"}, 0},
		{"single photo", withImages(sampleListing(1), 1), false, []string{"photo"}, 1},
		{"album", withImages(sampleListing(1), 3), false, []string{"album"}, 3},
		{"caption too long", withImages(long, 2), false, []string{"album", "message"}, 2},
		{"photos rejected", withImages(sampleListing(1), 2), true, []string{"message"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api, _ := newTestBot(t, &mockListings{})
			api.failPhotos = tt.failPhotos

			if err := b.SendListing(context.Background(), 55, tt.listing); err != nil {
				t.Fatalf("SendListing: %v", err)
			}

			sent := api.all()
			if diff := cmp.Diff(tt.wantKinds, api.kinds()); diff != "" {
				t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
			}
			if sent[0].Photos != tt.wantPhotos {
				t.Errorf("photos = %d, want %d", sent[0].Photos, tt.wantPhotos)
			}
			var card string
			for _, s := range sent {
				if s.ChatID != 55 {
					t.Errorf("sent to chat %d, want 55", s.ChatID)
				}
				if s.Text != "" {
					card = s.Text
				}
			}
			if !strings.HasPrefix(card, notificationHeader) {
				t.Errorf("card without notification header: %q", card)
			}
		})
	}
}
