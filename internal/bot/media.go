package bot

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"estate_bot/internal/model"
)

const (
	// maxPhotos is the size limit of a Telegram album.
	maxPhotos  = 10
	maxCaption = 1024
)

// mediaResolver turns image references into something Telegram can fetch.
// Public URLs are passed through. Telegram cannot reach a local API, so
// loopback URLs are uploaded from the local media directory instead.
type mediaResolver struct {
	base string
	root string
}

func newMediaResolver(apiBaseURL, localRoot string) mediaResolver {
	base := strings.TrimSuffix(strings.TrimSuffix(apiBaseURL, "/"), "/api")
	return mediaResolver{base: base, root: localRoot}
}

func (m mediaResolver) photos(l model.Listing) []tgbotapi.RequestFileData {
	var files []tgbotapi.RequestFileData
	for _, img := range l.Images {
		if len(files) == maxPhotos {
			break
		}
		if f, ok := m.resolve(img.Path); ok {
			files = append(files, f)
		}
	}
	return files
}

func (m mediaResolver) resolve(ref string) (tgbotapi.RequestFileData, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, false
	}
	if u.Scheme == "" {
		if !strings.HasPrefix(ref, "/") {
			ref = "/" + ref
		}
		if u, err = url.Parse(m.base + ref); err != nil {
			return nil, false
		}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false
	}
	if !isLoopback(u.Hostname()) {
		return tgbotapi.FileURL(u.String()), true
	}
	if m.root == "" {
		return nil, false
	}

	rel := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	rel = strings.TrimPrefix(rel, "media/")
	local := filepath.Join(m.root, filepath.FromSlash(rel))
	if info, err := os.Stat(local); err != nil || info.IsDir() {
		return nil, false
	}
	return tgbotapi.FilePath(local), true
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func captionLength(s string) int {
	return utf8.RuneCountInString(s)
}
