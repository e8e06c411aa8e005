package gallery

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"

	"golang.org/x/sync/errgroup"
)

// StorageObject is one entry of a namespace listing.
type StorageObject struct {
	Name string  `json:"name"`
	ID   *string `json:"id"`
}

type Lister interface {
	List(ctx context.Context, prefix string) ([]StorageObject, error)
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type Options struct {
	// PublicBaseURL is the storage service root, e.g. https://xyz.supabase.co.
	PublicBaseURL string
	Bucket        string
	Concurrency   int
	// ArtistTimeout bounds each per-artist listing; zero means no bound.
	ArtistTimeout time.Duration
}

// Aggregator flattens per-artist image listings into one feed. It is best
// effort: a failing artist is reported in the feed and skipped.
type Aggregator struct {
	lister Lister
	opts   Options
	logger *logger.Logger
}

func NewAggregator(lister Lister, opts Options, log *logger.Logger) *Aggregator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Aggregator{lister: lister, opts: opts, logger: log}
}

// ListImages lists one artist's images when artist is set, otherwise every
// artist's, concatenated in artist listing order.
func (a *Aggregator) ListImages(ctx context.Context, artist string) models.ImageFeed {
	artist = strings.Trim(artist, "/ ")
	if artist != "" {
		images, err := a.listArtist(ctx, artist)
		if err != nil {
			return a.failed(artist, err)
		}
		return models.ImageFeed{Images: images}
	}

	entries, err := a.lister.List(ctx, "")
	if err != nil {
		return a.failed("", err)
	}

	artists := make([]string, 0, len(entries))
	for _, e := range entries {
		// folder placeholders and hidden objects are not artists
		if e.Name == "" || strings.HasPrefix(e.Name, ".") {
			continue
		}
		artists = append(artists, e.Name)
	}

	results := make([][]models.ArtistImage, len(artists))
	errs := make([]error, len(artists))

	var g errgroup.Group
	g.SetLimit(a.opts.Concurrency)
	for i, name := range artists {
		g.Go(func() error {
			results[i], errs[i] = a.listArtist(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	feed := models.ImageFeed{Images: []models.ArtistImage{}}
	for i, name := range artists {
		if errs[i] != nil {
			a.logger.Error("GALLERY", fmt.Sprintf("Error fetching images for %s: %v", name, errs[i]))
			feed.Failures = append(feed.Failures, models.SourceFailure{Artist: name, Reason: errs[i].Error()})
			continue
		}
		feed.Images = append(feed.Images, results[i]...)
	}
	feed.Partial = len(feed.Failures) > 0

	a.logger.LogStorage("LIST", a.opts.Bucket,
		fmt.Sprintf("%d images from %d artists, %d failed", len(feed.Images), len(artists), len(feed.Failures)))
	return feed
}

func (a *Aggregator) listArtist(ctx context.Context, artist string) ([]models.ArtistImage, error) {
	if a.opts.ArtistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.ArtistTimeout)
		defer cancel()
	}

	files, err := a.lister.List(ctx, artist+"/art")
	if err != nil {
		return nil, err
	}

	images := make([]models.ArtistImage, 0, len(files))
	for _, f := range files {
		if !IsImage(f.Name) {
			continue
		}
		images = append(images, models.ArtistImage{
			URL:    a.PublicURL(artist, f.Name),
			Name:   f.Name,
			Artist: artist,
		})
	}
	return images, nil
}

func (a *Aggregator) failed(artist string, err error) models.ImageFeed {
	a.logger.Error("GALLERY", fmt.Sprintf("Error fetching images for %q: %v", artist, err))
	return models.ImageFeed{
		Images:   []models.ArtistImage{},
		Failures: []models.SourceFailure{{Artist: artist, Reason: err.Error()}},
		Partial:  true,
	}
}

// PublicURL builds {base}/storage/v1/object/public/{bucket}/{artist}/art/{file}.
func (a *Aggregator) PublicURL(artist, file string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s/art/%s",
		a.opts.PublicBaseURL, url.PathEscape(a.opts.Bucket), url.PathEscape(artist), url.PathEscape(file))
}

func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}
