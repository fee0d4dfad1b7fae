// Package youtube uploads clips with the YouTube Data API and manages the
// OAuth token the uploads run under.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"go.klb.dev/clipup/internal/pipeline"
)

// DefaultChunkSize is the resumable upload chunk size.
const DefaultChunkSize = googleapi.DefaultUploadChunkSize

// ProgressFunc is called as bytes are sent. total is the clip size.
type ProgressFunc func(sent, total int64)

// Client uploads videos. It implements pipeline.Uploader.
type Client struct {
	svc       *ytapi.Service
	chunkSize int
	progress  ProgressFunc
}

type ClientOption func(*Client)

// WithChunkSize sets the resumable chunk size. Zero sends the whole clip in
// a single multipart request.
func WithChunkSize(n int) ClientOption { return func(c *Client) { c.chunkSize = n } }

// WithProgress reports upload progress. Only chunked uploads report it.
func WithProgress(fn ProgressFunc) ClientOption { return func(c *Client) { c.progress = fn } }

// NewService builds the API service on top of an authorised HTTP client.
// Failed resumable chunks are not retried by the API library.
func NewService(ctx context.Context, hc *http.Client, extra ...option.ClientOption) (*ytapi.Service, error) {
	opts := append([]option.ClientOption{option.WithHTTPClient(withChunkTransport(hc))}, extra...)
	svc, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return svc, nil
}

// NewClient returns a Client using svc.
func NewClient(svc *ytapi.Service, opts ...ClientOption) *Client {
	c := &Client{svc: svc, chunkSize: DefaultChunkSize}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ pipeline.Uploader = (*Client)(nil)

// Upload sends one clip and returns the new video ID. Errors are classified
// with Classify.
func (c *Client) Upload(ctx context.Context, media io.Reader, size int64, meta pipeline.Metadata) (string, error) {
	const op = "youtube upload"

	video := &ytapi.Video{
		Snippet: &ytapi.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			CategoryId:  meta.CategoryID,
			Tags:        meta.Tags,
		},
		Status: &ytapi.VideoStatus{
			PrivacyStatus:           meta.Privacy,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	mediaOpts := []googleapi.MediaOption{googleapi.ChunkSize(c.chunkSize)}
	if meta.ContentType != "" {
		mediaOpts = append(mediaOpts, googleapi.ContentType(meta.ContentType))
	}

	call := c.svc.Videos.Insert([]string{"snippet", "status"}, video).
		Media(media, mediaOpts...).
		Context(ctx)
	if c.progress != nil {
		call = call.ProgressUpdater(func(current, _ int64) { c.progress(current, size) })
	}

	res, err := call.Do()
	if err != nil {
		return "", Classify(op, err)
	}
	if res.Id == "" {
		return "", Classify(op, errors.New("response carried no video id"))
	}
	slog.Debug("video inserted", "id", res.Id, "privacy", meta.Privacy)
	return res.Id, nil
}
