package youtube

import (
	"fmt"
	"log/slog"
	"net/http"

	"google.golang.org/api/googleapi"

	"go.klb.dev/clipup/internal/failure"
)

const chunkOp = "upload chunk"

// chunkTransport ends a resumable upload on the first failed chunk request.
// The API library retries chunks with its own exponential backoff for up to
// 32s; the pipeline owns the attempt budget, so chunk failures come back as
// final errors that Classify unpacks.
type chunkTransport struct {
	base http.RoundTripper
}

func (t chunkTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	// Only chunk requests carry Content-Range.
	if req.Header.Get("Content-Range") == "" {
		return resp, err
	}
	if err != nil {
		if req.Context().Err() != nil {
			return nil, err
		}
		slog.Debug("upload chunk failed", "err", err)
		return nil, &chunkError{failure.Transient(chunkOp, err)}
	}
	if !retriedStatus(resp.StatusCode) {
		return resp, nil
	}
	apiErr := googleapi.CheckResponse(resp)
	resp.Body.Close()
	fe, ok := Classify(chunkOp, apiErr).(*failure.Error)
	if !ok {
		fe = failure.Transient(chunkOp, apiErr)
	}
	return nil, &chunkError{fe}
}

// retriedStatus mirrors the statuses the library would retry on its own.
func retriedStatus(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}

// chunkError carries a classified chunk failure past the library. It has no
// Unwrap: the library's retry check walks the chain and would find the
// network error underneath.
type chunkError struct {
	err *failure.Error
}

func (e *chunkError) Error() string {
	return fmt.Sprintf("%s failed (%s)", chunkOp, e.err.Kind)
}

// withChunkTransport returns a copy of hc whose transport stops chunk retries.
func withChunkTransport(hc *http.Client) *http.Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *hc
	wrapped.Transport = chunkTransport{base: base}
	return &wrapped
}
