package youtube

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"slices"
	"syscall"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"go.klb.dev/clipup/internal/failure"
)

var (
	quotaReasons     = []string{"quotaExceeded", "uploadLimitExceeded", "dailyLimitExceeded"}
	rateLimitReasons = []string{"rateLimitExceeded", "userRateLimitExceeded"}
)

// Classify wraps err in a *failure.Error whose Kind tells the pipeline whether
// to retry. Errors that are already classified and context cancellation are
// returned unchanged. A failed upload chunk yields the classification made
// when the chunk came back.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *chunkError
	if errors.As(err, &ce) {
		return ce.err
	}
	var fe *failure.Error
	if errors.As(err, &fe) || errors.Is(err, context.Canceled) {
		return err
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return failure.New(op, retrieveKind(re), err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return failure.New(op, apiKind(gerr), err)
	}

	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.As(err, &ne):
		return failure.Transient(op, err)
	}
	return failure.New(op, failure.KindUnknown, err)
}

func apiKind(e *googleapi.Error) failure.Kind {
	reasons := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		reasons = append(reasons, item.Reason)
	}
	hasAny := func(want []string) bool {
		return slices.ContainsFunc(reasons, func(r string) bool { return slices.Contains(want, r) })
	}

	switch {
	case hasAny(quotaReasons):
		return failure.KindQuota
	case hasAny(rateLimitReasons):
		return failure.KindTransient
	case e.Code == http.StatusUnauthorized, e.Code == http.StatusForbidden:
		return failure.KindAuth
	case e.Code == http.StatusRequestTimeout, e.Code == http.StatusTooManyRequests, e.Code >= 500:
		return failure.KindTransient
	case e.Code >= 400:
		return failure.KindRequest
	}
	return failure.KindUnknown
}

func retrieveKind(e *oauth2.RetrieveError) failure.Kind {
	if e.Response != nil && e.Response.StatusCode >= 500 {
		return failure.KindTransient
	}
	return failure.KindAuth
}
