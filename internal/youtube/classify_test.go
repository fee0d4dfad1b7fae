package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"go.klb.dev/clipup/internal/failure"
)

func apiErr(code int, reasons ...string) error {
	e := &googleapi.Error{Code: code, Message: http.StatusText(code)}
	for _, r := range reasons {
		e.Errors = append(e.Errors, googleapi.ErrorItem{Reason: r})
	}
	return fmt.Errorf("insert: %w", e)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want failure.Kind
	}{
		{"500", apiErr(500), failure.KindTransient},
		{"502", apiErr(502), failure.KindTransient},
		{"504", apiErr(504), failure.KindTransient},
		{"408", apiErr(408), failure.KindTransient},
		{"429", apiErr(429), failure.KindTransient},
		{"rate limit", apiErr(403, "rateLimitExceeded"), failure.KindTransient},
		{"quota", apiErr(403, "quotaExceeded"), failure.KindQuota},
		{"upload limit", apiErr(400, "uploadLimitExceeded"), failure.KindQuota},
		{"429 quota", apiErr(429, "dailyLimitExceeded"), failure.KindQuota},
		{"401", apiErr(401), failure.KindAuth},
		{"403 forbidden", apiErr(403, "forbidden"), failure.KindAuth},
		{"400", apiErr(400, "invalidTitle"), failure.KindRequest},
		{"404", apiErr(404), failure.KindRequest},
		{"net", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, failure.KindTransient},
		{"eof", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), failure.KindTransient},
		{"deadline", context.DeadlineExceeded, failure.KindTransient},
		{"retrieve 400", &oauth2.RetrieveError{Response: &http.Response{StatusCode: 400}}, failure.KindAuth},
		{"retrieve 503", &oauth2.RetrieveError{Response: &http.Response{StatusCode: 503}}, failure.KindTransient},
		{"other", errors.New("boom"), failure.KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Classify("upload", tc.err)
			assert.Equal(t, tc.want, failure.KindOf(err))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestClassifyPassesThrough(t *testing.T) {
	assert.NoError(t, Classify("upload", nil))

	cancelled := fmt.Errorf("do: %w", context.Canceled)
	assert.Same(t, cancelled, Classify("upload", cancelled))

	already := failure.Auth("refresh token", errors.New("invalid_grant"))
	assert.Same(t, already, Classify("upload", already))
}
