package appErrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/unclebandit/muxo-dispatch/internal/errors"
)

func TestHTTPStatus(t *testing.T) {
	now := time.Now()
	cases := []struct {
		err  error
		want int
	}{
		{appErrors.NewCampaignNotFound(1), http.StatusNotFound},
		{appErrors.NewImportNotFound("x"), http.StatusNotFound},
		{appErrors.NewInvalidName(" "), http.StatusBadRequest},
		{appErrors.NewEmptyList("vips"), http.StatusBadRequest},
		{appErrors.NewInvalidWindow(now, now.Add(-time.Hour)), http.StatusBadRequest},
		{appErrors.NewWindowExpired(1, now), http.StatusConflict},
		{appErrors.NewAlreadyRunning(1), http.StatusConflict},
		{appErrors.NewInvalidTransition(1, "pause", "idle"), http.StatusConflict},
		{fmt.Errorf("wrapped: %w", appErrors.NewAlreadyRunning(2)), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, appErrors.HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := appErrors.NewInvalidTransition(4, "resume", "running")
	assert.Equal(t, "cannot resume campaign 4 in state running", err.Error())
}
