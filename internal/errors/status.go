package appErrors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	var (
		campaignNotFound *ErrCampaignNotFound
		importNotFound   *ErrImportNotFound
		invalidName      *InvalidNameError
		emptyList        *EmptyListError
		invalidWindow    *InvalidWindowError
		windowExpired    *WindowExpiredError
		alreadyRunning   *AlreadyRunningError
		invalidTransit   *InvalidTransitionError
	)
	switch {
	case errors.As(err, &campaignNotFound), errors.As(err, &importNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalidName), errors.As(err, &emptyList), errors.As(err, &invalidWindow):
		return http.StatusBadRequest
	case errors.As(err, &windowExpired), errors.As(err, &alreadyRunning), errors.As(err, &invalidTransit):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
