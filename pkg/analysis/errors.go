package analysis

import (
	"context"
	"errors"
)

var (
	// ErrConfig means a base URL or token is missing; detected before any request.
	ErrConfig = errors.New("analysis service is not configured")
	// ErrUpload means the upload returned a non-2xx status.
	ErrUpload = errors.New("image upload failed")
	// ErrProtocol means a success response lacked required fields.
	ErrProtocol = errors.New("unexpected response from analysis service")
	// ErrCapture means the selection could not be turned into an image.
	ErrCapture = errors.New("capture failed")
	// ErrPoll means a progress request failed.
	ErrPoll = errors.New("progress request failed")
	// ErrRemoteFailure means the service reported the job as failed.
	ErrRemoteFailure = errors.New("analysis failed")
	// ErrTimeout means the job kept running past the polling ceiling.
	ErrTimeout = errors.New("analysis timed out")
	// ErrReportUnavailable means the service has no report for the job.
	ErrReportUnavailable = errors.New("report not available")
)

// Capture rejection messages shown to the user.
const (
	MsgOutsideMap     = "Selection must stay within the map view"
	MsgMapUnavailable = "Map view is not available for capture"
)

// IsCancelled reports whether err comes from an aborted request rather than a real failure.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
