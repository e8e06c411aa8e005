package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "Missing required field: title", (&ValidationError{Field: "title"}).Error())
	assert.Equal(t, "Invalid field date: expected YYYY-MM-DD",
		(&ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}).Error())
}

func TestRemoteServiceErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("create: %w", &RemoteServiceError{Operation: "create listing", Err: cause})

	var remote *RemoteServiceError
	assert.True(t, errors.As(err, &remote))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")

	withStatus := &RemoteServiceError{Operation: "publish listing", StatusCode: 400, Body: `{"error":"bad"}`}
	assert.Contains(t, withStatus.Error(), "status 400")
}

func TestStorageHelper(t *testing.T) {
	assert.NoError(t, Storage("insert", nil))

	err := Storage("insert", errors.New("disk full"))
	var storageErr *StorageError
	assert.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "insert", storageErr.Op)
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Missing: []string{"EVENTBRITE_API_KEY", "EVENTBRITE_ORGANIZATION_ID"}}
	assert.Contains(t, err.Error(), "EVENTBRITE_API_KEY, EVENTBRITE_ORGANIZATION_ID")
}
