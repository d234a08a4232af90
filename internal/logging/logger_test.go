package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, log func()) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	log()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestWithSchool_AttachesSchoolField(t *testing.T) {
	record := captureJSON(t, func() {
		WithSchool(42).Info("checked")
	})

	assert.Equal(t, float64(42), record["school_id"])
	assert.Equal(t, "checked", record["msg"])
}

func TestWithUser_AttachesUserField(t *testing.T) {
	userID := uuid.New()

	record := captureJSON(t, func() {
		WithUser(userID).Warn("resolved")
	})

	assert.Equal(t, userID.String(), record["user_id"])
}

func TestWithConnection_AttachesConnectionField(t *testing.T) {
	connID := uuid.New()

	record := captureJSON(t, func() {
		WithConnection(connID).Info("evicted")
	})

	assert.Equal(t, connID.String(), record["connection_id"])
}
