package types

import (
	"bytes"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/stretchr/testify/require"
)

func TestGlogLogger_ExpandsRichErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("authz",
		glog.WithLoggerTypeJSON(),
		glog.WithLevel(glog.Debug),
		glog.WithWriter(&buf),
	)

	logger.Debug("scope resolved", "resource", "room")
	require.Contains(t, buf.String(), `"msg":"scope resolved"`)
	require.Contains(t, buf.String(), `"resource":"room"`)

	buf.Reset()
	err := goerrors.New("room outside faculty", goerrors.CategoryAuthz).
		WithTextCode("SCOPE_VIOLATION")
	logger.Error("authorization failed", err, "role", "secretary")
	out := buf.String()
	require.Contains(t, out, `"text_code":"SCOPE_VIOLATION"`)
	require.Contains(t, out, `"role":"secretary"`)
	require.Contains(t, out, "room outside faculty")
}

func TestGlogLogger_NilLoggerDiscards(t *testing.T) {
	logger := NewGlogLogger(nil)
	require.NotPanics(t, func() {
		logger.Info("ignored")
		logger.Error("ignored", nil)
	})
}
