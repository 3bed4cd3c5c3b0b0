package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdlinkcheck/internal/errors"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	flushErr error
	pubErr   error
	closed   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) FlushTimeout(time.Duration) error { return f.flushErr }
func (f *fakeConn) Close()                           { f.closed = true }

func TestNATSPublisher_PublishesJSON(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc, "links.broken")
	stamp := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	p.now = func() time.Time { return stamp }

	err := p.PublishBrokenLink(context.Background(), &BrokenLinkEvent{
		RunID:    "run-1",
		Target:   "https://example.com/gone",
		Kind:     "external",
		Status:   "http-error",
		Code:     404,
		Document: "docs/index.md",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"links.broken"}, fc.subjects)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.payloads[0], &got))
	require.Equal(t, "https://example.com/gone", got["target"])
	require.EqualValues(t, 404, got["code"])
	require.Equal(t, "2026-03-04T05:06:07Z", got["timestamp"])
	require.NotContains(t, got, "first_failed_at")
}

func TestNATSPublisher_PublishError(t *testing.T) {
	fc := &fakeConn{pubErr: stderrors.New("connection closed")}
	p := newNATSPublisher(fc, "links.broken")

	err := p.PublishBrokenLink(context.Background(), &BrokenLinkEvent{Target: "x"})
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryEvents))
	require.True(t, errors.IsRetryable(err))
}

func TestNATSPublisher_CanceledContext(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc, "s")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, p.PublishBrokenLink(ctx, &BrokenLinkEvent{}), context.Canceled)
	require.Empty(t, fc.payloads)
}

func TestNATSPublisher_Close(t *testing.T) {
	fc := &fakeConn{}
	require.NoError(t, newNATSPublisher(fc, "s").Close())
	require.True(t, fc.closed)

	fc = &fakeConn{flushErr: stderrors.New("timeout")}
	require.Error(t, newNATSPublisher(fc, "s").Close())
	require.True(t, fc.closed)
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "s")
	require.Error(t, err)
	require.True(t, errors.IsCategory(err, errors.CategoryNetwork))
	require.True(t, errors.IsRetryable(err))
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	require.NoError(t, p.PublishBrokenLink(context.Background(), &BrokenLinkEvent{}))
	require.NoError(t, p.Close())
}
