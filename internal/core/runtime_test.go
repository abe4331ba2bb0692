package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/csheth/bioengine/internal/chat"
	"github.com/csheth/bioengine/internal/nav"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	r := NewRuntime(Options{
		TransitionDelay: 5 * time.Millisecond,
		ReplyDelay:      20 * time.Millisecond,
	})
	t.Cleanup(r.Close)
	return r
}

func TestRuntimeDispatchIsSequential(t *testing.T) {
	r := newTestRuntime(t)
	ctx := context.Background()

	_, err := r.Dispatch(ctx, UpdateEmailDraft{Value: "a@b.com"})
	require.NoError(t, err)
	_, err = r.Dispatch(ctx, UpdatePasswordDraft{Value: "x"})
	require.NoError(t, err)
	snap, err := r.Dispatch(ctx, SubmitLogin{})
	require.NoError(t, err)
	assert.True(t, snap.Authenticated)
	assert.Equal(t, nav.PageChat, snap.Page)
	assert.False(t, snap.TransitionVisible)

	require.Eventually(t, func() bool {
		s, err := r.Snapshot(ctx)
		return err == nil && s.TransitionVisible
	}, time.Second, time.Millisecond)
}

func TestRuntimeDispatchReturnsRejection(t *testing.T) {
	r := newTestRuntime(t)
	snap, err := r.Dispatch(context.Background(), Navigate{Page: nav.PageChat})
	assert.ErrorIs(t, err, nav.ErrLoginRequired)
	assert.Equal(t, nav.PageHome, snap.Page)
}

func TestRuntimeSubscribeSeesReply(t *testing.T) {
	r := newTestRuntime(t)
	ctx := context.Background()

	updates, cancel, err := r.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	first := <-updates
	assert.Equal(t, nav.PageHome, first.Page)

	_, err = r.Dispatch(ctx, UpdateMessageDraft{Value: "hi"})
	require.NoError(t, err)
	_, err = r.Dispatch(ctx, SubmitMessage{})
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if len(snap.Messages) == 2 {
				assert.Equal(t, chat.SenderAssistant, snap.Messages[1].Sender)
				assert.Zero(t, snap.PendingReplies)
				return
			}
		case <-deadline:
			t.Fatal("no reply snapshot")
		}
	}
}

func TestRuntimeCancelClosesSubscription(t *testing.T) {
	r := newTestRuntime(t)
	updates, cancel, err := r.Subscribe(context.Background())
	require.NoError(t, err)
	cancel()
	cancel()
	for range updates {
	}
}

func TestRuntimeCloseStopsEverything(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRuntime(Options{ReplyDelay: time.Hour, TransitionDelay: time.Hour})
	ctx := context.Background()
	updates, _, err := r.Subscribe(ctx)
	require.NoError(t, err)

	_, err = r.Dispatch(ctx, UpdateMessageDraft{Value: "hello"})
	require.NoError(t, err)
	_, err = r.Dispatch(ctx, SubmitMessage{})
	require.NoError(t, err)

	r.Close()
	r.Close()

	var last Snapshot
	for snap := range updates {
		last = snap
	}
	assert.Zero(t, last.PendingReplies, "close drops pending replies")

	_, err = r.Dispatch(ctx, Logout{})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = r.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = r.Subscribe(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRuntimeDispatchHonoursContext(t *testing.T) {
	r := newTestRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A cancelled context may still win the race against an idle mailbox,
	// so only a context error or success is acceptable.
	_, err := r.Dispatch(ctx, ToggleMobileMenu{})
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestDecodeIntent(t *testing.T) {
	cases := []struct {
		raw  string
		want Intent
	}{
		{`{"type":"navigate","page":"Features"}`, Navigate{Page: nav.PageFeatures}},
		{`{"type":"update_email_draft","value":"a@b.com"}`, UpdateEmailDraft{Value: "a@b.com"}},
		{`{"type":"update_password_draft","value":"x"}`, UpdatePasswordDraft{Value: "x"}},
		{`{"type":"submit_login"}`, SubmitLogin{}},
		{`{"type":"logout"}`, Logout{}},
		{`{"type":"update_message_draft","value":"hi"}`, UpdateMessageDraft{Value: "hi"}},
		{`{"type":"submit_message"}`, SubmitMessage{}},
		{`{"type":"toggle_mobile_menu"}`, ToggleMobileMenu{}},
		{`{"type":"open_chat"}`, OpenChat{}},
	}
	for _, tc := range cases {
		got, err := DecodeIntent([]byte(tc.raw))
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.want.Kind(), got.Kind())
	}
}

func TestDecodeIntentErrors(t *testing.T) {
	_, err := DecodeIntent([]byte(`{"type":"dance"}`))
	assert.ErrorIs(t, err, ErrUnknownIntent)

	_, err = DecodeIntent([]byte(`{"type":"navigate","page":"settings"}`))
	assert.ErrorIs(t, err, nav.ErrUnknownPage)

	_, err = DecodeIntent([]byte(`not json`))
	assert.Error(t, err)
}

func TestRuntimeSnapshotVersionsIncrease(t *testing.T) {
	r := newTestRuntime(t)
	ctx := context.Background()
	first, err := r.Snapshot(ctx)
	require.NoError(t, err)
	second, err := r.Dispatch(ctx, UpdateEmailDraft{Value: "a"})
	require.NoError(t, err)
	third, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Less(t, first.Version, second.Version)
	assert.Less(t, second.Version, third.Version)
}
