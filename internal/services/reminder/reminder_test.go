package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/workflow"
)

type triggerCall struct {
	req         workflow.TriggerRequest
	runID       string
	hasDeadline bool
	ctxErr      error
}

// fakeTrigger подтверждает отправленный runID, если не задан err или confirmed.
type fakeTrigger struct {
	mu        sync.Mutex
	calls     []triggerCall
	err       error
	confirmed *string
	block     bool
	started   chan struct{}
	release   chan struct{}
}

func newFakeTrigger(err error) *fakeTrigger {
	return &fakeTrigger{err: err}
}

func (f *fakeTrigger) Trigger(ctx context.Context, req workflow.TriggerRequest, runID string) (string, error) {
	_, hasDeadline := ctx.Deadline()
	f.mu.Lock()
	f.calls = append(f.calls, triggerCall{req: req, runID: runID, hasDeadline: hasDeadline, ctxErr: ctx.Err()})
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	if f.confirmed != nil {
		return *f.confirmed, nil
	}
	return runID, nil
}

func (f *fakeTrigger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTrigger) last() triggerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func productionOptions() Options {
	return Options{
		Production:  true,
		ServerURL:   "https://api.example.com/",
		MaxInFlight: 2,
		Timeout:     time.Second,
	}
}

func TestDispatcher_SkipsOutsideProduction(t *testing.T) {
	trigger := newFakeTrigger(nil)
	m := metrics.New(prometheus.NewRegistry())
	d := New(trigger, Options{Production: false}, m, newNoopLogger())

	res := d.Dispatch(context.Background(), "sub-1")

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Nil(t, res.RunIDPtr())
	assert.Equal(t, 0, trigger.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersDispatched.WithLabelValues("skipped")))
}

func TestDispatcher_Dispatches(t *testing.T) {
	trigger := newFakeTrigger(nil)
	m := metrics.New(prometheus.NewRegistry())
	d := New(trigger, productionOptions(), m, newNoopLogger())

	res := d.Dispatch(context.Background(), "sub-1")
	require.Equal(t, OutcomeDispatched, res.Outcome)
	require.NotNil(t, res.RunIDPtr())
	assert.True(t, strings.HasPrefix(res.RunID, "wfr_"))

	require.Equal(t, 1, trigger.count())
	call := trigger.last()
	assert.Equal(t, res.RunID, call.runID)
	assert.Equal(t, "https://api.example.com/api/v1/workflows/subscription/reminder", call.req.URL)
	assert.Equal(t, "sub-1", call.req.Body.SubscriptionID)
	assert.Equal(t, "application/json", call.req.Headers["content-type"])
	assert.Equal(t, 0, call.req.Retries)
	assert.True(t, call.hasDeadline)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersDispatched.WithLabelValues("dispatched")))
}

func TestDispatcher_ReturnsConfirmedRunID(t *testing.T) {
	trigger := newFakeTrigger(nil)
	confirmed := "wfr_from_collaborator"
	trigger.confirmed = &confirmed
	d := New(trigger, productionOptions(), nil, newNoopLogger())

	res := d.Dispatch(context.Background(), "sub-1")
	require.Equal(t, OutcomeDispatched, res.Outcome)
	assert.Equal(t, "wfr_from_collaborator", *res.RunIDPtr())
}

func TestDispatcher_EmptyConfirmedRunIDFails(t *testing.T) {
	trigger := newFakeTrigger(nil)
	empty := ""
	trigger.confirmed = &empty
	d := New(trigger, productionOptions(), nil, newNoopLogger())

	res := d.Dispatch(context.Background(), "sub-1")
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Nil(t, res.RunIDPtr())
}

func TestDispatcher_DetachedFromRequestContext(t *testing.T) {
	trigger := newFakeTrigger(nil)
	d := New(trigger, productionOptions(), nil, newNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := d.Dispatch(ctx, "sub-1")

	require.Equal(t, OutcomeDispatched, res.Outcome)
	require.Equal(t, 1, trigger.count())
	assert.NoError(t, trigger.last().ctxErr)
}

func TestDispatcher_TriggerErrorFails(t *testing.T) {
	trigger := newFakeTrigger(errors.New("qstash unavailable"))
	m := metrics.New(prometheus.NewRegistry())
	d := New(trigger, productionOptions(), m, newNoopLogger())

	res := d.Dispatch(context.Background(), "sub-1")

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Nil(t, res.RunIDPtr())
	assert.Equal(t, "trigger failed", res.Reason)
	assert.Equal(t, 1, trigger.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersTriggered.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemindersDispatched.WithLabelValues("failed")))
}

func TestDispatcher_TriggerTimeout(t *testing.T) {
	trigger := newFakeTrigger(nil)
	trigger.block = true
	opts := productionOptions()
	opts.Timeout = 20 * time.Millisecond
	d := New(trigger, opts, nil, newNoopLogger())

	start := time.Now()
	res := d.Dispatch(context.Background(), "sub-1")

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, "trigger timed out", res.Reason)
	assert.Nil(t, res.RunIDPtr())
}

func TestDispatcher_WorkflowClientServerError(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := New(workflow.NewClient(srv.URL, "token", time.Second), productionOptions(), nil, newNoopLogger())
	res := d.Dispatch(context.Background(), "sub-1")

	assert.Equal(t, 1, hits)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Nil(t, res.RunIDPtr())
}

func TestDispatcher_TooManyInFlight(t *testing.T) {
	trigger := newFakeTrigger(nil)
	trigger.started = make(chan struct{}, 1)
	trigger.release = make(chan struct{})
	opts := productionOptions()
	opts.MaxInFlight = 1
	d := New(trigger, opts, nil, newNoopLogger())

	first := make(chan Result, 1)
	go func() { first <- d.Dispatch(context.Background(), "sub-1") }()
	<-trigger.started

	second := d.Dispatch(context.Background(), "sub-2")
	assert.Equal(t, OutcomeFailed, second.Outcome)
	assert.Nil(t, second.RunIDPtr())

	close(trigger.release)
	assert.Equal(t, OutcomeDispatched, (<-first).Outcome)
	assert.Equal(t, 1, trigger.count())
}

func TestDispatcher_StopWaitsForInFlight(t *testing.T) {
	trigger := newFakeTrigger(nil)
	trigger.started = make(chan struct{}, 1)
	trigger.release = make(chan struct{})
	d := New(trigger, productionOptions(), nil, newNoopLogger())

	go d.Dispatch(context.Background(), "sub-1")
	<-trigger.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Stop(ctx), context.DeadlineExceeded)

	close(trigger.release)
	require.NoError(t, d.Stop(context.Background()))
}

func TestDispatcher_DispatchAfterStop(t *testing.T) {
	trigger := newFakeTrigger(nil)
	d := New(trigger, productionOptions(), nil, newNoopLogger())
	require.NoError(t, d.Stop(context.Background()))
	require.NoError(t, d.Stop(context.Background()))

	res := d.Dispatch(context.Background(), "sub-1")
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, "dispatcher stopped", res.Reason)
	assert.Equal(t, 0, trigger.count())
}
