package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"dining-concierge/internal/domain"
)

type fakeJobs struct {
	msgs    []domain.ReceivedJob
	recvErr error
	ackErr  error
	acked   []string
	maxSeen int
}

func (f *fakeJobs) ReceiveBatch(_ context.Context, maxCount int) ([]domain.ReceivedJob, error) {
	f.maxSeen = maxCount
	return f.msgs, f.recvErr
}

func (f *fakeJobs) Acknowledge(_ context.Context, receiptHandle string) error {
	f.acked = append(f.acked, receiptHandle)
	return f.ackErr
}

type fakeSearch struct {
	results   map[string][]domain.Candidate
	err       error
	lastLimit int
	calls     int
}

func (f *fakeSearch) Search(_ context.Context, category string, limit int) ([]domain.Candidate, error) {
	f.calls++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.results[category], nil
}

type fakeRestaurants struct {
	byID   map[string]domain.Restaurant
	errIDs map[string]bool
}

func (f *fakeRestaurants) GetRestaurant(_ context.Context, id string) (domain.Restaurant, bool, error) {
	if f.errIDs[id] {
		return domain.Restaurant{}, false, errors.New("throttled")
	}
	r, ok := f.byID[id]
	return r, ok, nil
}

type fakeWriter struct {
	err  error
	puts []domain.PreferenceRecord
}

func (f *fakeWriter) PutPreference(_ context.Context, rec domain.PreferenceRecord) error {
	f.puts = append(f.puts, rec)
	return f.err
}

type sentMail struct {
	to, subject, body string
}

type fakeNotifier struct {
	err  error
	sent []sentMail
}

func (f *fakeNotifier) Send(_ context.Context, recipient, subject, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMail{to: recipient, subject: subject, body: body})
	return fmt.Sprintf("ses-%d", len(f.sent)), nil
}

type fulfillmentFixture struct {
	jobs        *fakeJobs
	search      *fakeSearch
	restaurants *fakeRestaurants
	prefs       *fakeWriter
	notifier    *fakeNotifier
}

func newFixture() *fulfillmentFixture {
	return &fulfillmentFixture{
		jobs:   &fakeJobs{},
		search: &fakeSearch{results: map[string][]domain.Candidate{}},
		restaurants: &fakeRestaurants{byID: map[string]domain.Restaurant{
			"biz-1": {BusinessID: "biz-1", Name: "Thai Villa", Address: "5 E 19th St"},
			"biz-2": {BusinessID: "biz-2", Name: "Lers Ros", Address: "179 Duane St"},
			"biz-3": {BusinessID: "biz-3", Name: "Soothr", Address: "204 E 13th St"},
			"biz-4": {BusinessID: "biz-4", Name: "Wayla", Address: "100 Forsyth St"},
		}},
		prefs:    &fakeWriter{},
		notifier: &fakeNotifier{},
	}
}

func (f *fulfillmentFixture) service(t *testing.T, cfg FulfillmentConfig) *FulfillmentService {
	t.Helper()
	svc, err := NewFulfillmentService(f.jobs, f.search, f.restaurants, f.prefs, f.notifier, cfg, discardLogger())
	require.NoError(t, err)
	return svc
}

func candidates(ids ...string) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Candidate{RestaurantID: id})
	}
	return out
}

func jobMessage(t *testing.T, id string, job domain.FulfillmentJob) domain.ReceivedJob {
	t.Helper()
	body, err := json.Marshal(job)
	require.NoError(t, err)
	return domain.ReceivedJob{MessageID: id, Body: string(body), ReceiptHandle: "rh-" + id}
}

func thaiJob() domain.FulfillmentJob {
	return domain.FulfillmentJob{Location: "Manhattan", Cuisine: "thai", DiningTime: "7pm", PartySize: "2", Email: "a@b.c"}
}

func TestNewFulfillmentService_ValidatesDependencies(t *testing.T) {
	f := newFixture()
	_, err := NewFulfillmentService(nil, f.search, f.restaurants, f.prefs, f.notifier, FulfillmentConfig{}, nil)
	require.Error(t, err)
	_, err = NewFulfillmentService(f.jobs, nil, f.restaurants, f.prefs, f.notifier, FulfillmentConfig{}, nil)
	require.Error(t, err)
	_, err = NewFulfillmentService(f.jobs, f.search, nil, f.prefs, f.notifier, FulfillmentConfig{}, nil)
	require.Error(t, err)
	_, err = NewFulfillmentService(f.jobs, f.search, f.restaurants, nil, f.notifier, FulfillmentConfig{}, nil)
	require.Error(t, err)
	_, err = NewFulfillmentService(f.jobs, f.search, f.restaurants, f.prefs, nil, FulfillmentConfig{}, nil)
	require.Error(t, err)
}

func TestFulfillmentConfig_Defaults(t *testing.T) {
	cfg := FulfillmentConfig{}.withDefaults()
	require.Equal(t, FulfillmentConfig{BatchSize: 10, SearchLimit: 3, MinResults: 3}, cfg)

	cfg = FulfillmentConfig{SearchLimit: 2, MinResults: 5}.withDefaults()
	require.Equal(t, 5, cfg.SearchLimit)
}

func TestDrain_HappyPath(t *testing.T) {
	f := newFixture()
	f.search.results["thai"] = candidates("biz-1", "biz-2", "biz-3")
	f.jobs.msgs = []domain.ReceivedJob{jobMessage(t, "m-1", thaiJob())}
	svc := f.service(t, FulfillmentConfig{})

	res := svc.Drain(context.Background())
	require.Equal(t, BatchResult{Received: 1, Completed: 1}, res)
	require.Equal(t, 10, f.jobs.maxSeen)
	require.Equal(t, 3, f.search.lastLimit)

	require.Equal(t, []domain.PreferenceRecord{{
		Email: "a@b.c", Location: "Manhattan", Cuisine: "thai", DiningTime: "7pm", PartySize: "2",
		RestaurantNames: []string{"Thai Villa", "Lers Ros", "Soothr"},
	}}, f.prefs.puts)

	require.Len(t, f.notifier.sent, 1)
	mail := f.notifier.sent[0]
	require.Equal(t, "a@b.c", mail.to)
	require.Equal(t, "Your recommendations for thai cuisine are here", mail.subject)
	require.Equal(t, "Hello! Here are my thai restaurant suggestions:\n\n"+
		"1. Thai Villa, located at 5 E 19th St\n"+
		"2. Lers Ros, located at 179 Duane St\n"+
		"3. Soothr, located at 204 E 13th St\n"+
		"\nEnjoy your meal!", mail.body)

	require.Equal(t, []string{"rh-m-1"}, f.jobs.acked)
}

func TestDrain_TooFewCandidates_Discarded(t *testing.T) {
	f := newFixture()
	f.search.results["thai"] = candidates("biz-1", "biz-2")
	f.jobs.msgs = []domain.ReceivedJob{jobMessage(t, "m-1", thaiJob())}
	svc := f.service(t, FulfillmentConfig{})

	res := svc.Drain(context.Background())
	require.Equal(t, BatchResult{Received: 1, Discarded: 1}, res)
	require.Empty(t, f.prefs.puts)
	require.Empty(t, f.notifier.sent)
	require.Equal(t, []string{"rh-m-1"}, f.jobs.acked)
}

func TestDrain_TooFewDetails_Discarded(t *testing.T) {
	f := newFixture()
	f.search.results["thai"] = candidates("biz-1", "missing-1", "biz-2", "missing-2")
	f.jobs.msgs = []domain.ReceivedJob{jobMessage(t, "m-1", thaiJob())}
	svc := f.service(t, FulfillmentConfig{SearchLimit: 4})

	res := svc.Drain(context.Background())
	require.Equal(t, BatchResult{Received: 1, Discarded: 1}, res)
	require.Equal(t, 4, f.search.lastLimit)
	require.Empty(t, f.prefs.puts)
	require.Empty(t, f.notifier.sent)
}

func TestDrain_SkipsMissesAndLookupErrors(t *testing.T) {
	f := newFixture()
	f.restaurants.errIDs = map[string]bool{"biz-2": true}
	f.search.results["thai"] = candidates("biz-4", "biz-2", "missing", "biz-3", "biz-1")
	f.jobs.msgs = []domain.ReceivedJob{jobMessage(t, "m-1", thaiJob())}
	svc := f.service(t, FulfillmentConfig{SearchLimit: 5})

	res := svc.Drain(context.Background())
	require.Equal(t, 1, res.Completed)
	require.Equal(t, []string{"Wayla", "Soothr", "Thai Villa"}, f.prefs.puts[0].RestaurantNames)
	require.Contains(t, f.notifier.sent[0].body, "1. Wayla, located at 100 Forsyth St\n")
	require.Contains(t, f.notifier.sent[0].body, "3. Thai Villa, located at 5 E 19th St\n")
}

func TestDrain_UnknownNameAndAddress(t *testing.T) {
	f := newFixture()
	f.restaurants.byID["biz-5"] = domain.Restaurant{BusinessID: "biz-5"}
	f.search.results["thai"] = candidates("biz-5", "biz-1", "biz-2")
	f.jobs.msgs = []domain.ReceivedJob{jobMessage(t, "m-1", thaiJob())}
	svc := f.service(t, FulfillmentConfig{})

	svc.Drain(context.Background())
	require.Equal(t, "Unknown", f.prefs.puts[0].RestaurantNames[0])
	require.Contains(t, f.notifier.sent[0].body, "1. Unknown, located at Unknown\n")
}

func TestDrain_RedeliveryIsIdempotent(t *testing.T) {
	f := newFixture()
	f.search.results["thai"] = candidates("biz-1", "biz-2", "biz-3")
	msg := jobMessage(t, "m-1", thaiJob())
	svc := f.service(t, FulfillmentConfig{})

	f.jobs.msgs = []domain.ReceivedJob{msg}
	require.Equal(t, 1, svc.Drain(context.Background()).Completed)
	f.jobs.msgs = []domain.ReceivedJob{msg}
	require.Equal(t, 1, svc.Drain(context.Background()).Completed)

	require.Len(t, f.prefs.puts, 2)
	require.Equal(t, f.prefs.puts[0], f.prefs.puts[1])
	require.Len(t, f.notifier.sent, 2)
	require.Equal(t, f.notifier.sent[0], f.notifier.sent[1])
}

func TestDrain_InvalidJobs_Discarded(t *testing.T) {
	f := newFixture()
	f.jobs.msgs = []domain.ReceivedJob{
		{MessageID: "m-1", Body: "not-json", ReceiptHandle: "rh-1"},
		{MessageID: "m-2", Body: `{"email":"a@b.c"}`, ReceiptHandle: "rh-2"},
		{MessageID: "m-3", Body: `{"cuisine":"thai"}`, ReceiptHandle: "rh-3"},
	}
	svc := f.service(t, FulfillmentConfig{})

	res := svc.Drain(context.Background())
	require.Equal(t, BatchResult{Received: 3, Discarded: 3}, res)
	require.Zero(t, f.search.calls)
	require.Equal(t, []string{"rh-1", "rh-2", "rh-3"}, f.jobs.acked)
}

func TestDrain_SearchFailure_Abandoned(t *testing.T) {
	f := newFixture()
	f.search.err = errors.New("opensearch: unexpected status 503")
	f.jobs.msgs = []domain.ReceivedJob{jobMessage(t, "m-1", thaiJob())}
	svc := f.service(t, FulfillmentConfig{})

	res := svc.Drain(context.Background())
	require.Equal(t, BatchResult{Received: 1, Abandoned: 1}, res)
	require.Empty(t, f.jobs.acked)
}

func TestDrain_PersistFailure_AbandonedWithoutEmail(t *testing.T) {
	f := newFixture()
	f.prefs.err = errors.New("throttled")
	f.search.results["thai"] = candidates("biz-1", "biz-2", "biz-3")
	f.jobs.msgs = []domain.ReceivedJob{jobMessage(t, "m-1", thaiJob())}
	svc := f.service(t, FulfillmentConfig{})

	res := svc.Drain(context.Background())
	require.Equal(t, BatchResult{Received: 1, Abandoned: 1}, res)
	require.Empty(t, f.notifier.sent)
	require.Empty(t, f.jobs.acked)
}

func TestDrain_NotifyFailure_Abandoned(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("MessageRejected")
	f.search.results["thai"] = candidates("biz-1", "biz-2", "biz-3")
	f.jobs.msgs = []domain.ReceivedJob{jobMessage(t, "m-1", thaiJob())}
	svc := f.service(t, FulfillmentConfig{})

	res := svc.Drain(context.Background())
	require.Equal(t, BatchResult{Received: 1, Abandoned: 1}, res)
	require.Len(t, f.prefs.puts, 1)
	require.Empty(t, f.jobs.acked)
}

func TestDrain_AckFailureStillCompletes(t *testing.T) {
	f := newFixture()
	f.jobs.ackErr = errors.New("ReceiptHandleIsInvalid")
	f.search.results["thai"] = candidates("biz-1", "biz-2", "biz-3")
	f.jobs.msgs = []domain.ReceivedJob{jobMessage(t, "m-1", thaiJob())}
	svc := f.service(t, FulfillmentConfig{})

	res := svc.Drain(context.Background())
	require.Equal(t, BatchResult{Received: 1, Completed: 1}, res)
}

func TestDrain_IsolatesJobs(t *testing.T) {
	f := newFixture()
	f.search.results["thai"] = candidates("biz-1", "biz-2", "biz-3")
	f.search.results["martian"] = candidates("biz-1")
	martian := thaiJob()
	martian.Cuisine = "martian"
	f.jobs.msgs = []domain.ReceivedJob{
		{MessageID: "m-0", Body: "{", ReceiptHandle: "rh-m-0"},
		jobMessage(t, "m-1", martian),
		jobMessage(t, "m-2", thaiJob()),
	}
	svc := f.service(t, FulfillmentConfig{})

	res := svc.Drain(context.Background())
	require.Equal(t, BatchResult{Received: 3, Completed: 1, Discarded: 2}, res)
	require.Len(t, f.notifier.sent, 1)
	require.Equal(t, []string{"rh-m-0", "rh-m-1", "rh-m-2"}, f.jobs.acked)
}

func TestDrain_ReceiveFailure(t *testing.T) {
	f := newFixture()
	f.jobs.recvErr = errors.New("throttled")
	svc := f.service(t, FulfillmentConfig{})

	require.Equal(t, BatchResult{}, svc.Drain(context.Background()))
}

func TestDrain_EmptyQueue(t *testing.T) {
	f := newFixture()
	svc := f.service(t, FulfillmentConfig{BatchSize: 4})

	require.Equal(t, BatchResult{}, svc.Drain(context.Background()))
	require.Equal(t, 4, f.jobs.maxSeen)
}

func TestDrain_CancelledContextLeavesJobs(t *testing.T) {
	f := newFixture()
	f.search.results["thai"] = candidates("biz-1", "biz-2", "biz-3")
	f.jobs.msgs = []domain.ReceivedJob{jobMessage(t, "m-1", thaiJob()), jobMessage(t, "m-2", thaiJob())}
	svc := f.service(t, FulfillmentConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := svc.Drain(ctx)
	require.Equal(t, BatchResult{Received: 2, Abandoned: 2}, res)
	require.Empty(t, f.jobs.acked)
	require.Zero(t, f.search.calls)
}

func TestBatchResultString(t *testing.T) {
	require.Equal(t, "received=4 completed=1 discarded=2 abandoned=1", BatchResult{Received: 4, Completed: 1, Discarded: 2, Abandoned: 1}.String())
}
