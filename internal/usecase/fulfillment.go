package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"dining-concierge/internal/domain"
)

const (
	DefaultMinResults  = 3
	defaultSearchLimit = 3
	defaultBatchSize   = 10
)

type JobSource interface {
	ReceiveBatch(ctx context.Context, maxCount int) ([]domain.ReceivedJob, error)
	Acknowledge(ctx context.Context, receiptHandle string) error
}

type SearchIndex interface {
	Search(ctx context.Context, category string, limit int) ([]domain.Candidate, error)
}

type RestaurantStore interface {
	GetRestaurant(ctx context.Context, id string) (domain.Restaurant, bool, error)
}

type PreferenceWriter interface {
	PutPreference(ctx context.Context, rec domain.PreferenceRecord) error
}

type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) (string, error)
}

// FulfillmentConfig tunes a drain. Zero values select the defaults.
type FulfillmentConfig struct {
	BatchSize   int
	SearchLimit int
	// MinResults is the floor applied to both search hits and enriched
	// restaurants.
	MinResults int
}

func (c FulfillmentConfig) withDefaults() FulfillmentConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MinResults <= 0 {
		c.MinResults = DefaultMinResults
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = defaultSearchLimit
	}
	if c.SearchLimit < c.MinResults {
		c.SearchLimit = c.MinResults
	}
	return c
}

// BatchResult summarizes one drain.
type BatchResult struct {
	Received  int
	Completed int
	// Discarded jobs were acknowledged without a recommendation.
	Discarded int
	// Abandoned jobs were left on the queue for redelivery.
	Abandoned int
}

func (r BatchResult) String() string {
	return fmt.Sprintf("received=%d completed=%d discarded=%d abandoned=%d", r.Received, r.Completed, r.Discarded, r.Abandoned)
}

type jobOutcome int

const (
	jobCompleted jobOutcome = iota
	jobDiscarded
	jobAbandoned
)

// FulfillmentService turns queued jobs into emailed recommendations.
type FulfillmentService struct {
	jobs        JobSource
	search      SearchIndex
	restaurants RestaurantStore
	prefs       PreferenceWriter
	notifier    Notifier
	cfg         FulfillmentConfig
	logger      *slog.Logger
}

func NewFulfillmentService(jobs JobSource, search SearchIndex, restaurants RestaurantStore, prefs PreferenceWriter, notifier Notifier, cfg FulfillmentConfig, logger *slog.Logger) (*FulfillmentService, error) {
	if jobs == nil {
		return nil, errors.New("usecase: job source must not be nil")
	}
	if search == nil {
		return nil, errors.New("usecase: search index must not be nil")
	}
	if restaurants == nil {
		return nil, errors.New("usecase: restaurant store must not be nil")
	}
	if prefs == nil {
		return nil, errors.New("usecase: preference writer must not be nil")
	}
	if notifier == nil {
		return nil, errors.New("usecase: notifier must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FulfillmentService{
		jobs:        jobs,
		search:      search,
		restaurants: restaurants,
		prefs:       prefs,
		notifier:    notifier,
		cfg:         cfg.withDefaults(),
		logger:      logger,
	}, nil
}

// Drain processes one batch of pending jobs. Failures are isolated per job and
// never fail the drain. Jobs not reached before ctx is done stay on the queue.
func (s *FulfillmentService) Drain(ctx context.Context) BatchResult {
	msgs, err := s.jobs.ReceiveBatch(ctx, s.cfg.BatchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to receive jobs", "err", err)
		return BatchResult{}
	}
	if len(msgs) == 0 {
		s.logger.InfoContext(ctx, "no messages in the queue")
		return BatchResult{}
	}

	res := BatchResult{Received: len(msgs)}
	for i, m := range msgs {
		if ctx.Err() != nil {
			s.logger.WarnContext(ctx, "drain interrupted", "err", ctx.Err(), "remaining", len(msgs)-i)
			res.Abandoned += len(msgs) - i
			break
		}
		switch s.process(ctx, m) {
		case jobCompleted:
			res.Completed++
		case jobDiscarded:
			res.Discarded++
		default:
			res.Abandoned++
		}
	}
	return res
}

func (s *FulfillmentService) process(ctx context.Context, m domain.ReceivedJob) jobOutcome {
	log := s.logger.With("message_id", m.MessageID)

	job, err := decodeJob(m.Body)
	if err != nil {
		log.ErrorContext(ctx, "invalid job", "err", err)
		return s.discard(ctx, log, m)
	}
	log = log.With("email", job.Email, "cuisine", job.Cuisine)

	candidates, err := s.search.Search(ctx, job.Cuisine, s.cfg.SearchLimit)
	if err != nil {
		log.ErrorContext(ctx, "search failed", "err", err)
		return jobAbandoned
	}
	if len(candidates) < s.cfg.MinResults {
		log.ErrorContext(ctx, "not enough restaurants found", "found", len(candidates), "min", s.cfg.MinResults)
		return s.discard(ctx, log, m)
	}

	restaurants := s.enrich(ctx, log, candidates)
	if len(restaurants) < s.cfg.MinResults {
		log.ErrorContext(ctx, "not enough restaurant details found", "found", len(restaurants), "min", s.cfg.MinResults)
		return s.discard(ctx, log, m)
	}

	rec := job.Preference()
	rec.RestaurantNames = make([]string, 0, len(restaurants))
	for _, r := range restaurants {
		rec.RestaurantNames = append(rec.RestaurantNames, orUnknown(r.Name))
	}
	if err := s.prefs.PutPreference(ctx, rec); err != nil {
		log.ErrorContext(ctx, "failed to store recommendation", "err", err)
		return jobAbandoned
	}

	emailID, err := s.notifier.Send(ctx, job.Email, recommendationSubject(job.Cuisine), recommendationBody(job.Cuisine, restaurants))
	if err != nil {
		log.ErrorContext(ctx, "failed to send recommendation", "err", err)
		return jobAbandoned
	}
	log.InfoContext(ctx, "recommendation sent", "email_id", emailID, "restaurants", len(restaurants))

	if err := s.jobs.Acknowledge(ctx, m.ReceiptHandle); err != nil {
		// The work is done; a redelivery resends the same recommendation.
		log.ErrorContext(ctx, "failed to acknowledge job", "err", err)
	}
	return jobCompleted
}

// enrich looks up every candidate in order and skips the ones that miss.
func (s *FulfillmentService) enrich(ctx context.Context, log *slog.Logger, candidates []domain.Candidate) []domain.Restaurant {
	out := make([]domain.Restaurant, 0, len(candidates))
	for _, c := range candidates {
		r, found, err := s.restaurants.GetRestaurant(ctx, c.RestaurantID)
		if err != nil {
			log.WarnContext(ctx, "restaurant lookup failed", "err", err, "restaurant_id", c.RestaurantID)
			continue
		}
		if !found {
			log.WarnContext(ctx, "restaurant not found", "restaurant_id", c.RestaurantID)
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *FulfillmentService) discard(ctx context.Context, log *slog.Logger, m domain.ReceivedJob) jobOutcome {
	if err := s.jobs.Acknowledge(ctx, m.ReceiptHandle); err != nil {
		log.ErrorContext(ctx, "failed to discard job", "err", err)
	}
	return jobDiscarded
}

func decodeJob(body string) (domain.FulfillmentJob, error) {
	var job domain.FulfillmentJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return domain.FulfillmentJob{}, fmt.Errorf("usecase: decode job: %w", err)
	}
	if strings.TrimSpace(job.Cuisine) == "" || strings.TrimSpace(job.Email) == "" {
		return domain.FulfillmentJob{}, errors.New("usecase: job requires cuisine and email")
	}
	return job, nil
}
