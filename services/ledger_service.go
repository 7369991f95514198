package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/okeyenglish/okey-learn-connect-sub016/ledger"
	"github.com/okeyenglish/okey-learn-connect-sub016/model"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/cache"
	"gorm.io/gorm"
)

var ErrLessonNotFound = errors.New("lesson not found")

const (
	// LedgerCacheTTL bounds how stale a cached ledger can get if an
	// invalidation event is lost
	LedgerCacheTTL = 5 * time.Minute

	// InvalidationChannel is the Redis pub/sub channel carrying lesson IDs
	// whose ledgers must be recomputed
	InvalidationChannel = "ledger:invalidate"
)

// LessonLedger is the full read-side view of one lesson's billing state
type LessonLedger struct {
	LessonID   string         `json:"lesson_id"`
	Sessions   []ledger.Entry `json:"sessions"`
	Stats      ledger.Stats   `json:"stats"`
	ComputedAt time.Time      `json:"computed_at"`
}

// LedgerService computes lesson ledgers from the database and keeps the
// cached copies and live subscribers in sync. It never writes domain rows;
// the scheduling and billing handlers own all mutation.
type LedgerService struct {
	db       *gorm.DB
	cache    *cache.RedisCache // nil disables caching and cross-process events
	notifier *ledger.Notifier
}

// NewLedgerService creates a new ledger service
func NewLedgerService(db *gorm.DB, redisCache *cache.RedisCache, notifier *ledger.Notifier) *LedgerService {
	return &LedgerService{
		db:       db,
		cache:    redisCache,
		notifier: notifier,
	}
}

// Notifier exposes the in-process change feed for SSE handlers
func (s *LedgerService) Notifier() *ledger.Notifier {
	return s.notifier
}

// GetLedger returns the lesson's reconciled ledger, from cache when fresh.
// Any fetch error fails the whole computation; partial ledgers are never
// returned.
func (s *LedgerService) GetLedger(ctx context.Context, lessonID string) (*LessonLedger, error) {
	if s.cache != nil {
		var cached LessonLedger
		if err := s.cache.GetJSON(ctx, cacheKey(lessonID), &cached); err == nil {
			return &cached, nil
		}
	}
	return s.compute(ctx, lessonID)
}

// Refresh drops the cached ledger and recomputes it (the manual reload path)
func (s *LedgerService) Refresh(ctx context.Context, lessonID string) (*LessonLedger, error) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey(lessonID)); err != nil {
			log.Printf("[LEDGER] failed to drop cache for %s: %v", lessonID, err)
		}
	}
	return s.compute(ctx, lessonID)
}

func (s *LedgerService) compute(ctx context.Context, lessonID string) (*LessonLedger, error) {
	var lesson model.Lesson
	if err := s.db.WithContext(ctx).First(&lesson, "id = ?", lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to fetch lesson: %w", err)
	}

	var sessions []model.LessonSession
	if err := s.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("lesson_date ASC, created_at ASC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}

	var payments []model.LessonPayment
	if err := s.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}

	pricePerHour, err := s.resolvePrice(ctx, &lesson)
	if err != nil {
		return nil, err
	}

	entries := ledger.Allocate(sessions, payments, lesson.DurationMinutes)
	stats := ledger.DeriveStats(entries, payments, pricePerHour, time.Now())

	result := &LessonLedger{
		LessonID:   lessonID,
		Sessions:   entries,
		Stats:      stats,
		ComputedAt: time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey(lessonID), result, LedgerCacheTTL); err != nil {
			log.Printf("[LEDGER] failed to cache ledger for %s: %v", lessonID, err)
		}
	}

	return result, nil
}

// resolvePrice returns the lesson's own academic-hour price, falling back to
// the active organization-wide price. nil means no price record exists.
func (s *LedgerService) resolvePrice(ctx context.Context, lesson *model.Lesson) (*float64, error) {
	if lesson.PricePerHour != nil {
		return lesson.PricePerHour, nil
	}

	var price model.CoursePrice
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch course price: %w", err)
	}
	return &price.PricePerHour, nil
}

// Invalidate is called by the write surfaces after a successful mutation:
// drop the cache, wake local subscribers, and tell other processes.
func (s *LedgerService) Invalidate(ctx context.Context, lessonID string) {
	s.dropAndNotify(ctx, lessonID)
	if s.cache != nil {
		if err := s.cache.Publish(ctx, InvalidationChannel, lessonID); err != nil {
			log.Printf("[LEDGER] failed to publish invalidation for %s: %v", lessonID, err)
		}
	}
}

// HandleChangeEvent reacts to an out-of-band change event (Postgres NOTIFY
// or Redis pub/sub from another process). Payload contents beyond the
// lesson ID are ignored: every event means refetch.
func (s *LedgerService) HandleChangeEvent(lessonID string) {
	if lessonID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.dropAndNotify(ctx, lessonID)
}

func (s *LedgerService) dropAndNotify(ctx context.Context, lessonID string) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey(lessonID)); err != nil {
			log.Printf("[LEDGER] failed to invalidate cache for %s: %v", lessonID, err)
		}
	}
	if s.notifier != nil {
		s.notifier.Publish(lessonID)
	}
}

// StartInvalidationSubscriber consumes invalidations published by other
// processes. Returns a stop func; no-op when Redis is unavailable.
func (s *LedgerService) StartInvalidationSubscriber() func() {
	if s.cache == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := s.cache.Subscribe(ctx, InvalidationChannel)

	go func() {
		for msg := range pubsub.Channel() {
			s.HandleChangeEvent(msg.Payload)
		}
	}()

	return func() {
		cancel()
		pubsub.Close()
	}
}

func cacheKey(lessonID string) string {
	return "ledger:lesson:" + lessonID
}
