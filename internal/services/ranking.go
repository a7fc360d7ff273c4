package services

import (
	"context"
	"sync"
	"time"

	"agora/internal/models"
	"agora/internal/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const rankQueueSize = 1000

// RankingService 异步计算并更新帖子的 hot_rank。
// It reads the vote-maintained score but never writes it.
type RankingService struct {
	db         *gorm.DB
	queue      chan uint // 待更新的帖子 ID 队列
	pending    map[uint]bool
	mu         sync.Mutex
	batchSize  int
	flushEvery time.Duration
	now        func() time.Time
}

func NewRankingService(conn *gorm.DB, batchSize int, flushEvery time.Duration) *RankingService {
	if batchSize <= 0 {
		batchSize = 50
	}
	if flushEvery <= 0 {
		flushEvery = 500 * time.Millisecond
	}
	return &RankingService{
		db:         conn,
		queue:      make(chan uint, rankQueueSize),
		pending:    make(map[uint]bool),
		batchSize:  batchSize,
		flushEvery: flushEvery,
		now:        time.Now,
	}
}

// Start runs the background worker until ctx is cancelled.
func (s *RankingService) Start(ctx context.Context) {
	go s.worker(ctx)
}

// ScheduleUpdate 将帖子加入更新队列（异步）
// 使用去重机制避免短时间内重复计算同一帖子
func (s *RankingService) ScheduleUpdate(postID uint) {
	s.mu.Lock()
	if s.pending[postID] {
		s.mu.Unlock()
		return
	}
	s.pending[postID] = true
	s.mu.Unlock()

	select {
	case s.queue <- postID:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, postID)
		s.mu.Unlock()
		log.Warn().Uint("post_id", postID).Msg("Rank queue full, skipping post")
	}
}

func (s *RankingService) worker(ctx context.Context) {
	batch := make([]uint, 0, s.batchSize)
	ticker := time.NewTicker(s.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case postID := <-s.queue:
			batch = append(batch, postID)
			if len(batch) >= s.batchSize {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ctx.Done():
			if len(batch) > 0 {
				s.processBatch(context.Background(), batch)
			}
			return
		}
	}
}

func (s *RankingService) processBatch(ctx context.Context, postIDs []uint) {
	if err := s.updateHotRanks(ctx, postIDs); err != nil {
		log.Error().Err(err).Int("batch", len(postIDs)).Msg("Failed to update hot ranks")
	}

	s.mu.Lock()
	for _, postID := range postIDs {
		delete(s.pending, postID)
	}
	s.mu.Unlock()
}

// updateHotRanks recomputes hot_rank for the given posts from their current score.
func (s *RankingService) updateHotRanks(ctx context.Context, postIDs []uint) error {
	var posts []models.Post
	if err := s.db.WithContext(ctx).
		Select("id", "score", "created_at").
		Where("id IN ?", postIDs).
		Find(&posts).Error; err != nil {
		return errors.Wrap(err, "load posts for ranking")
	}

	now := s.now()
	for _, post := range posts {
		rank := utils.HotRank(post.Score, post.CreatedAt, now)
		if err := s.db.WithContext(ctx).
			Model(&models.Post{}).
			Where("id = ?", post.ID).
			UpdateColumn("hot_rank", rank).Error; err != nil {
			return errors.Wrapf(err, "update hot rank of post %d", post.ID)
		}
	}
	return nil
}

// StartScheduledRefresh periodically re-ranks recent and top posts, since rank decays with age
// even when nobody votes.
func (s *RankingService) StartScheduledRefresh(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.refreshHotPosts(ctx)
				if err != nil {
					log.Error().Err(err).Msg("Scheduled rank refresh failed")
					continue
				}
				log.Debug().Int("posts", n).Msg("Scheduled rank refresh done")
			}
		}
	}()
}

// refreshHotPosts 更新最近 7 天和排名最高的 30 篇帖子
func (s *RankingService) refreshHotPosts(ctx context.Context) (int, error) {
	seen := make(map[uint]bool)
	ids := make([]uint, 0, 64)

	var recent []models.Post
	if err := s.db.WithContext(ctx).
		Where("created_at >= ?", s.now().AddDate(0, 0, -7)).
		Select("id").
		Find(&recent).Error; err != nil {
		return 0, errors.Wrap(err, "load recent posts")
	}
	var top []models.Post
	if err := s.db.WithContext(ctx).
		Order("hot_rank DESC").
		Limit(30).
		Select("id").
		Find(&top).Error; err != nil {
		return 0, errors.Wrap(err, "load top posts")
	}

	for _, p := range append(recent, top...) {
		if !seen[p.ID] {
			seen[p.ID] = true
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return len(ids), s.updateHotRanks(ctx, ids)
}
