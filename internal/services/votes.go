package services

import (
	"context"

	"agora/internal/api"
	"agora/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RankScheduler is told about every post whose score changed.
type RankScheduler interface {
	ScheduleUpdate(postID uint)
}

// VoteResult is the outcome of a cast: the actor's vote after the cast and the
// change applied to the post score.
type VoteResult struct {
	UserVote   api.VoteValue
	ScoreDelta int
}

// VoteService owns the vote ledger and the denormalized post score.
type VoteService struct {
	db      *gorm.DB
	ranking RankScheduler
}

func NewVoteService(conn *gorm.DB, ranking RankScheduler) *VoteService {
	return &VoteService{db: conn, ranking: ranking}
}

// CastVote creates, switches or removes the actor's vote on a post and adjusts
// the post score by the same amount, all in one transaction.
//
// The post row is locked before the existing vote is read, so two casts on the
// same post (from the same actor or not) never decide from the same pre-state.
func (s *VoteService) CastVote(ctx context.Context, actor *models.User, postID uint, direction api.Direction) (VoteResult, error) {
	if actor == nil || actor.ID == 0 {
		return VoteResult{}, ErrUnauthorized
	}
	requested, ok := direction.Value()
	if !ok {
		return VoteResult{}, ErrInvalidDirection
	}

	var result VoteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return errors.Wrap(err, "lock post")
		}

		current := api.NoVote
		var existing models.Vote
		err := tx.Where("user_id = ? AND post_id = ?", actor.ID, postID).First(&existing).Error
		switch {
		case err == nil:
			current = api.VoteValue(existing.Value)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return errors.Wrap(err, "read existing vote")
		}

		next, delta := api.Resolve(current, requested)
		switch {
		case current == api.NoVote:
			vote := models.Vote{UserID: actor.ID, PostID: postID, Value: int(next)}
			if err := tx.Create(&vote).Error; err != nil {
				return errors.Wrap(err, "create vote")
			}
		case next == api.NoVote:
			if err := tx.Delete(&existing).Error; err != nil {
				return errors.Wrap(err, "delete vote")
			}
		default:
			if err := tx.Model(&existing).Update("value", int(next)).Error; err != nil {
				return errors.Wrap(err, "switch vote")
			}
		}

		if err := tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("score", gorm.Expr("score + ?", delta)).Error; err != nil {
			return errors.Wrap(err, "adjust score")
		}

		result = VoteResult{UserVote: next, ScoreDelta: delta}
		return nil
	})
	if err != nil {
		return VoteResult{}, err
	}

	log.Debug().
		Uint("user_id", actor.ID).
		Uint("post_id", postID).
		Int("user_vote", int(result.UserVote)).
		Int("score_delta", result.ScoreDelta).
		Msg("Vote cast")

	if s.ranking != nil {
		s.ranking.ScheduleUpdate(postID)
	}
	return result, nil
}

// GetVoteState reads the post score and the viewer's vote. viewer may be nil.
func (s *VoteService) GetVoteState(ctx context.Context, viewer *models.User, postID uint) (api.VoteState, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id", "score").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return api.VoteState{}, ErrPostNotFound
		}
		return api.VoteState{}, errors.Wrap(err, "read post")
	}

	state := api.VoteState{Score: post.Score}
	if viewer == nil || viewer.ID == 0 {
		return state, nil
	}

	var vote models.Vote
	err := s.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", viewer.ID, postID).First(&vote).Error
	switch {
	case err == nil:
		state.UserVote = api.VoteValue(vote.Value)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return api.VoteState{}, errors.Wrap(err, "read vote")
	}
	return state, nil
}
