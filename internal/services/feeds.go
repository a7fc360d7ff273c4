package services

import (
	"context"

	"agora/internal/api"
	"agora/internal/models"
	"agora/internal/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const feedLimit = 100

// FeedService serves the post lists and the post detail, each item carrying
// the viewer's own vote.
type FeedService struct {
	db     *gorm.DB
	places *PlaceDirectory
}

func NewFeedService(conn *gorm.DB, places *PlaceDirectory) *FeedService {
	return &FeedService{db: conn, places: places}
}

// Latest is the global feed, newest first.
func (s *FeedService) Latest(ctx context.Context, viewer *models.User) ([]api.Post, error) {
	return s.list(ctx, viewer, "created_at DESC, id DESC", nil)
}

// Top is the global feed ordered by hot rank.
func (s *FeedService) Top(ctx context.Context, viewer *models.User) ([]api.Post, error) {
	return s.list(ctx, viewer, "hot_rank DESC, score DESC, created_at DESC", nil)
}

func (s *FeedService) ByPlace(ctx context.Context, slug string, viewer *models.User) ([]api.Post, error) {
	place, err := s.places.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, viewer, "created_at DESC, id DESC", func(q *gorm.DB) *gorm.DB {
		return q.Where("place_id = ?", place.ID)
	})
}

func (s *FeedService) ByDomain(ctx context.Context, domain string, viewer *models.User) ([]api.Post, error) {
	return s.list(ctx, viewer, "created_at DESC, id DESC", func(q *gorm.DB) *gorm.DB {
		return q.Where("domain = ?", domain)
	})
}

// Home lists posts from the places the viewer subscribes to. Anonymous viewers get nothing.
func (s *FeedService) Home(ctx context.Context, viewer *models.User) ([]api.Post, error) {
	if viewer == nil {
		return []api.Post{}, nil
	}

	var placeIDs []uint
	if err := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ?", viewer.ID).
		Pluck("place_id", &placeIDs).Error; err != nil {
		return nil, errors.Wrap(err, "load subscriptions")
	}
	if len(placeIDs) == 0 {
		return []api.Post{}, nil
	}

	return s.list(ctx, viewer, "created_at DESC, id DESC", func(q *gorm.DB) *gorm.DB {
		return q.Where("place_id IN ?", placeIDs)
	})
}

// Mine lists the viewer's own posts.
func (s *FeedService) Mine(ctx context.Context, viewer *models.User) ([]api.Post, error) {
	if viewer == nil {
		return nil, ErrUnauthorized
	}
	return s.list(ctx, viewer, "created_at DESC, id DESC", func(q *gorm.DB) *gorm.DB {
		return q.Where("user_id = ?", viewer.ID)
	})
}

// Post returns a single post with its body rendered to HTML.
func (s *FeedService) Post(ctx context.Context, id uint, viewer *models.User) (*api.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("User").Preload("Place").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, errors.Wrap(err, "find post")
	}

	votes, err := s.viewerVotes(ctx, viewer, []uint{post.ID})
	if err != nil {
		return nil, err
	}
	view := toView(post, votes[post.ID])
	view.ContentHTML = utils.RenderMarkdown(post.Content)
	return &view, nil
}

func (s *FeedService) list(ctx context.Context, viewer *models.User, order string, scope func(*gorm.DB) *gorm.DB) ([]api.Post, error) {
	q := s.db.WithContext(ctx).Preload("User").Preload("Place").Order(order).Limit(feedLimit)
	if scope != nil {
		q = q.Scopes(scope)
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, errors.Wrap(err, "list posts")
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}
	votes, err := s.viewerVotes(ctx, viewer, postIDs)
	if err != nil {
		return nil, err
	}

	views := make([]api.Post, len(posts))
	for i, p := range posts {
		views[i] = toView(p, votes[p.ID])
	}
	return views, nil
}

// viewerVotes 批量查询当前用户对这些帖子的投票
func (s *FeedService) viewerVotes(ctx context.Context, viewer *models.User, postIDs []uint) (map[uint]api.VoteValue, error) {
	votes := make(map[uint]api.VoteValue)
	if viewer == nil || len(postIDs) == 0 {
		return votes, nil
	}

	var rows []models.Vote
	if err := s.db.WithContext(ctx).
		Select("post_id", "value").
		Where("user_id = ? AND post_id IN ?", viewer.ID, postIDs).
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "load viewer votes")
	}
	for _, v := range rows {
		votes[v.PostID] = api.VoteValue(v.Value)
	}
	return votes, nil
}

func toView(p models.Post, userVote api.VoteValue) api.Post {
	return api.Post{
		ID:       p.ID,
		Title:    p.Title,
		Content:  p.Content,
		URL:      p.URL,
		Domain:   p.Domain,
		Score:    p.Score,
		UserVote: userVote,
		Author:   api.Author{ID: p.User.ID, Name: p.User.Name},
		Place: api.Place{
			ID:   p.Place.ID,
			Name: p.Place.Name,
			Slug: p.Place.Slug,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
