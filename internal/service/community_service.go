package service

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mindpause/internal/db"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gorm.io/gorm"
)

var (
	// ErrPostNotFound 는 게시글이 없을 때 반환된다.
	ErrPostNotFound = errors.New("post not found")
	// ErrCommentNotFound 는 댓글이 없을 때 반환된다.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrNotOwner 는 본인 소유가 아닌 글·댓글을 수정·삭제할 때 반환된다.
	ErrNotOwner = errors.New("not the owner")
)

// 게시글 카테고리.
const (
	PostCategoryDaily     = "daily"
	PostCategoryWorry     = "worry"
	PostCategoryGratitude = "gratitude"
	PostCategoryChallenge = "challenge"
)

// CommunityService 는 게시글·댓글·공감 흐름을 담당한다.
// 본문은 마크다운 원문으로 저장하고 조회 시점에 렌더링·살균한다.
type CommunityService struct {
	db        *gorm.DB
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// PostInput 은 게시글 작성·수정 입력이다.
type PostInput struct {
	Title       string
	Content     string
	Category    string
	IsAnonymous bool
}

// PostView 는 게시글 표시용 묶음이다. ContentHTML 은 살균된 렌더링 결과다.
type PostView struct {
	Post        db.Post
	AuthorName  string
	ContentHTML string
	LikedByMe   bool
}

// CommentView 는 댓글 표시용 묶음이다.
type CommentView struct {
	Comment    db.Comment
	AuthorName string
}

// NewCommunityService 는 CommunityService 를 생성한다.
func NewCommunityService(gdb *gorm.DB) *CommunityService {
	return &CommunityService{
		db: gdb,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// renderContent 는 마크다운을 HTML 로 변환하고 살균한다.
func (s *CommunityService) renderContent(markdown string) string {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(markdown), &buf); err != nil {
		// 변환 실패 시 원문을 평문 취급한다.
		return s.sanitizer.Sanitize(markdown)
	}
	return s.sanitizer.Sanitize(buf.String())
}

func normalizeCategory(category string) string {
	switch strings.TrimSpace(strings.ToLower(category)) {
	case PostCategoryWorry:
		return PostCategoryWorry
	case PostCategoryGratitude:
		return PostCategoryGratitude
	case PostCategoryChallenge:
		return PostCategoryChallenge
	default:
		return PostCategoryDaily
	}
}

// displayName 은 익명 여부에 따라 작성자 표시명을 정한다.
func displayName(nickname string, anonymous bool) string {
	if anonymous {
		return "익명"
	}
	return nickname
}

// CreatePost 는 게시글을 작성한다.
func (s *CommunityService) CreatePost(userID uint, input PostInput) (*db.Post, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" {
		return nil, errors.New("제목을 입력해주세요")
	}
	if content == "" {
		return nil, errors.New("내용을 입력해주세요")
	}

	post := db.Post{
		UserID:      userID,
		Title:       title,
		Content:     content,
		Category:    normalizeCategory(input.Category),
		IsAnonymous: input.IsAnonymous,
	}
	if err := s.db.Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

// ListPosts 는 카테고리 필터와 함께 게시글 목록을 페이지 조회한다.
// category 가 비어 있으면 전체를 돌려준다.
func (s *CommunityService) ListPosts(viewerID uint, category string, page, pageSize int) ([]PostView, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 20
	}

	query := s.db.Model(&db.Post{})
	if strings.TrimSpace(category) != "" {
		query = query.Where("category = ?", normalizeCategory(category))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	var posts []db.Post
	if err := query.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	likedIDs, err := s.likedPostIDs(viewerID, posts)
	if err != nil {
		return nil, 0, err
	}

	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, PostView{
			Post:        post,
			AuthorName:  displayName(post.User.Nickname, post.IsAnonymous),
			ContentHTML: s.renderContent(post.Content),
			LikedByMe:   likedIDs[post.ID],
		})
	}
	return views, total, nil
}

func (s *CommunityService) likedPostIDs(viewerID uint, posts []db.Post) (map[uint]bool, error) {
	liked := make(map[uint]bool)
	if viewerID == 0 || len(posts) == 0 {
		return liked, nil
	}

	postIDs := make([]uint, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}

	var ids []uint
	if err := s.db.Model(&db.PostLike{}).
		Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load liked posts: %w", err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// GetPost 는 게시글 상세를 렌더링 결과와 함께 돌려준다.
func (s *CommunityService) GetPost(viewerID, postID uint) (*PostView, error) {
	var post db.Post
	if err := s.db.Preload("User").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}

	likedIDs, err := s.likedPostIDs(viewerID, []db.Post{post})
	if err != nil {
		return nil, err
	}

	return &PostView{
		Post:        post,
		AuthorName:  displayName(post.User.Nickname, post.IsAnonymous),
		ContentHTML: s.renderContent(post.Content),
		LikedByMe:   likedIDs[post.ID],
	}, nil
}

// UpdatePost 는 본인 게시글을 수정한다.
func (s *CommunityService) UpdatePost(userID, postID uint, input PostInput) (*db.Post, error) {
	var post db.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	if post.UserID != userID {
		return nil, ErrNotOwner
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		post.Title = title
	}
	if content := strings.TrimSpace(input.Content); content != "" {
		post.Content = content
	}
	post.Category = normalizeCategory(input.Category)
	post.IsAnonymous = input.IsAnonymous

	if err := s.db.Save(&post).Error; err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return &post, nil
}

// DeletePost 는 본인 또는 관리자가 게시글을 삭제한다.
func (s *CommunityService) DeletePost(userID, postID uint, isAdmin bool) error {
	var post db.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("find post: %w", err)
	}
	if post.UserID != userID && !isAdmin {
		return ErrNotOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&db.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("post_id = ?", postID).Delete(&db.PostLike{}).Error; err != nil {
			return fmt.Errorf("delete likes: %w", err)
		}
		if err := tx.Delete(&post).Error; err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
}

// ToggleLike 는 공감을 토글한다. 공감 상태와 갱신된 공감 수를 돌려준다.
func (s *CommunityService) ToggleLike(userID, postID uint) (liked bool, numLikes int, err error) {
	var post db.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, ErrPostNotFound
		}
		return false, 0, fmt.Errorf("find post: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing db.PostLike
		findErr := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		switch {
		case findErr == nil:
			if err := tx.Unscoped().Delete(&existing).Error; err != nil {
				return fmt.Errorf("remove like: %w", err)
			}
			liked = false
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			if err := tx.Create(&db.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
				return fmt.Errorf("create like: %w", err)
			}
			liked = true
		default:
			return fmt.Errorf("find like: %w", findErr)
		}

		var count int64
		if err := tx.Model(&db.PostLike{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
			return fmt.Errorf("count likes: %w", err)
		}
		numLikes = int(count)
		return tx.Model(&db.Post{}).Where("id = ?", postID).Update("num_likes", numLikes).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, numLikes, nil
}

// CreateComment 는 댓글을 작성하고 카운터를 갱신하며, 타인의 글이면
// 작성자에게 알림을 쌓는다.
func (s *CommunityService) CreateComment(userID, postID uint, content string, anonymous bool) (*db.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("댓글 내용을 입력해주세요")
	}

	var post db.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}

	comment := db.Comment{
		PostID:      postID,
		UserID:      userID,
		Content:     content,
		IsAnonymous: anonymous,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}

		var count int64
		if err := tx.Model(&db.Comment{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
			return fmt.Errorf("count comments: %w", err)
		}
		if err := tx.Model(&db.Post{}).Where("id = ?", postID).
			Update("num_comments", count).Error; err != nil {
			return fmt.Errorf("update comment counter: %w", err)
		}

		if post.UserID != userID {
			notification := db.Notification{
				UserID:  post.UserID,
				Type:    db.NotificationTypeComment,
				Title:   "내 글에 새 댓글이 달렸어요",
				Body:    content,
				LinkURL: fmt.Sprintf("/community/%d", postID),
			}
			if err := tx.Create(&notification).Error; err != nil {
				return fmt.Errorf("create comment notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments 는 게시글 댓글을 작성순으로 돌려준다.
func (s *CommunityService) ListComments(postID uint) ([]CommentView, error) {
	var comments []db.Comment
	if err := s.db.Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	userIDs := make([]uint, 0, len(comments))
	for _, comment := range comments {
		userIDs = append(userIDs, comment.UserID)
	}

	nicknames := make(map[uint]string, len(userIDs))
	if len(userIDs) > 0 {
		var users []db.User
		if err := s.db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("load comment authors: %w", err)
		}
		for _, user := range users {
			nicknames[user.ID] = user.Nickname
		}
	}

	views := make([]CommentView, 0, len(comments))
	for _, comment := range comments {
		views = append(views, CommentView{
			Comment:    comment,
			AuthorName: displayName(nicknames[comment.UserID], comment.IsAnonymous),
		})
	}
	return views, nil
}

// DeleteComment 는 본인 또는 관리자가 댓글을 삭제하고 카운터를 되돌린다.
func (s *CommunityService) DeleteComment(userID, commentID uint, isAdmin bool) error {
	var comment db.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("find comment: %w", err)
	}
	if comment.UserID != userID && !isAdmin {
		return ErrNotOwner
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&comment).Error; err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		var count int64
		if err := tx.Model(&db.Comment{}).Where("post_id = ?", comment.PostID).Count(&count).Error; err != nil {
			return fmt.Errorf("count comments: %w", err)
		}
		return tx.Model(&db.Post{}).Where("id = ?", comment.PostID).
			Update("num_comments", count).Error
	})
}
