package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/service"
)

type postPayload struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	IsAnonymous bool   `json:"isAnonymous"`
}

type commentPayload struct {
	Content     string `json:"content"`
	IsAnonymous bool   `json:"isAnonymous"`
}

func postViewToPayload(view service.PostView) gin.H {
	return gin.H{
		"id":          view.Post.ID,
		"title":       view.Post.Title,
		"content":     view.Post.Content,
		"contentHtml": view.ContentHTML,
		"category":    view.Post.Category,
		"author":      view.AuthorName,
		"isAnonymous": view.Post.IsAnonymous,
		"numLikes":    view.Post.NumLikes,
		"numComments": view.Post.NumComments,
		"likedByMe":   view.LikedByMe,
		"createdAt":   view.Post.CreatedAt,
	}
}

// ListPosts 는 커뮤니티 게시글 목록을 돌려준다.
func (a *API) ListPosts(c *gin.Context) {
	user := a.currentUser(c)

	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "pageSize", 20)

	views, total, err := a.community.ListPosts(user.ID, c.Query("category"), page, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "게시글 조회에 실패했습니다")
		return
	}

	items := make([]gin.H, 0, len(views))
	for _, view := range views {
		items = append(items, postViewToPayload(view))
	}
	c.JSON(http.StatusOK, gin.H{"posts": items, "total": total, "page": page})
}

// CreatePost 는 게시글을 작성한다.
func (a *API) CreatePost(c *gin.Context) {
	user := a.currentUser(c)

	var payload postPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	post, err := a.community.CreatePost(user.ID, service.PostInput{
		Title:       payload.Title,
		Content:     payload.Content,
		Category:    payload.Category,
		IsAnonymous: payload.IsAnonymous,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": post.ID})
}

// GetPost 는 게시글 상세와 댓글을 돌려준다.
func (a *API) GetPost(c *gin.Context) {
	user := a.currentUser(c)

	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := a.community.GetPost(user.ID, postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "게시글을 찾을 수 없습니다")
			return
		}
		respondError(c, http.StatusInternalServerError, "게시글 조회에 실패했습니다")
		return
	}

	comments, err := a.community.ListComments(postID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "댓글 조회에 실패했습니다")
		return
	}

	commentItems := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		commentItems = append(commentItems, gin.H{
			"id":        comment.Comment.ID,
			"content":   comment.Comment.Content,
			"author":    comment.AuthorName,
			"createdAt": comment.Comment.CreatedAt,
			"isMine":    comment.Comment.UserID == user.ID,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"post":     postViewToPayload(*view),
		"comments": commentItems,
	})
}

// UpdatePost 는 본인 게시글을 수정한다.
func (a *API) UpdatePost(c *gin.Context) {
	user := a.currentUser(c)

	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload postPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	if _, err := a.community.UpdatePost(user.ID, postID, service.PostInput{
		Title:       payload.Title,
		Content:     payload.Content,
		Category:    payload.Category,
		IsAnonymous: payload.IsAnonymous,
	}); err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "게시글을 찾을 수 없습니다")
		case errors.Is(err, service.ErrNotOwner):
			respondError(c, http.StatusForbidden, "본인 게시글만 수정할 수 있습니다")
		default:
			respondError(c, http.StatusInternalServerError, "게시글 수정에 실패했습니다")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "수정되었습니다"})
}

// DeletePost 는 게시글을 삭제한다.
func (a *API) DeletePost(c *gin.Context) {
	user := a.currentUser(c)

	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.community.DeletePost(user.ID, postID, user.IsAdmin); err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			respondError(c, http.StatusNotFound, "게시글을 찾을 수 없습니다")
		case errors.Is(err, service.ErrNotOwner):
			respondError(c, http.StatusForbidden, "본인 게시글만 삭제할 수 있습니다")
		default:
			respondError(c, http.StatusInternalServerError, "게시글 삭제에 실패했습니다")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "삭제되었습니다"})
}

// ToggleLike 는 게시글 공감을 토글한다.
func (a *API) ToggleLike(c *gin.Context) {
	user := a.currentUser(c)

	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	liked, numLikes, err := a.community.ToggleLike(user.ID, postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "게시글을 찾을 수 없습니다")
			return
		}
		respondError(c, http.StatusInternalServerError, "공감 처리에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "numLikes": numLikes})
}

// CreateComment 는 댓글을 작성한다. 댓글 작성 후 배지를 재평가한다.
func (a *API) CreateComment(c *gin.Context) {
	user := a.currentUser(c)

	postID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload commentPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	comment, err := a.community.CreateComment(user.ID, postID, payload.Content, payload.IsAnonymous)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, "게시글을 찾을 수 없습니다")
			return
		}
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	newBadges, err := a.badges.Evaluate(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "배지 평가에 실패했습니다")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": comment.ID, "newBadges": newBadges})
}

// DeleteComment 는 댓글을 삭제한다.
func (a *API) DeleteComment(c *gin.Context) {
	user := a.currentUser(c)

	commentID, err := parseUintParam(c, "commentId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.community.DeleteComment(user.ID, commentID, user.IsAdmin); err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			respondError(c, http.StatusNotFound, "댓글을 찾을 수 없습니다")
		case errors.Is(err, service.ErrNotOwner):
			respondError(c, http.StatusForbidden, "본인 댓글만 삭제할 수 있습니다")
		default:
			respondError(c, http.StatusInternalServerError, "댓글 삭제에 실패했습니다")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "삭제되었습니다"})
}
