package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/db"
	"github.com/mindpause/internal/service"
)

const sessionUserKey = "user_id"

type registerPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func userToPayload(user *db.User) gin.H {
	return gin.H{
		"id":              user.ID,
		"email":           user.Email,
		"nickname":        user.Nickname,
		"tier":            user.Tier,
		"isAdmin":         user.IsAdmin,
		"profileImageUrl": user.ProfileImageURL,
		"createdAt":       user.CreatedAt,
	}
}

// Register 는 회원 가입을 처리하고 곧바로 로그인 세션을 연다.
func (a *API) Register(c *gin.Context) {
	var payload registerPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	user, err := a.users.Register(service.RegisterInput{
		Email:    payload.Email,
		Password: payload.Password,
		Nickname: payload.Nickname,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			respondError(c, http.StatusConflict, "이미 가입된 이메일입니다")
			return
		}
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "세션 저장에 실패했습니다")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": userToPayload(user)})
}

// Login 은 이메일·비밀번호를 확인하고 세션을 연다.
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	user, err := a.users.Authenticate(payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "이메일 또는 비밀번호가 올바르지 않습니다")
			return
		}
		respondError(c, http.StatusInternalServerError, "로그인 처리에 실패했습니다")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "세션 저장에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userToPayload(user)})
}

// Logout 은 세션을 정리한다.
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "세션 정리에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "로그아웃되었습니다"})
}

// Me 는 현재 로그인 사용자 정보를 돌려준다.
func (a *API) Me(c *gin.Context) {
	user := a.currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "로그인이 필요합니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToPayload(user)})
}

const currentUserContextKey = "__current_user"

// currentUser 는 세션의 사용자를 조회해 요청 컨텍스트에 캐시한다.
func (a *API) currentUser(c *gin.Context) *db.User {
	if cached, exists := c.Get(currentUserContextKey); exists {
		if user, ok := cached.(*db.User); ok {
			return user
		}
	}

	session := sessions.Default(c)
	raw := session.Get(sessionUserKey)
	userID, ok := raw.(uint)
	if !ok {
		return nil
	}

	user, err := a.users.GetUser(userID)
	if err != nil {
		return nil
	}

	c.Set(currentUserContextKey, user)
	return user
}

// AuthRequired 는 로그인하지 않은 요청을 차단한다.
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.currentUser(c) == nil {
			respondError(c, http.StatusUnauthorized, "로그인이 필요합니다")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired 는 관리자가 아닌 요청을 차단한다.
func (a *API) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := a.currentUser(c)
		if user == nil {
			respondError(c, http.StatusUnauthorized, "로그인이 필요합니다")
			c.Abort()
			return
		}
		if !user.IsAdmin {
			respondError(c, http.StatusForbidden, "관리자 권한이 필요합니다")
			c.Abort()
			return
		}
		c.Next()
	}
}
