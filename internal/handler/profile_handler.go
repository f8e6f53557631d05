package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/service"
)

type profilePayload struct {
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profileImageUrl"`
}

type passwordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateProfile 은 닉네임·프로필 이미지를 수정한다.
func (a *API) UpdateProfile(c *gin.Context) {
	user := a.currentUser(c)

	var payload profilePayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	updated, err := a.users.UpdateProfile(user.ID, service.ProfileUpdateInput{
		Nickname:        payload.Nickname,
		ProfileImageURL: payload.ProfileImageURL,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "프로필 수정에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userToPayload(updated)})
}

// ChangePassword 는 비밀번호를 교체한다.
func (a *API) ChangePassword(c *gin.Context) {
	user := a.currentUser(c)

	var payload passwordPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	if err := a.users.ChangePassword(user.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "현재 비밀번호가 올바르지 않습니다")
			return
		}
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "비밀번호가 변경되었습니다"})
}

// ListMyBadges 는 배지 카탈로그를 획득 여부와 함께 돌려준다.
func (a *API) ListMyBadges(c *gin.Context) {
	user := a.currentUser(c)

	badges, err := a.badges.List(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "배지 조회에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}
