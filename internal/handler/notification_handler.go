package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/service"
)

// ListNotifications 는 알림 목록과 미읽음 수를 돌려준다.
func (a *API) ListNotifications(c *gin.Context) {
	user := a.currentUser(c)

	notifications, err := a.notifications.List(user.ID, parseIntQuery(c, "limit", 30))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "알림 조회에 실패했습니다")
		return
	}

	unread, err := a.notifications.UnreadCount(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "알림 조회에 실패했습니다")
		return
	}

	items := make([]gin.H, 0, len(notifications))
	for _, notification := range notifications {
		items = append(items, gin.H{
			"id":        notification.ID,
			"type":      notification.Type,
			"title":     notification.Title,
			"body":      notification.Body,
			"linkUrl":   notification.LinkURL,
			"isRead":    notification.IsRead,
			"createdAt": notification.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "unread": unread})
}

// MarkNotificationRead 는 알림 한 건을 읽음 처리한다.
func (a *API) MarkNotificationRead(c *gin.Context) {
	user := a.currentUser(c)

	notificationID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.notifications.MarkRead(user.ID, notificationID); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			respondError(c, http.StatusNotFound, "알림을 찾을 수 없습니다")
			return
		}
		respondError(c, http.StatusInternalServerError, "읽음 처리에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "읽음 처리되었습니다"})
}

// MarkAllNotificationsRead 는 모든 알림을 읽음 처리한다.
func (a *API) MarkAllNotificationsRead(c *gin.Context) {
	user := a.currentUser(c)

	if err := a.notifications.MarkAllRead(user.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "읽음 처리에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "모두 읽음 처리되었습니다"})
}
