package db

import "gorm.io/gorm"

// Post 는 커뮤니티 게시글이다. 본문은 마크다운 원문으로 저장하고
// 렌더링·살균은 조회 시점에 수행한다.
// NumLikes / NumComments 는 목록 표시용 비정규화 카운터다.
type Post struct {
	gorm.Model
	UserID      uint   `gorm:"index;not null"`
	User        User   `gorm:"constraint:OnDelete:CASCADE"`
	Title       string `gorm:"size:200;not null"`
	Content     string `gorm:"type:text;not null"`
	Category    string `gorm:"size:30;index"`
	IsAnonymous bool   `gorm:"default:false"`
	NumLikes    int    `gorm:"default:0"`
	NumComments int    `gorm:"default:0"`
}

// Comment 는 게시글 댓글이다.
type Comment struct {
	gorm.Model
	PostID      uint   `gorm:"index;not null"`
	Post        Post   `gorm:"constraint:OnDelete:CASCADE"`
	UserID      uint   `gorm:"index;not null"`
	Content     string `gorm:"size:1000;not null"`
	IsAnonymous bool   `gorm:"default:false"`
}

// PostLike 는 공감 기록이다. UserID + PostID 유일 인덱스로 토글의
// 멱등성을 보장한다.
type PostLike struct {
	gorm.Model
	PostID uint `gorm:"index;index:idx_post_like_unique,unique"`
	UserID uint `gorm:"index:idx_post_like_unique,unique"`
}

// TableName 은 공감 유일 인덱스 대상 테이블명을 고정한다.
func (PostLike) TableName() string {
	return "post_likes"
}
