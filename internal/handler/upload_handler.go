package handler

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// 썸네일 최대 변 길이. 프로필·게시글 목록에서 쓰인다.
const thumbnailMaxSize = 320

// UploadImage 는 이미지를 저장하고 썸네일을 함께 생성한다.
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "업로드할 이미지를 찾을 수 없습니다")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "이미지 파일만 업로드할 수 있습니다")
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0755); err != nil {
		respondError(c, http.StatusInternalServerError, "업로드 디렉터리 생성에 실패했습니다")
		return
	}

	ext := filepath.Ext(file.Filename)
	baseName := fmt.Sprintf("%s-%s", time.Now().Format("20060102"), uuid.New().String())
	fileName := baseName + ext
	filePath := filepath.Join(a.uploadDir, fileName)

	if err := c.SaveUploadedFile(file, filePath); err != nil {
		respondError(c, http.StatusInternalServerError, "파일 저장에 실패했습니다")
		return
	}

	fileURL := fmt.Sprintf("%s/%s", strings.TrimRight(a.uploadURL, "/"), fileName)
	response := gin.H{"url": fileURL}

	// 썸네일 생성 실패는 업로드 자체를 막지 않는다.
	if thumbName, err := writeThumbnail(filePath, a.uploadDir, baseName); err == nil {
		response["thumbnailUrl"] = fmt.Sprintf("%s/%s", strings.TrimRight(a.uploadURL, "/"), thumbName)
	}

	c.JSON(http.StatusOK, response)
}

// writeThumbnail 은 원본을 비율 유지 축소해 JPEG 썸네일로 저장한다.
func writeThumbnail(srcPath, uploadDir, baseName string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= thumbnailMaxSize && height <= thumbnailMaxSize {
		// 이미 작은 이미지는 그대로 쓴다.
		return "", fmt.Errorf("image smaller than thumbnail size")
	}

	scale := float64(thumbnailMaxSize) / float64(width)
	if height > width {
		scale = float64(thumbnailMaxSize) / float64(height)
	}
	targetWidth := int(float64(width) * scale)
	targetHeight := int(float64(height) * scale)
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	thumbnail := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(thumbnail, thumbnail.Bounds(), img, bounds, draw.Over, nil)

	thumbName := baseName + "_thumb.jpg"
	out, err := os.Create(filepath.Join(uploadDir, thumbName))
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumbnail, &jpeg.Options{Quality: 85}); err != nil {
		return "", err
	}
	return thumbName, nil
}
