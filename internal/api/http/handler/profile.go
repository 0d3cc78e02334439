package handler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dtroode/gophchat-server/internal/apierror"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

// ProfileService defines account profile operations.
type ProfileService interface {
	Get(ctx context.Context, accountID uuid.UUID) (model.Account, error)
	UploadAvatar(ctx context.Context, accountID uuid.UUID, contentType string, size int64, reader io.Reader) (string, error)
	DownloadAvatar(ctx context.Context, accountID uuid.UUID) (io.ReadCloser, error)
}

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

type accountResponse struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile handles endpoints of the authenticated account.
type Profile struct {
	profile        ProfileService
	contextManager model.ContextManager
	maxAvatarBytes int64
	logger         *logger.Logger
}

func NewProfile(profile ProfileService, contextManager model.ContextManager, maxAvatarBytes int64, logger *logger.Logger) *Profile {
	return &Profile{
		profile:        profile,
		contextManager: contextManager,
		maxAvatarBytes: maxAvatarBytes,
		logger:         logger,
	}
}

func (h *Profile) identity(c *gin.Context) (model.Identity, bool) {
	identity, ok := h.contextManager.GetIdentityFromContext(c.Request.Context())
	if !ok {
		handleError(c, apierror.NewErrInvalidAuthorizationToken())
	}
	return identity, ok
}

func (h *Profile) Me(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	account, err := h.profile.Get(c.Request.Context(), identity.AccountID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"account": accountResponse{
			ID:           account.ID,
			Email:        account.Email,
			Name:         account.Name,
			ProfileImage: account.ProfileImage,
			CreatedAt:    account.CreatedAt,
		},
	})
}

// UploadAvatar reads the raw image body. One byte past the limit is read so
// oversized uploads are rejected by size rather than truncated.
func (h *Profile) UploadAvatar(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxAvatarBytes+1))
	if err != nil {
		h.logger.Debug("Profile handler: failed to read avatar body",
			"account_id", identity.AccountID,
			"error", err.Error())
		handleError(c, apierror.NewErrValidation("invalid request body"))
		return
	}

	// The declared Content-Type is ignored; only the sniffed type of the bytes counts.
	contentType := http.DetectContentType(data)
	if !model.IsAvatarContentType(contentType) {
		h.logger.Debug("Profile handler: rejected avatar body",
			"account_id", identity.AccountID,
			"declared", c.GetHeader("Content-Type"),
			"detected", contentType)
		handleError(c, apierror.NewErrValidation("unsupported image type"))
		return
	}

	key, err := h.profile.UploadAvatar(c.Request.Context(), identity.AccountID, contentType, int64(len(data)), bytes.NewReader(data))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "profile_image": key})
}

func (h *Profile) DownloadAvatar(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	rc, err := h.profile.DownloadAvatar(c.Request.Context(), identity.AccountID)
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("Profile handler: failed to read avatar",
			"account_id", identity.AccountID,
			"error", err.Error())
		handleError(c, apierror.NewErrInternalServerError(err))
		return
	}

	contentType := http.DetectContentType(head)
	if !model.IsAvatarContentType(contentType) {
		contentType = "application/octet-stream"
	}

	c.Header("X-Content-Type-Options", "nosniff")
	c.DataFromReader(http.StatusOK, -1, contentType, br, nil)
}
