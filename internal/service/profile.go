package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/dtroode/gophchat-server/internal/apierror"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

const avatarKeyPrefix = "avatars/"

// Profile serves the authenticated account and its avatar.
type Profile struct {
	accountStore   model.AccountStore
	storage        model.Storage
	maxAvatarBytes int64
	logger         *logger.Logger
}

func NewProfile(accountStore model.AccountStore, storage model.Storage, maxAvatarBytes int64, logger *logger.Logger) *Profile {
	return &Profile{
		accountStore:   accountStore,
		storage:        storage,
		maxAvatarBytes: maxAvatarBytes,
		logger:         logger,
	}
}

func AvatarKey(accountID uuid.UUID) string {
	return avatarKeyPrefix + accountID.String()
}

func (p *Profile) Get(ctx context.Context, accountID uuid.UUID) (model.Account, error) {
	account, err := p.accountStore.GetByID(ctx, accountID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Account{}, apierror.NewErrNotFound("account")
	}
	if err != nil {
		p.logger.Error("Profile service: failed to get account",
			"account_id", accountID,
			"error", err.Error())
		return model.Account{}, apierror.NewErrInternalServerError(fmt.Errorf("failed to get account: %w", err))
	}
	return account, nil
}

// UploadAvatar stores the image and records its key on the account.
func (p *Profile) UploadAvatar(ctx context.Context, accountID uuid.UUID, contentType string, size int64, reader io.Reader) (string, error) {
	if !model.IsAvatarContentType(contentType) {
		return "", apierror.NewErrValidation("unsupported image type")
	}
	if size <= 0 || size > p.maxAvatarBytes {
		return "", apierror.NewErrValidation(fmt.Sprintf("image must be between 1 and %d bytes", p.maxAvatarBytes))
	}

	key := AvatarKey(accountID)
	if err := p.storage.Upload(ctx, key, reader, size, contentType); err != nil {
		p.logger.Error("Profile service: failed to upload avatar",
			"account_id", accountID,
			"error", err.Error())
		return "", apierror.NewErrInternalServerError(fmt.Errorf("failed to upload avatar: %w", err))
	}

	if err := p.accountStore.SetProfileImage(ctx, accountID, key); err != nil {
		p.logger.Error("Profile service: failed to set profile image",
			"account_id", accountID,
			"error", err.Error())
		if delErr := p.storage.Delete(ctx, key); delErr != nil {
			p.logger.Error("Profile service: failed to delete orphaned avatar",
				"account_id", accountID,
				"error", delErr.Error())
		}
		return "", apierror.NewErrInternalServerError(fmt.Errorf("failed to set profile image: %w", err))
	}

	p.logger.Info("Profile service: avatar uploaded",
		"account_id", accountID,
		"size", size)

	return key, nil
}

func (p *Profile) DownloadAvatar(ctx context.Context, accountID uuid.UUID) (io.ReadCloser, error) {
	account, err := p.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.ProfileImage == "" {
		return nil, apierror.NewErrNotFound("avatar")
	}

	reader, err := p.storage.Download(ctx, account.ProfileImage)
	if errors.Is(err, model.ErrNotFound) {
		return nil, apierror.NewErrNotFound("avatar")
	}
	if err != nil {
		p.logger.Error("Profile service: failed to download avatar",
			"account_id", accountID,
			"error", err.Error())
		return nil, apierror.NewErrInternalServerError(fmt.Errorf("failed to download avatar: %w", err))
	}
	return reader, nil
}
