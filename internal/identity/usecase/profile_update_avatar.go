package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/jwt"
	"github.com/nursyahid/leadpipe/internal/pkg/storage"
)

//nolint:gochecknoglobals // global for fast reuse
var avatarContentTypeExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var errAvatarTooLarge = errors.New("avatar exceeds max size")

type ProfileUpdateAvatarInput struct {
	File        io.Reader
	ContentType string
}

func (s *Usecase) ProfileUpdateAvatar(ctx context.Context, in ProfileUpdateAvatarInput) error {
	ctx, span := s.startSpan(ctx, "ProfileUpdateAvatar")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	if in.File == nil {
		return goerror.NewInvalidInput(nil, "avatar", "avatar file is required")
	}

	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	ext, ok := avatarContentTypeExt[contentType]
	if !ok {
		return goerror.NewInvalidInput(nil, "avatar", "unsupported avatar content type")
	}

	bucket := strings.TrimSpace(s.cfg.GetString("modules.identity.avatar_bucket"))
	baseURL := strings.TrimSpace(s.cfg.GetString("modules.identity.avatar_base_url"))
	key := fmt.Sprintf("%d/%s%s", clm.UserID, s.uuid.Generate(), ext)

	reader := &maxBytesReader{
		r:   in.File,
		max: s.cfg.GetInt64("modules.identity.avatar_max_size_bytes"),
	}
	if _, err := s.storage.Put(ctx, bucket, key, reader, storage.PutOptions{
		Size:        -1,
		ContentType: contentType,
		Metadata:    map[string]string{"user_id": strconv.FormatInt(clm.UserID, 10)},
	}); err != nil {
		if errors.Is(err, errAvatarTooLarge) {
			return goerror.NewInvalidInput(errAvatarTooLarge)
		}
		slog.ErrorContext(ctx, "failed to upload user avatar", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	avatarURL := baseURL + "/" + key
	if err := s.repoDB.UpdateUserAvatar(ctx, clm.UserID, avatarURL); err != nil {
		slog.ErrorContext(ctx, "failed to repo update user avatar", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// maxBytesReader errors once more than max bytes are read, so oversized
// uploads abort mid-stream instead of filling the bucket.
type maxBytesReader struct {
	r    io.Reader
	max  int64
	read int64
}

func (m *maxBytesReader) Read(p []byte) (int, error) {
	if m.read > m.max {
		return 0, errAvatarTooLarge
	}

	n, err := m.r.Read(p)
	m.read += int64(n)
	if m.read > m.max {
		return 0, errAvatarTooLarge
	}
	return n, err
}
