package handler

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	httpctx "github.com/dtroode/gophchat-server/internal/api/http/context"
	"github.com/dtroode/gophchat-server/internal/apierror"
	"github.com/dtroode/gophchat-server/internal/mocks"
	"github.com/dtroode/gophchat-server/internal/model"
	"github.com/dtroode/gophchat-server/internal/testutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func authedContext(method string, body io.Reader, identity model.Identity) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, "/", body)
	c.Request = req.WithContext(httpctx.NewManager().SetIdentityToContext(req.Context(), identity))
	return c, w
}

func TestProfile_Me(t *testing.T) {
	t.Parallel()

	svc := mocks.NewProfileService(t)
	h := NewProfile(svc, httpctx.NewManager(), 16, testutil.MakeNoopLogger())
	identity := model.Identity{AccountID: uuid.New()}
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	svc.On("Get", mock.Anything, identity.AccountID).Return(model.Account{
		ID:           identity.AccountID,
		Email:        "a@x.com",
		PasswordHash: "secret-hash",
		CreatedAt:    created,
	}, nil)

	c, w := authedContext(http.MethodGet, nil, identity)
	h.Me(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-hash")
	assert.JSONEq(t, `{"success":true,"account":{"id":"`+identity.AccountID.String()+`","email":"a@x.com","created_at":"2026-01-01T00:00:00Z"}}`, w.Body.String())
}

func TestProfile_UploadAvatar(t *testing.T) {
	t.Parallel()

	svc := mocks.NewProfileService(t)
	h := NewProfile(svc, httpctx.NewManager(), 16, testutil.MakeNoopLogger())
	identity := model.Identity{AccountID: uuid.New()}
	key := "avatars/" + identity.AccountID.String()

	svc.On("UploadAvatar", mock.Anything, identity.AccountID, "image/png", int64(len(pngHeader)), mock.Anything).Return(key, nil)

	c, w := authedContext(http.MethodPut, bytes.NewReader(pngHeader), identity)
	c.Request.Header.Set("Content-Type", "image/png")
	h.UploadAvatar(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"profile_image":"`+key+`"}`, w.Body.String())
}

func TestProfile_UploadAvatar_SniffsOctetStream(t *testing.T) {
	t.Parallel()

	svc := mocks.NewProfileService(t)
	h := NewProfile(svc, httpctx.NewManager(), 16, testutil.MakeNoopLogger())
	identity := model.Identity{AccountID: uuid.New()}

	svc.On("UploadAvatar", mock.Anything, identity.AccountID, "image/png", mock.Anything, mock.Anything).Return("k", nil)

	c, w := authedContext(http.MethodPut, bytes.NewReader(pngHeader), identity)
	c.Request.Header.Set("Content-Type", "application/octet-stream")
	h.UploadAvatar(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfile_UploadAvatar_TooLarge(t *testing.T) {
	t.Parallel()

	svc := mocks.NewProfileService(t)
	h := NewProfile(svc, httpctx.NewManager(), 16, testutil.MakeNoopLogger())
	identity := model.Identity{AccountID: uuid.New()}

	svc.On("UploadAvatar", mock.Anything, identity.AccountID, "image/png", int64(17), mock.Anything).
		Return("", apierror.NewErrValidation("image must be between 1 and 16 bytes"))

	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte("x"), 100)...)
	c, w := authedContext(http.MethodPut, bytes.NewReader(body), identity)
	c.Request.Header.Set("Content-Type", "image/png")
	h.UploadAvatar(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfile_UploadAvatar_RejectsMislabeledBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		declared string
	}{
		{name: "html declared as png", body: "<html><script>alert(1)</script></html>", declared: "image/png"},
		{name: "svg declared as png", body: `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`, declared: "image/png"},
		{name: "text declared as jpeg", body: "plain text", declared: "image/jpeg"},
		{name: "empty body", body: "", declared: "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := mocks.NewProfileService(t)
			h := NewProfile(svc, httpctx.NewManager(), 1024, testutil.MakeNoopLogger())

			c, w := authedContext(http.MethodPut, strings.NewReader(tt.body), model.Identity{AccountID: uuid.New()})
			c.Request.Header.Set("Content-Type", tt.declared)
			h.UploadAvatar(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"success":false,"error":"unsupported image type"}`, w.Body.String())
			svc.AssertNotCalled(t, "UploadAvatar", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProfile_DownloadAvatar(t *testing.T) {
	t.Parallel()

	svc := mocks.NewProfileService(t)
	h := NewProfile(svc, httpctx.NewManager(), 16, testutil.MakeNoopLogger())
	identity := model.Identity{AccountID: uuid.New()}

	svc.On("DownloadAvatar", mock.Anything, identity.AccountID).Return(io.NopCloser(bytes.NewReader(pngHeader)), nil)

	c, w := authedContext(http.MethodGet, nil, identity)
	h.DownloadAvatar(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, pngHeader, w.Body.Bytes())
}

func TestProfile_DownloadAvatar_NonImageServedAsOctetStream(t *testing.T) {
	t.Parallel()

	svc := mocks.NewProfileService(t)
	h := NewProfile(svc, httpctx.NewManager(), 16, testutil.MakeNoopLogger())
	identity := model.Identity{AccountID: uuid.New()}
	stored := "<html><script>alert(1)</script></html>"

	svc.On("DownloadAvatar", mock.Anything, identity.AccountID).Return(io.NopCloser(strings.NewReader(stored)), nil)

	c, w := authedContext(http.MethodGet, nil, identity)
	h.DownloadAvatar(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, stored, w.Body.String())
}

func TestProfile_DownloadAvatar_NotTruncatedByUploadLimit(t *testing.T) {
	t.Parallel()

	svc := mocks.NewProfileService(t)
	h := NewProfile(svc, httpctx.NewManager(), 16, testutil.MakeNoopLogger())
	identity := model.Identity{AccountID: uuid.New()}
	stored := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x42}, 4096)...)

	svc.On("DownloadAvatar", mock.Anything, identity.AccountID).Return(io.NopCloser(bytes.NewReader(stored)), nil)

	c, w := authedContext(http.MethodGet, nil, identity)
	h.DownloadAvatar(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, stored, w.Body.Bytes())
}

func TestProfile_DownloadAvatar_NotFound(t *testing.T) {
	t.Parallel()

	svc := mocks.NewProfileService(t)
	h := NewProfile(svc, httpctx.NewManager(), 16, testutil.MakeNoopLogger())
	identity := model.Identity{AccountID: uuid.New()}

	svc.On("DownloadAvatar", mock.Anything, identity.AccountID).Return(nil, apierror.NewErrNotFound("avatar"))

	c, w := authedContext(http.MethodGet, nil, identity)
	h.DownloadAvatar(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"avatar not found"}`, w.Body.String())
}
