package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/fazamuttaqien/lendora/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// JSONRequest builds a request with body encoded as JSON. A non-empty
// csrfToken is sent in the X-CSRF-Token header.
func JSONRequest(t testing.TB, method, url string, body any, csrfToken string, cookies ...*http.Cookie) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if csrfToken != "" {
		req.Header.Set("X-CSRF-Token", csrfToken)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// FormFile is one file part of a multipart request.
type FormFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// MultipartRequest builds a POST with the given fields and files keyed by
// form field name.
func MultipartRequest(t testing.TB, url string, fields map[string]string, files map[string]FormFile) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	for key, val := range fields {
		require.NoError(t, writer.WriteField(key, val))
	}

	for key, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+key+`"; filename="`+file.Name+`"`)
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		require.NoError(t, err)

		content := file.Content
		if content == nil {
			content = []byte("dummy content")
		}
		_, err = part.Write(content)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// Token signs an HS256 session token for the given user.
func Token(t testing.TB, secret string, userID uint64, role domain.Role) string {
	t.Helper()

	claims := &domain.JwtCustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// Decode reads a JSON response body into v and closes it.
func Decode(t testing.TB, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}
