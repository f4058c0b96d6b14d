package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verifydesk/cli/internal/models"
	"github.com/verifydesk/cli/internal/utils"
)

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantToken  string
		wantStatus int
	}{
		{name: "token issued", status: http.StatusOK, body: `{"key":"abc"}`, wantToken: "abc"},
		{name: "rejected", status: http.StatusBadRequest, body: `{"detail":"bad credentials"}`, wantStatus: http.StatusBadRequest},
		{name: "no token", status: http.StatusOK, body: `{}`, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.LoginRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/login/", r.URL.Path)
				assert.Empty(t, r.Header.Get("Authorization"))
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL+"/", WithTokenSource(StaticToken("stale")))
			token, err := client.Login(context.Background(), "alice", "pw")

			assert.Equal(t, models.LoginRequest{Username: "alice", Password: "pw"}, got)
			if tt.wantStatus == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				return
			}
			var apiErr *utils.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
		})
	}
}

func TestCreateApplicant(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/applicants/", r.URL.Path)
		assert.Equal(t, "token abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "sub-1", r.Header.Get(RequestIDHeader))
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"c-7","name":"Jane Doe"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithTokenSource(StaticToken("abc")))
	ctx := WithRequestID(context.Background(), "sub-1")
	id, err := client.CreateApplicant(ctx, models.BasicInfo{Name: "Jane Doe", DateOfBirth: "1990-04-01"})

	require.NoError(t, err)
	assert.Equal(t, "c-7", id)
	assert.Equal(t, "Jane Doe", body["name"])
	assert.Equal(t, "1990-04-01", body["date_of_birth"])
}

func TestCreateApplicantWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"name":"Jane"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateApplicant(context.Background(), models.BasicInfo{})
	assert.ErrorContains(t, err, "no id")
}

func TestUploadVerification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/applicants/42/academic/", r.URL.Path)
		assert.Equal(t, "token abc", r.Header.Get("Authorization"))

		mr, err := r.MultipartReader()
		if !assert.NoError(t, err) {
			return
		}
		var order []string
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if !assert.NoError(t, err) {
				return
			}
			data, _ := io.ReadAll(part)
			order = append(order, part.FormName())
			switch part.FormName() {
			case "document":
				assert.Equal(t, "diploma.pdf", part.FileName())
				assert.Equal(t, "%PDF", string(data))
			case "degree":
				assert.Equal(t, "BSc", string(data))
			}
		}
		assert.Equal(t, []string{"document", "degree", "institution"}, order)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithTokenSource(StaticToken("abc")))
	err := client.UploadVerification(context.Background(), "42", "academic",
		[]models.FormField{{Name: "degree", Value: "BSc"}, {Name: "institution", Value: ""}},
		models.BytesAttachment{Filename: "diploma.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
}

func TestUploadVerificationNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).UploadVerification(context.Background(), "1", "credit", nil, nil)
	var apiErr *utils.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusRequestEntityTooLarge, apiErr.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusRequestEntityTooLarge), apiErr.Code)
}

func TestTokenSourceReadPerRequest(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tokens := &switchableToken{value: "one"}
	client := NewClient(srv.URL, WithTokenSource(tokens))

	require.NoError(t, client.UploadVerification(context.Background(), "1", "credit", nil, nil))
	tokens.value = ""
	require.NoError(t, client.UploadVerification(context.Background(), "1", "credit", nil, nil))

	assert.Equal(t, []string{"token one", ""}, seen)
}

type switchableToken struct{ value string }

func (s *switchableToken) Token() string { return s.value }

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithTimeout(20*time.Millisecond))
	_, err := client.Login(context.Background(), "a", "b")
	assert.Error(t, err)
}

func TestRequestIDFromContext(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := RequestIDFromContext(WithRequestID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}
