package s3store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conf "github.com/ravishrisanjay/AWS-serverless-processor/internal/config"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/entities"
	ierr "github.com/ravishrisanjay/AWS-serverless-processor/internal/errors"
)

func newTestStorage(t *testing.T, endpoint string) *S3 {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")

	s, err := NewStorage(context.Background(), &conf.StorageConfig{
		Region:       "us-east-1",
		Endpoint:     endpoint,
		UsePathStyle: true,
		AccessKeyID:  "AKIDEXAMPLE",
		SecretKey:    "secret",
	})
	require.NoError(t, err)
	return s
}

func TestDownloadReadsBodyAndMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ssking-in/photo.png" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("X-Amz-Meta-Resize", "1000")
		_, _ = io.WriteString(w, "pngbytes")
	}))
	defer srv.Close()

	s := newTestStorage(t, srv.URL)

	obj, err := s.Download(context.Background(), entities.Location{Bucket: "ssking-in", Key: "photo.png"})
	require.NoError(t, err)

	assert.Equal(t, []byte("pngbytes"), obj.Body)
	assert.Equal(t, "image/png", obj.ContentType)

	var resize string
	for k, v := range obj.Metadata {
		if strings.EqualFold(k, "resize") {
			resize = v
		}
	}
	assert.Equal(t, "1000", resize)

	_, err = s.Download(context.Background(), entities.Location{Bucket: "ssking-in", Key: "gone.png"})
	require.Error(t, err)
	assert.True(t, ierr.Is(err, ierr.ErrFetch))
}

func TestUploadPutsObject(t *testing.T) {
	var gotPath, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotType = r.URL.Path, r.Header.Get("Content-Type")
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestStorage(t, srv.URL)

	err := s.Upload(context.Background(), entities.OutputArtifact{
		Destination: entities.Location{Bucket: "ssking-out", Key: "report.zip"},
		Body:        []byte("PK..."),
		ContentType: "application/zip",
	})
	require.NoError(t, err)
	assert.Equal(t, "/ssking-out/report.zip", gotPath)
	assert.Equal(t, "application/zip", gotType)
}

func TestPresign(t *testing.T) {
	s := newTestStorage(t, "https://s3.example.test")

	up, err := s.PresignPut(context.Background(),
		entities.Location{Bucket: "ssking-in", Key: "photo.png"},
		"image/png", map[string]string{"resize": "1000"}, 5*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(up)
	require.NoError(t, err)
	assert.Equal(t, "/ssking-in/photo.png", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.Contains(t, u.Query().Get("X-Amz-SignedHeaders"), "content-type")

	down, err := s.PresignGet(context.Background(),
		entities.Location{Bucket: "ssking-out", Key: "photo.jpg"}, time.Hour)
	require.NoError(t, err)

	u, err = url.Parse(down)
	require.NoError(t, err)
	assert.Equal(t, "/ssking-out/photo.jpg", u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
}
