package media

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/config"
)

func TestObjectKey(t *testing.T) {
	k := ObjectKey("u1", "../holiday.JPG")
	assert.True(t, strings.HasPrefix(k, "u1/"))
	assert.True(t, strings.HasSuffix(k, ".jpg"))
	assert.NotContains(t, k, "..")
	assert.NotEqual(t, k, ObjectKey("u1", "holiday.jpg"))
}

func TestDisabledStore(t *testing.T) {
	s, err := New(config.MediaConfig{})
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), "u1", "a.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = s.PresignUpload(context.Background(), "u1", "a.png")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.NoError(t, EnsureBucket(context.Background(), s))
}

func TestPresignUpload(t *testing.T) {
	s, err := New(config.MediaConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "media",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	// presigning is computed locally and needs no server
	d, err := s.PresignUpload(context.Background(), "u1", "clip.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.Key, "u1/"))
	assert.Contains(t, d.URL, "X-Amz-Signature")
	assert.False(t, d.Expires.IsZero())
}
