package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/config"
)

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		in      string
		bucket  string
		key     string
		wantErr bool
	}{
		{in: "s3://bucket/a/b.xml", bucket: "bucket", key: "a/b.xml"},
		{in: "s3://bucket/x", bucket: "bucket", key: "x"},
		{in: "s3://bucket", wantErr: true},
		{in: "s3://bucket/", wantErr: true},
		{in: "s3:///key", wantErr: true},
		{in: "/tmp/file.json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestJoinAndBase(t *testing.T) {
	assert.Equal(t, "s3://b/out/x.xml", Join("s3://b/out/", "x.xml"))
	assert.Equal(t, "s3://b/out/x.xml", Join("s3://b/out", "x.xml"))
	assert.Equal(t, filepath.Join("out", "x.xml"), Join("out", "x.xml"))

	assert.Equal(t, "x.xml", Base("s3://b/out/x.xml"))
	assert.Equal(t, "r.json", Base(filepath.Join("in", "r.json")))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/xml", contentType("a/b.XML"))
	assert.Equal(t, "application/json", contentType("b.json"))
	assert.Contains(t, contentType("c.xlsx"), "spreadsheetml")
	assert.Equal(t, "application/octet-stream", contentType("d"))
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore()
	target := filepath.Join(dir, "nested", "out.xml")

	require.NoError(t, store.Write(ctx, target, []byte("first")))
	require.NoError(t, store.Write(ctx, target, []byte("second")))

	data, err := store.Read(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, store.Delete(ctx, target))
	assert.NoFileExists(t, target)
	require.NoError(t, store.Delete(ctx, target), "deleting a missing file is not an error")

	_, err = store.Read(ctx, target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalStore_WriteFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	// A directory occupies the target name, so the rename fails.
	target := filepath.Join(dir, "taken")
	require.NoError(t, os.Mkdir(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, 0644))

	err := NewLocalStore().Write(context.Background(), target, []byte("x"))
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &manager.UploadOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := &S3Store{client: fake, uploader: fake}

	require.NoError(t, store.Write(ctx, "s3://bucket/out/m.xml", []byte("<ENVELOPE/>")))
	assert.Equal(t, "application/xml", fake.types["bucket/out/m.xml"])

	data, err := store.Read(ctx, "s3://bucket/out/m.xml")
	require.NoError(t, err)
	assert.Equal(t, "<ENVELOPE/>", string(data))

	require.NoError(t, store.Delete(ctx, "s3://bucket/out/m.xml"))
	_, err = store.Read(ctx, "s3://bucket/out/m.xml")
	require.Error(t, err)

	require.Error(t, store.Write(ctx, "s3://bucket", nil))
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	builds := 0

	r := NewRouter(config.S3Config{Region: "ap-south-1"})
	r.newS3 = func(context.Context, config.S3Config) (Store, error) {
		builds++
		return &S3Store{client: fake, uploader: fake}, nil
	}

	local := filepath.Join(t.TempDir(), "a.json")
	require.NoError(t, r.Write(ctx, local, []byte("{}")))
	assert.Equal(t, 0, builds, "local writes never build the S3 client")
	assert.FileExists(t, local)

	require.NoError(t, r.Write(ctx, "s3://b/k1", []byte("1")))
	require.NoError(t, r.Write(ctx, "s3://b/k2", []byte("2")))
	assert.Equal(t, 1, builds)

	data, err := r.Read(ctx, "s3://b/k2")
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))

	require.NoError(t, r.Delete(ctx, "s3://b/k1"))
	require.NoError(t, r.Delete(ctx, local))
	assert.NoFileExists(t, local)
}

func TestRouter_S3BuildError(t *testing.T) {
	r := NewRouter(config.S3Config{})
	r.newS3 = func(context.Context, config.S3Config) (Store, error) {
		return nil, errors.New("no credentials")
	}

	_, err := r.Read(context.Background(), "s3://b/k")
	require.EqualError(t, err, "no credentials")
}
