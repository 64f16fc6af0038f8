package upload

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

// fakeTarget points strategies at a test server.
type fakeTarget struct {
	endpoint string
}

func (f *fakeTarget) StorageEndpoint() string { return f.endpoint }
func (f *fakeTarget) AccessToken() string     { return "user-token" }
func (f *fakeTarget) APIKey() string          { return "anon-key" }
func (f *fakeTarget) GetPublicURL(bucket, path string) string {
	return f.endpoint + "/object/public/" + bucket + "/" + path
}

func storageServer(t *testing.T, capture func(r *http.Request, body []byte)) *fakeTarget {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		capture(r, body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return &fakeTarget{endpoint: srv.URL}
}

func TestMultipartStrategy_PostsFormFileWithAuthHeaders(t *testing.T) {
	var gotReq *http.Request
	var gotBody []byte
	target := storageServer(t, func(r *http.Request, body []byte) {
		gotReq = r.Clone(context.Background())
		gotBody = body
	})

	s := NewMultipartStrategy(target)
	url, err := s.Upload(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, target.GetPublicURL("posts", "images/a.jpg"), url)

	require.Equal(t, "/object/posts/images/a.jpg", gotReq.URL.Path)
	require.Equal(t, "anon-key", gotReq.Header.Get("apikey"))
	require.Equal(t, "Bearer user-token", gotReq.Header.Get("Authorization"))

	mediaType, params, err := mime.ParseMediaType(gotReq.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)
	require.NotEmpty(t, params["boundary"])
	require.Contains(t, string(gotBody), `name="file"`)
	require.Contains(t, string(gotBody), "jpeg")
}

func TestBase64Strategy_BytesSurviveRoundTrip(t *testing.T) {
	var gotBody []byte
	var gotType string
	target := storageServer(t, func(r *http.Request, body []byte) {
		gotBody = body
		gotType = r.Header.Get("Content-Type")
	})

	s := NewBase64Strategy(target)
	url, err := s.Upload(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, target.GetPublicURL("posts", "images/a.jpg"), url)
	require.Equal(t, []byte("jpeg"), gotBody, "the round-trip must be lossless")
	require.Equal(t, "image/jpeg", gotType)
}

func TestStrategies_GatewayErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"mime type not supported"}`))
	}))
	t.Cleanup(srv.Close)
	target := &fakeTarget{endpoint: srv.URL}

	_, err := NewMultipartStrategy(target).Upload(context.Background(), testRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "mime type not supported")

	_, err = NewBase64Strategy(target).Upload(context.Background(), testRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}

func TestS3Strategy_PutsObjectAgainstConfiguredEndpoint(t *testing.T) {
	var gotReq *http.Request
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotReq = r.Clone(context.Background())
		gotBody = body
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	s := NewS3Strategy(S3Config{
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		AccessKey: "ak",
		SecretKey: "sk",
	}, func(bucket, path string) string { return "http://cdn/" + bucket + "/" + path })

	url, err := s.Upload(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, "http://cdn/posts/images/a.jpg", url)

	// Path-style addressing keeps the bucket in the path.
	require.Equal(t, http.MethodPut, gotReq.Method)
	require.True(t, strings.HasPrefix(gotReq.URL.Path, "/posts/images/a.jpg"))
	require.Contains(t, gotReq.Header.Get("Authorization"), "ak")
	// The SDK may wrap the payload in aws-chunked framing; the bytes are in
	// there either way.
	require.Contains(t, string(gotBody), "jpeg")
}

func TestS3Strategy_ConfigLoadFailure(t *testing.T) {
	s := NewS3Strategy(S3Config{Endpoint: "http://127.0.0.1:1", Region: "r"}, func(bucket, path string) string { return "" })
	s.loadConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, context.DeadlineExceeded
	}
	s.newClient = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		t.Fatal("client must not be built when config loading fails")
		return nil
	}

	_, err := s.Upload(context.Background(), testRequest())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
