package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/voyagr/travelstory/internal/blob"
	"github.com/voyagr/travelstory/internal/http/handlers"
)

func newImagesRouter(blobs blob.Store) *gin.Engine {
	h := handlers.NewImagesHandler(blobs)

	r := gin.New()
	r.POST("/image-upload", h.Upload)
	r.DELETE("/delete-image", h.Delete)

	return r
}

func multipartImage(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	return &buf, mw.FormDataContentType()
}

func TestImageUpload(t *testing.T) {
	pixels := []byte("\x89PNG\r\n\x1a\nfakepixels")

	tests := []struct {
		name           string
		field          string
		data           []byte
		storeFn        func(ctx context.Context, data []byte, name string) (string, error)
		wantStatusCode int
	}{
		{
			name:  "success",
			field: "image",
			data:  pixels,
			storeFn: func(ctx context.Context, data []byte, name string) (string, error) {
				return "http://localhost:8000/uploads/abc.png", nil
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing_file_field",
			field:          "attachment",
			data:           pixels,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:  "non_image_rejected",
			field: "image",
			data:  []byte("%PDF-1.4 not a picture"),
			storeFn: func(ctx context.Context, data []byte, name string) (string, error) {
				return "", blob.ErrUnsupportedType
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			blobs := &fakeBlobStore{storeFn: tt.storeFn}
			r := newImagesRouter(blobs)

			body, contentType := multipartImage(t, tt.field, "photo.png", tt.data)

			req := httptest.NewRequest(http.MethodPost, "/image-upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				var resp struct {
					ImageURL string `json:"imageUrl"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("bad body: %v", err)
				}
				if resp.ImageURL == "" {
					t.Errorf("imageUrl missing from response")
				}
			}
		})
	}
}

func TestDeleteImage(t *testing.T) {
	blobs := &fakeBlobStore{}
	r := newImagesRouter(blobs)

	w := doJSON(r, http.MethodDelete, "/delete-image?imageUrl=http://localhost:8000/uploads/abc.png", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if len(blobs.deleted) != 1 {
		t.Fatalf("blob delete calls = %v", blobs.deleted)
	}
}

func TestDeleteImageMissingParam(t *testing.T) {
	blobs := &fakeBlobStore{}
	r := newImagesRouter(blobs)

	w := doJSON(r, http.MethodDelete, "/delete-image", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
	}
	if len(blobs.deleted) != 0 {
		t.Errorf("delete must not be attempted without a target, got %v", blobs.deleted)
	}
}

// deleting the same asset twice stays a 200; the second call is a no-op
func TestDeleteImageIsIdempotentAtTheAPI(t *testing.T) {
	blobs := &fakeBlobStore{}
	r := newImagesRouter(blobs)

	for i := 0; i < 2; i++ {
		w := doJSON(r, http.MethodDelete, "/delete-image?imageUrl=http://localhost:8000/uploads/abc.png", "")
		if w.Code != http.StatusOK {
			t.Fatalf("call %d: got status %d, body=%s", i, w.Code, w.Body.String())
		}
	}
}
