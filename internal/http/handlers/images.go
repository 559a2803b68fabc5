package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voyagr/travelstory/internal/blob"
)

type ImagesHandler struct {
	blobs blob.Store
}

func NewImagesHandler(blobs blob.Store) *ImagesHandler {
	return &ImagesHandler{blobs: blobs}
}

// Upload stores a multipart image and returns its public URL. Upload and
// story creation are independent requests; nothing here ties the asset to a
// record yet.
// POST /image-upload
func (h *ImagesHandler) Upload(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("image")

	if err != nil {
		RespondBadRequest(ctx, "No image uploaded", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)

	if err != nil {
		RespondInternal(ctx, "Could not read upload")
		return
	}

	imageURL, err := h.blobs.Store(ctx.Request.Context(), data, header.Filename)

	if err != nil {
		if errors.Is(err, blob.ErrUnsupportedType) {
			RespondBadRequest(ctx, "Only images are allowed", nil)
			return
		}

		RespondInternal(ctx, err.Error())
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"imageUrl": imageURL})
}

// Delete removes an uploaded asset by its URL. Deleting something that is
// already gone still answers 200; cleanup is advisory.
// DELETE /delete-image?imageUrl=
func (h *ImagesHandler) Delete(ctx *gin.Context) {
	imageURL := ctx.Query("imageUrl")

	if imageURL == "" {
		RespondBadRequest(ctx, "imageUrl parameter is required", nil)
		return
	}

	h.blobs.Delete(ctx.Request.Context(), imageURL)

	ctx.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}
