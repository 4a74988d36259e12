package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Akxssh/property-salahe/internal/config"
	"github.com/Akxssh/property-salahe/internal/models"
	"github.com/Akxssh/property-salahe/internal/services"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// PageUploadHandler renders the upload form, its live preview and the submission.
type PageUploadHandler struct {
	svc services.IPropertyService
	cfg *config.Config
}

// NewPageUploadHandler creates a new PageUploadHandler.
func NewPageUploadHandler(svc services.IPropertyService, cfg *config.Config) *PageUploadHandler {
	return &PageUploadHandler{svc: svc, cfg: cfg}
}

func (h *PageUploadHandler) maxBytes() int64 {
	return int64(h.cfg.UploadMaxSizeMB) * 1024 * 1024
}

func (h *PageUploadHandler) view(c *gin.Context, form services.UploadForm) UploadView {
	return UploadView{
		Page:         newPage(c, h.cfg.AppName, "Upload"),
		Form:         form,
		FinanceTypes: models.FinanceTypes,
		Preview:      form.Preview(),
	}
}

// UploadForm handles GET /upload.
func (h *PageUploadHandler) UploadForm(c *gin.Context) {
	c.HTML(http.StatusOK, "upload", h.view(c, services.NewUploadForm()))
}

// bindForm reads the multipart form over the page defaults.
func (h *PageUploadHandler) bindForm(c *gin.Context) (services.UploadForm, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes()+1024*1024)
	form := services.NewUploadForm()
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return form, fmt.Errorf("Upload is too large (max %d MB).", h.cfg.UploadMaxSizeMB)
		}
		return form, errors.New("Invalid request format")
	}
	return form, nil
}

// imageFile returns the picked image, or nil when none was attached.
func imageFile(c *gin.Context) (*multipart.FileHeader, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	return fh, err
}

// Upload handles POST /upload.
func (h *PageUploadHandler) Upload(c *gin.Context) {
	form, err := h.bindForm(c)
	if err != nil {
		view := h.view(c, form)
		view.Error = err.Error()
		c.HTML(http.StatusBadRequest, "upload", view)
		return
	}

	var image *services.ImageFile
	fh, err := imageFile(c)
	if err != nil {
		view := h.view(c, form)
		view.Error = "Invalid image upload"
		c.HTML(http.StatusBadRequest, "upload", view)
		return
	}
	if fh != nil {
		if fh.Size > h.maxBytes() {
			view := h.view(c, form)
			view.Error = fmt.Sprintf("Image is too large (max %d MB).", h.cfg.UploadMaxSizeMB)
			c.HTML(http.StatusRequestEntityTooLarge, "upload", view)
			return
		}
		file, err := fh.Open()
		if err != nil {
			utils.Logger.WithError(err).Error("Upload: opening image part failed")
			view := h.view(c, form)
			view.Error = "Invalid image upload"
			c.HTML(http.StatusBadRequest, "upload", view)
			return
		}
		defer file.Close()
		image = &services.ImageFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        file,
		}
	}

	created, err := h.svc.Create(c.Request.Context(), form, image)
	if err != nil {
		view := h.view(c, form)
		view.Error = err.Error()
		c.HTML(formErrorStatus(err), "upload", view)
		return
	}

	view := h.view(c, services.NewUploadForm())
	view.Created = created
	c.HTML(http.StatusCreated, "upload", view)
}

// Preview handles POST /upload/preview: the listing card the form would produce,
// rendered without saving anything.
func (h *PageUploadHandler) Preview(c *gin.Context) {
	form, err := h.bindForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	preview := form.Preview()

	if fh, err := imageFile(c); err == nil && fh != nil && fh.Size <= h.maxBytes() {
		if src, err := dataURL(fh); err == nil {
			preview.ImageURL = models.Ptr(src)
		}
	}
	c.HTML(http.StatusOK, "preview", preview)
}

// dataURL inlines an image part so the preview can show it before upload.
func dataURL(fh *multipart.FileHeader) (string, error) {
	image := services.ImageFile{ContentType: fh.Header.Get("Content-Type")}
	if !image.IsImage() {
		return "", errors.New("not an image")
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return "data:" + image.ContentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
