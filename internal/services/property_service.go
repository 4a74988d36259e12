package services

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Akxssh/property-salahe/internal/backend"
	"github.com/Akxssh/property-salahe/internal/models"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// IPropertyService reads and creates property listings.
type IPropertyService interface {
	// ListAll fetches the full collection, newest first. Every call goes to the
	// backend; nothing is cached between page loads.
	ListAll(ctx context.Context) ([]models.Property, error)
	Create(ctx context.Context, form UploadForm, image *ImageFile) (*models.Property, error)
}

// UploadForm is the upload page's form. Numeric fields stay strings until submit.
type UploadForm struct {
	Title           string `form:"title" json:"title" validate:"max=200"`
	Subtitle        string `form:"subtitle" json:"subtitle"`
	Name            string `form:"name" json:"name"`
	Location        string `form:"location" json:"location"`
	FinanceType     string `form:"finance_type" json:"finance_type"`
	Price           string `form:"price" json:"price"`
	Beds            string `form:"beds" json:"beds"`
	Baths           string `form:"baths" json:"baths"`
	Kitchens        string `form:"kitchens" json:"kitchens"`
	Sqft            string `form:"sqft" json:"sqft"`
	AgentName       string `form:"agent_name" json:"agent_name"`
	AgentPhone      string `form:"agent_phone" json:"agent_phone" validate:"max=32"`
	YoutubeVideoURL string `form:"youtube_video_url" json:"youtube_video_url" validate:"omitempty,url"`
	UseEmbedPlayer  bool   `form:"use_embed_player" json:"use_embed_player"`
	NewListing      bool   `form:"new_listing" json:"new_listing"`
	Trending        bool   `form:"trending" json:"trending"`
}

// NewUploadForm returns the form as first shown: a new listing, not trending.
func NewUploadForm() UploadForm {
	return UploadForm{NewListing: true}
}

// ImageFile is an image picked on the upload form.
type ImageFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// IsImage reports whether the declared content type is an image type.
func (f *ImageFile) IsImage() bool {
	return strings.HasPrefix(f.ContentType, "image/")
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ObjectName is the storage name of an image uploaded at t.
func ObjectName(t time.Time, fileName string) string {
	return fmt.Sprintf("%d-%s", t.UnixMilli(), whitespaceRun.ReplaceAllString(fileName, "-"))
}

type propertyService struct {
	rows    backend.Rows
	objects backend.Objects
	now     func() time.Time
}

// NewPropertyService creates a PropertyService over the backend's rows and objects.
func NewPropertyService(rows backend.Rows, objects backend.Objects) IPropertyService {
	return &propertyService{rows: rows, objects: objects, now: time.Now}
}

func (s *propertyService) ListAll(ctx context.Context) ([]models.Property, error) {
	var properties []models.Property
	if err := s.rows.List(ctx, models.PropertiesTable, backend.NewestFirst, &properties); err != nil {
		return nil, err
	}
	if properties == nil {
		properties = []models.Property{}
	}
	return properties, nil
}

// Validate checks the form in the order the page reports problems.
func (f UploadForm) Validate(image *ImageFile) error {
	switch {
	case strings.TrimSpace(f.Title) == "":
		return invalid("Title is required.")
	case strings.TrimSpace(f.Location) == "":
		return invalid("Location is required.")
	case f.Price == "":
		return invalid("Price is required.")
	case image == nil && f.YoutubeVideoURL == "":
		return invalid("Upload at least an image or provide a YouTube URL.")
	case image != nil && !image.IsImage():
		return invalid("Only image files are allowed.")
	}
	return nil
}

// Property builds the row to insert, without the image URL.
func (f UploadForm) Property() (*models.Property, error) {
	p := &models.Property{
		Title:           f.Title,
		Subtitle:        optional(f.Subtitle),
		Name:            optional(f.Name),
		Location:        models.Ptr(f.Location),
		FinanceType:     optional(f.FinanceType),
		AgentName:       optional(f.AgentName),
		AgentPhone:      optional(f.AgentPhone),
		YoutubeVideoURL: optional(f.YoutubeVideoURL),
		UseEmbedPlayer:  models.Ptr(f.UseEmbedPlayer),
		NewListing:      models.Ptr(f.NewListing),
		Trending:        models.Ptr(f.Trending),
	}

	numbers := []struct {
		label string
		raw   string
		dest  **float64
	}{
		{"Price", f.Price, &p.Price},
		{"Beds", f.Beds, &p.Beds},
		{"Baths", f.Baths, &p.Baths},
		{"Kitchens", f.Kitchens, &p.Kitchens},
		{"Sqft", f.Sqft, &p.Sqft},
	}
	for _, n := range numbers {
		if n.raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(n.raw), 64)
		if err != nil {
			return nil, invalid(n.label + " must be a number.")
		}
		*n.dest = models.Ptr(v)
	}
	return p, nil
}

// Preview renders the form as the listing card it would become. Unparsable numbers
// are left out instead of failing.
func (f UploadForm) Preview() models.Property {
	title := f.Title
	if title == "" {
		title = "Your Title"
	}
	p := models.Property{
		ID:              "preview",
		Title:           title,
		Subtitle:        optional(f.Subtitle),
		Name:            optional(f.Name),
		Location:        optional(f.Location),
		FinanceType:     optional(f.FinanceType),
		AgentName:       optional(f.AgentName),
		AgentPhone:      optional(f.AgentPhone),
		YoutubeVideoURL: optional(f.YoutubeVideoURL),
		UseEmbedPlayer:  models.Ptr(f.UseEmbedPlayer),
		NewListing:      models.Ptr(f.NewListing),
		Trending:        models.Ptr(f.Trending),
	}
	p.Price = lenientNumber(f.Price)
	p.Beds = lenientNumber(f.Beds)
	p.Baths = lenientNumber(f.Baths)
	p.Kitchens = lenientNumber(f.Kitchens)
	p.Sqft = lenientNumber(f.Sqft)
	return p
}

func (s *propertyService) Create(ctx context.Context, form UploadForm, image *ImageFile) (*models.Property, error) {
	if err := form.Validate(image); err != nil {
		return nil, err
	}
	property, err := form.Property()
	if err != nil {
		return nil, err
	}

	if image != nil {
		name := ObjectName(s.now(), image.Name)
		path, err := s.objects.Upload(ctx, models.ImagesBucket, name, image.Body, image.Size, image.ContentType)
		if err != nil {
			utils.Logger.WithError(err).WithField("object", name).Warn("Image upload failed")
			return nil, &FormError{Message: "Image upload failed: " + backend.Message(err), Err: err}
		}
		property.ImageURL = models.Ptr(s.objects.PublicURL(models.ImagesBucket, path))
	}

	// An uploaded image is left in place when the insert fails.
	if err := s.rows.Insert(ctx, models.PropertiesTable, property); err != nil {
		utils.Logger.WithError(err).WithFields(logrus.Fields{
			"title":     property.Title,
			"image_url": models.Str(property.ImageURL),
		}).Warn("Property insert failed")
		return nil, &FormError{Message: "Failed to create property: " + backend.Message(err), Err: err}
	}

	utils.Logger.WithField("title", property.Title).Info("Property created")
	return property, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return models.Ptr(s)
}

func lenientNumber(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	return models.Ptr(v)
}
