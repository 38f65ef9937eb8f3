package services

import (
	"context"
	"errors"
	"strings"

	"makhana/internal/domain"
	applog "makhana/internal/log"
	"makhana/internal/media"
	"makhana/internal/repos"
	"makhana/internal/validate"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type CatalogService struct {
	Prods  *repos.ProductRepo
	Images media.Store
	// MaxImageBytes caps uploads; zero means no cap here.
	MaxImageBytes int
}

func NewCatalogService(prods *repos.ProductRepo, images media.Store, maxImageBytes int) *CatalogService {
	return &CatalogService{Prods: prods, Images: images, MaxImageBytes: maxImageBytes}
}

// ProductForm holds raw form values; empty strings mean "not provided".
type ProductForm struct {
	ID            string
	Name          string
	Description   string
	Price         string
	DiscountPrice string
	StockQuantity string
	Category      string
	Image         []byte
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	return s.Prods.List(ctx)
}

func (s *CatalogService) Find(ctx context.Context, ids []int64) ([]domain.Product, error) {
	return s.Prods.FindByIDs(ctx, lo.Uniq(ids))
}

func (s *CatalogService) Create(ctx context.Context, f ProductForm) (domain.Product, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" || strings.TrimSpace(f.Price) == "" {
		return domain.Product{}, invalid("Name and price are required")
	}
	price, ok := validate.Money(f.Price)
	if !ok {
		return domain.Product{}, invalid("Price must be a non-negative number")
	}
	p := domain.Product{
		Name:        name,
		Description: strings.TrimSpace(f.Description),
		Price:       price,
		Category:    strings.TrimSpace(f.Category),
	}
	if p.Category == "" {
		p.Category = domain.DefaultCategory
	}
	if strings.TrimSpace(f.StockQuantity) != "" {
		qty, ok := validate.Qty(f.StockQuantity)
		if !ok {
			return domain.Product{}, invalid("Stock quantity must be a whole number")
		}
		p.StockQuantity = qty
	}
	if strings.TrimSpace(f.DiscountPrice) != "" {
		d, ok := validate.Money(f.DiscountPrice)
		if !ok {
			return domain.Product{}, invalid("Discount price must be a non-negative number")
		}
		p.DiscountPrice = decimal.NewNullDecimal(d.Round(0))
	}

	if len(f.Image) > 0 {
		img, err := s.upload(ctx, f.Image)
		if err != nil {
			return domain.Product{}, err
		}
		p.Image, p.ImagePublicID = img.URL, img.PublicID
	}

	id, err := s.Prods.Create(ctx, &p)
	if err != nil {
		if p.ImagePublicID != "" {
			s.dropImage(ctx, p.ImagePublicID)
		}
		return domain.Product{}, wrapProblem(ErrInternal, "Product insertion failed", err)
	}
	p.ID = id
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, f ProductForm) error {
	id, ok := validate.ID(f.ID)
	if !ok {
		return invalid("Product ID is required")
	}
	current, err := s.Prods.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound("Product not found")
	}
	if err != nil {
		return err
	}

	var patch repos.ProductPatch
	if v := strings.TrimSpace(f.Name); v != "" {
		patch.Name = &v
	}
	if v := strings.TrimSpace(f.Description); v != "" {
		patch.Description = &v
	}
	if strings.TrimSpace(f.Price) != "" {
		price, ok := validate.Money(f.Price)
		if !ok {
			return invalid("Price must be a non-negative number")
		}
		patch.Price = &price
	}
	if strings.TrimSpace(f.StockQuantity) != "" {
		qty, ok := validate.Qty(f.StockQuantity)
		if !ok {
			return invalid("Stock quantity must be a whole number")
		}
		patch.StockQuantity = &qty
	}
	if v := strings.TrimSpace(f.Category); v != "" {
		patch.Category = &v
	}
	if strings.TrimSpace(f.DiscountPrice) != "" {
		d, ok := validate.Money(f.DiscountPrice)
		if !ok {
			return invalid("Discount price must be a non-negative number")
		}
		d = d.Round(0)
		patch.DiscountPrice = &d
	}
	if patch.Empty() && len(f.Image) == 0 {
		return invalid("No fields provided for update")
	}

	if len(f.Image) > 0 {
		img, err := s.upload(ctx, f.Image)
		if err != nil {
			return err
		}
		patch.Image, patch.ImagePublicID = &img.URL, &img.PublicID
	}

	if err := s.Prods.Update(ctx, id, patch); err != nil {
		if patch.ImagePublicID != nil {
			s.dropImage(ctx, *patch.ImagePublicID)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return notFound("Product not found")
		}
		return wrapProblem(ErrInternal, "Product update failed", err)
	}
	// the old image goes only once the row points at the new one
	if patch.ImagePublicID != nil && current.ImagePublicID != "" {
		s.dropImage(ctx, current.ImagePublicID)
	}
	return nil
}

// Delete removes the row; a failure to remove the image is logged and ignored.
func (s *CatalogService) Delete(ctx context.Context, rawID string) error {
	id, ok := validate.ID(rawID)
	if !ok {
		return invalid("Product ID is required")
	}
	current, err := s.Prods.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound("Product not found")
	}
	if err != nil {
		return err
	}
	if current.ImagePublicID != "" {
		s.dropImage(ctx, current.ImagePublicID)
	}
	if err := s.Prods.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFound("Product not found")
		}
		return wrapProblem(ErrInternal, "Product deletion failed", err)
	}
	return nil
}

func (s *CatalogService) upload(ctx context.Context, data []byte) (media.Image, error) {
	if _, err := media.Sniff(data, s.MaxImageBytes); err != nil {
		return media.Image{}, wrapProblem(domain.ErrInvalidInput, "Invalid image type", err)
	}
	if s.Images == nil {
		return media.Image{}, wrapProblem(ErrInternal, "Image upload failed", errors.New("no image store"))
	}
	img, err := s.Images.Save(ctx, data)
	if err != nil {
		return media.Image{}, wrapProblem(ErrInternal, "Image upload failed", err)
	}
	return img, nil
}

func (s *CatalogService) dropImage(ctx context.Context, publicID string) {
	if s.Images == nil {
		return
	}
	if err := s.Images.Delete(ctx, publicID); err != nil {
		applog.Logger().WithError(err).WithField("public_id", publicID).Warn("media.delete.fail")
	}
}
