package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
)

// ProductService manages catalog entries and stock lookups
type ProductService struct {
	productRepo inventory.ProductRepository
	stockCache  ProductStockCache
	logger      *zap.Logger
}

// NewProductService creates a ProductService
func NewProductService(productRepo inventory.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// SetStockCache attaches an optional stock cache
func (s *ProductService) SetStockCache(cache ProductStockCache) {
	s.stockCache = cache
}

// CreateProduct registers a new catalog entry
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := inventory.NewProduct(req.Barcode, req.Name, req.CostPrice, req.SellingPrice)
	if err != nil {
		return nil, err
	}
	product.Category = req.Category
	product.Unit = req.Unit
	if !req.MinStock.IsZero() {
		if req.MinStock.IsNegative() {
			return nil, inventory.NewValidationError("min stock cannot be negative")
		}
		product.MinStock = req.MinStock
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("barcode", product.Barcode))

	return ToProductResponse(product), nil
}

// UpdateProduct applies partial catalog changes
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, inventory.NewValidationError("product name is required")
		}
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.MinStock != nil {
		if req.MinStock.IsNegative() {
			return nil, inventory.NewValidationError("min stock cannot be negative")
		}
		product.MinStock = *req.MinStock
	}
	if req.CostPrice != nil || req.SellingPrice != nil {
		cost := product.CostPrice
		sell := product.SellingPrice
		if req.CostPrice != nil {
			cost = *req.CostPrice
		}
		if req.SellingPrice != nil {
			sell = *req.SellingPrice
		}
		if err := product.RefreshPrices(cost, sell); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetProduct returns one catalog entry by id
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetProductByBarcode returns one catalog entry by barcode
func (s *ProductService) GetProductByBarcode(ctx context.Context, barcode string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// ListProducts pages through the catalog
func (s *ProductService) ListProducts(ctx context.Context, filter ProductListFilter) (*shared.Paginated[*ProductResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.IsActive != nil {
		f.Filters["is_active"] = *filter.IsActive
	}
	if filter.Category != "" {
		f.Filters["category"] = filter.Category
	}
	if filter.LowStock {
		f.Filters["low_stock"] = true
	}

	page, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]*ProductResponse, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, ToProductResponse(p))
	}
	return shared.NewPaginated(items, page.Total, page.Page, page.PageSize), nil
}

// GetProductStock returns the cached stock level, falling back to the
// database on a miss and repopulating the cache
func (s *ProductService) GetProductStock(ctx context.Context, id uuid.UUID) (*StockResponse, error) {
	if s.stockCache != nil {
		stock, found, err := s.stockCache.GetStock(ctx, id)
		if err != nil {
			s.logger.Warn("Stock cache read failed",
				zap.String("product_id", id.String()),
				zap.Error(err))
		} else if found {
			return &StockResponse{ProductID: id, CurrentStock: stock, FromCache: true}, nil
		}
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.stockCache != nil {
		if err := s.stockCache.SetStock(ctx, id, product.CurrentStock); err != nil {
			s.logger.Warn("Stock cache update failed",
				zap.String("product_id", id.String()),
				zap.Error(err))
		}
	}

	return &StockResponse{ProductID: id, CurrentStock: product.CurrentStock, FromCache: false}, nil
}
