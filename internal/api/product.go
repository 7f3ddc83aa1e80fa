package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zellijstore/commerce/internal/domain/product"
)

type productResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	MarbleType    string          `json:"marbleType,omitempty"`
	Origin        string          `json:"origin,omitempty"`
	Color         string          `json:"color,omitempty"`
	Finish        string          `json:"finish,omitempty"`
	Dimensions    string          `json:"dimensions,omitempty"`
	StockQuantity int             `json:"stockQuantity"`
	InStock       bool            `json:"inStock"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (s *Server) toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		ImageURL:      s.imageURL(p.ImageURL),
		MarbleType:    p.MarbleType,
		Origin:        p.Origin,
		Color:         p.Color,
		Finish:        p.Finish,
		Dimensions:    p.Dimensions,
		StockQuantity: p.StockQuantity,
		InStock:       p.InStock,
		CreatedAt:     p.CreatedAt,
	}
}

// imageURL prepends the configured base URL to relative image paths.
func (s *Server) imageURL(path string) string {
	if s.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimSuffix(s.imageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = s.toProductResponse(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := s.products.GetByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.toProductResponse(*p))
}
