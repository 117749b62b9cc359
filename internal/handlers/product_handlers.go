package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/radsonline/marketplace-golang/internal/models"
)

// CreateProductInput defines the JSON input for creating a product.
type CreateProductInput struct {
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	ImageURL      string  `json:"imageUrl"`
	AffiliateLink string  `json:"affiliateLink"`
	BrandID       int64   `json:"brandId" binding:"required"`
}

// CreateProduct is the handler for POST /api/products (seller only).
// The caller must own the target brand; the brand's own moderation status
// does not matter here, only ownership.
func (h *Handlers) CreateProduct(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	sellerID := userIDRaw.(int64)

	// 1. --- Bind & Validate JSON ---
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Verify Brand Ownership ---
	var ownerID int64
	err := h.DB.QueryRow("SELECT owner_id FROM brands WHERE id = ?", input.BrandID).Scan(&ownerID)
	if err != nil && err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking brand"})
		return
	}
	if err == sql.ErrNoRows || ownerID != sellerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to add products to this brand"})
		return
	}

	// 3. --- Create Product Model ---
	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		BrandID:     input.BrandID,
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if input.ImageURL != "" {
		product.ImageURL = &input.ImageURL
	}
	if input.AffiliateLink != "" {
		product.AffiliateLink = &input.AffiliateLink
	}

	// 4. --- Save to Database ---
	query := `
		INSERT INTO products (name, description, price, image_url, affiliate_link, brand_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := h.DB.Exec(query,
		product.Name, product.Description, product.Price,
		product.ImageURL, product.AffiliateLink,
		product.BrandID, product.Status, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating product"})
		return
	}
	id, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get new product ID"})
		return
	}
	product.ID = id

	// 5. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "Product submitted for review",
		"product": product,
	})
}

// productWithBrandQuery selects a product joined with its brand. Listing
// handlers share it and append their own WHERE clauses.
const productWithBrandQuery = `
	SELECT p.id, p.name, p.description, p.price, p.image_url, p.affiliate_link,
	       p.brand_id, p.status, p.created_at, p.updated_at,
	       b.id, b.name, b.slug, b.description, b.owner_id, b.status, b.created_at, b.updated_at
	FROM products p
	JOIN brands b ON p.brand_id = b.id`

// scanProductWithBrand scans one row of productWithBrandQuery.
func scanProductWithBrand(rows *sql.Rows) (*models.Product, error) {
	var product models.Product
	var brand models.Brand
	if err := rows.Scan(
		&product.ID, &product.Name, &product.Description, &product.Price,
		&product.ImageURL, &product.AffiliateLink,
		&product.BrandID, &product.Status, &product.CreatedAt, &product.UpdatedAt,
		&brand.ID, &brand.Name, &brand.Slug, &brand.Description,
		&brand.OwnerID, &brand.Status, &brand.CreatedAt, &brand.UpdatedAt,
	); err != nil {
		return nil, err
	}
	product.Brand = &brand
	return &product, nil
}

// listProducts runs a productWithBrandQuery variant and writes the response.
func (h *Handlers) listProducts(c *gin.Context, query string, args ...interface{}) {
	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching products"})
		return
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProductWithBrand(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product row"})
			return
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating product rows"})
		return
	}

	if products == nil {
		products = []*models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetApprovedProducts is the handler for GET /api/products (public).
// Only APPROVED products are visible to the storefront.
func (h *Handlers) GetApprovedProducts(c *gin.Context) {
	query := productWithBrandQuery + " WHERE p.status = ? ORDER BY p.created_at DESC"
	h.listProducts(c, query, models.StatusApproved)
}

// GetProductsByBrand is the handler for GET /api/products/brand/:brandId (public).
func (h *Handlers) GetProductsByBrand(c *gin.Context) {
	brandID := c.Param("brandId")
	query := productWithBrandQuery + " WHERE p.brand_id = ? AND p.status = ? ORDER BY p.created_at DESC"
	h.listProducts(c, query, brandID, models.StatusApproved)
}

// GetMyProducts is the handler for GET /api/products/my-products (seller only).
// Sellers see their products in every status, across all their brands.
func (h *Handlers) GetMyProducts(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	sellerID := userIDRaw.(int64)

	query := productWithBrandQuery + " WHERE b.owner_id = ? ORDER BY p.created_at DESC"
	h.listProducts(c, query, sellerID)
}

// GetPendingProducts is the handler for GET /api/products/pending (admin only).
// The review queue, oldest submissions first, with the owning seller attached.
func (h *Handlers) GetPendingProducts(c *gin.Context) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.image_url, p.affiliate_link,
		       p.brand_id, p.status, p.created_at, p.updated_at,
		       b.id, b.name, b.slug, b.description, b.owner_id, b.status, b.created_at, b.updated_at,
		       u.id, u.name, u.email
		FROM products p
		JOIN brands b ON p.brand_id = b.id
		JOIN users u ON b.owner_id = u.id
		WHERE p.status = ?
		ORDER BY p.created_at ASC`

	rows, err := h.DB.Query(query, models.StatusPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching pending products"})
		return
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		var product models.Product
		var brand models.Brand
		var owner models.OwnerInfo
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Description, &product.Price,
			&product.ImageURL, &product.AffiliateLink,
			&product.BrandID, &product.Status, &product.CreatedAt, &product.UpdatedAt,
			&brand.ID, &brand.Name, &brand.Slug, &brand.Description,
			&brand.OwnerID, &brand.Status, &brand.CreatedAt, &brand.UpdatedAt,
			&owner.ID, &owner.Name, &owner.Email,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product row"})
			return
		}
		brand.Owner = &owner
		product.Brand = &brand
		products = append(products, &product)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating product rows"})
		return
	}

	if products == nil {
		products = []*models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// UpdateProductStatus is the handler for PATCH /api/products/:id/status (admin only).
func (h *Handlers) UpdateProductStatus(c *gin.Context) {
	productID := c.Param("id")

	// 1. --- Bind & Validate JSON ---
	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.IsValidModerationStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid status %q: must be one of PENDING, APPROVED, REJECTED", input.Status),
		})
		return
	}

	// 2. --- Verify the Product Exists ---
	// RowsAffected cannot stand in for this check: the MySQL driver counts
	// changed rows, so re-applying the current status would report zero.
	var existingID int64
	if err := h.DB.QueryRow("SELECT id FROM products WHERE id = ?", productID).Scan(&existingID); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking product"})
		return
	}

	// 3. --- Update Database ---
	if _, err := h.DB.Exec(
		"UPDATE products SET status = ?, updated_at = ? WHERE id = ?",
		input.Status, time.Now(), productID,
	); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating product status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product status updated successfully", "status": input.Status})
}

// UpdateProductInput defines the JSON input for editing a product.
type UpdateProductInput struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price" binding:"omitempty,gt=0"`
	ImageURL      *string  `json:"imageUrl"`
	AffiliateLink *string  `json:"affiliateLink"`
}

// UpdateProduct is the handler for PUT /api/products/:id (brand owner only).
// Like brands, any owner edit resets the product to PENDING.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	callerID := userIDRaw.(int64)
	productID := c.Param("id")

	// 1. --- Verify Ownership (through the parent brand) ---
	var ownerID int64
	err := h.DB.QueryRow(`
		SELECT b.owner_id
		FROM products p
		JOIN brands b ON p.brand_id = b.id
		WHERE p.id = ?`, productID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking ownership"})
		return
	}
	if ownerID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this product"})
		return
	}

	// 2. --- Bind & Validate JSON ---
	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. --- Dynamically Build UPDATE Query ---
	querySet := "status = ?, updated_at = ?"
	queryArgs := []interface{}{models.StatusPending, time.Now()}

	if input.Name != nil {
		querySet += ", name = ?"
		queryArgs = append(queryArgs, *input.Name)
	}
	if input.Description != nil {
		querySet += ", description = ?"
		queryArgs = append(queryArgs, *input.Description)
	}
	if input.Price != nil {
		querySet += ", price = ?"
		queryArgs = append(queryArgs, *input.Price)
	}
	if input.ImageURL != nil {
		querySet += ", image_url = ?"
		queryArgs = append(queryArgs, *input.ImageURL)
	}
	if input.AffiliateLink != nil {
		querySet += ", affiliate_link = ?"
		queryArgs = append(queryArgs, *input.AffiliateLink)
	}

	queryArgs = append(queryArgs, productID)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = ?", querySet)

	if _, err := h.DB.Exec(query, queryArgs...); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated and resubmitted for review",
		"status":  models.StatusPending,
	})
}

// DeleteProduct is the handler for DELETE /api/products/:id (owner or admin).
func (h *Handlers) DeleteProduct(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	callerID := userIDRaw.(int64)
	callerRole := c.GetString("userRole")
	productID := c.Param("id")

	// 1. --- Fetch the Owning Seller ---
	var ownerID int64
	err := h.DB.QueryRow(`
		SELECT b.owner_id
		FROM products p
		JOIN brands b ON p.brand_id = b.id
		WHERE p.id = ?`, productID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking ownership"})
		return
	}

	// 2. --- Authorize: owner or admin ---
	if callerRole != models.RoleAdmin && ownerID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this product"})
		return
	}

	// 3. --- Delete ---
	if _, err := h.DB.Exec("DELETE FROM products WHERE id = ?", productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
