package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"

	"github.com/radsonline/marketplace-golang/internal/models"
)

// CreateBrandInput defines the JSON input for creating a brand.
type CreateBrandInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateBrand is the handler for POST /api/brands (seller only).
// New brands always start in PENDING, awaiting admin review.
func (h *Handlers) CreateBrand(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	ownerID := userIDRaw.(int64)

	// 1. --- Bind & Validate JSON ---
	var input CreateBrandInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Create Brand Model ---
	brand := &models.Brand{
		Name:        input.Name,
		Slug:        slug.Make(input.Name),
		Description: input.Description,
		OwnerID:     ownerID,
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	// 3. --- Save to Database ---
	query := `
		INSERT INTO brands (name, slug, description, owner_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := h.DB.Exec(query,
		brand.Name, brand.Slug, brand.Description,
		brand.OwnerID, brand.Status, brand.CreatedAt, brand.UpdatedAt,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating brand"})
		return
	}

	id, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get new brand ID"})
		return
	}
	brand.ID = id

	// 4. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "Brand submitted for review",
		"brand":   brand,
	})
}

// GetAllBrandsAdmin is the handler for GET /api/brands/admin (admin only).
// Returns every brand regardless of status, with owner identity attached.
func (h *Handlers) GetAllBrandsAdmin(c *gin.Context) {
	query := `
		SELECT b.id, b.name, b.slug, b.description, b.owner_id, b.status, b.created_at, b.updated_at,
		       u.id, u.name, u.email
		FROM brands b
		JOIN users u ON b.owner_id = u.id
		ORDER BY b.created_at DESC`

	rows, err := h.DB.Query(query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching brands"})
		return
	}
	defer rows.Close()

	var brands []*models.Brand
	for rows.Next() {
		var brand models.Brand
		var owner models.OwnerInfo
		if err := rows.Scan(
			&brand.ID, &brand.Name, &brand.Slug, &brand.Description,
			&brand.OwnerID, &brand.Status, &brand.CreatedAt, &brand.UpdatedAt,
			&owner.ID, &owner.Name, &owner.Email,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan brand row"})
			return
		}
		brand.Owner = &owner
		brands = append(brands, &brand)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating brand rows"})
		return
	}

	if brands == nil {
		brands = []*models.Brand{}
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// GetMyBrands is the handler for GET /api/brands/my-brands (seller only).
func (h *Handlers) GetMyBrands(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	ownerID := userIDRaw.(int64)

	query := `
		SELECT id, name, slug, description, owner_id, status, created_at, updated_at
		FROM brands
		WHERE owner_id = ?
		ORDER BY created_at DESC`

	rows, err := h.DB.Query(query, ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching brands"})
		return
	}
	defer rows.Close()

	var brands []*models.Brand
	for rows.Next() {
		var brand models.Brand
		if err := rows.Scan(
			&brand.ID, &brand.Name, &brand.Slug, &brand.Description,
			&brand.OwnerID, &brand.Status, &brand.CreatedAt, &brand.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan brand row"})
			return
		}
		brands = append(brands, &brand)
	}
	if err = rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating brand rows"})
		return
	}

	if brands == nil {
		brands = []*models.Brand{}
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

// UpdateStatusInput defines the JSON input for the moderation PATCH
// endpoints. The value is checked against the closed status set; anything
// outside it is a 400, not a silent write.
type UpdateStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// UpdateBrandStatus is the handler for PATCH /api/brands/:id/status (admin only).
func (h *Handlers) UpdateBrandStatus(c *gin.Context) {
	brandID := c.Param("id")

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

	// 2. --- Verify the Brand Exists ---
	// RowsAffected cannot stand in for this check: the MySQL driver counts
	// changed rows, so re-applying the current status would report zero.
	var existingID int64
	if err := h.DB.QueryRow("SELECT id FROM brands WHERE id = ?", brandID).Scan(&existingID); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Brand not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking brand"})
		return
	}

	// 3. --- Update Database ---
	if _, err := h.DB.Exec(
		"UPDATE brands SET status = ?, updated_at = ? WHERE id = ?",
		input.Status, time.Now(), brandID,
	); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating brand status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Brand status updated successfully", "status": input.Status})
}

// UpdateBrandInput defines the JSON input for editing a brand.
type UpdateBrandInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// UpdateBrand is the handler for PUT /api/brands/:id (owner only).
// Any edit drops the brand back to PENDING for re-review, even if the
// content did not change.
func (h *Handlers) UpdateBrand(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	callerID := userIDRaw.(int64)
	brandID := c.Param("id")

	// 1. --- Verify Ownership ---
	var ownerID int64
	err := h.DB.QueryRow("SELECT owner_id FROM brands WHERE id = ?", brandID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Brand not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking ownership"})
		return
	}
	if ownerID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this brand"})
		return
	}

	// 2. --- Bind & Validate JSON ---
	var input UpdateBrandInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. --- Dynamically Build UPDATE Query ---
	// Status always resets to PENDING on an owner edit.
	querySet := "status = ?, updated_at = ?"
	queryArgs := []interface{}{models.StatusPending, time.Now()}

	if input.Name != nil {
		querySet += ", name = ?, slug = ?"
		queryArgs = append(queryArgs, *input.Name, slug.Make(*input.Name))
	}
	if input.Description != nil {
		querySet += ", description = ?"
		queryArgs = append(queryArgs, *input.Description)
	}

	queryArgs = append(queryArgs, brandID)
	query := fmt.Sprintf("UPDATE brands SET %s WHERE id = ?", querySet)

	if _, err := h.DB.Exec(query, queryArgs...); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating brand"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Brand updated and resubmitted for review",
		"status":  models.StatusPending,
	})
}

// DeleteBrand is the handler for DELETE /api/brands/:id (owner or admin).
func (h *Handlers) DeleteBrand(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	callerID := userIDRaw.(int64)
	callerRole := c.GetString("userRole")
	brandID := c.Param("id")

	// 1. --- Fetch Brand Owner ---
	var ownerID int64
	err := h.DB.QueryRow("SELECT owner_id FROM brands WHERE id = ?", brandID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Brand not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking ownership"})
		return
	}

	// 2. --- Authorize: owner or admin ---
	if callerRole != models.RoleAdmin && ownerID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this brand"})
		return
	}

	// 3. --- Delete (products cascade via FK) ---
	if _, err := h.DB.Exec("DELETE FROM brands WHERE id = ?", brandID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting brand"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Brand deleted successfully"})
}
