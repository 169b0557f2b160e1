package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/agrolink/farm-marketplace/internal/repository"
)

// MarketplaceHandler exposes the harvested-crop listing endpoints.
// Harvesting is the one-way transition that moves a crop from the
// farmer's private records onto the public marketplace; it pairs two
// writes in one transaction so a listing can never exist for a crop
// still marked unharvested.
type MarketplaceHandler struct {
    Crops  *repository.CropRepo
    Market *repository.MarketplaceRepo
}

// NewMarketplaceHandler constructs a MarketplaceHandler. All dependencies must be non-nil.
func NewMarketplaceHandler(crops *repository.CropRepo, market *repository.MarketplaceRepo) *MarketplaceHandler {
    if crops == nil || market == nil {
        panic("nil repository passed to NewMarketplaceHandler")
    }
    return &MarketplaceHandler{Crops: crops, Market: market}
}

type harvestReq struct {
    Quantity    *float64 `json:"quantity"`
    Price       *float64 `json:"price"`
    Discount    *float64 `json:"discount"`
    MinQuantity *float64 `json:"min_quantity"`
}

// Harvest handles POST /marketplace/harvest/:cropId. Quantity and
// price default to the crop's stored values and can be overridden in
// the body. Harvesting an already-harvested crop is a conflict, and
// of two concurrent harvests only one can win the conditional flip.
func (h *MarketplaceHandler) Harvest(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    cropID, ok := pathID(c, "cropId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid crop id"})
    }
    var req harvestReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tx, err := h.Crops.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    crop, err := h.Crops.GetByIDTx(ctx, tx, cropID)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"message": "Crop not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load crop"})
    }
    // The browse view never exposes other farmers' private crops, so
    // a non-owner probing ids learns nothing beyond "not found".
    if crop.FarmerID != uid {
        return c.JSON(http.StatusNotFound, echo.Map{"message": "Crop not found"})
    }
    if crop.Harvested {
        return c.JSON(http.StatusConflict, echo.Map{"message": "Crop already harvested"})
    }

    quantity := req.Quantity
    if quantity == nil {
        quantity = crop.Quantity
    }
    price := req.Price
    if price == nil {
        price = crop.BasePrice
    }
    if quantity == nil || *quantity <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Quantity must be positive"})
    }
    if price == nil || *price < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Price cannot be negative"})
    }

    listingID, err := h.Market.CreateTx(ctx, tx, repository.NewListing{
        CropID:      crop.ID,
        CropName:    crop.Name,
        FarmerID:    uid,
        Quantity:    *quantity,
        Price:       *price,
        CropPic:     crop.CropPic,
        Discount:    req.Discount,
        MinQuantity: req.MinQuantity,
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create listing"})
    }
    if err := h.Crops.MarkHarvestedTx(ctx, tx, crop.ID); err != nil {
        if err == repository.ErrInvalidState {
            return c.JSON(http.StatusConflict, echo.Map{"message": "Crop already harvested"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to mark crop harvested"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to commit transaction"})
    }
    committed = true

    return c.JSON(http.StatusCreated, echo.Map{
        "message":    "Crop harvested to marketplace",
        "listing_id": listingID,
    })
}

type directListingReq struct {
    Name        string   `json:"name"`
    Quantity    *float64 `json:"quantity"`
    Unit        *string  `json:"unit"`
    Price       *float64 `json:"price"`
    CropPic     *string  `json:"crop_pic"`
    Discount    *float64 `json:"discount"`
    MinQuantity *float64 `json:"min_quantity"`
}

// AddDirect handles POST /marketplace/add-direct. It creates a crop
// record and its marketplace listing in one transaction, for produce
// that was never tracked through cultivation.
func (h *MarketplaceHandler) AddDirect(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    var req directListingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Crop name is required"})
    }
    if req.Quantity == nil || *req.Quantity <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Quantity must be positive"})
    }
    if req.Price == nil || *req.Price < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Price cannot be negative"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tx, err := h.Crops.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    cropID, err := h.Crops.CreateTx(ctx, tx, repository.NewCrop{
        FarmerID:  uid,
        Name:      req.Name,
        Quantity:  req.Quantity,
        Unit:      req.Unit,
        BasePrice: req.Price,
        CropPic:   req.CropPic,
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create crop"})
    }
    listingID, err := h.Market.CreateTx(ctx, tx, repository.NewListing{
        CropID:      cropID,
        CropName:    req.Name,
        FarmerID:    uid,
        Quantity:    *req.Quantity,
        Price:       *req.Price,
        CropPic:     req.CropPic,
        Discount:    req.Discount,
        MinQuantity: req.MinQuantity,
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create listing"})
    }
    if err := h.Crops.MarkHarvestedTx(ctx, tx, cropID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to mark crop harvested"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to commit transaction"})
    }
    committed = true

    return c.JSON(http.StatusCreated, echo.Map{
        "message":    "Listing created",
        "crop_id":    cropID,
        "listing_id": listingID,
    })
}

// MyCrops handles GET /marketplace/my-crops, the farmer's own listings.
func (h *MarketplaceHandler) MyCrops(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    listings, err := h.Market.ListByFarmer(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load listings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"listings": listings})
}

// PublicCrops handles GET /marketplace/crops, the browse view every
// authenticated user sees. Sits behind the Redis response cache.
func (h *MarketplaceHandler) PublicCrops(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    listings, err := h.Market.ListPublic(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load listings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"listings": listings})
}
