package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/agrolink/farm-marketplace/internal/model"
    "github.com/agrolink/farm-marketplace/internal/repository"
)

// CropHandler groups the repositories behind the crop CRUD endpoints
// and dealer bidding. Role enforcement happens in middleware; the
// handlers only check ownership of individual rows.
type CropHandler struct {
    Crops *repository.CropRepo
    Bids  *repository.BidRepo
}

// NewCropHandler constructs a CropHandler. All dependencies must be non-nil.
func NewCropHandler(crops *repository.CropRepo, bids *repository.BidRepo) *CropHandler {
    if crops == nil || bids == nil {
        panic("nil repository passed to NewCropHandler")
    }
    return &CropHandler{Crops: crops, Bids: bids}
}

type cropReq struct {
    Name          string   `json:"name"`
    Quantity      *float64 `json:"quantity"`
    Unit          *string  `json:"unit"`
    BasePrice     *float64 `json:"base_price"`
    TotalCost     *float64 `json:"total_cost"`
    LandSize      *float64 `json:"land_size"`
    CultivateDate *string  `json:"cultivate_date"`
    HarvestDate   *string  `json:"harvest_date"`
    CropPic       *string  `json:"crop_pic"`
}

// Add handles POST /crops/add. A crop needs a name and at least one
// of quantity or land size; price and dates can be filled in later as
// the cultivation progresses.
func (h *CropHandler) Add(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    var req cropReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Crop name is required"})
    }
    if req.Quantity == nil && req.LandSize == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Provide quantity or land size"})
    }
    if req.Quantity != nil && *req.Quantity <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Quantity must be positive"})
    }
    if req.BasePrice != nil && *req.BasePrice < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Base price cannot be negative"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    id, err := h.Crops.Create(ctx, repository.NewCrop{
        FarmerID:      uid,
        Name:          req.Name,
        Quantity:      req.Quantity,
        Unit:          req.Unit,
        BasePrice:     req.BasePrice,
        TotalCost:     req.TotalCost,
        LandSize:      req.LandSize,
        CultivateDate: req.CultivateDate,
        HarvestDate:   req.HarvestDate,
        CropPic:       req.CropPic,
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to create crop"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message": "Crop added",
        "crop_id": id,
    })
}

// ListByFarmer handles GET /crops/farmer/:id. It returns the farmer's
// crops that have not been harvested into the marketplace yet. A
// farmer can only list their own records.
func (h *CropHandler) ListByFarmer(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    farmerID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid farmer id"})
    }
    if farmerID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    crops, err := h.Crops.ListUnharvestedByFarmer(ctx, farmerID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load crops"})
    }
    return c.JSON(http.StatusOK, echo.Map{"crops": crops})
}

// ListAll handles GET /crops. It is the dealer browse view: every
// crop with its farmer's name, the highest bid so far and the inline
// purchase requests.
func (h *CropHandler) ListAll(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    crops, err := h.Crops.ListWithBids(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load crops"})
    }
    return c.JSON(http.StatusOK, echo.Map{"crops": crops})
}

type cropPatchReq struct {
    Name      *string  `json:"name"`
    Quantity  *float64 `json:"quantity"`
    Unit      *string  `json:"unit"`
    BasePrice *float64 `json:"base_price"`
    TotalCost *float64 `json:"total_cost"`
}

// Update handles PATCH /crops/:id. Absent fields keep their stored
// values; only the owning farmer may update.
func (h *CropHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    cropID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid crop id"})
    }
    var req cropPatchReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
    }
    if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Crop name cannot be empty"})
    }
    if req.Quantity != nil && *req.Quantity <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Quantity must be positive"})
    }
    if req.BasePrice != nil && *req.BasePrice < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Base price cannot be negative"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    err = h.Crops.UpdateOwned(ctx, cropID, uid, repository.CropPatch{
        Name:      req.Name,
        Quantity:  req.Quantity,
        Unit:      req.Unit,
        BasePrice: req.BasePrice,
        TotalCost: req.TotalCost,
    })
    switch {
    case err == repository.ErrNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"message": "Crop not found"})
    case err == repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden"})
    case err != nil:
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to update crop"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Crop updated"})
}

// Delete handles DELETE /crops/:id. A crop with requests or bids
// against it cannot be removed; the paperwork must be resolved first.
func (h *CropHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    cropID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid crop id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    err = h.Crops.DeleteOwned(ctx, cropID, uid)
    switch {
    case err == repository.ErrNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"message": "Crop not found"})
    case err == repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden"})
    case err == repository.ErrConflict:
        return c.JSON(http.StatusConflict, echo.Map{"message": "Crop has requests or bids and cannot be deleted"})
    case err != nil:
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to delete crop"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Crop deleted"})
}

type bidReq struct {
    BidPrice *float64 `json:"bid_price"`
}

// PlaceBid handles POST /crops/bid/:cropId. A bid must fall within
// the fixed band around the crop's base price; anything outside is
// rejected with the allowed range in the message.
func (h *CropHandler) PlaceBid(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    cropID, ok := pathID(c, "cropId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid crop id"})
    }
    var req bidReq
    if err := c.Bind(&req); err != nil || req.BidPrice == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "bid_price is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    crop, err := h.Crops.GetByID(ctx, cropID)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"message": "Crop not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load crop"})
    }
    if crop.BasePrice == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "Crop has no base price to bid against"})
    }
    if !model.BidInBand(*crop.BasePrice, *req.BidPrice) {
        minBid, maxBid := model.BidBounds(*crop.BasePrice)
        return c.JSON(http.StatusBadRequest, echo.Map{
            "message": "Bid must be between " + ftoa(minBid) + " and " + ftoa(maxBid),
        })
    }

    bidID, err := h.Bids.Create(ctx, cropID, uid, *req.BidPrice)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to place bid"})
    }
    highest, err := h.Bids.HighestForCrop(ctx, cropID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to load highest bid"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "message":     "Bid placed",
        "bid_id":      bidID,
        "highest_bid": highest,
    })
}
