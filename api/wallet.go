package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	wrapErrors "github.com/splitpay/split_wallet_service/errors"
	"github.com/splitpay/split_wallet_service/request"
	"github.com/splitpay/split_wallet_service/service"
)

type SplitWalletHandler struct {
	wallets *service.SplitWalletService
	joins   *service.ParticipantJoinCoordinator
	repairs *service.MigrationRepairService
}

func NewSplitWalletHandler(wallets *service.SplitWalletService, joins *service.ParticipantJoinCoordinator, repairs *service.MigrationRepairService) *SplitWalletHandler {
	return &SplitWalletHandler{wallets: wallets, joins: joins, repairs: repairs}
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch wrapErrors.CodeOf(err) {
	case wrapErrors.CodeNotFound:
		return http.StatusNotFound
	case wrapErrors.CodeValidation, wrapErrors.CodeInsufficientFunds, wrapErrors.CodeWalletState:
		return http.StatusUnprocessableEntity
	case wrapErrors.CodeUnauthorized:
		return http.StatusForbidden
	case wrapErrors.CodeVersionConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error": err.Error(),
		"code":  wrapErrors.CodeOf(err),
	})
}

// CreateSplitWallet provisions and persists a new escrow wallet for a bill.
func (h *SplitWalletHandler) CreateSplitWallet(c *gin.Context) {
	var req request.CreateSplitWalletReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shares := make([]service.ParticipantShare, len(req.Participants))
	for i, p := range req.Participants {
		shares[i] = service.ParticipantShare{
			UserID:        p.UserID,
			Name:          p.Name,
			WalletAddress: p.WalletAddress,
			AmountOwed:    p.AmountOwed,
		}
	}

	wallet, err := h.wallets.CreateSplitWallet(
		c.Request.Context(), req.BillID, req.CreatorID, req.TotalAmount, req.Currency, shares,
	)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, wallet)
}

// GetSplitWallet resolves by service id or storage id.
func (h *SplitWalletHandler) GetSplitWallet(c *gin.Context) {
	wallet, err := h.wallets.GetSplitWallet(c.Request.Context(), c.Param("walletID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// GetByBillID resolves the wallet owned by a bill.
func (h *SplitWalletHandler) GetByBillID(c *gin.Context) {
	wallet, err := h.wallets.GetByBillID(c.Request.Context(), c.Param("billID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// LockAmount records one participant's commitment.
func (h *SplitWalletHandler) LockAmount(c *gin.Context) {
	var req request.LockAmountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.wallets.LockParticipantAmount(c.Request.Context(), c.Param("walletID"), req.UserID, req.Amount); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locked": true})
}

// LockWallet gates the wallet once everyone committed.
func (h *SplitWalletHandler) LockWallet(c *gin.Context) {
	if err := h.wallets.LockSplitWallet(c.Request.Context(), c.Param("walletID")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "locked"})
}

// PayShare collects part or all of a participant's share into escrow.
func (h *SplitWalletHandler) PayShare(c *gin.Context) {
	var req request.PayShareReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	signature, err := h.wallets.PayParticipantShare(c.Request.Context(), c.Param("walletID"), req.UserID, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction_signature": signature})
}

// Settle moves the collected total to the destination address.
func (h *SplitWalletHandler) Settle(c *gin.Context) {
	var req request.SettleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	signature, err := h.wallets.SettleToDestination(c.Request.Context(), c.Param("walletID"), req.DestinationAddress, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction_signature": signature})
}

// Cancel refunds collected funds and closes the wallet.
func (h *SplitWalletHandler) Cancel(c *gin.Context) {
	var req request.CancelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.wallets.CancelSplitWallet(c.Request.Context(), c.Param("walletID"), req.Reason); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// Join adds a participant to both the split and its wallet.
func (h *SplitWalletHandler) Join(c *gin.Context) {
	var req request.JoinSplitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wallet, err := h.joins.JoinSplit(c.Request.Context(), c.Param("walletID"), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// Completion reports funding progress.
func (h *SplitWalletHandler) Completion(c *gin.Context) {
	completion, err := h.wallets.GetCompletion(c.Request.Context(), c.Param("walletID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, completion)
}

// RevealSecretKey hands the escrow secret to the wallet creator only.
// The requester is identified by the X-User-ID header set by the gateway.
func (h *SplitWalletHandler) RevealSecretKey(c *gin.Context) {
	requester := c.GetHeader("X-User-ID")
	secret, err := h.wallets.RevealSecretKey(c.Request.Context(), c.Param("walletID"), requester)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"secret_key": secret})
}

// Repair recomputes corrupted shares on a wallet.
func (h *SplitWalletHandler) Repair(c *gin.Context) {
	repaired, err := h.repairs.RepairSplitWalletData(c.Request.Context(), c.Param("walletID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repaired": repaired})
}

// MigrateTotal aligns the wallet total with the canonical bill amount.
func (h *SplitWalletHandler) MigrateTotal(c *gin.Context) {
	var req request.MigrateTotalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wallet, err := h.wallets.GetSplitWallet(c.Request.Context(), c.Param("walletID"))
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.repairs.MigrateToCanonicalTotal(c.Request.Context(), wallet, req.ExpectedTotal); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}
