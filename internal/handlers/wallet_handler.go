package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/festora/internal/helpers"
	"github.com/joshua-takyi/festora/internal/middleware"
	"github.com/joshua-takyi/festora/internal/models"
	"github.com/joshua-takyi/festora/internal/wallet"
)

type connectWalletRequest struct {
	Address    string `json:"address" binding:"required"`
	Passphrase string `json:"passphrase" binding:"required"`
}

// SessionOptions control the session token issued on wallet connect.
type SessionOptions struct {
	Secret       []byte
	SecureCookie bool
}

func ConnectWallet(wm *wallet.Manager, opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req connectWalletRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		session, err := wm.Connect(c.Request.Context(), helpers.StringTrim(req.Address), req.Passphrase)
		if err != nil {
			respondError(c, err)
			return
		}

		now := time.Now()
		token, err := helpers.IssueSessionToken(opts.Secret, session.Address, now, session.ExpiresAt)
		if err != nil {
			_ = wm.Disconnect(session.Address)
			respondError(c, err)
			return
		}
		maxAge := int(time.Until(session.ExpiresAt).Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", opts.SecureCookie, true)

		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"address":   session.Address,
			"expiresAt": session.ExpiresAt,
			"token":     token,
		}, "Wallet connected"))
	}
}

func DisconnectWallet(wm *wallet.Manager, opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := viewerAddress(c)
		if err := wm.Disconnect(address); err != nil {
			respondError(c, err)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, "", -1, "/", "", opts.SecureCookie, true)
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"address": address}, "Wallet disconnected"))
	}
}

// WalletStatus reports whether the session's wallet is still unlocked.
func WalletStatus(wm *wallet.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := viewerAddress(c)
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"address":   address,
			"connected": wm.Connected(address),
		}, ""))
	}
}

func ListWalletAccounts(wm *wallet.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts := wm.Accounts()
		c.JSON(http.StatusOK, models.ListResponse(accounts, len(accounts)))
	}
}
