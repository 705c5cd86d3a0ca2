package webserver

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cortexmarket/cortex-ledger/src/ledgerd/data"
)

type Auth struct {
	rdb       *redis.Client
	jwtSecret []byte
}

func NewAuth(rdb *redis.Client, secret []byte) Auth {
	return Auth{rdb: rdb, jwtSecret: secret}
}

func randomHex32() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}

// Challenge issues a one-time nonce the caller signs to prove control of an
// account address. Wallet signers expect raw hex data; service callers get a
// human-readable UUID.
func (a Auth) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required,min=32,max=128"`
		Method  string `json:"method"  binding:"required,oneof=wallet service"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if !isValidAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid address format"})
		return
	}

	var nonce string
	var err error
	switch req.Method {
	case "wallet":
		nonce, err = randomHex32()
	default:
		nonce = uuid.NewString()
	}
	if err != nil {
		log.Printf("auth: create nonce for %s: %v", req.Address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to create challenge"})
		return
	}

	if err := data.SetNonce(c, a.rdb, req.Address, nonce); err != nil {
		log.Printf("auth: store nonce for %s: %v", req.Address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

// Verify checks the signed nonce and issues a JWT carrying the caller
// address.
func (a Auth) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address"   binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if !isValidAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid address format"})
		return
	}

	nonce, err := data.GetNonce(c, a.rdb, req.Address)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "challenge expired or not found"})
		return
	}

	if err := verifySignature(req.Address, req.Signature, nonce); err != nil {
		log.Printf("auth: signature check failed for %s: %v", req.Address, err)
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad signature"})
		return
	}
	data.DelNonce(c, a.rdb, req.Address)

	token, err := issueJWT(req.Address, a.jwtSecret)
	if err != nil {
		log.Printf("auth: issue jwt for %s: %v", req.Address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func isValidAddress(addr string) bool {
	if strings.HasPrefix(addr, "0x") {
		hexStr := strings.TrimPrefix(addr, "0x")
		if len(hexStr) != 64 {
			return false
		}
		_, err := hex.DecodeString(hexStr)
		return err == nil
	}
	// base58 addresses vary in length but stay within bounds
	if len(addr) < 46 || len(addr) > 52 {
		return false
	}
	validChars := "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	for _, char := range addr {
		if !strings.ContainsRune(validChars, char) {
			return false
		}
	}
	return true
}
