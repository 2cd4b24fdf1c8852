package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
)

const actorKey = "actor"

// ActorClaims is the bearer token payload. Subject carries the user id.
type ActorClaims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	CompanyID int64  `json:"company_id,omitempty"`
}

// Actor converts the claims into a workflow actor
func (c *ActorClaims) Actor() (domainwf.Actor, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domainwf.Actor{}, fmt.Errorf("invalid subject %q", c.Subject)
	}
	role := domainwf.Role(c.Role)
	if !role.IsValid() {
		return domainwf.Actor{}, fmt.Errorf("unknown role %q", c.Role)
	}
	if role == domainwf.RoleSupplier && c.CompanyID <= 0 {
		return domainwf.Actor{}, errors.New("supplier token without company_id")
	}
	return domainwf.Actor{ID: id, Role: role, CompanyID: c.CompanyID}, nil
}

// SignActorToken issues an HS256 token for the actor, valid for ttl
func SignActorToken(secret string, actor domainwf.Actor, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("auth secret is required")
	}
	now := time.Now()
	claims := ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(actor.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:      actor.Role.String(),
		CompanyID: actor.CompanyID,
	}
	if _, err := claims.Actor(); err != nil {
		return "", err
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseActorToken verifies the token signature and expiry and returns the actor
func ParseActorToken(secret, token string) (domainwf.Actor, error) {
	claims := &ActorClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return domainwf.Actor{}, err
	}
	return claims.Actor()
}

// NewAuthMiddleware resolves the actor from the Authorization header
func NewAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		actor, err := ParseActorToken(secret, strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Success: false,
		Error:   msg,
		Code:    "unauthorized",
	})
}

func actorFrom(c *gin.Context) (domainwf.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domainwf.Actor{}, false
	}
	actor, ok := v.(domainwf.Actor)
	return actor, ok
}
