package handlers

import (
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/pulsex/care-service/internal/config"
)

// CasdoorAuthMiddleware authenticates tokens issued by a Casdoor instance.
// Identity comes from Casdoor; role and activation come from the local user
// with the same email.
type CasdoorAuthMiddleware struct {
	client *casdoorsdk.Client
	users  UserResolver
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, users UserResolver) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &CasdoorAuthMiddleware{
		client: client,
		users:  users,
	}
}

func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		claims, err := cam.client.ParseJwtToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		if claims.User.Email == "" {
			abortUnauthorized(c, "token carries no email")
			return
		}

		user, err := cam.users.ResolveUser(c.Request.Context(), claims.User.Email)
		if err != nil {
			abortResolveError(c, err)
			return
		}

		setUser(c, user)
		c.Next()
	}
}
