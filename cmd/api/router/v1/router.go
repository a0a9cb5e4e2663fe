package v1

import (
	"conversa/internal/infrastructure/auth"
	qport "conversa/internal/infrastructure/queue/port"
	httpHandler "conversa/internal/pkg/chat/presentation/http"
	"conversa/internal/pkg/chat/session"
	users "conversa/internal/repository/port"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the websocket endpoints and all version 1 API
// routes, passing the shared dependencies down to the HTTP layer.
func RegisterRoutes(r *gin.Engine, authn auth.Authenticator, userRepo users.UserRepository, deps session.Deps, client qport.Client) {
	httpHandler.RegisterRoutes(r, authn, userRepo, deps, client)
}
