package http

import (
	"conversa/internal/infrastructure/auth"
	qport "conversa/internal/infrastructure/queue/port"
	"conversa/internal/pkg/chat/presentation/controller"
	"conversa/internal/pkg/chat/session"
	users "conversa/internal/repository/port"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers chat-related endpoints on the engine. It
// constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(r *gin.Engine, authn auth.Authenticator, userRepo users.UserRepository, deps session.Deps, client qport.Client) {
	chatWS := controller.NewChatSocketController(authn, userRepo, deps)
	notifWS := controller.NewNotificationSocketController(authn, userRepo, deps)
	sendCtl := controller.NewSendMessageController(authn, client)

	// Websocket endpoints: conversations are addressed by path parameter,
	// notifications by a fixed path scoped to the authenticated identity.
	r.GET("/ws/chats/:conversationName", chatWS.Handle())
	r.GET("/ws/notifications", notifWS.Handle())

	api := r.Group("/api/v1")
	api.POST("/chats/:conversationName/messages", sendCtl.Handle())
}
