package controller

import (
	"context"
	"net/http"

	"conversa/internal/infrastructure/auth"
	"conversa/internal/infrastructure/realtime"
	"conversa/internal/pkg/chat/session"
	users "conversa/internal/repository/port"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Token auth carries the identity; origin is not part of the model.
		return true
	},
}

// ChatSocketController handles the websocket endpoint binding one client to
// one conversation. One controller per endpoint.
type ChatSocketController struct {
	authn auth.Authenticator
	users users.UserRepository
	deps  session.Deps
}

func NewChatSocketController(authn auth.Authenticator, userRepo users.UserRepository, deps session.Deps) *ChatSocketController {
	return &ChatSocketController{authn: authn, users: userRepo, deps: deps}
}

// Handle upgrades the connection and runs the session until the client
// disconnects. Unauthenticated connects are rejected before the upgrade
// with no frame and no body.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := ctl.authn.Authenticate(c.Request)
		if err != nil {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		user, err := ctl.users.FindByUsername(c.Request.Context(), username)
		if err != nil {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		name := c.Param("conversationName")

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		conn := realtime.NewConnection(username, ws)
		conn.Start()

		sess := session.NewConversationSession(ctl.deps, user, name, conn)
		defer func() {
			// Cleanup must run however the connection ends.
			sess.Disconnect(context.Background())
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		if err := sess.Connect(c.Request.Context()); err != nil {
			ctl.deps.Log.Error("chat session connect failed",
				"conversation", name, "user", username, "error", err)
			return
		}

		for {
			data, err := conn.Read()
			if err != nil {
				return
			}
			sess.HandleFrame(c.Request.Context(), data)
		}
	}
}
