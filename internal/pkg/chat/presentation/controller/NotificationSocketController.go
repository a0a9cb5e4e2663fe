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

// NotificationSocketController handles the fixed-path websocket endpoint
// for cross-conversation notifications. The scope is derived from the
// authenticated identity, never from the URL.
type NotificationSocketController struct {
	authn auth.Authenticator
	users users.UserRepository
	deps  session.Deps
}

func NewNotificationSocketController(authn auth.Authenticator, userRepo users.UserRepository, deps session.Deps) *NotificationSocketController {
	return &NotificationSocketController{authn: authn, users: userRepo, deps: deps}
}

func (ctl *NotificationSocketController) Handle() gin.HandlerFunc {
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

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		conn := realtime.NewConnection(username, ws)
		conn.Start()

		sess := session.NewNotificationSession(ctl.deps, user, conn)
		defer func() {
			sess.Disconnect(context.Background())
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		if err := sess.Connect(c.Request.Context()); err != nil {
			ctl.deps.Log.Error("notification session connect failed",
				"user", username, "error", err)
			return
		}

		// Notification sessions are push-only, but the read loop still has
		// to drain control frames and detect the close.
		for {
			data, err := conn.Read()
			if err != nil {
				return
			}
			sess.HandleFrame(c.Request.Context(), data)
		}
	}
}
