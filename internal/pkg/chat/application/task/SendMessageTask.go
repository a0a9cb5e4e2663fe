package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	qport "conversa/internal/infrastructure/queue/port"
	chat "conversa/internal/pkg/chat/application/domain"
	"conversa/internal/pkg/chat/application/usecase"
	"conversa/internal/pkg/chat/session"
)

// SendMessageTaskType is the queue task name for sending a message into a
// conversation from the REST path.
const SendMessageTaskType = "chat:send_message"

// SendMessageTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SendMessageTaskPayload struct {
	ConversationName string `json:"conversationName"`
	Sender           string `json:"sender"`
	Content          string `json:"content"`
}

// RegisterSendMessageTask binds the task handler to the provided server.
// The worker persists the message and fans it out exactly like the
// websocket path does, so REST-submitted messages reach live sessions too.
func RegisterSendMessageTask(srv qport.Server, deps session.Deps) {
	srv.Register(SendMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p SendMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying cannot help
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		conv, err := deps.Open.Execute(ctx, p.ConversationName)
		if err != nil {
			if errors.Is(err, chat.ErrBadConversationName) {
				return nil
			}
			return err
		}

		sender, err := deps.Send.Users.FindByUsername(ctx, p.Sender)
		if err != nil {
			return err
		}

		msg, err := deps.Send.Execute(ctx, usecase.SendMessageInput{
			Conversation: conv,
			Sender:       sender,
			Content:      p.Content,
		})
		switch {
		case errors.Is(err, chat.ErrNotParticipant), errors.Is(err, chat.ErrEmptyMessage):
			// invalid forever; dropping beats retrying
			deps.Log.Warn("send task dropped", "conversation", p.ConversationName, "sender", p.Sender, "error", err)
			return nil
		case err != nil:
			// persistence failure: retry per queue policy, nothing broadcast
			return err
		}

		session.PublishMessage(ctx, deps.Backplane, conv.Name, msg, deps.Log)
		return nil
	})
}
