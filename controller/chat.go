package controller

import (
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"relaychat/service"
)

type ChatController struct {
	completions *service.CompletionService
}

func NewChatController(completions *service.CompletionService) *ChatController {
	return &ChatController{completions: completions}
}

// Complete handles POST /providers/:provider/models/:model/completions.
// Errors found before streaming get a plain JSON body, everything after is an event.
func (ch *ChatController) Complete(c *gin.Context) {
	requestID := c.GetString("requestId")
	var input struct {
		ChatRoomID   string `json:"chatroom_id"`
		SystemPrompt string `json:"system_prompt"`
		Message      string `json:"message"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logger.Warnf("[%s] Invalid input, %s", requestID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	ctx := c.Request.Context()
	completion, err := ch.completions.Start(ctx, service.CompletionRequest{
		RequestID:    requestID,
		Provider:     c.Param("provider"),
		Model:        c.Param("model"),
		ChatRoomID:   input.ChatRoomID,
		SystemPrompt: input.SystemPrompt,
		Message:      input.Message,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Chatroom-Id", completion.ChatRoom().ID)
	w.WriteHeader(http.StatusOK)
	w.Flush()

	emit := func(event service.StreamEvent) error {
		if err := sse.Encode(w, sse.Event{Event: string(event.Type), Data: event}); err != nil {
			return err
		}
		w.Flush()
		return ctx.Err()
	}
	if err := completion.Stream(ctx, emit); err != nil {
		logger.Warnf("[%s] completion in chat room %s ended with error, %s", requestID, completion.ChatRoom().ID, err)
		return
	}
	logger.Infof("[%s] completion in chat room %s done", requestID, completion.ChatRoom().ID)
}
