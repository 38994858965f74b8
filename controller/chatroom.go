package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relaychat/service"
)

type ChatRoomController struct {
	rooms *service.ChatRoomService
}

func NewChatRoomController(rooms *service.ChatRoomService) *ChatRoomController {
	return &ChatRoomController{rooms: rooms}
}

func (ctrl *ChatRoomController) List(c *gin.Context) {
	rooms, err := ctrl.rooms.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (ctrl *ChatRoomController) Get(c *gin.Context) {
	room, err := ctrl.rooms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (ctrl *ChatRoomController) Messages(c *gin.Context) {
	messages, err := ctrl.rooms.Messages(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// Rename handles PATCH /chatrooms/:id. Only the title can change.
func (ctrl *ChatRoomController) Rename(c *gin.Context) {
	var input struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	room, err := ctrl.rooms.Rename(c.Request.Context(), c.Param("id"), input.Title)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (ctrl *ChatRoomController) Delete(c *gin.Context) {
	if err := ctrl.rooms.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	logger.Infof("[%s] deleted chat room %s", c.GetString("requestId"), c.Param("id"))
	c.Status(http.StatusNoContent)
}
