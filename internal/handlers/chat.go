package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/pixelbay/marketplace/internal/jwtmiddleware"
	"github.com/pixelbay/marketplace/internal/models"
	"github.com/pixelbay/marketplace/internal/mykafka"
)

type ChatHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

// publish fans a chat event out to the gig's room: events are keyed by gig
// id so all subscribers of that gig's conversation partition together.
func (h *ChatHandler) publish(c echo.Context, gigID uint, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicChatEvents, fmt.Sprint(gigID), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	senderID := jwtmiddleware.UserID(c)

	var req struct {
		GigID   uint   `json:"gigId"`
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message content is required")
	}

	// gig -> store -> owner gives the receiver.
	var gig models.Gig
	if err := h.DB.First(&gig, req.GigID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Gig not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	var store models.Store
	if err := h.DB.First(&store, gig.StoreID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Store not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	receiverID := store.UserID
	if senderID == receiverID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot message yourself")
	}

	var chat models.Chat
	if err := h.DB.
		Where(models.Chat{GigID: req.GigID, InitiatorID: senderID}).
		Attrs(models.Chat{GigOwnerID: receiverID}).
		FirstOrCreate(&chat).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	msg := models.Message{
		ChatID:     chat.ID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    req.Content,
		Timestamp:  time.Now().UTC(),
	}
	if err := h.DB.Create(&msg).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, req.GigID, map[string]any{
		"type":     "message_sent",
		"chatID":   chat.ID,
		"gigID":    req.GigID,
		"sender":   senderID,
		"receiver": receiverID,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": msg,
		"chat":    chat,
	})
}

func (h *ChatHandler) GetChatHistory(c echo.Context) error {
	requesterID := jwtmiddleware.UserID(c)

	chatID, err := strconv.Atoi(c.Param("chatId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid chat id")
	}

	var messages []models.Message
	if err := h.DB.
		Where("chat_id = ? AND (sender_id = ? OR receiver_id = ?)", chatID, requesterID, requesterID).
		Order("timestamp ASC").
		Find(&messages).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// No visible messages is an empty history, not an error.
	return c.JSON(http.StatusOK, echo.Map{
		"messages": messages,
	})
}

type chatListEntry struct {
	Chat        models.Chat     `json:"chat"`
	LastMessage *models.Message `json:"lastMessage"`
	Initiator   chatParty       `json:"initiator"`
	GigOwner    chatParty       `json:"gigOwner"`
	GigName     string          `json:"gigName"`
}

type chatParty struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
}

func (h *ChatHandler) GetUserChatList(c echo.Context) error {
	requesterID := jwtmiddleware.UserID(c)

	var chats []models.Chat
	if err := h.DB.
		Where("initiator_id = ? OR gig_owner_id = ?", requesterID, requesterID).
		Order("created_at DESC").
		Find(&chats).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	entries := make([]chatListEntry, 0, len(chats))
	for _, chat := range chats {
		entry := chatListEntry{Chat: chat}

		// The last message is looked up per chat, so two threads on the
		// same gig never leak each other's messages into the list view.
		var last models.Message
		err := h.DB.Where("chat_id = ?", chat.ID).Order("timestamp DESC").First(&last).Error
		if err == nil {
			entry.LastMessage = &last
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		entry.Initiator = h.party(chat.InitiatorID)
		entry.GigOwner = h.party(chat.GigOwnerID)

		var gig models.Gig
		if err := h.DB.First(&gig, chat.GigID).Error; err == nil {
			entry.GigName = gig.ProductName
		}

		entries = append(entries, entry)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"chats": entries,
	})
}

func (h *ChatHandler) party(userID uint) chatParty {
	var u models.User
	if err := h.DB.First(&u, userID).Error; err != nil {
		return chatParty{ID: userID}
	}
	return chatParty{ID: u.ID, Username: u.Username, ProfilePic: u.ProfilePic}
}
