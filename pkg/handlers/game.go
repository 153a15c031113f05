package handlers

import (
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/appsfolder/SWVNE/pkg/models"
)

const savedGameSessionKey = "saved_game"

// GameHandler keeps one save game per player session. The state is opaque
// JSON owned by the game client.
type GameHandler struct{}

func NewGameHandler() *GameHandler {
	return &GameHandler{}
}

func (h *GameHandler) Save(c *gin.Context) {
	const op = "[GameHandler] Save"

	var state models.GameState
	if err := decodeJSONBody(c, &state); err != nil || state == nil {
		badRequest(c, op, "game state must be a JSON object")
		return
	}
	encoded, err := json.Marshal(state)
	if err != nil {
		respondError(c, op, err)
		return
	}

	session := sessions.Default(c)
	session.Set(savedGameSessionKey, string(encoded))
	if err := session.Save(); err != nil {
		respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Message: "game saved"})
}

// Load returns the saved state, or the initial state when there is none.
func (h *GameHandler) Load(c *gin.Context) {
	raw, _ := sessions.Default(c).Get(savedGameSessionKey).(string)
	if raw == "" {
		c.JSON(http.StatusOK, models.DefaultGameState())
		return
	}

	var state models.GameState
	if err := json.Unmarshal([]byte(raw), &state); err != nil || state == nil {
		log.Printf("[GameHandler] Load: discarding unreadable saved game: %v", err)
		c.JSON(http.StatusOK, models.DefaultGameState())
		return
	}
	c.JSON(http.StatusOK, state)
}
