package stylistchat

import "muse-workers/internal/models"

type Input struct {
	UserID  string               `json:"userId"`
	Message string               `json:"message"`
	History []models.ChatMessage `json:"history"`
}

type Output struct {
	Reply    string               `json:"reply"`
	History  []models.ChatMessage `json:"history"`
	Fallback bool                 `json:"fallback"`
}
