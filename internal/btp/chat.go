package btp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const chatPath = "/api/chatbot/send/"

// NoReply is shown when the assistant answers without text.
const NoReply = "Désolé, je n'ai pas pu générer de réponse."

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply    string `json:"reply"`
	Message  string `json:"message"`
	Response string `json:"response"`
	Detail   string `json:"detail"`
}

// SendChat relays a message to the backend assistant and returns its reply.
func (c *Client) SendChat(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("message is empty")
	}

	body, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, chatPath, nil, body, "application/json")
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			var resp chatResponse
			if json.Unmarshal(se.body, &resp) == nil && resp.Detail != "" {
				return "", &DetailError{Status: se.status, Detail: resp.Detail}
			}
			return "", &DetailError{Status: se.status, Detail: "Une erreur est survenue"}
		}
		return "", fmt.Errorf("sending chat message: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("parsing chat response: %w", err)
	}
	for _, reply := range []string{resp.Reply, resp.Message, resp.Response} {
		if reply != "" {
			return reply, nil
		}
	}
	return NoReply, nil
}
