package labeler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// MaxImageBytes bounds the file size sent inline to the model.
	MaxImageBytes = 20 << 20
	maxLabelRunes = 80
)

const systemPrompt = `You label scientific and photographic images for an archive catalog.
Look at the image and reply with JSON only: {"label": "<short description>"}.
The description is a lower-case noun phrase of at most ten words. If nothing can
be recognized reply {"label": ""}.`

var lower = cases.Lower(language.Und)

// Label describes the image at imagePath.
func (c *Client) Label(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("labeler: read image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("labeler: %s is %d bytes, limit %d", filepath.Base(imagePath), len(data), MaxImageBytes)
	}
	dataURL := "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)

	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: "File name: " + filepath.Base(imagePath)},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		}},
	}
	content, err := c.complete(ctx, messages, "labeler label")
	if err != nil {
		return "", err
	}
	var parsed struct {
		Label string `json:"label"`
	}
	if err := decodeJSON(content, &parsed); err != nil {
		return "", fmt.Errorf("labeler label: parse reply: %w", err)
	}
	return Normalize(parsed.Label), nil
}

// HealthCheck verifies that the key and model answer a trivial JSON prompt.
func (c *Client) HealthCheck(ctx context.Context) error {
	messages := []chatMessage{
		{Role: "system", Content: "You must respond with JSON only."},
		{Role: "user", Content: `Respond with {"ok":true}`},
	}
	content, err := c.complete(ctx, messages, "labeler health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := decodeJSON(content, &parsed); err != nil {
		return fmt.Errorf("labeler health: parse reply: %w", err)
	}
	if !parsed.OK {
		return errors.New("labeler health: unexpected reply")
	}
	return nil
}

// Normalize collapses whitespace, lower-cases and clips a label so it fits on
// one sidecar line.
func Normalize(label string) string {
	label = strings.Join(strings.Fields(label), " ")
	label = lower.String(label)
	if utf8.RuneCountInString(label) > maxLabelRunes {
		label = strings.TrimSpace(string([]rune(label)[:maxLabelRunes]))
	}
	return label
}

// decodeJSON unmarshals a model reply, tolerating code fences and prose
// around the object.
func decodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	direct := json.Unmarshal([]byte(trimmed), target)
	if direct == nil {
		return nil
	}
	body := stripFence(trimmed)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}
	if body == trimmed {
		return fmt.Errorf("%w (payload: %s)", direct, snippet(trimmed))
	}
	if err := json.Unmarshal([]byte(body), target); err != nil {
		return fmt.Errorf("%w (payload: %s)", err, snippet(body))
	}
	return nil
}

func stripFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	body := strings.TrimLeft(content[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
