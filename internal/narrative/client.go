// Package narrative talks to the LLM edge function that produces themed
// titles and loot descriptions. The service is unreliable by design: callers
// are expected to skip the affected item when a call fails or times out.
package narrative

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"starfall_questboard/internal/model"

	"github.com/goccy/go-json"
)

type Config struct {
	BaseURL string        `yaml:"baseURL"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

type generateRequest struct {
	Prompt string   `json:"prompt"`
	Fields []string `json:"fields"`
}

func (c *Client) generate(ctx context.Context, prompt string, fields []string, out interface{}) error {
	body, err := json.Marshal(generateRequest{Prompt: prompt, Fields: fields})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoke-llm", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("narrative request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("narrative service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode narrative response: %w", err)
	}

	return nil
}

// QuestTitle produces a freshly varied RPG-style title for a routine task.
// Only the title changes day to day; difficulty and rarity stay with the
// template.
func (c *Client) QuestTitle(ctx context.Context, actionHint string) (string, error) {
	prompt := fmt.Sprintf(
		"You are the chief chronicler of the Starfall Era adventurers' guild. "+
			"Daily training content: %q. Generate a fresh RPG-style title for "+
			"today's instance of this routine task. The title must vary from "+
			"day to day while reflecting the task's essence. Return only the title.",
		actionHint)

	var out struct {
		Title string `json:"title"`
	}
	if err := c.generate(ctx, prompt, []string{"title"}, &out); err != nil {
		return "", err
	}
	if out.Title == "" {
		return "", fmt.Errorf("narrative service returned an empty title")
	}

	return out.Title, nil
}

// TreasureLoot themes a chest drop of the given rarity. Crafted items get a
// forging backstory instead of a found-treasure one.
func (c *Client) TreasureLoot(ctx context.Context, rarity model.Rarity, crafted bool) (*model.LootTheme, error) {
	origin := "discovered in a daily treasure chest"
	if crafted {
		origin = "forged by smelting lower-tier materials; the description must mention the forging"
	}

	prompt := fmt.Sprintf(
		"Generate an RPG-style treasure item of rarity %s, %s. "+
			"Provide a name, a short flavor text and an emoji icon.",
		rarity, origin)

	var theme model.LootTheme
	if err := c.generate(ctx, prompt, []string{"name", "flavorText", "icon"}, &theme); err != nil {
		return nil, err
	}

	return &theme, nil
}

// MilestoneLoot themes the unique Legendary keepsake minted when a streak
// threshold is crossed.
func (c *Client) MilestoneLoot(ctx context.Context, days int, title, icon string) (*model.LootTheme, error) {
	prompt := fmt.Sprintf(
		"An adventurer reached a %d-day completion streak and earned the title %q. "+
			"Mint a one-of-a-kind commemorative Legendary treasure for this milestone. "+
			"Base the icon on %s. The name must reference the %d-day streak.",
		days, title, icon, days)

	var theme model.LootTheme
	if err := c.generate(ctx, prompt, []string{"name", "flavorText", "icon"}, &theme); err != nil {
		return nil, err
	}

	return &theme, nil
}
