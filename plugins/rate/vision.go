package rate

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wormwood/cardbase/plugins/cards"
)

// Verdict is the scoring model's structured answer.
type Verdict struct {
	Verdict     string `json:"verdict"`
	Rating      string `json:"rating"`
	Explanation string `json:"explanation"`
}

type visionRequest struct {
	Model    string          `json:"model"`
	Messages []visionMessage `json:"messages"`
}

type visionMessage struct {
	SystemInstruction visionContent    `json:"system_instruction"`
	Contents          []visionTurn     `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SafetySettings    []safetySetting  `json:"safetySettings"`
}

type visionTurn struct {
	Role  string       `json:"role"`
	Parts []visionPart `json:"parts"`
}

type visionContent struct {
	Parts []visionPart `json:"parts"`
}

type visionPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   responseSchema `json:"responseSchema"`
}

type responseSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
}

type schemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type visionResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// The scoring endpoint moderates nothing; the bot decides what to repeat.
var blockNone = []safetySetting{
	{"HARM_CATEGORY_HARASSMENT", "BLOCK_NONE"},
	{"HARM_CATEGORY_HATE_SPEECH", "BLOCK_NONE"},
	{"HARM_CATEGORY_SEXUALLY_EXPLICIT", "BLOCK_NONE"},
	{"HARM_CATEGORY_DANGEROUS_CONTENT", "BLOCK_NONE"},
	{"HARM_CATEGORY_CIVIC_INTEGRITY", "BLOCK_NONE"},
}

func (p *RatePlugin) visionPayload(prompt string, img []byte) visionRequest {
	return visionRequest{
		Model: p.c.Get("rate.model", "gemini-2.5-flash"),
		Messages: []visionMessage{{
			SystemInstruction: visionContent{
				Parts: []visionPart{{Text: prompt}},
			},
			Contents: []visionTurn{{
				Role: "user",
				Parts: []visionPart{
					{Text: "Look at this picture and decide: ship it or skip it?"},
					{InlineData: &inlineData{
						Data:     base64.StdEncoding.EncodeToString(img),
						MimeType: "image/jpeg",
					}},
				},
			}},
			GenerationConfig: generationConfig{
				ResponseMimeType: "application/json",
				ResponseSchema: responseSchema{
					Type: "OBJECT",
					Properties: map[string]schemaProperty{
						"verdict":     {Type: "STRING", Description: "'ship it' or 'skip it'"},
						"rating":      {Type: "STRING", Description: "a number from 1 to 10"},
						"explanation": {Type: "STRING", Description: "your reasoning, in character"},
					},
				},
			},
			SafetySettings: blockNone,
		}},
	}
}

// judge sends one scoring request. A single attempt with a bounded timeout;
// callers turn any error into a user-facing line.
func (p *RatePlugin) judge(prompt string, img []byte) (Verdict, error) {
	baseURL := p.c.Get("rate.baseurl", "https://api.example.com/v1/chat/completions")
	apiKey := p.c.Get("rate.apikey", "")
	if apiKey == "" {
		return Verdict{}, cards.Fetchf(cards.FetchStatus, "judge", fmt.Errorf("no rate.apikey configured"))
	}

	body, _ := json.Marshal(p.visionPayload(prompt, img))
	req, err := http.NewRequest(http.MethodPost, baseURL, bytes.NewBuffer(body))
	if err != nil {
		return Verdict{}, cards.Fetchf(cards.FetchDownload, "judge", err)
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+apiKey)

	client := &http.Client{
		Timeout: time.Duration(p.c.GetInt("rate.timeout", 10)) * time.Second,
	}
	res, err := client.Do(req)
	if err != nil {
		return Verdict{}, cards.Fetchf(cards.FetchDownload, "judge", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Verdict{}, cards.Fetchf(cards.FetchStatus, "judge", fmt.Errorf("status %d", res.StatusCode))
	}

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return Verdict{}, cards.Fetchf(cards.FetchDownload, "judge", err)
	}

	return parseVerdict(resBody)
}

// parseVerdict digs the model's JSON answer out of the first candidate. The
// raw payload is logged on any shape mismatch since schema drift is the
// usual culprit.
func parseVerdict(resBody []byte) (Verdict, error) {
	var resp visionResponse
	if err := json.Unmarshal(resBody, &resp); err != nil {
		log.Error().Str("body", string(resBody)).Msg("could not decode scoring response")
		return Verdict{}, cards.Fetchf(cards.FetchParse, "judge", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Error().Str("body", string(resBody)).Msg("scoring response missing candidates")
		return Verdict{}, cards.Fetchf(cards.FetchParse, "judge", fmt.Errorf("no candidates in response"))
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	var v Verdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		log.Error().Str("text", text).Msg("candidate text is not verdict JSON")
		return Verdict{}, cards.Fetchf(cards.FetchParse, "judge", err)
	}
	if v.Verdict == "" || v.Rating == "" || v.Explanation == "" {
		log.Error().Str("text", text).Msg("verdict JSON missing fields")
		return Verdict{}, cards.Fetchf(cards.FetchParse, "judge", fmt.Errorf("verdict missing fields"))
	}
	return v, nil
}
