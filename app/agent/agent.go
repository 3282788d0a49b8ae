package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"chatwidget/citation"
	"chatwidget/types"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxReplySize = 8 << 20

// StatusError is a non-2xx answer from the chat backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat backend returned %d: %s", e.Code, e.Body)
}

// Client talks to the chat backend and its languages listing.
type Client struct {
	chatURL      string
	languagesURL string
	http         *http.Client
	logger       *zap.Logger
}

func NewClient(chatURL, languagesURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		chatURL:      chatURL,
		languagesURL: languagesURL,
		http:         &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// Chat posts one turn. A pending attachment switches the body to multipart.
func (c *Client) Chat(ctx context.Context, req types.ChatRequest) (*types.Reply, error) {
	start := time.Now()
	defer func() {
		c.logger.Debug("chat request finished", zap.Duration("took", time.Since(start)))
	}()

	body, contentType, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return nil, fmt.Errorf("read chat reply: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return ParseReply(raw), nil
}

func encodeRequest(req types.ChatRequest) (io.Reader, string, error) {
	if req.ConversationHistory == nil {
		req.ConversationHistory = []types.HistoryEntry{}
	}
	if req.Attachment == nil {
		b, err := json.Marshal(req)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(b), "application/json", nil
	}

	history, err := json.Marshal(req.ConversationHistory)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"message", req.Message},
		{"conversation_history", string(history)},
		{"user_language", req.UserLanguage},
		{"output_language", req.OutputLanguage},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.Attachment.Name))
	h.Set("Content-Type", req.Attachment.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Attachment.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var (
	textPaths   = []string{"response", "answer", "output.text", "output.answer"}
	sourcePaths = []string{"sources", "citations", "output.sources", "output.citations"}
)

// ParseReply resolves any of the reply shapes the backend produces. Bodies
// that are not JSON are repaired when possible and otherwise taken as the
// answer text.
func ParseReply(body []byte) *types.Reply {
	raw := bytes.TrimSpace(body)
	if !gjson.ValidBytes(raw) {
		repaired, err := jsonrepair.JSONRepair(string(raw))
		if err != nil || !gjson.Valid(repaired) || !gjson.Parse(repaired).IsObject() {
			return &types.Reply{Text: string(body)}
		}
		raw = []byte(repaired)
	}

	doc := gjson.ParseBytes(raw)
	if doc.Type == gjson.String {
		return &types.Reply{Text: doc.String()}
	}
	if !doc.IsObject() {
		return &types.Reply{Text: string(body)}
	}

	reply := &types.Reply{}
	for _, p := range textPaths {
		if r := doc.Get(p); r.Exists() && r.Type == gjson.String {
			reply.Text = r.String()
			break
		}
	}
	for _, p := range sourcePaths {
		r := doc.Get(p)
		if !r.Exists() || r.Type == gjson.Null {
			continue
		}
		var v any
		if err := json.UnmarshalFromString(r.Raw, &v); err != nil {
			continue
		}
		reply.Sources = v
		reply.Grouped = citation.IsGrouped(v)
		break
	}
	return reply
}

// Languages fetches the code to display-name listing.
func (c *Client) Languages(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.languagesURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("languages request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var out struct {
		Languages map[string]string `json:"languages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode languages: %w", err)
	}
	return out.Languages, nil
}
