package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPUpdater 通过课程接口远程操作看板：GET /api/courses/:id/board 拉取，
// PATCH /api/lessons/:id/session 持久化移动
type HTTPUpdater struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPUpdater(baseURL, token string) *HTTPUpdater {
	return &HTTPUpdater{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// envelope 与服务端 util.Response 一致
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (u *HTTPUpdater) do(ctx context.Context, method, path string, payload interface{}) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u.Token != "" {
		req.Header.Set("Authorization", "Bearer "+u.Token)
	}

	resp, err := u.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var env envelope
	decodeErr := json.Unmarshal(data, &env)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && env.Message != "" {
			return nil, fmt.Errorf("%d %s", resp.StatusCode, env.Message)
		}
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &env, nil
}

func (u *HTTPUpdater) UpdateSessionNo(ctx context.Context, lessonID string, sessionNo int) error {
	if _, err := u.do(ctx, http.MethodPatch, "/api/lessons/"+lessonID+"/session", map[string]int{"session_no": sessionNo}); err != nil {
		return fmt.Errorf("move lesson %s: %w", lessonID, err)
	}
	return nil
}

// FetchBoard 拉取课程看板并展开为卡片，用于在本地构造 Board
func (u *HTTPUpdater) FetchBoard(ctx context.Context, courseID string) ([]Card, error) {
	env, err := u.do(ctx, http.MethodGet, "/api/courses/"+courseID+"/board", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch board %s: %w", courseID, err)
	}

	var columns []Column
	if err := json.Unmarshal(env.Data, &columns); err != nil {
		return nil, fmt.Errorf("fetch board %s: %w", courseID, err)
	}
	var cards []Card
	for _, col := range columns {
		cards = append(cards, col.Lessons...)
	}
	return cards, nil
}
