package repository

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"chatbuysell/internal/domain/entity"
	"chatbuysell/internal/domain/repository"
	"chatbuysell/pkg/errors"
	"chatbuysell/pkg/logger"
	"chatbuysell/pkg/response"
	"chatbuysell/pkg/utils"
)

const maxErrorBody = 4 * 1024

type oauthCallbackRequest struct {
	Code  string `validate:"required"`
	State string `validate:"required"`
}

type createPostRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Content string `json:"content" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=mua ban"`
}

type findMatchesRequest struct {
	Content  string `json:"content" validate:"required"`
	Page     int    `json:"page" validate:"min=1"`
	PageSize int    `json:"pageSize" validate:"min=1,max=50"`
}

type listRoomsRequest struct {
	UserID string `validate:"required"`
}

type getRoomRequest struct {
	RoomID string `validate:"required"`
}

type createRoomRequest struct {
	BuyerID  string `json:"buyerId" validate:"required"`
	SellerID string `json:"sellerId" validate:"required"`
	PostID   string `json:"postId" validate:"required"`
}

type sendMessageRequest struct {
	RoomID   string `json:"roomId" validate:"required"`
	SenderID string `json:"senderId" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

type userResponse struct {
	User *entity.Identity `json:"user"`
}

type postResponse struct {
	Post *entity.Post `json:"post"`
}

type matchesResponse struct {
	Matches  []entity.MatchCandidate `json:"matches"`
	Total    int                     `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"pageSize"`
}

type roomsResponse struct {
	Rooms []entity.ChatRoom `json:"rooms"`
}

type roomResponse struct {
	ChatRoom *entity.ChatRoom `json:"chatRoom"`
}

type messageResponse struct {
	MessageID string `json:"messageId"`
}

type backendErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type httpChatRepository struct {
	baseURL  string
	loginURL string
	client   *http.Client
	validate *validator.Validate
}

// NewHTTPChatRepository talks to the chat backend at baseURL. loginURL is the
// OAuth entry the user is sent to; empty means baseURL + "/auth/facebook".
func NewHTTPChatRepository(baseURL, loginURL string, timeout time.Duration) repository.ChatRepository {
	baseURL = strings.TrimRight(baseURL, "/")
	if loginURL == "" {
		loginURL = baseURL + "/auth/facebook"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpChatRepository{
		baseURL:  baseURL,
		loginURL: loginURL,
		client:   &http.Client{Timeout: timeout},
		validate: validator.New(),
	}
}

func (r *httpChatRepository) LoginURL() string {
	return r.loginURL
}

func (r *httpChatRepository) CompleteOAuth(ctx context.Context, code, state string) (*entity.Identity, error) {
	req := oauthCallbackRequest{Code: code, State: state}
	if err := r.check(req); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("code", code)
	q.Set("state", state)

	var out userResponse
	if err := r.do(ctx, http.MethodGet, "/auth/facebook/callback?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, errors.Backend(http.StatusOK, "Authentication response has no user", nil)
	}
	return out.User, nil
}

func (r *httpChatRepository) CreatePost(ctx context.Context, userID string, postType entity.PostType, content string) (*entity.Post, error) {
	req := createPostRequest{UserID: userID, Content: content, Type: string(postType)}
	if err := r.check(req); err != nil {
		return nil, err
	}

	var out postResponse
	if err := r.do(ctx, http.MethodPost, "/post/create", req, &out); err != nil {
		return nil, err
	}
	if out.Post == nil {
		return nil, errors.Backend(http.StatusOK, "Create post response has no post", nil)
	}
	return out.Post, nil
}

func (r *httpChatRepository) FindMatches(ctx context.Context, query repository.MatchQuery) (*repository.MatchResult, error) {
	page := utils.NormalizePagination(query.Page, query.PageSize)
	req := findMatchesRequest{Content: query.Content, Page: page.Page, PageSize: page.PageSize}
	if err := r.check(req); err != nil {
		return nil, err
	}

	var out matchesResponse
	if err := r.do(ctx, http.MethodPost, "/matching/find", req, &out); err != nil {
		return nil, err
	}

	result := &repository.MatchResult{
		Matches:  out.Matches,
		Total:    out.Total,
		Page:     out.Page,
		PageSize: out.PageSize,
	}
	if result.Matches == nil {
		result.Matches = []entity.MatchCandidate{}
	}
	return result, nil
}

func (r *httpChatRepository) ListRooms(ctx context.Context, userID string) ([]entity.ChatRoom, error) {
	if err := r.check(listRoomsRequest{UserID: userID}); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("userId", userID)

	var out roomsResponse
	if err := r.do(ctx, http.MethodGet, "/chat/rooms?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out.Rooms == nil {
		return []entity.ChatRoom{}, nil
	}
	return out.Rooms, nil
}

func (r *httpChatRepository) GetRoom(ctx context.Context, roomID string) (*entity.RoomDetail, error) {
	if err := r.check(getRoomRequest{RoomID: roomID}); err != nil {
		return nil, err
	}

	var out entity.RoomDetail
	if err := r.do(ctx, http.MethodGet, "/chat/room/"+url.PathEscape(roomID), nil, &out); err != nil {
		return nil, err
	}
	if out.ChatRoom.ID == "" {
		out.ChatRoom.ID = roomID
	}
	if out.ChatRoom.Post == nil {
		out.ChatRoom.Post = out.Post
	}
	if out.Messages == nil {
		out.Messages = []entity.Message{}
	}
	return &out, nil
}

func (r *httpChatRepository) CreateRoom(ctx context.Context, input repository.CreateRoomInput) (*entity.ChatRoom, error) {
	req := createRoomRequest{BuyerID: input.BuyerID, SellerID: input.SellerID, PostID: input.PostID}
	if err := r.check(req); err != nil {
		return nil, err
	}

	var out roomResponse
	if err := r.do(ctx, http.MethodPost, "/chat/room/create", req, &out); err != nil {
		return nil, err
	}
	if out.ChatRoom == nil || out.ChatRoom.ID == "" {
		return nil, errors.Backend(http.StatusOK, "Create room response has no room", nil)
	}
	return out.ChatRoom, nil
}

func (r *httpChatRepository) SendMessage(ctx context.Context, input repository.SendMessageInput) (string, error) {
	req := sendMessageRequest{RoomID: input.RoomID, SenderID: input.SenderID, Content: input.Content}
	if err := r.check(req); err != nil {
		return "", err
	}

	var out messageResponse
	if err := r.do(ctx, http.MethodPost, "/chat/message", req, &out); err != nil {
		return "", err
	}
	if out.MessageID == "" {
		return "", errors.Backend(http.StatusOK, "Send message response has no id", nil)
	}
	return out.MessageID, nil
}

func (r *httpChatRepository) check(req interface{}) error {
	if err := r.validate.Struct(req); err != nil {
		var validationErr validator.ValidationErrors
		if stderrors.As(err, &validationErr) {
			return errors.Validation(response.ValidationMessage(validationErr), err)
		}
		return errors.Validation("Invalid request", err)
	}
	return nil
}

func (r *httpChatRepository) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Internal("Failed to encode request", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return errors.Internal("Failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		logger.Warn("Backend %s %s Error: %v", method, path, err)
		return errors.Transport("Could not reach the server", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.Warn("Backend %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(payload)))
		return errors.Backend(resp.StatusCode, backendMessage(resp.StatusCode, payload), payload)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Transport("Invalid response from the server", err)
	}
	return nil
}

func backendMessage(status int, payload []byte) string {
	var body backendErrorBody
	if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
		if body.Detail != "" {
			return body.Error + ": " + body.Detail
		}
		return body.Error
	}
	if msg := strings.TrimSpace(string(payload)); msg != "" && len(msg) < 200 {
		return msg
	}
	return fmt.Sprintf("Server returned status %d", status)
}
