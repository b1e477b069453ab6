package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymagic-api/internal/domain/entity"
	"storymagic-api/internal/domain/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStoryRepo struct {
	stories map[string]*entity.Story
}

func (m *memStoryRepo) Create(_ context.Context, st *entity.Story) error {
	if m.stories == nil {
		m.stories = map[string]*entity.Story{}
	}
	m.stories[st.ID] = st
	return nil
}

func (m *memStoryRepo) GetByID(_ context.Context, id string) (*entity.Story, error) {
	return m.stories[id], nil
}

func (m *memStoryRepo) ListByUser(_ context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.Story], error) {
	var items []*entity.Story
	for _, st := range m.stories {
		if st.UserID == userID {
			items = append(items, st)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (m *memStoryRepo) UpdateContent(_ context.Context, id string, content entity.StoryContent, status entity.StoryStatus) error {
	st, ok := m.stories[id]
	if !ok {
		return fmt.Errorf("story %s not found", id)
	}
	st.Content = content
	st.Status = status
	return nil
}

func (m *memStoryRepo) Delete(_ context.Context, id string) error {
	delete(m.stories, id)
	return nil
}

type memContRepo struct {
	conts map[string]*entity.StoryContinuation
}

func (m *memContRepo) Create(_ context.Context, cont *entity.StoryContinuation) error {
	if m.conts == nil {
		m.conts = map[string]*entity.StoryContinuation{}
	}
	m.conts[cont.ID] = cont
	return nil
}

func (m *memContRepo) GetByID(_ context.Context, id string) (*entity.StoryContinuation, error) {
	return m.conts[id], nil
}

func (m *memContRepo) ListByStory(_ context.Context, storyID string) ([]*entity.StoryContinuation, error) {
	var out []*entity.StoryContinuation
	for _, cont := range m.conts {
		if cont.StoryID == storyID {
			out = append(out, cont)
		}
	}
	return out, nil
}

func (m *memContRepo) UpdateContent(_ context.Context, id string, content entity.StoryContent, status entity.StoryStatus) error {
	cont, ok := m.conts[id]
	if !ok {
		return fmt.Errorf("continuation %s not found", id)
	}
	cont.Content = content
	cont.Status = status
	return nil
}

func (m *memContRepo) CountByOwnerSince(context.Context, string, time.Time) (int, error) {
	return 0, nil
}

func seededStory(id, userID string) *entity.Story {
	return &entity.Story{
		ID:     id,
		UserID: userID,
		Title:  "The Candy River",
		Status: entity.StoryStatusReady,
		Content: entity.StoryContent{
			Title:   "The Candy River",
			Summary: "A bunny by a candy river.",
			Pages: []entity.StoryPage{
				{Text: "Page one.", ImagePrompt: "a bunny", ImageURL: "https://cdn.test/0.jpg"},
			},
		},
		CreatedAt: time.Now(),
	}
}

func newStoryTestRouter(storyRepo repository.StoryRepository, contRepo repository.ContinuationRepository, userID string) *gin.Engine {
	h := NewStoryHandler(nil, storyRepo, contRepo, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
	})
	r.GET("/v1/stories", h.List)
	r.GET("/v1/stories/:id", h.Get)
	r.DELETE("/v1/stories/:id", h.Delete)
	r.GET("/v1/stories/:id/continuations", h.ListContinuations)
	return r
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestStoryGet(t *testing.T) {
	repo := &memStoryRepo{}
	require.NoError(t, repo.Create(context.Background(), seededStory("s1", "u1")))
	r := newStoryTestRouter(repo, &memContRepo{}, "u1")

	w := doRequest(r, http.MethodGet, "/v1/stories/s1")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Code int `json:"code"`
		Data struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 200, body.Code)
	assert.Equal(t, "s1", body.Data.ID)
	assert.Equal(t, "The Candy River", body.Data.Title)
}

func TestStoryGetNotFound(t *testing.T) {
	r := newStoryTestRouter(&memStoryRepo{}, &memContRepo{}, "u1")

	w := doRequest(r, http.MethodGet, "/v1/stories/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoryGetReadableByNonOwner(t *testing.T) {
	repo := &memStoryRepo{}
	require.NoError(t, repo.Create(context.Background(), seededStory("s1", "u1")))
	r := newStoryTestRouter(repo, &memContRepo{}, "someone-else")

	// 故事详情可被任何已登录用户读取（分享链接语义）
	w := doRequest(r, http.MethodGet, "/v1/stories/s1")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStoryDeleteOwnerOnly(t *testing.T) {
	repo := &memStoryRepo{}
	require.NoError(t, repo.Create(context.Background(), seededStory("s1", "u1")))

	w := doRequest(newStoryTestRouter(repo, &memContRepo{}, "intruder"), http.MethodDelete, "/v1/stories/s1")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, repo.stories, "s1")

	w = doRequest(newStoryTestRouter(repo, &memContRepo{}, "u1"), http.MethodDelete, "/v1/stories/s1")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, repo.stories, "s1")
}

func TestStoryDeleteNotFound(t *testing.T) {
	r := newStoryTestRouter(&memStoryRepo{}, &memContRepo{}, "u1")

	w := doRequest(r, http.MethodDelete, "/v1/stories/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoryListPaged(t *testing.T) {
	repo := &memStoryRepo{}
	require.NoError(t, repo.Create(context.Background(), seededStory("s1", "u1")))
	require.NoError(t, repo.Create(context.Background(), seededStory("s2", "u1")))
	require.NoError(t, repo.Create(context.Background(), seededStory("s3", "other")))
	r := newStoryTestRouter(repo, &memContRepo{}, "u1")

	w := doRequest(r, http.MethodGet, "/v1/stories?page=1&page_size=10")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []json.RawMessage `json:"data"`
		Meta struct {
			Page  int `json:"page"`
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 1, body.Meta.Page)
	assert.Equal(t, 2, body.Meta.Total)
}

func TestStoryListContinuations(t *testing.T) {
	storyRepo := &memStoryRepo{}
	require.NoError(t, storyRepo.Create(context.Background(), seededStory("s1", "u1")))

	contRepo := &memContRepo{}
	cont := entity.NewStoryContinuation("s1", entity.ContinuationTypeTheme, "", entity.StoryContent{Title: "The Candy River: New Friends"})
	cont.ID = "c1"
	require.NoError(t, contRepo.Create(context.Background(), cont))

	r := newStoryTestRouter(storyRepo, contRepo, "u1")

	w := doRequest(r, http.MethodGet, "/v1/stories/s1/continuations")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "c1")

	w = doRequest(r, http.MethodGet, "/v1/stories/missing/continuations")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
