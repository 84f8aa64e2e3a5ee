package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-order/internal/common/enum"
	ai "voice-order/internal/pkg/ai-connector"
	"voice-order/internal/pkg/jwt"
	"voice-order/internal/pkg/middleware"
	"voice-order/internal/pkg/validation"
	"voice-order/internal/repository"
	sessionRepo "voice-order/internal/repository/session"
	"voice-order/internal/service/customer"
	"voice-order/internal/service/extraction"
	orderService "voice-order/internal/service/order"
	"voice-order/internal/service/transaction"
)

type inlineExecutor struct{}

func (inlineExecutor) Submit(task func()) error {
	task()
	return nil
}

type fakeAI struct{}

func (fakeAI) GeminiPrompt(context.Context, string) (*ai.PromptResult, error) {
	return nil, errors.New("not used")
}

func (fakeAI) GeminiPromptWithSchema(context.Context, string, *genai.Schema) (*ai.PromptResult, error) {
	return &ai.PromptResult{Response: `{"customer":{"id":"12345"},"items":[{"id":"1","name":"Latte","quantity":2,"price":4.5}],"total":9}`}, nil
}

func (fakeAI) GeminiPromptWithAudio(context.Context, string, string, []byte) (*ai.PromptResult, error) {
	return &ai.PromptResult{Response: "two lattes for customer 12345"}, nil
}

func (fakeAI) Close() error { return nil }

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type sessionData struct {
	ID    string  `json:"id"`
	Mode  string  `json:"mode"`
	Step  string  `json:"step"`
	Order struct {
		Items             []json.RawMessage `json:"items"`
		Total             float64           `json:"total"`
		TransactionStatus *string           `json:"transaction_status"`
	} `json:"order"`
}

type createData struct {
	Session sessionData `json:"session"`
	Token   string      `json:"token"`
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	require.NoError(t, validation.Setup())
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	signer := jwt.NewSigner("test-secret", time.Hour)
	rp := repository.IRepository{Session: sessionRepo.NewMemoryRepo(time.Hour)}
	svc := orderService.NewService(ctx, orderService.Dependencies{
		Repository: rp,
		Pipelines: extraction.NewFactory("gemini-test",
			extraction.WithDelays(func(enum.DemoModeEnum) extraction.Delays { return extraction.Delays{} }),
			extraction.WithClientFactory(func(context.Context, *ai.Config) (ai.IAiClient, error) { return fakeAI{}, nil }),
		),
		Customers: customer.NewService(ctx, customer.WithLookupDelay(0)),
		Transactions: transaction.NewService(ctx, rp, nil,
			transaction.WithDelay(0, 0),
			transaction.WithSuccessRate(1),
			transaction.WithRand(rand.New(rand.NewPCG(3, 4))),
		),
		Executor: inlineExecutor{},
		Tokens:   signer,
	}, orderService.WithRecordingDuration(func(enum.DemoModeEnum) time.Duration { return 0 }))

	e := gin.New()
	e.Use(middleware.CorsMiddleware(), middleware.RequestInit(), middleware.ResponseInit())
	NewHandler(ctx, svc, 1<<20).NewRoutes(e.Group("/api"), middleware.SessionAuthMiddleware(signer))
	return e
}

func do(t *testing.T, e http.Handler, method, path, token string, body any) envelope {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	assert.Equal(t, w.Code, env.Status)
	return env
}

func create(t *testing.T, e http.Handler, body any) createData {
	t.Helper()
	res := do(t, e, http.MethodPost, "/api/v1/sessions", "", body)
	require.Equal(t, http.StatusCreated, res.Status, res.Message)
	var data createData
	require.NoError(t, json.Unmarshal(res.Data, &data))
	require.NotEmpty(t, data.Token)
	return data
}

func session(t *testing.T, e http.Handler, id, token string) sessionData {
	t.Helper()
	res := do(t, e, http.MethodGet, "/api/v1/sessions/"+id, token, nil)
	require.Equal(t, http.StatusOK, res.Status, res.Message)
	var data sessionData
	require.NoError(t, json.Unmarshal(res.Data, &data))
	return data
}

func TestCreateSessionDefaultsToEnhanced(t *testing.T) {
	e := newTestEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var data createData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "enhanced", data.Session.Mode)
	assert.Equal(t, "idle", data.Session.Step)
}

func TestCreateSessionRejectsUnknownMode(t *testing.T) {
	e := newTestEngine(t)
	res := do(t, e, http.MethodPost, "/api/v1/sessions", "", map[string]any{"mode": "turbo"})
	assert.Equal(t, http.StatusBadRequest, res.Status)
}

func TestSessionRoutesRequireToken(t *testing.T) {
	e := newTestEngine(t)
	a := create(t, e, map[string]any{"mode": "simple"})
	b := create(t, e, map[string]any{"mode": "simple"})

	assert.Equal(t, http.StatusUnauthorized, do(t, e, http.MethodGet, "/api/v1/sessions/"+a.Session.ID, "", nil).Status)
	assert.Equal(t, http.StatusForbidden, do(t, e, http.MethodGet, "/api/v1/sessions/"+a.Session.ID, b.Token, nil).Status)
}

func TestSimpleRecordingFlow(t *testing.T) {
	e := newTestEngine(t)
	s := create(t, e, map[string]any{"mode": "simple"})
	path := "/api/v1/sessions/" + s.Session.ID

	res := do(t, e, http.MethodPost, path+"/recording", s.Token, nil)
	require.Equal(t, http.StatusOK, res.Status, res.Message)

	got := session(t, e, s.Session.ID, s.Token)
	assert.Equal(t, "reviewing", got.Step)
	assert.Len(t, got.Order.Items, 3)
	assert.InDelta(t, 59.45, got.Order.Total, 0.001)

	res = do(t, e, http.MethodPost, path+"/confirm", s.Token, nil)
	assert.Equal(t, http.StatusOK, res.Status, res.Message)
	assert.Equal(t, "confirmed", session(t, e, s.Session.ID, s.Token).Step)

	res = do(t, e, http.MethodPost, path+"/confirm", s.Token, nil)
	assert.Equal(t, http.StatusConflict, res.Status)

	res = do(t, e, http.MethodPost, path+"/reset", s.Token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	got = session(t, e, s.Session.ID, s.Token)
	assert.Equal(t, "idle", got.Step)
	assert.Empty(t, got.Order.Items)
}

func TestTextFallback(t *testing.T) {
	e := newTestEngine(t)
	s := create(t, e, map[string]any{"mode": "enhanced"})
	path := "/api/v1/sessions/" + s.Session.ID

	res := do(t, e, http.MethodPost, path+"/text", s.Token, map[string]any{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, res.Status)

	res = do(t, e, http.MethodPost, path+"/text", s.Token, map[string]any{"text": "two coffees please"})
	require.Equal(t, http.StatusAccepted, res.Status, res.Message)

	got := session(t, e, s.Session.ID, s.Token)
	assert.Equal(t, "reviewing", got.Step)
	assert.Len(t, got.Order.Items, 2)
	assert.InDelta(t, 13.50, got.Order.Total, 0.001)
}

func TestExternalAudioUpload(t *testing.T) {
	e := newTestEngine(t)
	s := create(t, e, map[string]any{"mode": "enhanced", "use_external_processing": true})
	path := "/api/v1/sessions/" + s.Session.ID

	res := do(t, e, http.MethodPost, path+"/recording", s.Token, nil)
	assert.Equal(t, http.StatusPreconditionFailed, res.Status)

	res = do(t, e, http.MethodPut, path+"/credential", s.Token, map[string]any{"api_key": "key-123"})
	require.Equal(t, http.StatusOK, res.Status, res.Message)
	assert.NotContains(t, string(res.Data), "key-123")

	res = do(t, e, http.MethodPost, path+"/recording", s.Token, nil)
	require.Equal(t, http.StatusOK, res.Status, res.Message)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="audio"; filename="order.webm"`)
	hdr.Set("Content-Type", "audio/webm;codecs=opus")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-opus-frames"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path+"/audio", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.Token)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	got := session(t, e, s.Session.ID, s.Token)
	assert.Equal(t, "reviewing", got.Step)
	assert.InDelta(t, 9.0, got.Order.Total, 0.001)

	res = do(t, e, http.MethodPost, path+"/confirm", s.Token, nil)
	require.Equal(t, http.StatusAccepted, res.Status, res.Message)

	got = session(t, e, s.Session.ID, s.Token)
	assert.Equal(t, "confirmed", got.Step)
	require.NotNil(t, got.Order.TransactionStatus)
	assert.Equal(t, "success", *got.Order.TransactionStatus)

	res = do(t, e, http.MethodDelete, path+"/credential", s.Token, nil)
	assert.Equal(t, http.StatusOK, res.Status, res.Message)
}

func TestAudioUploadRequiresFile(t *testing.T) {
	e := newTestEngine(t)
	s := create(t, e, map[string]any{"mode": "enhanced", "use_external_processing": true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+s.Session.ID+"/audio", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer "+s.Token)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamPushesSnapshots(t *testing.T) {
	e := newTestEngine(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	s := create(t, e, map[string]any{"mode": "simple"})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + s.Session.ID + "/stream?token=" + s.Token

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first sessionData
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, s.Session.ID, first.ID)
	assert.Equal(t, "idle", first.Step)

	res := do(t, e, http.MethodPost, "/api/v1/sessions/"+s.Session.ID+"/text", s.Token, map[string]any{"text": "a pizza"})
	require.Equal(t, http.StatusAccepted, res.Status, res.Message)

	var steps []string
	for len(steps) == 0 || steps[len(steps)-1] != "reviewing" {
		var snap sessionData
		require.NoError(t, conn.ReadJSON(&snap))
		steps = append(steps, snap.Step)
	}
	assert.Equal(t, "processing", steps[0])
}

func TestStreamRequiresHandshake(t *testing.T) {
	e := newTestEngine(t)
	s := create(t, e, map[string]any{"mode": "simple"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+s.Session.ID+"/stream", nil)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
