package server_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tuannvm/jira-gateway/internal/auth"
	"github.com/tuannvm/jira-gateway/internal/config"
	"github.com/tuannvm/jira-gateway/internal/gateway"
	"github.com/tuannvm/jira-gateway/internal/jira"
	"github.com/tuannvm/jira-gateway/internal/models"
	"github.com/tuannvm/jira-gateway/internal/server"
)

type stubDispatcher struct {
	events []models.InboundEvent
	resp   models.GatewayResponse
	panic  bool
}

func (s *stubDispatcher) Dispatch(_ context.Context, event models.InboundEvent) models.GatewayResponse {
	if s.panic {
		panic("boom")
	}
	s.events = append(s.events, event)
	return s.resp
}

func (s *stubDispatcher) Mode() string { return config.ModeProxy }

var _ = Describe("Router", func() {
	var (
		router     *gin.Engine
		dispatcher *stubDispatcher
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		dispatcher = &stubDispatcher{resp: models.GatewayResponse{StatusCode: http.StatusOK, Body: map[string]string{"ok": "yes"}}}
		router = server.NewRouter(dispatcher, server.RouterOptions{})
	})

	It("answers health checks without dispatching", func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"mode":"proxy"`))
		Expect(dispatcher.events).To(BeEmpty())
	})

	It("hands every other request to the dispatcher", func() {
		req := httptest.NewRequest(http.MethodPut, "/rest/api/2/issue/SYS-1?notifyUsers=false", bytes.NewBufferString(`{"fields":{}}`))
		req.Header.Set("Authorization", "Bearer abc")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(dispatcher.events).To(HaveLen(1))
		ev := dispatcher.events[0]
		Expect(ev.Method).To(Equal(http.MethodPut))
		Expect(ev.Path).To(Equal("/rest/api/2/issue/SYS-1"))
		Expect(ev.Query.Get("notifyUsers")).To(Equal("false"))
		Expect(string(ev.Body)).To(Equal(`{"fields":{}}`))
		Expect(ev.Header("authorization")).To(Equal("Bearer abc"))
	})

	It("writes the dispatcher status and body", func() {
		dispatcher.resp = models.GatewayResponse{StatusCode: http.StatusMethodNotAllowed, Body: map[string]string{"error": "Method not supported"}}
		req := httptest.NewRequest(http.MethodPatch, "/rest/api/2/issue", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
		Expect(w.Body.String()).To(MatchJSON(`{"error":"Method not supported"}`))
	})

	It("propagates the request id", func() {
		req := httptest.NewRequest(http.MethodGet, "/rest/api/2/myself", nil)
		req.Header.Set(server.HeaderRequestID, "req-123")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Header().Get(server.HeaderRequestID)).To(Equal("req-123"))
	})

	It("generates a request id when none is sent", func() {
		req := httptest.NewRequest(http.MethodGet, "/rest/api/2/myself", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Header().Get(server.HeaderRequestID)).To(HaveLen(36))
	})

	It("rejects bodies over the size limit without dispatching", func() {
		body := strings.Repeat("a", 10<<20+1)
		req := httptest.NewRequest(http.MethodPost, "/rest/api/2/issue", strings.NewReader(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusRequestEntityTooLarge))
		Expect(w.Body.String()).To(ContainSubstring("Request body exceeds"))
		Expect(dispatcher.events).To(BeEmpty())
	})

	It("accepts bodies at the size limit", func() {
		body := `"` + strings.Repeat("a", 10<<20-2) + `"`
		req := httptest.NewRequest(http.MethodPost, "/rest/api/2/issue", strings.NewReader(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(dispatcher.events).To(HaveLen(1))
		Expect(dispatcher.events[0].Body).To(HaveLen(10 << 20))
	})

	It("recovers from panics with a JSON error", func() {
		dispatcher.panic = true
		req := httptest.NewRequest(http.MethodGet, "/rest/api/2/myself", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(MatchJSON(`{"error":"Internal server error"}`))
	})
})

var _ = Describe("Proxy mode end to end", func() {
	var (
		router   *gin.Engine
		jiraSrv  *httptest.Server
		received []map[string]interface{}
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		received = nil
		jiraSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			body, _ := io.ReadAll(r.Body)
			var payload map[string]interface{}
			if len(body) > 0 {
				Expect(json.Unmarshal(body, &payload)).To(Succeed())
			}
			received = append(received, payload)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"1","key":"SYS-1","self":"` + "http://" + r.Host + `/rest/api/2/issue/1"}`))
		}))
		DeferCleanup(jiraSrv.Close)

		d, err := gateway.New(
			gateway.Options{Mode: config.ModeProxy},
			auth.NewHeaderResolver(auth.SchemeBearer, jiraSrv.URL),
			jira.NewFactory(jira.WithHTTPClient(jiraSrv.Client())),
		)
		Expect(err).NotTo(HaveOccurred())
		router = server.NewRouter(d, server.RouterOptions{})
	})

	It("forces the issue type to Ticket", func() {
		token := base64.StdEncoding.EncodeToString([]byte("alice:secret"))
		req := httptest.NewRequest(http.MethodPost, "/rest/api/2/issue",
			bytes.NewBufferString(`{"fields":{"project":{"key":"SYS"},"summary":"x","issuetype":{"name":"Bug"}}}`))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"key":"SYS-1"`))
		Expect(w.Body.String()).NotTo(ContainSubstring("secret"))
		Expect(received).To(HaveLen(1))
		fields := received[0]["fields"].(map[string]interface{})
		Expect(fields["issuetype"]).To(Equal(map[string]interface{}{"name": "Ticket"}))
	})

	It("rejects requests without credentials before calling Jira", func() {
		req := httptest.NewRequest(http.MethodGet, "/rest/api/2/project", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(MatchJSON(`{"error":"Invalid authentication"}`))
		Expect(received).To(BeEmpty())
	})
})
