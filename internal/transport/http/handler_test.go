package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"distrack/internal/advice"
	"distrack/internal/directory"
	"distrack/internal/distribution"
	"distrack/internal/distribution/numbering"
	"distrack/internal/distribution/service"
	"distrack/internal/document"
	"distrack/internal/history"
	"distrack/internal/identity"
	"distrack/internal/jwtauth"
	"distrack/internal/ledger"
	id "distrack/pkg/domain"
)

type HandlerSuite struct {
	suite.Suite

	router http.Handler
	tokens *jwtauth.Service
	docs   *document.InMemoryStore

	typeID   id.TypeID
	origin   id.DepartmentID
	dest     id.DepartmentID
	sender   jwtauth.Actor
	receiver jwtauth.Actor

	invoice document.Ref
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.typeID = id.TypeID(uuid.New())
	s.origin = id.DepartmentID(uuid.New())
	s.dest = id.DepartmentID(uuid.New())
	s.sender = jwtauth.Actor{UserID: id.UserID(uuid.New()), DepartmentID: s.origin, Role: "clerk"}
	s.receiver = jwtauth.Actor{UserID: id.UserID(uuid.New()), DepartmentID: s.dest, Role: "clerk"}

	types := distribution.NewInMemoryTypeStore()
	types.Add(&distribution.Type{ID: s.typeID, Code: "D", Name: "Default", Priority: 5, Color: "#1b6fc2"})

	dir := directory.NewInMemoryDirectory()
	dir.Add(s.origin)
	dir.Add(s.dest)

	registry := identity.NewInMemoryRegistry()
	registry.Add(s.sender.UserID, identity.Member{DepartmentID: s.origin, Role: "clerk"})
	registry.Add(s.receiver.UserID, identity.Member{DepartmentID: s.dest, Role: "clerk"})

	s.docs = document.NewInMemoryStore()
	docID := id.DocumentID(uuid.New())
	s.docs.Add(document.KindInvoice, docID)
	s.invoice = document.Ref{Kind: document.KindInvoice, ID: docID}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(service.Deps{
		Store:     distribution.NewInMemoryStore(),
		Types:     types,
		Ledger:    ledger.NewInMemoryStore(),
		History:   history.NewInMemoryStore(),
		Advices:   advice.NewInMemoryStore(),
		Resolver:  document.NewResolver(s.docs),
		Directory: dir,
		Authz:     registry,
		Numbers:   numbering.NewInMemoryAllocator(),
		Txn:       service.NewInMemoryTx(),
		Logger:    logger,
	}, service.WithClock(func() time.Time {
		return time.Date(2026, 8, 14, 9, 30, 0, 0, time.UTC)
	}))

	s.tokens = jwtauth.NewService("test-signing-key", "distrack-test")
	handler := New(svc, logger, s.tokens)
	r := chi.NewRouter()
	handler.Register(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path string, actor jwtauth.Actor, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	token, err := s.tokens.GenerateToken(actor, time.Hour)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) createDistribution() string {
	w := s.do(http.MethodPost, "/distributions", s.sender, map[string]any{
		"type_id":        s.typeID.String(),
		"origin_id":      s.origin.String(),
		"destination_id": s.dest.String(),
		"documents": []map[string]string{
			{"kind": "invoice", "id": s.invoice.ID.String()},
		},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["id"].(string)
}

func (s *HandlerSuite) TestCreateDistribution() {
	w := s.do(http.MethodPost, "/distributions", s.sender, map[string]any{
		"type_id":        s.typeID.String(),
		"origin_id":      s.origin.String(),
		"destination_id": s.dest.String(),
		"documents": []map[string]string{
			{"kind": "invoice", "id": s.invoice.ID.String()},
		},
	})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "draft", resp["status"])
	assert.Equal(s.T(), "D0001/08.2026", resp["number"])
}

func (s *HandlerSuite) TestCreateRejectsUnknownKind() {
	w := s.do(http.MethodPost, "/distributions", s.sender, map[string]any{
		"type_id":        s.typeID.String(),
		"origin_id":      s.origin.String(),
		"destination_id": s.dest.String(),
		"documents": []map[string]string{
			{"kind": "contract", "id": s.invoice.ID.String()},
		},
	})
	assert.Equal(s.T(), http.StatusBadRequest, w.Code, w.Body.String())
}

func (s *HandlerSuite) TestMissingTokenUnauthorized() {
	req := httptest.NewRequest(http.MethodGet, "/distributions", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *HandlerSuite) TestLifecycleOverHTTP() {
	distID := s.createDistribution()
	base := "/distributions/" + distID

	w := s.do(http.MethodPost, base+"/verification/sender", s.sender, map[string]any{
		"items": []map[string]string{
			{"kind": "invoice", "id": s.invoice.ID.String(), "status": "ok"},
		},
	})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, base+"/verify-sender", s.sender, nil)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, base+"/send", s.sender, nil)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, base+"/receive", s.receiver, nil)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, base+"/verify-receiver", s.receiver, map[string]any{
		"items": []map[string]string{
			{"kind": "invoice", "id": s.invoice.ID.String(), "status": "ok"},
		},
	})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, base+"/complete", s.receiver, nil)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "completed", resp["status"])

	w = s.do(http.MethodGet, base+"/history", s.sender, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)
	var trail map[string][]map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &trail))
	assert.Len(s.T(), trail["entries"], 8)
}

func (s *HandlerSuite) TestDoubleSendConflict() {
	distID := s.createDistribution()
	base := "/distributions/" + distID

	w := s.do(http.MethodPost, base+"/verify-sender", s.sender, map[string]any{
		"items": []map[string]string{
			{"kind": "invoice", "id": s.invoice.ID.String(), "status": "ok"},
		},
	})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, base+"/send", s.sender, nil)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, base+"/send", s.sender, nil)
	assert.Equal(s.T(), http.StatusConflict, w.Code, w.Body.String())
}

func (s *HandlerSuite) TestBlockedCompletionCarriesDiscrepantList() {
	distID := s.createDistribution()
	base := "/distributions/" + distID

	w := s.do(http.MethodPost, base+"/verify-sender", s.sender, map[string]any{
		"items": []map[string]string{
			{"kind": "invoice", "id": s.invoice.ID.String(), "status": "ok"},
		},
	})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPost, base+"/send", s.sender, nil)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPost, base+"/receive", s.receiver, nil)
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPost, base+"/verify-receiver", s.receiver, map[string]any{
		"items": []map[string]string{
			{"kind": "invoice", "id": s.invoice.ID.String(), "status": "missing"},
		},
	})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, base+"/complete", s.receiver, nil)
	require.Equal(s.T(), http.StatusConflict, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "discrepancies_unresolved", resp["error"])
	details := resp["details"].(map[string]any)
	assert.Equal(s.T(), true, details["has_discrepancies"])
	assert.Len(s.T(), details["discrepant"], 1)
}

func (s *HandlerSuite) TestGetEntriesSummary() {
	distID := s.createDistribution()

	w := s.do(http.MethodGet, "/distributions/"+distID+"/entries", s.sender, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(s.T(), 1, resp["documents"])
	assert.EqualValues(s.T(), 0, resp["sender_verified"])
}

func (s *HandlerSuite) TestDeleteDraft() {
	distID := s.createDistribution()

	w := s.do(http.MethodDelete, "/distributions/"+distID, s.sender, nil)
	require.Equal(s.T(), http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/distributions/"+distID, s.sender, nil)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}
