package docstore

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/suite"

	"azadi/pkg/platform/sentinel"
)

// ClientContractSuite pins the tree semantics every driver must share.
type ClientContractSuite struct {
	suite.Suite
	newClient func() Client
	client    Client
	ctx       context.Context
}

func (s *ClientContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.client = s.newClient()
}

func (s *ClientContractSuite) fetchJSON(path string) string {
	v, err := s.client.Fetch(s.ctx, path)
	s.Require().NoError(err)
	if v.IsAbsent() {
		return "null"
	}
	return string(v.Raw())
}

func (s *ClientContractSuite) TestFetchMissingIsAbsent() {
	v, err := s.client.Fetch(s.ctx, "leaders")
	s.Require().NoError(err)
	s.True(v.IsAbsent())
}

func (s *ClientContractSuite) TestPutThenFetchChildAndParent() {
	s.Require().NoError(s.client.Put(s.ctx, "leaders/l1", map[string]any{"id": "l1", "order": 1}))
	s.Require().NoError(s.client.Put(s.ctx, "leaders/l2", map[string]any{"id": "l2", "order": 2}))

	s.JSONEq(`{"id":"l1","order":1}`, s.fetchJSON("leaders/l1"))
	s.JSONEq(`{"l1":{"id":"l1","order":1},"l2":{"id":"l2","order":2}}`, s.fetchJSON("leaders"))
	s.JSONEq(`1`, s.fetchJSON("leaders/l1/order"))
}

func (s *ClientContractSuite) TestPutReplacesWholeNode() {
	s.Require().NoError(s.client.Put(s.ctx, "settings", map[string]any{"a": 1, "b": 2}))
	s.Require().NoError(s.client.Put(s.ctx, "settings", map[string]any{"b": 3}))

	s.JSONEq(`{"b":3}`, s.fetchJSON("settings"))
}

func (s *ClientContractSuite) TestPutIntoParentDocument() {
	s.Require().NoError(s.client.Put(s.ctx, "gallery", map[string]any{
		"g1": map[string]any{"id": "g1"},
	}))
	s.Require().NoError(s.client.Put(s.ctx, "gallery/g2", map[string]any{"id": "g2"}))

	s.JSONEq(`{"g1":{"id":"g1"},"g2":{"id":"g2"}}`, s.fetchJSON("gallery"))
}

func (s *ClientContractSuite) TestPatchMergesTopLevelFields() {
	s.Require().NoError(s.client.Put(s.ctx, "donations/d1", map[string]any{
		"id": "d1", "amount": 500, "status": "pending",
	}))
	s.Require().NoError(s.client.Patch(s.ctx, "donations/d1", map[string]any{"status": "approved"}))

	s.JSONEq(`{"id":"d1","amount":500,"status":"approved"}`, s.fetchJSON("donations/d1"))
}

func (s *ClientContractSuite) TestPatchNilRemovesField() {
	s.Require().NoError(s.client.Put(s.ctx, "donations/d1", map[string]any{"id": "d1", "note": "x"}))
	s.Require().NoError(s.client.Patch(s.ctx, "donations/d1", map[string]any{"note": nil}))

	s.JSONEq(`{"id":"d1"}`, s.fetchJSON("donations/d1"))
}

func (s *ClientContractSuite) TestDeletePrunesEmptyParent() {
	s.Require().NoError(s.client.Put(s.ctx, "events/e1", map[string]any{"id": "e1"}))
	s.Require().NoError(s.client.Delete(s.ctx, "events/e1"))

	s.Equal("null", s.fetchJSON("events"))
}

func (s *ClientContractSuite) TestDeleteLeavesSiblings() {
	s.Require().NoError(s.client.Put(s.ctx, "events", map[string]any{
		"e1": map[string]any{"id": "e1"},
		"e2": map[string]any{"id": "e2"},
	}))
	s.Require().NoError(s.client.Delete(s.ctx, "events/e1"))

	s.JSONEq(`{"e2":{"id":"e2"}}`, s.fetchJSON("events"))
}

func (s *ClientContractSuite) TestPutNullDeletes() {
	s.Require().NoError(s.client.Put(s.ctx, "members/m1", map[string]any{"id": "m1"}))
	s.Require().NoError(s.client.Put(s.ctx, "members/m1", nil))

	s.Equal("null", s.fetchJSON("members/m1"))
}

func (s *ClientContractSuite) TestRawMessageValuesPassThrough() {
	s.Require().NoError(s.client.Put(s.ctx, "app_settings", json.RawMessage(`{"contactPhone":"017"}`)))
	s.JSONEq(`{"contactPhone":"017"}`, s.fetchJSON("app_settings"))
}

func (s *ClientContractSuite) TestInvalidPathRejected() {
	_, err := s.client.Fetch(s.ctx, "leaders//x")
	s.ErrorIs(err, ErrInvalidPath)
	s.NotErrorIs(err, sentinel.ErrUnavailable)
}
