package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/project-analyzer/internal/errors"
	"github.com/project-analyzer/internal/logging"
	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/service"
	"github.com/project-analyzer/internal/types"
)

// fakeAnalysisService serves canned records with real ownership checks.
type fakeAnalysisService struct {
	records map[string]*models.AnalysisRecord
}

func (f *fakeAnalysisService) Create(ctx context.Context, in service.CreateAnalysisInput) (*models.AnalysisRecord, error) {
	record := &models.AnalysisRecord{
		ID:           "generated-id",
		UserID:       in.UserID,
		ProjectName:  in.ProjectName,
		Tool:         in.Tool,
		Payload:      in.Payload,
		OverallScore: in.OverallScore,
		Status:       types.StatusCompleted,
	}
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeAnalysisService) Get(ctx context.Context, tool types.ToolType, id, userID string) (*models.AnalysisRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("analysis", id)
	}
	if record.UserID != userID {
		return nil, apperrors.NewForbiddenError("analysis belongs to a different user")
	}
	return record, nil
}

func (f *fakeAnalysisService) List(ctx context.Context, tool types.ToolType, userID string, limit, offset int) ([]*models.AnalysisRecord, error) {
	var out []*models.AnalysisRecord
	for _, r := range f.records {
		if r.Tool == tool && r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAnalysisService) Update(ctx context.Context, tool types.ToolType, id, userID string, in service.UpdateAnalysisInput) (*models.AnalysisRecord, error) {
	return f.Get(ctx, tool, id, userID)
}

func (f *fakeAnalysisService) Delete(ctx context.Context, tool types.ToolType, id, userID string) error {
	if _, err := f.Get(ctx, tool, id, userID); err != nil {
		return err
	}
	delete(f.records, id)
	return nil
}

// fakePaymentService rejects duplicate tx hashes like the real one.
type fakePaymentService struct {
	payments map[string]*models.ToolPayment
}

func (f *fakePaymentService) Create(ctx context.Context, in service.CreatePaymentInput) (*models.ToolPayment, error) {
	for _, p := range f.payments {
		if p.TxHash == in.TxHash {
			return nil, apperrors.NewDuplicateTxError(in.TxHash)
		}
	}
	payment := &models.ToolPayment{
		ID:     "pay-1",
		UserID: in.UserID,
		Tool:   in.Tool,
		TxHash: in.TxHash,
		Status: types.PaymentPending,
	}
	f.payments[payment.ID] = payment
	return payment, nil
}

func (f *fakePaymentService) Get(ctx context.Context, id, userID string) (*models.ToolPayment, error) {
	payment, ok := f.payments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("payment", id)
	}
	if payment.UserID != userID {
		return nil, apperrors.NewForbiddenError("payment belongs to a different user")
	}
	return payment, nil
}

func (f *fakePaymentService) List(ctx context.Context, userID string, limit, offset int) ([]*models.ToolPayment, error) {
	return nil, nil
}

func (f *fakePaymentService) Confirm(ctx context.Context, id, userID string) (*models.ToolPayment, error) {
	return f.Get(ctx, id, userID)
}

func newTestServer(t *testing.T, analysis *fakeAnalysisService, payments *fakePaymentService) *Server {
	t.Helper()

	config := &ServerConfig{
		Host:        "127.0.0.1",
		Port:        "0",
		FreeTierRPS: 1000,
		PaidTierRPS: 1000,
	}
	logger := logging.NewLogger(logging.LevelError, logging.FormatJSON)

	return NewServer(config, Deps{
		AnalysisService: analysis,
		PaymentService:  payments,
	}, logger)
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeAnalysisService{records: map[string]*models.AnalysisRecord{}}, &fakePaymentService{payments: map[string]*models.ToolPayment{}})

	rec := doRequest(s, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetAnalysisOwnershipMismatchReturns403(t *testing.T) {
	analysis := &fakeAnalysisService{records: map[string]*models.AnalysisRecord{
		"abc": {ID: "abc", UserID: "owner", Tool: types.ToolMetadata},
	}}
	s := newTestServer(t, analysis, &fakePaymentService{payments: map[string]*models.ToolPayment{}})

	rec := doRequest(s, "GET", "/api/analysis/metadata/abc?userId=intruder", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
}

func TestGetAnalysisOwnerSucceeds(t *testing.T) {
	analysis := &fakeAnalysisService{records: map[string]*models.AnalysisRecord{
		"abc": {ID: "abc", UserID: "owner", Tool: types.ToolMetadata, OverallScore: 91},
	}}
	s := newTestServer(t, analysis, &fakePaymentService{payments: map[string]*models.ToolPayment{}})

	rec := doRequest(s, "GET", "/api/analysis/metadata/abc?userId=owner", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var record models.AnalysisRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, 91.0, record.OverallScore)
}

func TestUnknownAnalysisTypeReturns400(t *testing.T) {
	s := newTestServer(t, &fakeAnalysisService{records: map[string]*models.AnalysisRecord{}}, &fakePaymentService{payments: map[string]*models.ToolPayment{}})

	rec := doRequest(s, "GET", "/api/analysis/bogus-tool?userId=u1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAnalysisRequiresUserID(t *testing.T) {
	s := newTestServer(t, &fakeAnalysisService{records: map[string]*models.AnalysisRecord{}}, &fakePaymentService{payments: map[string]*models.ToolPayment{}})

	body := []byte(`{"projectName":"proj"}`)
	rec := doRequest(s, "POST", "/api/analysis/metadata", body)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAnalysisInvalidJSONReturns400(t *testing.T) {
	s := newTestServer(t, &fakeAnalysisService{records: map[string]*models.AnalysisRecord{}}, &fakePaymentService{payments: map[string]*models.ToolPayment{}})

	rec := doRequest(s, "POST", "/api/analysis/metadata?userId=u1", []byte(`{not json`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAnalysisValidationDetails(t *testing.T) {
	s := newTestServer(t, &fakeAnalysisService{records: map[string]*models.AnalysisRecord{}}, &fakePaymentService{payments: map[string]*models.ToolPayment{}})

	// Missing required projectName
	rec := doRequest(s, "POST", "/api/analysis/metadata?userId=u1", []byte(`{"overallScore":50}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ErrCodeInvalidInput, resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "details")
}

func TestCreateAnalysisSucceeds(t *testing.T) {
	analysis := &fakeAnalysisService{records: map[string]*models.AnalysisRecord{}}
	s := newTestServer(t, analysis, &fakePaymentService{payments: map[string]*models.ToolPayment{}})

	body := []byte(`{"projectName":"proj","overallScore":77,"payload":{"title":"ok"}}`)
	rec := doRequest(s, "POST", "/api/analysis/metadata?userId=u1", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, analysis.records, 1)
}

func TestCreatePaymentDuplicateTxReturns409(t *testing.T) {
	payments := &fakePaymentService{payments: map[string]*models.ToolPayment{}}
	s := newTestServer(t, &fakeAnalysisService{records: map[string]*models.AnalysisRecord{}}, payments)

	body := []byte(`{"toolType":"blockchain","transactionHash":"0x123456789a","amountWei":"1000"}`)

	rec := doRequest(s, "POST", "/api/payments?userId=u1", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(s, "POST", "/api/payments?userId=u2", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "DUPLICATE_TX_HASH", resp.Error.Code)
	assert.Len(t, payments.payments, 1, "duplicate must not create a second row")
}

func TestCreatePaymentValidation(t *testing.T) {
	s := newTestServer(t, &fakeAnalysisService{records: map[string]*models.AnalysisRecord{}}, &fakePaymentService{payments: map[string]*models.ToolPayment{}})

	// amountWei must be numeric
	body := []byte(`{"toolType":"blockchain","transactionHash":"0x123456789a","amountWei":"lots"}`)
	rec := doRequest(s, "POST", "/api/payments?userId=u1", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// fakeUserStore returns the same not-found shape as the Postgres repo.
type fakeUserStore struct {
	users map[string]*models.User
}

func (f *fakeUserStore) Upsert(ctx context.Context, user *models.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, &types.ServiceError{Code: "USER_NOT_FOUND", Message: "user not found: " + id}
	}
	return user, nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return &types.ServiceError{Code: "USER_NOT_FOUND", Message: "user not found: " + id}
	}
	delete(f.users, id)
	return nil
}

type fakeSettingsStore struct {
	settings map[string]*models.UserSettings
}

func (f *fakeSettingsStore) Upsert(ctx context.Context, settings *models.UserSettings) error {
	f.settings[settings.UserID] = settings
	return nil
}

func (f *fakeSettingsStore) GetByUser(ctx context.Context, userID string) (*models.UserSettings, error) {
	settings, ok := f.settings[userID]
	if !ok {
		return nil, &types.ServiceError{Code: "SETTINGS_NOT_FOUND", Message: "settings not found for user: " + userID}
	}
	return settings, nil
}

type fakeSummaryService struct {
	summaries map[string]*models.AnalysisSummary
}

func (f *fakeSummaryService) Recompute(ctx context.Context, userID, projectName string) (*models.AnalysisSummary, error) {
	return f.Get(ctx, userID, projectName)
}

func (f *fakeSummaryService) Get(ctx context.Context, userID, projectName string) (*models.AnalysisSummary, error) {
	summary, ok := f.summaries[userID+"/"+projectName]
	if !ok {
		return nil, &types.ServiceError{
			Code:    "SUMMARY_NOT_FOUND",
			Message: "summary not found for " + userID + "/" + projectName,
		}
	}
	return summary, nil
}

func (f *fakeSummaryService) ListByUser(ctx context.Context, userID string) ([]*models.AnalysisSummary, error) {
	return nil, nil
}

func newStoreTestServer(t *testing.T, users *fakeUserStore, settings *fakeSettingsStore, summaries *fakeSummaryService) *Server {
	t.Helper()

	config := &ServerConfig{
		Host:        "127.0.0.1",
		Port:        "0",
		FreeTierRPS: 1000,
		PaidTierRPS: 1000,
	}
	logger := logging.NewLogger(logging.LevelError, logging.FormatJSON)

	return NewServer(config, Deps{
		UserRepo:       users,
		SettingsRepo:   settings,
		SummaryService: summaries,
	}, logger)
}

func TestGetMissingUserReturns404(t *testing.T) {
	s := newStoreTestServer(t,
		&fakeUserStore{users: map[string]*models.User{}},
		&fakeSettingsStore{settings: map[string]*models.UserSettings{}},
		&fakeSummaryService{summaries: map[string]*models.AnalysisSummary{}},
	)

	rec := doRequest(s, "GET", "/api/users/u-missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "USER_NOT_FOUND", resp.Error.Code)
}

func TestGetExistingUserReturns200(t *testing.T) {
	users := &fakeUserStore{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "u1@example.com", Tier: types.TierFree},
	}}
	s := newStoreTestServer(t, users,
		&fakeSettingsStore{settings: map[string]*models.UserSettings{}},
		&fakeSummaryService{summaries: map[string]*models.AnalysisSummary{}},
	)

	rec := doRequest(s, "GET", "/api/users/u1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetMissingSettingsReturns404(t *testing.T) {
	s := newStoreTestServer(t,
		&fakeUserStore{users: map[string]*models.User{}},
		&fakeSettingsStore{settings: map[string]*models.UserSettings{}},
		&fakeSummaryService{summaries: map[string]*models.AnalysisSummary{}},
	)

	rec := doRequest(s, "GET", "/api/users/u1/settings", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SETTINGS_NOT_FOUND", resp.Error.Code)
}

func TestGetMissingSummaryReturns404(t *testing.T) {
	s := newStoreTestServer(t,
		&fakeUserStore{users: map[string]*models.User{}},
		&fakeSettingsStore{settings: map[string]*models.UserSettings{}},
		&fakeSummaryService{summaries: map[string]*models.AnalysisSummary{}},
	)

	rec := doRequest(s, "GET", "/api/projects/web3-seo/summary?userId=u1", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SUMMARY_NOT_FOUND", resp.Error.Code)
}

// fakeBlockStore serves migrated block rows keyed by id.
type fakeBlockStore struct {
	blocks map[string]*models.Block
}

func (f *fakeBlockStore) ListBlocksByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Block, error) {
	var out []*models.Block
	for _, b := range f.blocks {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBlockStore) GetBlockByID(ctx context.Context, id string) (*models.Block, error) {
	block, ok := f.blocks[id]
	if !ok {
		return nil, &types.ServiceError{Code: "BLOCK_NOT_FOUND", Message: "block not found: " + id}
	}
	return block, nil
}

type fakeToolDataStore struct {
	items []*models.ToolData
}

func (f *fakeToolDataStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.ToolData, error) {
	var out []*models.ToolData
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func newBlockTestServer(t *testing.T, blocks *fakeBlockStore, toolData *fakeToolDataStore) *Server {
	t.Helper()

	config := &ServerConfig{
		Host:        "127.0.0.1",
		Port:        "0",
		FreeTierRPS: 1000,
		PaidTierRPS: 1000,
	}
	logger := logging.NewLogger(logging.LevelError, logging.FormatJSON)

	return NewServer(config, Deps{
		BlockRepo:    blocks,
		ToolDataRepo: toolData,
	}, logger)
}

func TestGetBlockOwnershipMismatchReturns403(t *testing.T) {
	blocks := &fakeBlockStore{blocks: map[string]*models.Block{
		"b1": {ID: "b1", UserID: "owner", ChainID: 1, Number: 100},
	}}
	s := newBlockTestServer(t, blocks, &fakeToolDataStore{})

	rec := doRequest(s, "GET", "/api/blocks/b1?userId=intruder", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetMissingBlockReturns404(t *testing.T) {
	s := newBlockTestServer(t, &fakeBlockStore{blocks: map[string]*models.Block{}}, &fakeToolDataStore{})

	rec := doRequest(s, "GET", "/api/blocks/b-missing?userId=u1", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "BLOCK_NOT_FOUND", resp.Error.Code)
}

func TestListBlocksReturnsOnlyOwnRows(t *testing.T) {
	blocks := &fakeBlockStore{blocks: map[string]*models.Block{
		"b1": {ID: "b1", UserID: "u1", ChainID: 1, Number: 100},
		"b2": {ID: "b2", UserID: "u2", ChainID: 1, Number: 101},
	}}
	s := newBlockTestServer(t, blocks, &fakeToolDataStore{})

	rec := doRequest(s, "GET", "/api/blocks?userId=u1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []*models.Block `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "b1", resp.Results[0].ID)
}

func TestListToolActivity(t *testing.T) {
	toolData := &fakeToolDataStore{items: []*models.ToolData{
		{ID: "td1", UserID: "u1", ToolName: "metadata", ProjectName: "web3-seo"},
		{ID: "td2", UserID: "u2", ToolName: "keyword", ProjectName: "other"},
	}}
	s := newBlockTestServer(t, &fakeBlockStore{blocks: map[string]*models.Block{}}, toolData)

	rec := doRequest(s, "GET", "/api/tools/activity?userId=u1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []*models.ToolData `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "td1", resp.Results[0].ID)
}
