package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"example.com/logistics/services/tracking/internal/models"
	"example.com/logistics/services/tracking/internal/payload"
	"example.com/logistics/services/tracking/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock repository for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) UpsertShipment(ctx context.Context, shipment *models.Shipment) (uint, error) {
	args := m.Called(ctx, shipment)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockRepository) FindShipmentByWaybill(ctx context.Context, waybillNo string) (*models.Shipment, error) {
	args := m.Called(ctx, waybillNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shipment), args.Error(1)
}

func (m *MockRepository) ListShipments(ctx context.Context, filter repository.ShipmentFilter) ([]*models.Shipment, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*models.Shipment), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) SaveScan(ctx context.Context, scan *models.Scan) error {
	args := m.Called(ctx, scan)
	return args.Error(0)
}

func (m *MockRepository) MergeDeliveryDetail(ctx context.Context, detail *models.DeliveryDetail) error {
	args := m.Called(ctx, detail)
	return args.Error(0)
}

func (m *MockRepository) MergeReweigh(ctx context.Context, reweigh *models.Reweigh) error {
	args := m.Called(ctx, reweigh)
	return args.Error(0)
}

func (m *MockRepository) MergeReweighImage(ctx context.Context, image *models.ReweighImage) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *MockRepository) MergeQCFailure(ctx context.Context, failure *models.QCFailure) error {
	args := m.Called(ctx, failure)
	return args.Error(0)
}

func (m *MockRepository) SaveCallLog(ctx context.Context, callLog *models.CallLog) error {
	args := m.Called(ctx, callLog)
	return args.Error(0)
}

func (m *MockRepository) MergePODDCImage(ctx context.Context, bundle *models.PODDCImage) error {
	args := m.Called(ctx, bundle)
	return args.Error(0)
}

func (m *MockRepository) SaveAuditLog(ctx context.Context, entry *models.WebhookAuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// Mock image store for testing
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) SaveImage(data, waybillNo, category string, index int) string {
	args := m.Called(data, waybillNo, category, index)
	return args.String(0)
}

func (m *MockImageStore) SaveImages(data []string, waybillNo, category string) []string {
	args := m.Called(data, waybillNo, category)
	return args.Get(0).([]string)
}

// Mock cache for testing
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestService(t *testing.T, repo *MockRepository, images *MockImageStore) Service {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	svc, err := NewService(Config{
		Repository: repo,
		Images:     images,
		Logger:     log,
	})
	require.NoError(t, err)
	return svc
}

func entryFor(waybillNo string) payload.Entry {
	return payload.Entry{Shipment: &payload.ShipmentPayload{
		WaybillNo: waybillNo,
		Scan:      "In Transit",
		ScanCode:  "017",
		ScanDate:  "18-11-2025",
		ScanTime:  "0915",
	}}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	log := logrus.New()

	_, err := NewService(Config{Images: new(MockImageStore), Logger: log})
	require.EqualError(t, err, "repository is required")

	_, err = NewService(Config{Repository: new(MockRepository), Logger: log})
	require.EqualError(t, err, "image store is required")

	_, err = NewService(Config{Repository: new(MockRepository), Images: new(MockImageStore)})
	require.EqualError(t, err, "logger is required")
}

func TestProcessStatusBatchNilRequest(t *testing.T) {
	svc := newTestService(t, new(MockRepository), new(MockImageStore))

	result := svc.ProcessStatusBatch(context.Background(), nil, RequestMeta{})
	require.Equal(t, BatchRejected, result.Status)
	require.Equal(t, "incorrect payload", result.Message)
	require.Equal(t, 400, result.HTTPStatus())
}

func TestProcessStatusBatchValidationRejectsBeforeAnyWrite(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(t, repo, new(MockImageStore))

	req := &payload.StatusTrackingRequest{StatusTracking: []payload.Entry{
		entryFor("WB1"),
		{Shipment: &payload.ShipmentPayload{WaybillNo: "WB2", PickUpDate: "31-02-2024"}},
	}}

	result := svc.ProcessStatusBatch(context.Background(), req, RequestMeta{})
	require.Equal(t, BatchRejected, result.Status)
	require.Equal(t, "incorrect payload", result.Message)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "Invalid PickUpDate: 31-02-2024", result.Errors[0].Error)

	// Nothing may touch storage when validation fails.
	repo.AssertNotCalled(t, "UpsertShipment", mock.Anything, mock.Anything)
}

func TestProcessStatusBatchMissingWaybillIsSoftSkip(t *testing.T) {
	repo := new(MockRepository)
	repo.On("UpsertShipment", mock.Anything, mock.AnythingOfType("*models.Shipment")).Return(uint(1), nil)
	repo.On("SaveScan", mock.Anything, mock.AnythingOfType("*models.Scan")).Return(nil)

	svc := newTestService(t, repo, new(MockImageStore))

	req := &payload.StatusTrackingRequest{StatusTracking: []payload.Entry{
		{Shipment: &payload.ShipmentPayload{}},
		entryFor("WB1"),
	}}

	result := svc.ProcessStatusBatch(context.Background(), req, RequestMeta{})

	// The identityless entry is skipped; the rest of the batch runs.
	require.Equal(t, BatchAccepted, result.Status)
	require.Len(t, result.Processed, 1)
	require.Equal(t, "WB1", result.Processed[0].WaybillNo)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "unknown", result.Errors[0].WaybillNo)
	require.Equal(t, "Missing Shipment or WaybillNo", result.Errors[0].Error)

	repo.AssertNumberOfCalls(t, "UpsertShipment", 1)
}

func TestProcessStatusBatchHappyPath(t *testing.T) {
	repo := new(MockRepository)
	repo.On("UpsertShipment", mock.Anything, mock.AnythingOfType("*models.Shipment")).Return(uint(7), nil)
	repo.On("SaveScan", mock.Anything, mock.AnythingOfType("*models.Scan")).Return(nil)

	svc := newTestService(t, repo, new(MockImageStore))

	req := &payload.StatusTrackingRequest{StatusTracking: []payload.Entry{entryFor("WB1")}}
	result := svc.ProcessStatusBatch(context.Background(), req, RequestMeta{})

	require.Equal(t, BatchAccepted, result.Status)
	require.Equal(t, "Webhook processed successfully", result.Message)
	require.Equal(t, 200, result.HTTPStatus())
	require.Len(t, result.Processed, 1)
	require.Equal(t, "WB1", result.Processed[0].WaybillNo)
	require.Equal(t, uint(7), result.Processed[0].ShipmentID)
	require.Equal(t, "processed", result.Processed[0].Status)
	require.Empty(t, result.Errors)

	repo.AssertExpectations(t)
}

func TestProcessStatusBatchTransientFailureIsolation(t *testing.T) {
	repo := new(MockRepository)
	transient := errors.New("connection reset")

	repo.On("UpsertShipment", mock.Anything, mock.MatchedBy(func(s *models.Shipment) bool {
		return s.WaybillNo == "WB1"
	})).Return(uint(1), nil)
	repo.On("UpsertShipment", mock.Anything, mock.MatchedBy(func(s *models.Shipment) bool {
		return s.WaybillNo == "WB2"
	})).Return(uint(0), transient)
	repo.On("UpsertShipment", mock.Anything, mock.MatchedBy(func(s *models.Shipment) bool {
		return s.WaybillNo == "WB3"
	})).Return(uint(3), nil)
	repo.On("SaveScan", mock.Anything, mock.AnythingOfType("*models.Scan")).Return(nil)

	svc := newTestService(t, repo, new(MockImageStore))

	req := &payload.StatusTrackingRequest{StatusTracking: []payload.Entry{
		entryFor("WB1"), entryFor("WB2"), entryFor("WB3"),
	}}
	result := svc.ProcessStatusBatch(context.Background(), req, RequestMeta{})

	// One entry's infrastructure failure does not block its neighbours.
	require.Equal(t, BatchAccepted, result.Status)
	require.Len(t, result.Processed, 2)
	require.Equal(t, "WB1", result.Processed[0].WaybillNo)
	require.Equal(t, "WB3", result.Processed[1].WaybillNo)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "WB2", result.Errors[0].WaybillNo)

	repo.AssertExpectations(t)
}

func TestProcessStatusBatchDataViolationStopsRemainder(t *testing.T) {
	repo := new(MockRepository)
	violation := &repository.StoreError{
		Op:   "upsert shipment",
		Kind: repository.KindDataViolation,
		Err:  errors.New("value too long for type character varying(6)"),
	}

	repo.On("UpsertShipment", mock.Anything, mock.MatchedBy(func(s *models.Shipment) bool {
		return s.WaybillNo == "WB1"
	})).Return(uint(1), nil)
	repo.On("UpsertShipment", mock.Anything, mock.MatchedBy(func(s *models.Shipment) bool {
		return s.WaybillNo == "WB2"
	})).Return(uint(0), violation)
	repo.On("SaveScan", mock.Anything, mock.AnythingOfType("*models.Scan")).Return(nil)

	svc := newTestService(t, repo, new(MockImageStore))

	req := &payload.StatusTrackingRequest{StatusTracking: []payload.Entry{
		entryFor("WB1"), entryFor("WB2"), entryFor("WB3"),
	}}
	result := svc.ProcessStatusBatch(context.Background(), req, RequestMeta{})

	require.Equal(t, BatchRejected, result.Status)
	require.Equal(t, "incorrect payload", result.Message)
	require.Equal(t, 400, result.HTTPStatus())

	// The first entry's writes stand; the violation stops the rest of
	// the batch without undoing them.
	require.Len(t, result.Processed, 1)
	require.Equal(t, "WB1", result.Processed[0].WaybillNo)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "WB2", result.Errors[0].WaybillNo)

	// WB3 must never be attempted.
	repo.AssertNumberOfCalls(t, "UpsertShipment", 2)
}

func TestProcessStatusBatchTimeout(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(t, repo, new(MockImageStore))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := &payload.StatusTrackingRequest{StatusTracking: []payload.Entry{entryFor("WB1")}}
	result := svc.ProcessStatusBatch(ctx, req, RequestMeta{})

	require.Equal(t, BatchTimedOut, result.Status)
	require.Equal(t, "Request timeout", result.Message)
	require.Equal(t, 504, result.HTTPStatus())
	repo.AssertNotCalled(t, "UpsertShipment", mock.Anything, mock.Anything)
}

func TestProcessStatusBatchNormalizeErrorIsSoft(t *testing.T) {
	repo := new(MockRepository)
	repo.On("UpsertShipment", mock.Anything, mock.AnythingOfType("*models.Shipment")).Return(uint(1), nil)
	repo.On("SaveScan", mock.Anything, mock.AnythingOfType("*models.Scan")).Return(nil)

	svc := newTestService(t, repo, new(MockImageStore))

	bad := payload.Entry{Shipment: &payload.ShipmentPayload{WaybillNo: "WB9", Weight: "heavy"}}
	req := &payload.StatusTrackingRequest{StatusTracking: []payload.Entry{bad, entryFor("WB1")}}

	result := svc.ProcessStatusBatch(context.Background(), req, RequestMeta{})
	require.Equal(t, BatchAccepted, result.Status)
	require.Len(t, result.Processed, 1)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "WB9", result.Errors[0].WaybillNo)
	require.Contains(t, result.Errors[0].Error, "invalid Weight value")
}

func TestProcessStatusBatchExtractsDeliveryImages(t *testing.T) {
	repo := new(MockRepository)
	repo.On("UpsertShipment", mock.Anything, mock.AnythingOfType("*models.Shipment")).Return(uint(4), nil)
	repo.On("MergeDeliveryDetail", mock.Anything, mock.MatchedBy(func(d *models.DeliveryDetail) bool {
		return d.ShipmentID == 4 &&
			models.StrVal(d.Signature) == "uploads/WB1/signature/1_0.jpg" &&
			models.StrVal(d.IDImage) == "uploads/WB1/id/1_0.jpg"
	})).Return(nil)

	images := new(MockImageStore)
	images.On("SaveImage", "c2lnbg==", "WB1", "signature", 0).Return("uploads/WB1/signature/1_0.jpg")
	images.On("SaveImage", "aWQ=", "WB1", "id", 0).Return("uploads/WB1/id/1_0.jpg")

	svc := newTestService(t, repo, images)

	req := &payload.StatusTrackingRequest{StatusTracking: []payload.Entry{{
		Shipment: &payload.ShipmentPayload{
			WaybillNo: "WB1",
			Scans: &payload.ScansPayload{
				DeliveryDetails: &payload.DeliveryDetailsPayload{
					ReceivedBy: "R SHARMA",
					Signature:  "c2lnbg==",
					IDImage:    "aWQ=",
				},
			},
		},
	}}}

	result := svc.ProcessStatusBatch(context.Background(), req, RequestMeta{})
	require.Equal(t, BatchAccepted, result.Status)

	repo.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestProcessStatusBatchStoresQCPicturePaths(t *testing.T) {
	repo := new(MockRepository)
	repo.On("UpsertShipment", mock.Anything, mock.AnythingOfType("*models.Shipment")).Return(uint(5), nil)
	repo.On("MergeQCFailure", mock.Anything, mock.MatchedBy(func(q *models.QCFailure) bool {
		if q.ShipmentID != 5 || q.Pictures == nil {
			return false
		}
		var paths []string
		if err := json.Unmarshal([]byte(*q.Pictures), &paths); err != nil {
			return false
		}
		return len(paths) == 2 && paths[0] == "uploads/WB1/qc/1_0.jpg"
	})).Return(nil)

	images := new(MockImageStore)
	images.On("SaveImages", []string{"cGljMQ==", "cGljMg=="}, "WB1", "qc").
		Return([]string{"uploads/WB1/qc/1_0.jpg", "uploads/WB1/qc/1_1.jpg"})

	svc := newTestService(t, repo, images)

	req := &payload.StatusTrackingRequest{StatusTracking: []payload.Entry{{
		Shipment: &payload.ShipmentPayload{
			WaybillNo: "WB1",
			Scans: &payload.ScansPayload{
				QCFailed: &payload.QCPayload{Type: "DMG", Reason: "Crushed", Pictures: []string{"cGljMQ==", "cGljMg=="}},
			},
		},
	}}}

	result := svc.ProcessStatusBatch(context.Background(), req, RequestMeta{})
	require.Equal(t, BatchAccepted, result.Status)

	repo.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestProcessStatusBatchInvalidatesCache(t *testing.T) {
	repo := new(MockRepository)
	repo.On("UpsertShipment", mock.Anything, mock.AnythingOfType("*models.Shipment")).Return(uint(1), nil)
	repo.On("SaveScan", mock.Anything, mock.AnythingOfType("*models.Scan")).Return(nil)

	cacheClient := new(MockCache)
	cacheClient.On("Delete", mock.Anything, "shipment:WB1").Return(nil)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc, err := NewService(Config{
		Repository: repo,
		Images:     new(MockImageStore),
		Cache:      cacheClient,
		Logger:     log,
	})
	require.NoError(t, err)

	req := &payload.StatusTrackingRequest{StatusTracking: []payload.Entry{entryFor("WB1")}}
	result := svc.ProcessStatusBatch(context.Background(), req, RequestMeta{})

	require.Equal(t, BatchAccepted, result.Status)
	cacheClient.AssertExpectations(t)
}

func TestGetShipmentByWaybillCacheHit(t *testing.T) {
	repo := new(MockRepository)
	cached := models.Shipment{WaybillNo: "WB1", Origin: models.StrPtr("BOM")}
	encoded, err := json.Marshal(cached)
	require.NoError(t, err)

	cacheClient := new(MockCache)
	cacheClient.On("Get", mock.Anything, "shipment:WB1").Return(string(encoded), nil)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc, err := NewService(Config{
		Repository: repo,
		Images:     new(MockImageStore),
		Cache:      cacheClient,
		Logger:     log,
	})
	require.NoError(t, err)

	shipment, err := svc.GetShipmentByWaybill(context.Background(), "WB1")
	require.NoError(t, err)
	require.Equal(t, "WB1", shipment.WaybillNo)
	require.Equal(t, "BOM", models.StrVal(shipment.Origin))

	repo.AssertNotCalled(t, "FindShipmentByWaybill", mock.Anything, mock.Anything)
}

func TestGetShipmentByWaybillCacheMissFallsThrough(t *testing.T) {
	stored := &models.Shipment{WaybillNo: "WB1"}

	repo := new(MockRepository)
	repo.On("FindShipmentByWaybill", mock.Anything, "WB1").Return(stored, nil)

	cacheClient := new(MockCache)
	cacheClient.On("Get", mock.Anything, "shipment:WB1").Return("", errors.New("redis: nil"))
	cacheClient.On("Set", mock.Anything, "shipment:WB1", mock.AnythingOfType("string"), shipmentCacheTTL).Return(nil)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc, err := NewService(Config{
		Repository: repo,
		Images:     new(MockImageStore),
		Cache:      cacheClient,
		Logger:     log,
	})
	require.NoError(t, err)

	shipment, err := svc.GetShipmentByWaybill(context.Background(), "WB1")
	require.NoError(t, err)
	require.Equal(t, "WB1", shipment.WaybillNo)

	repo.AssertExpectations(t)
	cacheClient.AssertExpectations(t)
}
