package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"example.com/logistics/services/tracking/internal/audit"
	"example.com/logistics/services/tracking/internal/cache"
	"example.com/logistics/services/tracking/internal/imagestore"
	"example.com/logistics/services/tracking/internal/messaging"
	"example.com/logistics/services/tracking/internal/models"
	"example.com/logistics/services/tracking/internal/payload"
	"example.com/logistics/services/tracking/internal/repository"

	"github.com/sirupsen/logrus"
)

const shipmentCacheTTL = 5 * time.Minute

// RequestMeta carries request-scoped context for auditing.
type RequestMeta struct {
	RequestID  string
	ClientIP   string
	ClientID   string
	RawPayload []byte
}

// BatchStatus is the overall outcome of one webhook batch.
type BatchStatus int

const (
	// BatchAccepted means the batch passed validation and every
	// processable entry was attempted.
	BatchAccepted BatchStatus = iota
	// BatchRejected means validation failed or the data itself was
	// refused by storage; the carrier must not retry as-is.
	BatchRejected
	// BatchTimedOut means processing exceeded the request deadline.
	BatchTimedOut
	// BatchFailed means an infrastructure fault stopped processing;
	// a retry may succeed.
	BatchFailed
)

// EntryResult describes one successfully processed shipment entry.
type EntryResult struct {
	WaybillNo  string `json:"waybill_no"`
	ShipmentID uint   `json:"shipment_id"`
	Status     string `json:"status"`
}

// BatchResult is the full outcome of processing one webhook batch.
type BatchResult struct {
	Status    BatchStatus
	Message   string
	Processed []EntryResult
	Errors    []payload.EntryError
}

// HTTPStatus maps the batch outcome to a response code. The carrier
// retries on 5xx and drops on 4xx, so the mapping decides redelivery.
func (r *BatchResult) HTTPStatus() int {
	switch r.Status {
	case BatchAccepted:
		return http.StatusOK
	case BatchRejected:
		return http.StatusBadRequest
	case BatchTimedOut:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Service is the interface for shipment tracking operations
type Service interface {
	ProcessStatusBatch(ctx context.Context, req *payload.StatusTrackingRequest, meta RequestMeta) *BatchResult
	GetShipmentByWaybill(ctx context.Context, waybillNo string) (*models.Shipment, error)
	ListShipments(ctx context.Context, filter repository.ShipmentFilter) ([]*models.Shipment, int64, error)
}

// Config holds the service dependencies
type Config struct {
	Repository repository.Repository
	Images     imagestore.Store
	Audit      audit.Recorder
	Cache      cache.RedisClient
	Messaging  messaging.ServiceBusClient
	Logger     *logrus.Logger
}

// service implements the Service interface
type service struct {
	repo      repository.Repository
	images    imagestore.Store
	audit     audit.Recorder
	cache     cache.RedisClient
	messaging messaging.ServiceBusClient
	log       *logrus.Logger
}

// NewService creates a new service instance
func NewService(cfg Config) (Service, error) {
	if cfg.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if cfg.Images == nil {
		return nil, errors.New("image store is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	return &service{
		repo:      cfg.Repository,
		images:    cfg.Images,
		audit:     cfg.Audit,
		cache:     cfg.Cache,
		messaging: cfg.Messaging,
		log:       cfg.Logger,
	}, nil
}

// ProcessStatusBatch validates a webhook batch as a whole, then
// persists each entry independently. Validation is all-or-nothing: any
// structural or field error rejects the batch before a single write.
// Past validation, one entry's failure never blocks its neighbours,
// with a single exception: a storage-level data violation rejects the
// remainder of the batch so the carrier stops redelivering poison
// data. Entries persisted before the violation stay persisted; the
// upserts make redelivery of those entries harmless.
func (s *service) ProcessStatusBatch(ctx context.Context, req *payload.StatusTrackingRequest, meta RequestMeta) *BatchResult {
	if req == nil || len(req.StatusTracking) == 0 {
		result := &BatchResult{Status: BatchRejected, Message: "incorrect payload"}
		s.recordAudit(ctx, meta, "", result)
		return result
	}

	if errs := payload.ValidateBatch(req.StatusTracking); len(errs) > 0 {
		result := &BatchResult{Status: BatchRejected, Message: "incorrect payload", Errors: errs}
		s.recordAudit(ctx, meta, firstWaybill(req.StatusTracking), result)
		return result
	}

	result := &BatchResult{Status: BatchAccepted, Message: "Webhook processed successfully"}

	for _, entry := range req.StatusTracking {
		if err := ctx.Err(); err != nil {
			result.Status = BatchTimedOut
			result.Message = "Request timeout"
			break
		}

		sp := entry.Shipment
		if sp == nil || sp.WaybillNo == "" {
			result.Errors = append(result.Errors, payload.EntryError{
				WaybillNo: "unknown",
				Error:     "Missing Shipment or WaybillNo",
			})
			continue
		}
		waybillNo := sp.WaybillNo

		upd, err := payload.Normalize(sp)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"waybill_no": waybillNo,
				"error":      err.Error(),
			}).Warn("Failed to normalize shipment entry")
			result.Errors = append(result.Errors, payload.EntryError{WaybillNo: waybillNo, Error: err.Error()})
			continue
		}

		shipmentID, err := s.persistEntry(ctx, upd)
		if err != nil {
			if repository.IsDataViolation(err) {
				s.log.WithFields(logrus.Fields{
					"waybill_no": waybillNo,
					"error":      err.Error(),
				}).Error("Storage rejected shipment data, rejecting batch")
				result.Status = BatchRejected
				result.Message = "incorrect payload"
				result.Errors = append(result.Errors, payload.EntryError{WaybillNo: waybillNo, Error: err.Error()})
				break
			}

			s.log.WithFields(logrus.Fields{
				"waybill_no": waybillNo,
				"error":      err.Error(),
			}).Error("Failed to persist shipment entry")
			result.Errors = append(result.Errors, payload.EntryError{WaybillNo: waybillNo, Error: err.Error()})
			continue
		}

		result.Processed = append(result.Processed, EntryResult{
			WaybillNo:  waybillNo,
			ShipmentID: shipmentID,
			Status:     "processed",
		})

		s.afterEntry(ctx, waybillNo, shipmentID)
	}

	s.recordAudit(ctx, meta, firstWaybill(req.StatusTracking), result)
	return result
}

// persistEntry writes one canonical shipment update. Sub-entities are
// written in a fixed order after the owning shipment row so that
// redelivery replays the same sequence.
func (s *service) persistEntry(ctx context.Context, upd *payload.ShipmentUpdate) (uint, error) {
	shipmentID, err := s.repo.UpsertShipment(ctx, &upd.Shipment)
	if err != nil {
		return 0, err
	}

	waybillNo := upd.Shipment.WaybillNo

	for i := range upd.Scans {
		upd.Scans[i].ShipmentID = shipmentID
		if err := s.repo.SaveScan(ctx, &upd.Scans[i]); err != nil {
			return 0, err
		}
	}

	if d := upd.Delivery; d != nil {
		d.Detail.ShipmentID = shipmentID
		if path := s.images.SaveImage(d.SignatureB64, waybillNo, "signature", 0); path != "" {
			d.Detail.Signature = models.StrPtr(path)
		}
		if path := s.images.SaveImage(d.IDImageB64, waybillNo, "id", 0); path != "" {
			d.Detail.IDImage = models.StrPtr(path)
		}
		if err := s.repo.MergeDeliveryDetail(ctx, &d.Detail); err != nil {
			return 0, err
		}
	}

	for i := range upd.Reweighs {
		upd.Reweighs[i].ShipmentID = shipmentID
		if err := s.repo.MergeReweigh(ctx, &upd.Reweighs[i]); err != nil {
			return 0, err
		}
	}

	for i := range upd.ReweighImages {
		upd.ReweighImages[i].ShipmentID = shipmentID
		if err := s.repo.MergeReweighImage(ctx, &upd.ReweighImages[i]); err != nil {
			return 0, err
		}
	}

	if qc := upd.QC; qc != nil {
		qc.Failure.ShipmentID = shipmentID
		if len(qc.PicturesB64) > 0 {
			paths := s.images.SaveImages(qc.PicturesB64, waybillNo, "qc")
			if encoded, err := json.Marshal(paths); err == nil {
				qc.Failure.Pictures = models.StrPtr(string(encoded))
			}
		}
		if err := s.repo.MergeQCFailure(ctx, &qc.Failure); err != nil {
			return 0, err
		}
	}

	for i := range upd.CallLogs {
		upd.CallLogs[i].ShipmentID = shipmentID
		if err := s.repo.SaveCallLog(ctx, &upd.CallLogs[i]); err != nil {
			return 0, err
		}
	}

	if pod := upd.PODDC; pod != nil {
		pod.Bundle.ShipmentID = shipmentID
		if len(pod.PODB64) > 0 {
			paths := s.images.SaveImages(pod.PODB64, waybillNo, "pod")
			if encoded, err := json.Marshal(paths); err == nil {
				pod.Bundle.PODImages = models.StrPtr(string(encoded))
			}
		}
		if len(pod.DCB64) > 0 {
			paths := s.images.SaveImages(pod.DCB64, waybillNo, "dc")
			if encoded, err := json.Marshal(paths); err == nil {
				pod.Bundle.DCImages = models.StrPtr(string(encoded))
			}
		}
		if err := s.repo.MergePODDCImage(ctx, &pod.Bundle); err != nil {
			return 0, err
		}
	}

	return shipmentID, nil
}

// afterEntry handles the side channels for a persisted entry. Both
// are best-effort: a stale cache expires on its own and event
// consumers reconcile from the database.
func (s *service) afterEntry(ctx context.Context, waybillNo string, shipmentID uint) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, shipmentCacheKey(waybillNo)); err != nil {
			s.log.WithFields(logrus.Fields{
				"waybill_no": waybillNo,
				"error":      err.Error(),
			}).Warn("Failed to invalidate shipment cache")
		}
	}

	if s.messaging != nil {
		event := map[string]interface{}{
			"event":       "shipment.updated",
			"waybill_no":  waybillNo,
			"shipment_id": shipmentID,
			"updated_at":  time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.messaging.SendMessage(ctx, event, waybillNo); err != nil {
			s.log.WithFields(logrus.Fields{
				"waybill_no": waybillNo,
				"error":      err.Error(),
			}).Warn("Failed to publish shipment event")
		}
	}
}

// GetShipmentByWaybill retrieves a shipment with its scan history,
// reading through the cache when one is configured.
func (s *service) GetShipmentByWaybill(ctx context.Context, waybillNo string) (*models.Shipment, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, shipmentCacheKey(waybillNo)); err == nil && cached != "" {
			var shipment models.Shipment
			if err := json.Unmarshal([]byte(cached), &shipment); err == nil {
				return &shipment, nil
			}
		}
	}

	shipment, err := s.repo.FindShipmentByWaybill(ctx, waybillNo)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(shipment); err == nil {
			if err := s.cache.Set(ctx, shipmentCacheKey(waybillNo), string(encoded), shipmentCacheTTL); err != nil {
				s.log.WithFields(logrus.Fields{
					"waybill_no": waybillNo,
					"error":      err.Error(),
				}).Warn("Failed to cache shipment")
			}
		}
	}

	return shipment, nil
}

// ListShipments returns a filtered shipment page and the total count.
func (s *service) ListShipments(ctx context.Context, filter repository.ShipmentFilter) ([]*models.Shipment, int64, error) {
	return s.repo.ListShipments(ctx, filter)
}

func (s *service) recordAudit(ctx context.Context, meta RequestMeta, waybillNo string, result *BatchResult) {
	if s.audit == nil {
		return
	}

	var errMsg string
	if len(result.Errors) > 0 {
		if encoded, err := json.Marshal(result.Errors); err == nil {
			errMsg = string(encoded)
		}
	}

	// Use a detached context so the audit row is written even when the
	// request deadline has already expired.
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	s.audit.Record(auditCtx, audit.Entry{
		RequestID:       meta.RequestID,
		WaybillNo:       waybillNo,
		ResponseStatus:  result.HTTPStatus(),
		ResponseMessage: result.Message,
		ErrorMessage:    errMsg,
		ClientIP:        meta.ClientIP,
		ClientID:        meta.ClientID,
		Payload:         meta.RawPayload,
	})
}

func shipmentCacheKey(waybillNo string) string {
	return fmt.Sprintf("shipment:%s", waybillNo)
}

func firstWaybill(entries []payload.Entry) string {
	for _, e := range entries {
		if e.Shipment != nil && e.Shipment.WaybillNo != "" {
			return e.Shipment.WaybillNo
		}
	}
	return ""
}
