package payload

import (
	"fmt"
	"regexp"

	"example.com/logistics/services/tracking/internal/models"

	"github.com/shopspring/decimal"
)

var compactDateRegex = regexp.MustCompile(`^\d{8}$`)

// ShipmentUpdate is the canonical, dialect-independent set of entity
// updates extracted from one shipment entry. Base64 image payloads are
// carried separately from the entity records so the image extraction
// collaborator can be invoked by the orchestrator; normalization
// itself performs no I/O.
type ShipmentUpdate struct {
	Shipment      models.Shipment
	Scans         []models.Scan
	Delivery      *DeliveryUpdate
	Reweighs      []models.Reweigh
	ReweighImages []models.ReweighImage
	QC            *QCUpdate
	CallLogs      []models.CallLog
	PODDC         *PODDCUpdate
}

// DeliveryUpdate pairs the delivery-details record with its embedded
// base64 images.
type DeliveryUpdate struct {
	Detail       models.DeliveryDetail
	SignatureB64 string
	IDImageB64   string
}

// QCUpdate pairs the quality-control record with its embedded base64
// pictures.
type QCUpdate struct {
	Failure     models.QCFailure
	PicturesB64 []string
}

// PODDCUpdate pairs the POD/DC image bundle with its embedded base64
// images.
type PODDCUpdate struct {
	Bundle  models.PODDCImage
	PODB64  []string
	DCB64   []string
}

// Normalize reconciles one raw shipment entry, in any of the three
// dialects, into a canonical ShipmentUpdate. It is a pure
// transformation; the only failure mode is a present-but-unparseable
// numeric value, which is an entry-level error rather than a batch
// validation failure.
func Normalize(sp *ShipmentPayload) (*ShipmentUpdate, error) {
	weight, err := parseDecimal("Weight", sp.Weight)
	if err != nil {
		return nil, err
	}

	upd := &ShipmentUpdate{
		Shipment: models.Shipment{
			WaybillNo:                   sp.WaybillNo,
			SenderID:                    models.StrPtr(sp.SenderID),
			ReceiverID:                  models.StrPtr(sp.ReceiverID),
			RefNo:                       models.StrPtr(sp.RefNo),
			ProdCode:                    models.StrPtr(sp.Prodcode),
			SubProductCode:              models.StrPtr(sp.SubProductCode),
			Feature:                     models.StrPtr(sp.Feature),
			Origin:                      models.StrPtr(sp.Origin),
			OriginAreaCode:              models.StrPtr(sp.OriginAreaCode),
			Destination:                 models.StrPtr(sp.Destination),
			DestinationAreaCode:         models.StrPtr(sp.DestinationAreaCode),
			PickupDate:                  ParseDate(sp.PickUpDate),
			PickupTime:                  models.StrPtr(sp.PickUpTime),
			ExpectedDeliveryDate:        ParseDate(sp.ExpectedDeliveryDate),
			DynamicExpectedDeliveryDate: ParseDate(sp.DynamicExpectedDeliveryDate),
			ShipmentMode:                models.StrPtr(sp.ShipmentMode),
			Weight:                      weight,
			CustomerCode:                models.StrPtr(sp.CustomerCode),
			SpecialInstruction:          models.StrPtr(sp.SpecialInstruction),
		},
	}

	// Lite dialect: scan fields flat on the shipment object produce
	// exactly one canonical scan, with fields absent from the flat
	// shape left empty.
	if sp.Scan != "" || sp.ScanCode != "" {
		upd.Scans = append(upd.Scans, models.Scan{
			ScanType:            models.StrPtr(sp.ScanType),
			ScanGroupType:       models.StrPtr(sp.ScanGroupType),
			ScanCode:            models.StrPtr(sp.ScanCode),
			Scan:                models.StrPtr(sp.Scan),
			ScanDate:            ParseDate(sp.ScanDate),
			ScanTime:            models.StrPtr(sp.ScanTime),
			ScannedLocationCode: models.StrPtr(sp.ScannedLocationCode),
			Comments:            models.StrPtr(sp.Comments),
			SorryCardNumber:     models.StrPtr(sp.SorryCardNumber),
		})
	}

	if sp.Scans == nil {
		return upd, nil
	}

	// Plus/Advance dialect: each nested scan becomes one canonical
	// scan. Both sources may be present on duplicate delivery across
	// dialects; deduplication is the persistence layer's job.
	for _, sd := range sp.Scans.ScanDetail {
		upd.Scans = append(upd.Scans, scanFromDetail(sd))
	}

	if dd := sp.Scans.DeliveryDetails; dd != nil {
		upd.Delivery = &DeliveryUpdate{
			Detail: models.DeliveryDetail{
				ReceivedBy:           models.StrPtr(dd.ReceivedBy),
				Relation:             models.StrPtr(dd.Relation),
				IDType:               models.StrPtr(dd.IDType),
				IDNumber:             models.StrPtr(dd.IDNumber),
				IDDescription:        models.StrPtr(dd.IDDescription),
				SecurityCodeDelivery: models.StrPtr(dd.SecurityCodeDelivery),
			},
			SignatureB64: dd.Signature,
			IDImageB64:   dd.IDImage,
		}
	}

	for _, rw := range sp.Scans.Reweigh {
		if rw.IsEmpty() {
			continue
		}

		rec := models.Reweigh{
			MPSNumber:  rw.MPSNumber,
			RWImageURL: models.StrPtr(rw.RWImageURL),
		}
		if rec.RWActualWeight, err = parseDecimal("RWActualWeight", rw.RWActualWeight); err != nil {
			return nil, err
		}
		if rec.RWLength, err = parseDecimal("RWLength", rw.RWLength); err != nil {
			return nil, err
		}
		if rec.RWBreadth, err = parseDecimal("RWBreadth", rw.RWBreadth); err != nil {
			return nil, err
		}
		if rec.RWHeight, err = parseDecimal("RWHeight", rw.RWHeight); err != nil {
			return nil, err
		}
		if rec.RWVolWeight, err = parseDecimal("RWVolWeight", rw.RWVolWeight); err != nil {
			return nil, err
		}
		upd.Reweighs = append(upd.Reweighs, rec)
	}

	for _, img := range sp.Scans.RWImage {
		if img.IsEmpty() {
			continue
		}
		upd.ReweighImages = append(upd.ReweighImages, models.ReweighImage{
			MPSNumber:  img.MPSNumber,
			RWImageURL: models.StrPtr(img.RWImageURL),
		})
	}

	// QC data arrives under either the QCFailed shape (Type/Reason) or
	// the QC shape (Result/Remarks). Explicit fields win; the alternate
	// shape's fields only fill gaps.
	if qc := firstQC(sp.Scans.QCFailed, sp.Scans.QC); qc != nil {
		qcType := qc.Type
		if qcType == "" {
			qcType = qc.Result
		}
		qcReason := qc.Reason
		if qcReason == "" {
			qcReason = qc.Remarks
		}
		upd.QC = &QCUpdate{
			Failure: models.QCFailure{
				QCType:   models.StrPtr(qcType),
				QCReason: models.StrPtr(qcReason),
			},
			PicturesB64: qc.Pictures,
		}
	}

	for _, cl := range sp.Scans.CallLogs {
		if cl.IsEmpty() {
			continue
		}
		upd.CallLogs = append(upd.CallLogs, models.CallLog{
			Message: models.StrPtr(cl.Message),
			LogDate: ParseDate(NormalizeLogDate(cl.LogDate)),
			LogTime: models.StrPtr(cl.LogTime),
		})
	}

	if pod := sp.Scans.PODDCImages; pod != nil {
		upd.PODDC = &PODDCUpdate{
			Bundle: models.PODDCImage{
				ImageSequence: models.StrPtr(pod.ImageSequence),
			},
			PODB64: pod.PODImage,
			DCB64:  pod.DCImage,
		}
	}

	return upd, nil
}

// NormalizeLogDate converts the compact 8-digit yyyymmdd call-log date
// form to the canonical dd-mm-yyyy representation. Anything else
// passes through unchanged.
func NormalizeLogDate(s string) string {
	if !compactDateRegex.MatchString(s) {
		return s
	}
	return fmt.Sprintf("%s-%s-%s", s[6:8], s[4:6], s[0:4])
}

func scanFromDetail(sd ScanDetail) models.Scan {
	return models.Scan{
		ScanType:                   models.StrPtr(sd.ScanType),
		ScanGroupType:              models.StrPtr(sd.ScanGroupType),
		ScanCode:                   models.StrPtr(sd.ScanCode),
		Scan:                       models.StrPtr(sd.Scan),
		ScanDate:                   ParseDate(sd.ScanDate),
		ScanTime:                   models.StrPtr(sd.ScanTime),
		ScannedLocationCode:        models.StrPtr(sd.ScannedLocationCode),
		ScannedLocation:            models.StrPtr(sd.ScannedLocation),
		ScannedLocationCity:        models.StrPtr(sd.ScannedLocationCity),
		ScannedLocationStateCode:   models.StrPtr(sd.ScannedLocationStateCode),
		Comments:                   models.StrPtr(sd.Comments),
		StatusTimeZone:             models.StrPtr(sd.StatusTimeZone),
		StatusLatitude:             models.StrPtr(sd.StatusLatitude),
		StatusLongitude:            models.StrPtr(sd.StatusLongitude),
		ReachedDestinationLocation: models.StrPtr(sd.ReachedDestinationLocation),
		SecureCode:                 models.StrPtr(sd.SecureCode),
		SorryCardNumber:            models.StrPtr(sd.SorryCardNumber),
		ReceivedBy:                 models.StrPtr(sd.ReceivedBy),
		Relation:                   models.StrPtr(sd.Relation),
		IDType:                     models.StrPtr(sd.IDType),
		IDNumber:                   models.StrPtr(sd.IDNumber),
		IDDescription:              models.StrPtr(sd.IDDescription),
		QCType:                     models.StrPtr(sd.QCType),
		QCReason:                   models.StrPtr(sd.QCReason),
	}
}

func firstQC(candidates ...*QCPayload) *QCPayload {
	for _, qc := range candidates {
		if qc != nil {
			return qc
		}
	}
	return nil
}

func parseDecimal(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", name, raw, err)
	}
	return &d, nil
}
