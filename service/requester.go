package service

import (
	"context"
	"fmt"
	"lifeline/pkg/apperr"
	"lifeline/pkg/events"
	"lifeline/pkg/logger"
	"lifeline/pkg/models"
	"lifeline/storage"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	msgAwaiting         = "AWAITING EMERGENCY REQUEST"
	msgNoAmbulance      = "NO AVAILABLE AMBULANCE NEARBY"
	msgBookingFailed    = "ERROR BOOKING AMBULANCE. TRY AGAIN"
	msgLocationFailed   = "UNABLE TO GET YOUR LOCATION. PLEASE ENABLE LOCATION SHARING"
	msgLocationMissing  = "LOCATION SHARING IS NOT SUPPORTED ON THIS DEVICE"
	metricPlaceholder   = "---"
	plateFallback       = "N/A"
	driverNameFallback  = "Unknown"
	dispatchBannerFmt   = "🚑 UNIT %s DISPATCHED | DRIVER: %s"
	validationAlertMark = "⚠️ "
)

// RequesterService runs the staged booking submission for one chat.
// At most one submission is in flight per instance.
type RequesterService struct {
	chatID     int64
	api        DispatchAPI
	locator    Locator
	view       RequesterView
	bookings   storage.IBookingStorage
	publisher  events.Publisher
	log        logger.ILogger
	narrative  Narrative
	fixTimeout time.Duration

	isProcessing atomic.Bool
}

func NewRequesterService(chatID int64, deps Deps, locator Locator, view RequesterView) *RequesterService {
	return &RequesterService{
		chatID:     chatID,
		api:        deps.API,
		locator:    locator,
		view:       view,
		bookings:   deps.bookings(),
		publisher:  deps.publisher(),
		log:        deps.logger().With(logger.Int64("chat_id", chatID)),
		narrative:  NewNarrative(deps.Timing.stages()),
		fixTimeout: deps.Timing.BookingFixTimeout,
	}
}

// Processing reports whether a submission is currently in flight.
func (r *RequesterService) Processing() bool {
	return r.isProcessing.Load()
}

// Book validates the form, takes a location fix and submits the request while
// the narrative plays. The final outcome is rendered only after both finish.
// A second call while one is in flight returns apperr.ErrBookingInProgress and
// changes nothing.
func (r *RequesterService) Book(ctx context.Context, form models.BookingForm) (*models.DispatchResult, error) {
	if err := Validate(form); err != nil {
		var ve *apperr.ValidationError
		if asValidation(err, &ve) {
			r.view.Alert(ctx, validationAlertMark+ve.Message)
		}
		return nil, err
	}

	if !r.isProcessing.CompareAndSwap(false, true) {
		r.log.Debug("booking ignored, another one is in flight")
		return nil, apperr.ErrBookingInProgress
	}
	defer r.isProcessing.Store(false)

	r.view.SetBusy(ctx, true)
	defer r.view.SetBusy(ctx, false)

	fix, err := r.locator.Locate(ctx, models.LocateOptions{Timeout: r.fixTimeout})
	if err != nil {
		lerr := toLocationError(err)
		r.log.Warning("location unavailable for booking", logger.Error(lerr))
		msg := msgLocationFailed
		if lerr.Reason == apperr.LocationUnsupported {
			msg = msgLocationMissing
		}
		r.view.Alert(ctx, msg)
		return nil, lerr
	}

	req := models.EmergencyRequest{
		PatientName:   strings.TrimSpace(form.PatientName),
		ContactNumber: strings.TrimSpace(form.ContactNumber),
		Notes:         strings.TrimSpace(form.Notes),
		Lat:           fix.Lat,
		Lon:           fix.Lon,
		EmergencyType: form.EmergencyType,
	}

	var (
		res     *models.DispatchResult
		bookErr error
		wg      sync.WaitGroup
	)
	wg.Go(func() {
		_ = r.narrative.Play(ctx, func(st models.Status) {
			r.view.ShowStatus(ctx, st)
		})
	})
	wg.Go(func() {
		res, bookErr = r.api.Book(ctx, req)
	})
	wg.Wait()

	r.render(ctx, res, bookErr)
	r.journal(ctx, req, res, bookErr)
	return res, bookErr
}

// Reset clears the dispatch panel and shows the idle banner.
func (r *RequesterService) Reset(ctx context.Context) {
	r.view.ClearDispatch(ctx)
	r.view.ShowStatus(ctx, models.Status{Message: msgAwaiting, Tone: models.ToneInfo})
}

func (r *RequesterService) render(ctx context.Context, res *models.DispatchResult, err error) {
	switch {
	case err == nil && res != nil && res.Success:
		m := Metrics(res)
		r.view.ShowDispatch(ctx, m)
		r.view.ShowStatus(ctx, models.Status{
			Message: fmt.Sprintf(dispatchBannerFmt, m.Plate, m.DriverName),
			Tone:    models.ToneSuccess,
		})
	case apperr.IsTransport(err):
		r.log.Error("booking request failed", logger.Error(err))
		r.view.ShowStatus(ctx, models.Status{Message: msgBookingFailed, Tone: models.ToneAlert})
	default:
		msg, _ := apperr.ServerMessage(err)
		if msg == "" && res != nil {
			msg = res.Error
		}
		if msg == "" {
			msg = msgNoAmbulance
		}
		r.log.Info("booking rejected", logger.String("reason", msg))
		r.view.ShowStatus(ctx, models.Status{Message: msg, Tone: models.ToneAlert})
	}
}

func (r *RequesterService) journal(ctx context.Context, req models.EmergencyRequest, res *models.DispatchResult, err error) {
	receipt := &models.BookingReceipt{
		ChatID:        r.chatID,
		PatientName:   req.PatientName,
		ContactNumber: req.ContactNumber,
		EmergencyType: req.EmergencyType,
		Lat:           req.Lat,
		Lon:           req.Lon,
		CreatedAt:     time.Now(),
	}
	evType := events.BookingFailed
	if err == nil && res != nil && res.Success {
		evType = events.BookingDispatched
		receipt.Success = true
		receipt.Plate = res.AmbulancePlate
		receipt.DriverName = res.DriverName
		receipt.DistanceKm = numberToFloat(res.Distance)
		receipt.EtaMin = numberToFloat(res.ETA)
	} else if err != nil {
		receipt.Error = err.Error()
	}

	if r.bookings != nil {
		if _, jerr := r.bookings.Create(ctx, receipt); jerr != nil {
			r.log.Warning("failed to journal booking", logger.Error(jerr))
		}
	}
	summary := events.BookingSummary{
		ReceiptID:     receipt.ID,
		EmergencyType: string(receipt.EmergencyType),
		Success:       receipt.Success,
	}
	if perr := r.publisher.Publish(ctx, events.Event{
		Type:   evType,
		ChatID: r.chatID,
		Data:   summary,
		At:     time.Now(),
	}); perr != nil {
		r.log.Warning("failed to publish booking event", logger.Error(perr))
	}
}

// Metrics formats the dispatch panel, using placeholders for absent values.
func Metrics(res *models.DispatchResult) models.DispatchMetrics {
	m := models.DispatchMetrics{
		Plate:      res.AmbulancePlate,
		DriverName: res.DriverName,
		Distance:   metricPlaceholder,
		ETA:        metricPlaceholder,
	}
	if m.Plate == "" {
		m.Plate = plateFallback
	}
	if m.DriverName == "" {
		m.DriverName = driverNameFallback
	}
	if res.Distance != nil {
		m.Distance = res.Distance.String() + " km"
	}
	if res.ETA != nil {
		m.ETA = res.ETA.String() + " min"
	}
	return m
}

func numberToFloat(n *models.Number) *float64 {
	if n == nil {
		return nil
	}
	f := n.Float64()
	return &f
}
