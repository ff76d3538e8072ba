package services

import (
	"context"
	"fmt"
	"time"

	"github.com/curalink/curalink-api/internal/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const textbeltURL = "https://textbelt.com/text"

// Notifier tells a patient about changes to their appointments.
type Notifier interface {
	AppointmentBooked(phone string, apt *models.AppointmentView)
	AppointmentCancelled(phone string, apt *models.AppointmentView)
}

// NotificationService sends SMS through Textbelt. Sends happen in their own
// goroutine so they never hold up the API response.
type NotificationService struct {
	client   *resty.Client
	endpoint string
	apiKey   string
	log      *zap.Logger
	timeout  time.Duration
}

func NewNotificationService(apiKey string, log *zap.Logger) *NotificationService {
	client := resty.New().SetHeader("Content-Type", "application/json")
	return &NotificationService{client: client, endpoint: textbeltURL, apiKey: apiKey, log: log, timeout: 15 * time.Second}
}

func (s *NotificationService) AppointmentBooked(phone string, apt *models.AppointmentView) {
	s.send(phone, fmt.Sprintf("Appointment confirmed with %s on %s at %s.",
		doctorLabel(apt), apt.Date.Format("Jan 2"), apt.StartTime))
}

func (s *NotificationService) AppointmentCancelled(phone string, apt *models.AppointmentView) {
	s.send(phone, fmt.Sprintf("Your appointment with %s on %s at %s has been cancelled.",
		doctorLabel(apt), apt.Date.Format("Jan 2"), apt.StartTime))
}

func doctorLabel(apt *models.AppointmentView) string {
	if apt.DoctorName == "" {
		return "your doctor"
	}
	return "Dr. " + apt.DoctorName
}

func (s *NotificationService) send(phone, message string) {
	if s.apiKey == "" {
		s.log.Debug("sms disabled, skipping notification")
		return
	}
	if phone == "" {
		s.log.Info("sms not sent: patient has no phone number")
		return
	}
	go s.deliver(phone, message)
}

type textbeltResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *NotificationService) deliver(phone, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var result textbeltResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"phone": phone, "message": message, "key": s.apiKey}).
		SetResult(&result).
		Post(s.endpoint)
	if err != nil {
		s.log.Warn("textbelt request failed", zap.Error(err))
		return
	}
	if !result.Success {
		s.log.Warn("textbelt rejected sms", zap.Int("http_status", resp.StatusCode()), zap.String("reason", result.Error))
		return
	}
	s.log.Info("sms sent")
}
