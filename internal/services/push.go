package services

import (
	"fmt"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// PushService sends APNs notifications about followed users' saves.
type PushService struct {
	client *apns2.Client
	topic  string
}

// NewPushService loads the APNs certificate and builds a client.
func NewPushService(certPath, certPass, topic string, production bool) (*PushService, error) {
	cert, err := certificate.FromP12File(certPath, certPass)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}

	client := apns2.NewClient(cert).Development()
	if production {
		client = apns2.NewClient(cert).Production()
	}

	return &PushService{client: client, topic: topic}, nil
}

// SavedAlert notifies a follower that someone they follow saved a place.
func (s *PushService) SavedAlert(deviceToken, saverName, locationName string) error {
	body := payload.NewPayload().
		AlertTitle("New place to discover").
		AlertBody(fmt.Sprintf("%s saved %s", saverName, locationName)).
		Sound("default")

	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload:     body,
	}

	res, err := s.client.Push(notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push rejected: %s", res.Reason)
	}
	return nil
}
