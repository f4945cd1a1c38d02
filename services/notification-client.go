package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"taskflow-project/microservices/board-service/logging"

	"github.com/sony/gobreaker"
)

// Notifier delivers a user-facing notification. Delivery is best-effort;
// implementations must never fail the calling mutation.
type Notifier interface {
	SendNotification(ctx context.Context, userID, message string)
}

// NotificationsClient posts notifications to the notifications-service over
// HTTP, guarded by a circuit breaker so a dead notifications-service cannot
// slow down task mutations.
type NotificationsClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewNotificationsClient(baseURL string, client *http.Client, breaker *gobreaker.CircuitBreaker) *NotificationsClient {
	return &NotificationsClient{baseURL: baseURL, client: client, breaker: breaker}
}

func (c *NotificationsClient) SendNotification(ctx context.Context, userID, message string) {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		payload, err := json.Marshal(map[string]string{
			"userId":  userID,
			"message": message,
		})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/notifications", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("notifications service returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_SEND_FAILED, Description: Failed to send notification to user %s: %v", userID, err)
	}
}
