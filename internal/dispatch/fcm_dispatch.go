package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/gatiyaan/internal/models"
)

// FCMDispatcher posts new-job notifications to an FCM HTTPv1 endpoint so
// provider phones hear about work while the app is backgrounded.
type FCMDispatcher struct {
	Endpoint string
	Key      string
	Client   *http.Client
}

func NewFCMDispatcher(endpoint, key string) *FCMDispatcher {
	return &FCMDispatcher{Endpoint: endpoint, Key: key, Client: &http.Client{Timeout: 3 * time.Second}}
}

func (f *FCMDispatcher) NotifyJob(j models.Job) error {
	body := map[string]interface{}{"message": map[string]interface{}{"data": map[string]interface{}{
		"booking_id": j.Booking.ID,
		"partner":    j.Booking.Offer.PartnerName,
		"status":     string(j.Status),
	}}}
	b, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, f.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.Key != "" {
		req.Header.Set("Authorization", "Bearer "+f.Key)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
