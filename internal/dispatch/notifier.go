package dispatch

import "github.com/example/gatiyaan/internal/models"

// Notifier fans events out over whichever channels are configured.
// Websocket is the primary path; FCM covers backgrounded provider apps.
type Notifier struct {
	WS  *WSRegistry
	FCM *FCMDispatcher
}

func (n *Notifier) NotifyCustomer(token string, event string, b models.Booking) {
	if n.WS != nil {
		n.WS.NotifyCustomer(token, event, b)
	}
}

func (n *Notifier) BroadcastJob(j models.Job) {
	if n.WS != nil {
		n.WS.BroadcastJob(j)
	}
	if n.FCM != nil {
		_ = n.FCM.NotifyJob(j) // best-effort
	}
}
