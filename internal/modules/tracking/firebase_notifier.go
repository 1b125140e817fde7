// README: FCM push notifications to customers when a landscaper arrives.
package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

type FirebaseNotifier struct {
	msgClient *messaging.Client
	log       *slog.Logger
}

// NewFirebaseNotifier builds the FCM client from the shared Admin app.
func NewFirebaseNotifier(ctx context.Context, app *firebase.App, logger *slog.Logger) (*FirebaseNotifier, error) {
	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase messaging client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FirebaseNotifier{msgClient: msgClient, log: logger}, nil
}

// NotifyArrival sends an FCM message to the customer's device. The token
// must be resolved by the caller.
func (n *FirebaseNotifier) NotifyArrival(ctx context.Context, deviceToken string, notice ArrivalNotice) error {
	if deviceToken == "" {
		return fmt.Errorf("empty device token for job %s", notice.JobID)
	}
	messageID, err := n.msgClient.Send(ctx, arrivalMessage(deviceToken, notice))
	if err != nil {
		return fmt.Errorf("sending FCM for job %s: %w", notice.JobID, err)
	}
	n.log.Info("arrival notification sent", "job_id", notice.JobID, "message_id", messageID)
	return nil
}

func arrivalMessage(deviceToken string, notice ArrivalNotice) *messaging.Message {
	return &messaging.Message{
		Token: deviceToken,
		Data: map[string]string{
			"type":          "landscaper_arrived",
			"job_id":        string(notice.JobID),
			"landscaper_id": string(notice.LandscaperID),
			"dwell_seconds": strconv.FormatFloat(notice.DwellSeconds, 'f', 0, 64),
		},
		Notification: &messaging.Notification{
			Title: "Your landscaper has arrived",
			Body:  "Work on your property is about to begin.",
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
}
