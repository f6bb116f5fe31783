package services

import (
	"context"
	"log"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"
)

// FCMPush delivers push notifications through Firebase Cloud Messaging. It
// is the fallback channel for destinations with no live websocket binding.
type FCMPush struct {
	client *messaging.Client
}

// NewFCMPush initializes the Firebase app from a credentials file. Returns
// an error rather than failing hard so deployments without push configured
// can run with fan-out drop-only semantics.
func NewFCMPush(credentialsFile string) (*FCMPush, error) {
	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(context.Background())
	if err != nil {
		return nil, err
	}
	log.Println("Firebase Messaging client initialized")
	return &FCMPush{client: client}, nil
}

func (f *FCMPush) Send(deviceToken, title, body string) error {
	message := &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}
	_, err := f.client.Send(context.Background(), message)
	if err != nil {
		log.Println("Error sending push message:", err)
		return err
	}
	return nil
}
