package lib

import (
	"context"
	"fmt"
	"os"

	"github.com/pusher/pusher-http-go/v5"
)

var pusherClient *pusher.Client

// GetPusherClient returns nil when PUSHER_APP_ID is not set.
func GetPusherClient() *pusher.Client {
	if pusherClient != nil {
		return pusherClient
	}
	if os.Getenv("PUSHER_APP_ID") == "" {
		return nil
	}
	pusherClient = &pusher.Client{
		AppID:   os.Getenv("PUSHER_APP_ID"),
		Key:     os.Getenv("PUSHER_KEY"),
		Secret:  os.Getenv("PUSHER_SECRET"),
		Cluster: os.Getenv("PUSHER_CLUSTER"),
		Secure:  true,
	}
	return pusherClient
}

// PusherTrigger is the part of the pusher client the feed uses.
type PusherTrigger interface {
	Trigger(channel string, eventName string, data interface{}) error
}

// PusherFeed publishes attendance changes on one channel per event.
type PusherFeed struct {
	client PusherTrigger
}

func NewPusherFeed(client PusherTrigger) *PusherFeed {
	return &PusherFeed{client: client}
}

func AttendanceChannel(eventID uint) string {
	return fmt.Sprintf("event-%d-attendance", eventID)
}

func (f *PusherFeed) Publish(_ context.Context, eventID uint, kind string, data any) error {
	return f.client.Trigger(AttendanceChannel(eventID), kind, data)
}
