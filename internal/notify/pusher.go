package notify

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	pusher "github.com/pusher/pusher-http-go/v5"
)

// Pusher implements Publisher and ChannelAuth on the hosted Pusher Channels
// service.
type Pusher struct {
	client pusher.Client
}

func NewPusher(appID, key, secret, cluster string) *Pusher {
	return &Pusher{client: pusher.Client{
		AppID:   appID,
		Key:     key,
		Secret:  secret,
		Cluster: cluster,
		Secure:  true,
	}}
}

func (p *Pusher) Publish(_ context.Context, channel, event string, payload any) error {
	return p.client.Trigger(channel, event, payload)
}

func authParams(socketID, channel string) []byte {
	v := url.Values{}
	v.Set("socket_id", socketID)
	v.Set("channel_name", channel)
	return []byte(v.Encode())
}

func (p *Pusher) AuthorizePrivate(socketID, channel string) ([]byte, error) {
	return p.client.AuthorizePrivateChannel(authParams(socketID, channel))
}

func (p *Pusher) AuthorizePresence(socketID, channel string, member MemberData) ([]byte, error) {
	return p.client.AuthorizePresenceChannel(authParams(socketID, channel), pusher.MemberData{
		UserID:   member.UserID,
		UserInfo: member.UserInfo,
	})
}

// fakeAuthToken mirrors the transport response shape for the recorder below.
type fakeAuthToken struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data,omitempty"`
}

// Recorder is an in-memory Publisher/ChannelAuth for tests. Fail, when set,
// decides per event whether Publish reports a delivery failure.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
	Fail   func(channel, event string) error
}

type RecordedEvent struct {
	Channel string
	Event   string
	Payload any
}

func (r *Recorder) Publish(_ context.Context, channel, event string, payload any) error {
	if r.Fail != nil {
		if err := r.Fail(channel, event); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Channel: channel, Event: event, Payload: payload})
	return nil
}

// Events returns a snapshot of everything published so far.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent(nil), r.events...)
}

func (r *Recorder) AuthorizePrivate(socketID, channel string) ([]byte, error) {
	return json.Marshal(fakeAuthToken{Auth: "test:" + socketID + ":" + channel})
}

func (r *Recorder) AuthorizePresence(socketID, channel string, member MemberData) ([]byte, error) {
	data, err := json.Marshal(map[string]any{"user_id": member.UserID, "user_info": member.UserInfo})
	if err != nil {
		return nil, err
	}
	return json.Marshal(fakeAuthToken{Auth: "test:" + socketID + ":" + channel, ChannelData: string(data)})
}
