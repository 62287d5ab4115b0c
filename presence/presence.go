// Package presence shows what is being watched on Discord.
package presence

import (
	"fmt"
	"sync"
	"time"

	"github.com/hugolgst/rich-go/client"
	"github.com/yato-cli/yato/log"
)

// Activity describes the episode on screen.
type Activity struct {
	Title    string
	Episode  int
	Episodes int
	Cover    string
	// Position is the playback position in seconds, used to back-date the start timestamp.
	Position float64
	Paused   bool
}

// Broadcaster publishes activities. Calls never block on the remote side and
// never fail: delivery problems are logged.
type Broadcaster interface {
	Watching(activity Activity)
	Idle(state string)
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Watching(Activity) {}
func (Nop) Idle(string)       {}
func (Nop) Close() error      { return nil }

// Discord publishes over the local Discord IPC socket.
type Discord struct {
	clientID string
	updates  chan client.Activity
	done     chan struct{}
	mu       sync.Mutex
	closed   bool
	now      func() time.Time
}

// NewDiscord starts the delivery loop. The Discord client is logged into
// lazily, on the first activity.
func NewDiscord(clientID string) *Discord {
	d := &Discord{
		clientID: clientID,
		updates:  make(chan client.Activity, 1),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go d.loop()
	return d
}

func (d *Discord) loop() {
	defer close(d.done)

	var loggedIn bool
	for activity := range d.updates {
		if !loggedIn {
			if err := client.Login(d.clientID); err != nil {
				log.Warnf("presence: discord login: %v", err)
				continue
			}
			loggedIn = true
		}

		if err := client.SetActivity(activity); err != nil {
			log.Warnf("presence: set activity: %v", err)
		}
	}

	if loggedIn {
		client.Logout()
	}
}

// publish replaces any activity that was not delivered yet.
func (d *Discord) publish(activity client.Activity) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	for {
		select {
		case d.updates <- activity:
			return
		default:
		}

		select {
		case <-d.updates:
		default:
		}
	}
}

func (d *Discord) Watching(a Activity) {
	d.publish(payload(a, d.now()))
}

func (d *Discord) Idle(state string) {
	d.publish(client.Activity{State: state, Details: "Browsing"})
}

// Close stops delivery and logs out.
func (d *Discord) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.updates)
	}
	d.mu.Unlock()

	<-d.done
	return nil
}

func payload(a Activity, now time.Time) client.Activity {
	activity := client.Activity{
		Details:    a.Title,
		State:      fmt.Sprintf("Episode %d of %d", a.Episode, a.Episodes),
		LargeImage: a.Cover,
		LargeText:  a.Title,
	}

	if a.Episodes == 0 {
		activity.State = fmt.Sprintf("Episode %d", a.Episode)
	}

	if a.Paused {
		activity.SmallText = "Paused"
		return activity
	}

	start := now.Add(-time.Duration(a.Position * float64(time.Second)))
	activity.Timestamps = &client.Timestamps{Start: &start}
	return activity
}
