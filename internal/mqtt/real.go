package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/ledbar/internal/logic"
)

// bufferCapacity bounds the messages waiting for the broker.
const bufferCapacity = 100

// publishTimeout bounds how long the sender goroutine waits for one ack.
const publishTimeout = 5 * time.Second

var errNotConnected = errors.New("not connected")

// client is the part of paho.Client the publisher uses.
type client interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. Publish and
// PublishSystem only queue the message; a sender goroutine delivers the
// queue while the connection is up, so a slow or silent broker never
// holds up the caller. The queue is flushed again on every reconnect.
type RealPublisher struct {
	client  client
	timeout time.Duration

	mu  sync.Mutex
	buf *ringBuffer

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is established in the background and retried forever; bootID is stamped
// on the last-will message.
func NewRealPublisher(broker, bootID string) *RealPublisher {
	p := newPublisher()

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("ledbar-" + shortID(bootID)).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, WillPayload(bootID), 1, true).
		SetOnConnectHandler(func(paho.Client) {
			log.Info().Int("queued", p.queued()).Msg("mqtt: connected")
			p.notify()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Msg("mqtt: connection lost")
		})

	c := paho.NewClient(opts)
	p.start(c)
	c.Connect()
	return p
}

func newPublisher() *RealPublisher {
	return &RealPublisher{
		timeout: publishTimeout,
		buf:     newRingBuffer(bufferCapacity),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (p *RealPublisher) start(c client) {
	p.client = c
	p.wg.Add(1)
	go p.run()
}

// Publish queues a program event for the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	p.enqueue(bufferedMsg{topic: Topic, payload: payload})
	return nil
}

// PublishSystem queues a system lifecycle event for the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) so lifecycle events survive a flaky link
	p.enqueue(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

func (p *RealPublisher) enqueue(msg bufferedMsg) {
	p.mu.Lock()
	p.buf.push(msg)
	p.mu.Unlock()
	p.notify()
}

func (p *RealPublisher) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *RealPublisher) queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// run delivers the queue each time it is woken. On Close it makes one last
// pass so the shutdown event gets out.
func (p *RealPublisher) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			p.flush(true)
			return
		case <-p.wake:
			p.flush(false)
		}
	}
}

// flush sends everything queued. If the connection drops part way, the
// unsent messages go back to the front of the queue for the next connect.
// The final pass gives up at the first failure.
func (p *RealPublisher) flush(final bool) {
	if !p.client.IsConnectionOpen() {
		return
	}

	p.mu.Lock()
	msgs := p.buf.drainAll()
	p.mu.Unlock()

	for i, msg := range msgs {
		if !final && p.closing() {
			p.requeue(msgs[i:])
			return
		}
		err := p.publish(msg)
		if errors.Is(err, errNotConnected) {
			p.requeue(msgs[i:])
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("topic", msg.topic).Msg("mqtt: publish failed")
			if final {
				return
			}
		}
	}
}

func (p *RealPublisher) closing() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *RealPublisher) requeue(unsent []bufferedMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	newer := p.buf.drainAll()
	for _, m := range unsent {
		p.buf.push(m)
	}
	for _, m := range newer {
		p.buf.push(m)
	}
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		if !p.client.IsConnectionOpen() {
			return errNotConnected
		}
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close makes a last delivery attempt, stops the sender goroutine and
// disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.once.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.client.Disconnect(1000) // 1 second timeout
	})
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
