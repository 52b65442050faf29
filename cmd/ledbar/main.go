// Command ledbar drives a bar of LEDs blinking at fixed subdivisions of a
// bar period, with a push button that pauses and resumes the animation.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/ledbar/internal/gpio"
	"github.com/sweeney/ledbar/internal/logic"
	"github.com/sweeney/ledbar/internal/mqtt"
	"github.com/sweeney/ledbar/internal/profile"
	"github.com/sweeney/ledbar/internal/status"
	"github.com/sweeney/ledbar/internal/tick"
	"github.com/sweeney/ledbar/internal/web"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

func run() error {
	p, err := profile.Load()
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	timing := p.Timing()
	bootID := uuid.NewString()
	startTime := time.Now()

	button, err := gpio.NewRealButton(p.Hardware.Chip, p.Hardware.Button)
	if err != nil {
		return fmt.Errorf("init button: %w", err)
	}
	defer button.Close()

	port, err := gpio.NewRealPort(p.Hardware.Chip, p.Lines())
	if err != nil {
		return fmt.Errorf("init leds: %w", err)
	}
	defer func() {
		if err := port.Close(); err != nil {
			log.Error().Err(err).Msg("release leds")
		}
	}()

	var buzzer gpio.Buzzer
	if b := p.Hardware.Buzzer; b.Pin != "" {
		rb, err := gpio.NewRealBuzzer(b.Pin, b.FreqHz, b.Duty)
		if err != nil {
			return fmt.Errorf("init buzzer: %w", err)
		}
		buzzer = rb
		log.Info().Str("pin", b.Pin).Int64("freq_hz", b.FreqHz).Msg("buzzer on")
	}
	defer stopBuzzer(buzzer)

	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.Discard{}
	if p.Status.MQTTBroker != "" {
		publisher = mqtt.NewRealPublisher(p.Status.MQTTBroker, bootID)
	}
	defer publisher.Close()

	var ticks, press tick.Counter
	ctl := logic.NewController(timing, p.Boot(), p.TestLED, &ticks, &press, startTime)

	tracker := status.NewTracker(startTime, bootID, status.Config{
		Profile:       p.Name,
		TickPeriod:    p.TickPeriod(),
		BarTicks:      timing.BarLength,
		OnTicks:       timing.OnDuration,
		DebounceTicks: timing.Debounce,
		ResetPhase:    p.ResetPhase,
		HeartbeatMs:   p.Heartbeat().Milliseconds(),
		Broker:        p.Status.MQTTBroker,
		HTTPAddr:      p.Status.HTTP,
	})
	tracker.Update(ctl.Snapshot())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		BootID:     bootID,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warn().Err(err).Msg("publish startup event")
	}

	if p.Status.HTTP != "" {
		srv := web.New(p.Status.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Info().Str("addr", p.Status.HTTP).Msg("http status server listening")
	}

	src := &tick.Source{
		Ticks: &ticks,
		Press: &press,
		Pressed: func() bool {
			v, err := button.Read()
			return err == nil && v
		},
		Armed: ctl.Debouncer().Armed,
	}
	stopTicks := src.Start(context.Background(), p.TickPeriod())
	defer stopTicks()

	log.Info().
		Str("profile", p.Name).
		Str("boot_id", bootID).
		Str("state", string(p.Boot())).
		Dur("tick", p.TickPeriod()).
		Uint64("bar_ticks", timing.BarLength).
		Int("leds", len(timing.LEDs)).
		Msg("started")

	poll := time.NewTicker(p.PollPeriod())
	defer poll.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(button, port, publisher, publisher, tracker, ctl, p.Heartbeat(), time.Now, poll.C, sigCh)
}

// stopBuzzer silences the buzzer, if there is one.
func stopBuzzer(b gpio.Buzzer) {
	if b == nil {
		return
	}
	if err := b.Halt(); err != nil {
		log.Error().Err(err).Msg("halt buzzer")
	}
}

// runLoop is the main loop. Each poll it samples the button, runs one
// controller pass and writes the port image if it changed.
func runLoop(button gpio.Button, port gpio.Port, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus,
	tracker *status.Tracker, ctl *logic.Controller, heartbeat time.Duration,
	now func() time.Time, poll <-chan time.Time, sig <-chan os.Signal) error {

	var written logic.PortMask // lines are driven low on open

	for {
		select {
		case s := <-sig:
			log.Info().Stringer("signal", s).Msg("shutting down")
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				tracker.Update(ctl.Snapshot())
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warn().Err(err).Msg("publish shutdown event")
			}
			return nil

		case <-poll:
			t := now()
			pressed, err := button.Read()
			if err != nil {
				log.Error().Err(err).Msg("button read")
				continue
			}

			events := ctl.Process(logic.Input{Pressed: pressed, Time: t})

			if img := ctl.Port(); img != written {
				if err := port.Write(img); err != nil {
					log.Error().Err(err).Msg("led write")
				} else {
					written = img
				}
			}

			for _, event := range events {
				switch event.Type {
				case logic.EventStateChanged:
					log.Info().Str("from", string(event.From)).Str("to", string(event.To)).Msg("state changed")
					if err := publisher.Publish(event); err != nil {
						log.Warn().Err(err).Msg("publish state change")
					}
				case logic.EventBarComplete:
					log.Debug().Uint64("bar", event.Bar).Msg("bar complete")
				}
			}

			if hb := ctl.CheckHeartbeat(t, heartbeat); hb != nil {
				log.Info().
					Dur("uptime", hb.Uptime).
					Str("state", string(hb.State)).
					Int("toggles", hb.Counts.Toggles).
					Uint64("bars", hb.Counts.Bars).
					Msg("heartbeat")

				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
					Retained:  true,
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					tracker.Update(ctl.Snapshot())
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Warn().Err(err).Msg("publish heartbeat")
				}
			}

			if tracker != nil {
				tracker.Update(ctl.Snapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}
