package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rideaxis/internal/models"
	"rideaxis/internal/websocket"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	trackingChannel = "rideaxis:locations"
	latestPointTTL  = 6 * time.Hour
)

func latestPointKey(rideID uint) string {
	return fmt.Sprintf("rideaxis:ride:%d:latest", rideID)
}

// trackingEvent is what travels over Redis between instances.
type trackingEvent struct {
	RideID  uint              `json:"ride_id"`
	Message websocket.Message `json:"message"`
}

// Tracker fans ride events out to websocket clients. With Redis every
// instance receives every event; without it only local clients are served.
type Tracker struct {
	rdb *redis.Client
	hub *websocket.Hub
	log *zap.Logger
}

func NewTracker(rdb *redis.Client, hub *websocket.Hub, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{rdb: rdb, hub: hub, log: log}
}

// PublishLocation remembers the point as the ride's latest and pushes it to
// riders.
func (t *Tracker) PublishLocation(ctx context.Context, point models.LocationPoint) {
	if t.rdb != nil {
		if data, err := json.Marshal(point); err == nil {
			if err := t.rdb.Set(ctx, latestPointKey(point.RideID), data, latestPointTTL).Err(); err != nil {
				t.log.Warn("cache latest location", zap.Uint("ride_id", point.RideID), zap.Error(err))
			}
		}
	}
	t.publish(ctx, point.RideID, websocket.Message{
		Type:    websocket.RideLocationUpdateType,
		Payload: point,
	})
}

// PublishStatus tells riders that the ride changed status.
func (t *Tracker) PublishStatus(ctx context.Context, rideID uint, status models.RideStatus) {
	if status == models.RideStatusCompleted && t.rdb != nil {
		if err := t.rdb.Del(ctx, latestPointKey(rideID)).Err(); err != nil {
			t.log.Warn("clear latest location", zap.Uint("ride_id", rideID), zap.Error(err))
		}
	}
	t.publish(ctx, rideID, websocket.Message{
		Type: websocket.RideStatusUpdateType,
		Payload: map[string]interface{}{
			"ride_id":        rideID,
			"status":         status,
			"status_display": status.Display(),
		},
	})
}

func (t *Tracker) publish(ctx context.Context, rideID uint, msg websocket.Message) {
	if t.rdb == nil {
		t.hub.BroadcastToRide(rideID, &msg)
		return
	}

	data, err := json.Marshal(trackingEvent{RideID: rideID, Message: msg})
	if err == nil {
		err = t.rdb.Publish(ctx, trackingChannel, data).Err()
	}
	if err != nil {
		t.log.Warn("redis publish failed, delivering locally", zap.Uint("ride_id", rideID), zap.Error(err))
		t.hub.BroadcastToRide(rideID, &msg)
	}
}

// Latest returns the cached latest point of a ride, if any.
func (t *Tracker) Latest(ctx context.Context, rideID uint) (*models.LocationPoint, bool) {
	if t.rdb == nil {
		return nil, false
	}
	raw, err := t.rdb.Get(ctx, latestPointKey(rideID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			t.log.Warn("read latest location", zap.Uint("ride_id", rideID), zap.Error(err))
		}
		return nil, false
	}
	var point models.LocationPoint
	if err := json.Unmarshal(raw, &point); err != nil {
		return nil, false
	}
	return &point, true
}

// Run relays events published by any instance to local clients until ctx
// is cancelled. It returns immediately without Redis.
func (t *Tracker) Run(ctx context.Context) {
	if t.rdb == nil {
		return
	}

	sub := t.rdb.Subscribe(ctx, trackingChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var ev trackingEvent
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				t.log.Warn("bad tracking event", zap.Error(err))
				continue
			}
			t.hub.BroadcastToRide(ev.RideID, &ev.Message)
		}
	}
}
