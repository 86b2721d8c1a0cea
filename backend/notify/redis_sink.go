// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Pending notifications expire if the push gateway never drains them
	notificationTTL = 7 * 24 * time.Hour

	// Redis key prefixes
	queuePrefix = "notify:queue:" // notify:queue:{userId} - pending notification payloads
	wakePrefix  = "notify:user:"  // notify:user:{userId} - pub/sub wake-up channel
)

// RedisSink hands notifications to the push gateway through a per-user Redis
// queue. The gateway drains the queue and talks to the actual push provider;
// the wake-up publish lets it react immediately instead of polling.
type RedisSink struct {
	rdb *redis.Client
}

func NewRedisSink(rdb *redis.Client) *RedisSink {
	return &RedisSink{rdb: rdb}
}

func (s *RedisSink) Notify(ctx context.Context, userID string, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	queueKey := queuePrefix + userID
	if err := s.rdb.RPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	s.rdb.Expire(ctx, queueKey, notificationTTL)

	// Wake up the gateway; nobody listening is fine
	s.rdb.Publish(ctx, wakePrefix+userID, data)

	return nil
}
