package output

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/request"
	"github.com/cyberrange/rangesim/pkg/util"
)

// RedisSink mirrors every Sink event onto Redis pub/sub channels, for an
// external process (e.g. a Python gym wrapper) to tail without sharing
// this process's memory. Grounded on the teacher's AppDBClient wrapper
// (`pkg/device/appldb.go`): a single *redis.Client plus a background
// context, generalized from "read SONiC's ROUTE_TABLE" to "publish
// simulation events", same `redis.NewClient(&redis.Options{Addr: ...})`
// construction.
type RedisSink struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisSink connects to the Redis instance at addr.
func NewRedisSink(addr string) *RedisSink {
	return &RedisSink{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ctx:    context.Background(),
	}
}

// Connect verifies the connection is reachable.
func (s *RedisSink) Connect() error {
	return s.client.Ping(s.ctx).Err()
}

// Close releases the underlying connection pool.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

func (s *RedisSink) publish(channel string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		util.WithField("channel", channel).Warnf("output: marshalling redis event: %v", err)
		return
	}
	if err := s.client.Publish(s.ctx, channel, data).Err(); err != nil {
		util.WithField("channel", channel).Warnf("output: publishing to redis: %v", err)
	}
}

// RewardSample publishes to the "rangesim:reward" channel.
func (s *RedisSink) RewardSample(episode, tick int, reward float64) {
	s.publish("rangesim:reward", map[string]any{
		"episode": episode,
		"tick":    tick,
		"reward":  reward,
	})
}

// ActionRecord publishes to the "rangesim:action" channel.
func (s *RedisSink) ActionRecord(tick int, agent, path string, resp request.Response) {
	s.publish("rangesim:action", map[string]any{
		"tick":   tick,
		"agent":  agent,
		"path":   path,
		"result": resp.Outcome,
		"reason": resp.Reason,
	})
}

// SysLog publishes to "rangesim:syslog:<node>".
func (s *RedisSink) SysLog(node string, entry *logrus.Entry) {
	line, err := entry.String()
	if err != nil {
		return
	}
	s.publish(fmt.Sprintf("rangesim:syslog:%s", node), map[string]any{"node": node, "line": line})
}

// PCAPFrame publishes to "rangesim:pcap:<iface>".
func (s *RedisSink) PCAPFrame(iface string, frame *model.Frame) {
	s.publish(fmt.Sprintf("rangesim:pcap:%s", iface), map[string]any{"interface": iface, "summary": frame.String()})
}

// TopologySnapshot publishes to "rangesim:topology".
func (s *RedisSink) TopologySnapshot(dot string) {
	s.publish("rangesim:topology", map[string]any{"dot": dot})
}
