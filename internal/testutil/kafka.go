//go:build integration

package testutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// UniqueName — уникальное имя топика или группы на основе префикса.
// Пример: base="events-itc" → "events-itc-20250826T010203123456789".
func UniqueName(base string) string {
	s := time.Now().UTC().Format("20060102T150405.000000000")
	return base + "-" + strings.ReplaceAll(s, ".", "")
}

// EnsureTopic — создаёт топик с заданным числом партиций и ждёт, пока у всех партиций появится лидер.
// Уже существующий топик не считается ошибкой.
// broker: "host:port", "PLAINTEXT://host:port" или список через запятую (берётся первый).
func EnsureTopic(ctx context.Context, broker, topic string, partitions int) error {
	addr := firstBootstrap(broker)

	conn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	// топики создаются только через контроллер
	ctrl, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	admin, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(ctrl.Host, strconv.Itoa(ctrl.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer admin.Close()

	err = admin.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}

	return waitPartitions(ctx, addr, topic, partitions)
}

// firstBootstrap — первый адрес из bootstrap-строки без схемы.
func firstBootstrap(raw string) string {
	first := strings.TrimSpace(strings.Split(raw, ",")[0])
	if strings.Contains(first, "://") {
		if u, err := url.Parse(first); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return first
}

func waitPartitions(ctx context.Context, broker, topic string, want int) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	var lastErr error
	for {
		c, err := kafka.DialContext(ctx, "tcp", broker)
		if err == nil {
			parts, perr := c.ReadPartitions(topic)
			_ = c.Close()
			err = perr
			if perr == nil {
				ready := 0
				for _, p := range parts {
					if p.Leader.Host != "" {
						ready++
					}
				}
				if ready >= want {
					return nil
				}
				err = fmt.Errorf("%d/%d partitions have a leader", ready, want)
			}
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("topic %q not ready: %w", topic, errors.Join(ctx.Err(), lastErr))
		case <-tick.C:
		}
	}
}
