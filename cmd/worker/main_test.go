package main

import (
	"testing"

	"github.com/streadway/amqp"
)

func TestHeaderIntReadsBrokerIntegerTypes(t *testing.T) {
	cases := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{"missing header", amqp.Table{}, 0},
		{"nil table", nil, 0},
		{"int", amqp.Table{"x-retry-count": 2}, 2},
		{"int32 as published", amqp.Table{"x-retry-count": int32(1)}, 1},
		{"int64 from broker", amqp.Table{"x-retry-count": int64(3)}, 3},
		{"non-integer value", amqp.Table{"x-retry-count": "2"}, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := headerInt(c.headers, "x-retry-count"); got != c.want {
				t.Errorf("expected %d, got %d", c.want, got)
			}
		})
	}
}
