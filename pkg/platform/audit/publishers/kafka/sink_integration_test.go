//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	id "casecheck/pkg/domain"
	audit "casecheck/pkg/platform/audit"
	"casecheck/pkg/testutil/containers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestSink_ProducesKeyedEvents(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sink, err := New([]string{broker.Broker}, "casecheck.audit")
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.EnsureTopic(ctx))
	require.NoError(t, sink.EnsureTopic(ctx), "second call must tolerate an existing topic")

	checkID := id.NewCheckID()
	event := audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		CheckID:   checkID,
		MatterID:  id.MatterID(uuid.New()),
		Action:    string(audit.EventCheckSubmitted),
		Decision:  "submitted",
	}
	require.NoError(t, sink.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics("casecheck.audit"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var records []*kgo.Record
	for len(records) == 0 {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}

	require.Len(t, records, 1)
	assert.Equal(t, checkID.String(), string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, event.Action, got.Action)
	assert.Equal(t, event.CheckID, got.CheckID)
	assert.Equal(t, "submitted", got.Decision)
}
