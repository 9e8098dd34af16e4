package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversationID(t *testing.T) {
	at := time.Unix(1700000000, 0)
	id := NewConversationID("mia@example.com", 1, 2, at)
	assert.Equal(t, "mia@example.com_1_2_1700000000", id)
}

func TestNewConversationTranscript(t *testing.T) {
	transcript := NewConversationTranscript("mia@example.com", 1, 2)

	assert.Equal(t, "active", transcript.Status)
	assert.False(t, transcript.Finished())
	assert.Empty(t, transcript.Messages)
	assert.Nil(t, transcript.EndTime)
	assert.Nil(t, transcript.DurationSeconds)
	assert.Contains(t, transcript.ConversationID, "mia@example.com_1_2_")
}

func TestAddMessagePreservesOrder(t *testing.T) {
	transcript := NewConversationTranscript("mia@example.com", 1, 1)

	transcript.AddMessage("bot", "Hello!", "text")
	transcript.AddMessage("user", "Hi!", "text")
	transcript.AddMessage("bot", "What color is the sky?", "text")

	require.Len(t, transcript.Messages, 3)
	assert.Equal(t, "Hello!", transcript.Messages[0].Content)
	assert.Equal(t, "user", transcript.Messages[1].Speaker)
	assert.Equal(t, "What color is the sky?", transcript.Messages[2].Content)
}

func TestFinish(t *testing.T) {
	transcript := NewConversationTranscript("mia@example.com", 1, 1)
	transcript.StartTime = time.Now().UTC().Add(-90 * time.Second)

	transcript.Finish("completed")

	assert.True(t, transcript.Finished())
	assert.Equal(t, "completed", transcript.Status)
	require.NotNil(t, transcript.EndTime)
	require.NotNil(t, transcript.DurationSeconds)
	assert.InDelta(t, 90.0, *transcript.DurationSeconds, 2.0)
}

func TestTranscriptDocumentRoundTrip(t *testing.T) {
	transcript := NewConversationTranscript("mia@example.com", 2, 3)
	transcript.AddMessage("bot", "Welcome back!", "text")
	transcript.Finish("interrupted")

	doc, err := transcript.ToDocument()
	require.NoError(t, err)

	restored, err := TranscriptFromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, transcript.ConversationID, restored.ConversationID)
	assert.Equal(t, transcript.Status, restored.Status)
	require.Len(t, restored.Messages, 1)
	assert.Equal(t, "Welcome back!", restored.Messages[0].Content)
	require.NotNil(t, restored.DurationSeconds)
}

func TestSummaryDocumentRoundTrip(t *testing.T) {
	summary := &ConversationSummary{
		ConversationID:    "mia@example.com_1_1_1700000000",
		UserEmail:         "mia@example.com",
		Season:            1,
		Episode:           1,
		SessionSummary:    "Great first session",
		WordsLearned:      []string{"hello"},
		TopicsCovered:     []string{"greetings"},
		PerformanceRating: 5,
		EngagementLevel:   "high",
		CreatedAt:         time.Now().UTC(),
	}

	doc, err := summary.ToDocument()
	require.NoError(t, err)

	restored, err := SummaryFromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, summary.ConversationID, restored.ConversationID)
	assert.Equal(t, summary.PerformanceRating, restored.PerformanceRating)
	assert.Equal(t, summary.WordsLearned, restored.WordsLearned)
}
