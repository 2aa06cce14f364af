package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datamorph/datamorph/internal/domain"
	"github.com/datamorph/datamorph/internal/llm"
	apperrors "github.com/datamorph/datamorph/internal/pkg/errors"
)

// MockLLMClient mocks the chat completion capability
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Complete(ctx context.Context, messages []llm.Message) (*llm.Completion, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Completion), args.Error(1)
}

// recordingStore captures uploaded audit documents in memory. The sink deletes
// its temp file after Upload returns, so the content is read eagerly.
type recordingStore struct {
	objects map[string]string
	err     error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{objects: make(map[string]string)}
}

func (s *recordingStore) Upload(ctx context.Context, objectPath, filePath string) error {
	if s.err != nil {
		return s.err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	s.objects[objectPath] = string(data)
	return nil
}

func completionWithContent(content string) *llm.Completion {
	return &llm.Completion{
		ID:      "chatcmpl-test123",
		Created: 1700000000,
		Model:   "gpt-4o",
		Choices: []llm.Choice{
			{Message: llm.Message{Role: "assistant", Content: content}},
		},
		Usage: llm.Usage{CompletionTokens: 20, PromptTokens: 100, TotalTokens: 120},
	}
}

func newTestPipeline(client llm.Client, store *recordingStore) *PipelineService {
	logger := zap.NewNop()
	sink := NewAuditSink(store, logger)
	telemetry := NewTelemetryRecorder(sink, logger)
	return NewPipelineService(client, telemetry, logger)
}

func TestPipelineService_Process(t *testing.T) {
	ctx := context.Background()
	records := []domain.Record{{"a": float64(1)}}

	t.Run("returns original records when no instructions given", func(t *testing.T) {
		mockClient := new(MockLLMClient)
		svc := newTestPipeline(mockClient, newRecordingStore())

		sessionID, modified, err := svc.Process(ctx, records, domain.InstructionSet{})

		require.NoError(t, err)
		_, parseErr := uuid.Parse(sessionID)
		assert.NoError(t, parseErr)
		assert.Equal(t, records, modified)
		mockClient.AssertNotCalled(t, "Complete")
	})

	t.Run("unwraps data key after field_transformations", func(t *testing.T) {
		mockClient := new(MockLLMClient)
		mockClient.On("Complete", mock.Anything, mock.Anything).
			Return(completionWithContent(`{"data":[{"a":2}]}`), nil).Once()

		svc := newTestPipeline(mockClient, newRecordingStore())

		instructions := domain.InstructionSet{
			FieldTransformations: []domain.Instruction{{"field": "a", "action": "double"}},
		}

		_, modified, err := svc.Process(ctx, records, instructions)

		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"a": float64(2)}}, modified)
		mockClient.AssertExpectations(t)
	})

	t.Run("builds the two-message stage prompt", func(t *testing.T) {
		var captured []llm.Message
		mockClient := new(MockLLMClient)
		mockClient.On("Complete", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				captured = args.Get(1).([]llm.Message)
			}).
			Return(completionWithContent(`{"data":[]}`), nil).Once()

		svc := newTestPipeline(mockClient, newRecordingStore())

		instructions := domain.InstructionSet{
			FieldTransformations: []domain.Instruction{{"field": "a", "action": "double"}},
		}

		_, _, err := svc.Process(ctx, records, instructions)
		require.NoError(t, err)

		require.Len(t, captured, 2)
		assert.Equal(t, "user", captured[0].Role)
		assert.Contains(t, captured[0].Content, "field_transformations")
		assert.Contains(t, captured[0].Content, "do not wrap in ```json markdown")
		assert.Contains(t, captured[0].Content, `"action": "double"`)
		assert.Equal(t, "user", captured[1].Role)
		assert.True(t, strings.HasPrefix(captured[1].Content, "Here's the data: "))
		assert.Contains(t, captured[1].Content, `{"data":[{"a":1}]}`)
	})

	t.Run("fails with InvalidStageFormat when data key missing and skips second stage", func(t *testing.T) {
		mockClient := new(MockLLMClient)
		mockClient.On("Complete", mock.Anything, mock.Anything).
			Return(completionWithContent(`{"rows":[{"a":2}]}`), nil).Once()

		svc := newTestPipeline(mockClient, newRecordingStore())

		instructions := domain.InstructionSet{
			FieldTransformations: []domain.Instruction{{"field": "a"}},
			FieldCreations:       []domain.Instruction{{"field": "b"}},
		}

		_, _, err := svc.Process(ctx, records, instructions)

		require.Error(t, err)
		appErr := apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperrors.CodeInvalidStageFormat, appErr.Code)
		mockClient.AssertNumberOfCalls(t, "Complete", 1)
	})

	t.Run("fails with InvalidStageJSON on unparseable reply", func(t *testing.T) {
		mockClient := new(MockLLMClient)
		mockClient.On("Complete", mock.Anything, mock.Anything).
			Return(completionWithContent("Sure! Here is the updated data..."), nil).Once()

		svc := newTestPipeline(mockClient, newRecordingStore())

		instructions := domain.InstructionSet{
			FieldTransformations: []domain.Instruction{{"field": "a"}},
		}

		_, _, err := svc.Process(ctx, records, instructions)

		require.Error(t, err)
		appErr := apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperrors.CodeInvalidStageJSON, appErr.Code)
	})

	t.Run("absorbs transport failures into InvalidStageJSON", func(t *testing.T) {
		mockClient := new(MockLLMClient)
		mockClient.On("Complete", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("connection refused")).Once()

		svc := newTestPipeline(mockClient, newRecordingStore())

		instructions := domain.InstructionSet{
			FieldTransformations: []domain.Instruction{{"field": "a"}},
		}

		// The invoker converts the failure to an empty reply, which the
		// orchestrator classifies as a JSON parse failure.
		_, _, err := svc.Process(ctx, records, instructions)

		require.Error(t, err)
		appErr := apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperrors.CodeInvalidStageJSON, appErr.Code)
	})

	t.Run("returns field_creations reply whole without unwrapping", func(t *testing.T) {
		mockClient := new(MockLLMClient)
		mockClient.On("Complete", mock.Anything, mock.Anything).
			Return(completionWithContent(`{"status":"ok","data":[{"a":3}]}`), nil).Once()

		svc := newTestPipeline(mockClient, newRecordingStore())

		instructions := domain.InstructionSet{
			FieldCreations: []domain.Instruction{{"field": "b", "action": "create"}},
		}

		_, modified, err := svc.Process(ctx, records, instructions)

		require.NoError(t, err)
		// Stage one unwraps the data key; this stage must not.
		assert.Equal(t, map[string]any{
			"status": "ok",
			"data":   []any{map[string]any{"a": float64(3)}},
		}, modified)
	})

	t.Run("threads stage one output into stage two", func(t *testing.T) {
		var secondStageData string
		mockClient := new(MockLLMClient)
		mockClient.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []llm.Message) bool {
			return strings.Contains(msgs[0].Content, "field_transformations")
		})).Return(completionWithContent(`{"data":[{"a":2}]}`), nil).Once()
		mockClient.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []llm.Message) bool {
			if !strings.Contains(msgs[0].Content, "field_creations") {
				return false
			}
			secondStageData = msgs[1].Content
			return true
		})).Return(completionWithContent(`{"data":[{"a":2,"b":5}]}`), nil).Once()

		svc := newTestPipeline(mockClient, newRecordingStore())

		instructions := domain.InstructionSet{
			FieldTransformations: []domain.Instruction{{"field": "a"}},
			FieldCreations:       []domain.Instruction{{"field": "b"}},
		}

		_, modified, err := svc.Process(ctx, records, instructions)

		require.NoError(t, err)
		assert.Contains(t, secondStageData, `{"data":[{"a":2}]}`)
		assert.Equal(t, map[string]any{
			"data": []any{map[string]any{"a": float64(2), "b": float64(5)}},
		}, modified)
		mockClient.AssertExpectations(t)
	})

	t.Run("failing audit upload does not change the outcome", func(t *testing.T) {
		mockClient := new(MockLLMClient)
		mockClient.On("Complete", mock.Anything, mock.Anything).
			Return(completionWithContent(`{"data":[{"a":2}]}`), nil).Once()

		store := newRecordingStore()
		store.err = fmt.Errorf("bucket unavailable")
		svc := newTestPipeline(mockClient, store)

		instructions := domain.InstructionSet{
			FieldTransformations: []domain.Instruction{{"field": "a"}},
		}

		_, modified, err := svc.Process(ctx, records, instructions)

		require.NoError(t, err)
		assert.Equal(t, []any{map[string]any{"a": float64(2)}}, modified)
		assert.Empty(t, store.objects)
	})

	t.Run("tags every audit document with the session id", func(t *testing.T) {
		mockClient := new(MockLLMClient)
		mockClient.On("Complete", mock.Anything, mock.Anything).
			Return(completionWithContent(`{"data":[{"a":2}]}`), nil).Once()

		store := newRecordingStore()
		svc := newTestPipeline(mockClient, store)

		instructions := domain.InstructionSet{
			FieldTransformations: []domain.Instruction{{"field": "a"}},
		}

		sessionID, _, err := svc.Process(ctx, records, instructions)
		require.NoError(t, err)

		require.Len(t, store.objects, 2)
		for path, body := range store.objects {
			assert.Contains(t, path, "session_"+sessionID+"_")

			var doc map[string]any
			require.NoError(t, json.Unmarshal([]byte(body), &doc))
			assert.Equal(t, sessionID, doc["session_id"])
		}
	})
}

func TestPipelineService_SessionIDUniqueness(t *testing.T) {
	mockClient := new(MockLLMClient)
	svc := newTestPipeline(mockClient, newRecordingStore())

	ctx := context.Background()
	records := []domain.Record{{"a": float64(1)}}

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		sessionID, _, err := svc.Process(ctx, records, domain.InstructionSet{})
		require.NoError(t, err)

		_, dup := seen[sessionID]
		require.False(t, dup, "session id collision: %s", sessionID)
		seen[sessionID] = struct{}{}
	}
}
