package quick

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/hiveflow/agent"
	"github.com/BaSui01/hiveflow/config"
	"github.com/BaSui01/hiveflow/testutil/mocks"
	"github.com/BaSui01/hiveflow/types"
)

func TestNew_DefaultsAndProcess(t *testing.T) {
	rt, err := New(WithClient(mocks.NewMockCompletionClient()))
	require.NoError(t, err)
	defer func() { assert.NoError(t, rt.Close(context.Background())) }()
	assert.Equal(t, "gpt-4o-mini", rt.Config().LLM.Model)

	echo := agent.NewBuilder("echo").
		Outcome("done", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			return "done", in.Clone(), nil
		}).
		MustBuild()
	rt.MustRegister(echo)

	res, err := rt.Process(context.Background(), "echo", types.DataMap{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Outcome)
	_, ok := res.Data.PipelineID()
	assert.True(t, ok)
}

func TestNew_LLMRoutedPipeline(t *testing.T) {
	client := mocks.NewMockCompletionClient().WithDecision("reject", "tone is hostile")

	cfg := config.DefaultConfig()
	cfg.Supervisor.MaxConcurrent = 4
	rt, err := New(WithConfig(cfg), WithClient(client))
	require.NoError(t, err)

	moderator := agent.NewBuilder("moderator").
		Outcome("accept", agent.Terminate(), "comment is fine").
		Outcome("reject", agent.Terminate(), "comment violates policy").
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			return "accept", in.Clone(), nil
		}).
		WithLLMRouting("gpt-4o-mini", "Moderate this comment.").
		MustBuild()
	rt.MustRegister(moderator)

	res, err := rt.Process(context.Background(), "moderator", types.DataMap{"comment": "..."})
	require.NoError(t, err)
	assert.Equal(t, "reject", res.Outcome)
	assert.Equal(t, "tone is hostile", res.Data[types.KeyLLMReasoning])
}

func TestProcess_UnknownAgent(t *testing.T) {
	rt, err := New(WithClient(mocks.NewMockCompletionClient()))
	require.NoError(t, err)

	_, err = rt.Process(context.Background(), "ghost", types.DataMap{})
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrAgentNotFound))
}

func TestRegister_DuplicateSurfacesError(t *testing.T) {
	rt, err := New(WithClient(mocks.NewMockCompletionClient()))
	require.NoError(t, err)

	echo := agent.NewBuilder("echo").
		Outcome("done", agent.Terminate()).
		Handle(func(_ context.Context, in types.DataMap) (string, types.DataMap, error) {
			return "done", in, nil
		}).
		MustBuild()

	require.NoError(t, rt.Register(echo))
	assert.Error(t, rt.Register(echo))
}
