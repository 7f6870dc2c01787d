package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/cakeagent/agent"
	"github.com/tbxark/cakeagent/config"
	"github.com/tbxark/cakeagent/llm/llmtest"
)

func TestRootHasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "chat", "worker", "init-config"} {
		assert.True(t, names[want], want)
	}
}

func TestInitConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cakeagent.yaml")
	var out bytes.Buffer
	initConfigCmd.SetOut(&out)
	require.NoError(t, initConfigCmd.RunE(initConfigCmd, []string{path}))
	assert.Contains(t, out.String(), path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", loaded.LLM.Model)

	assert.Error(t, initConfigCmd.RunE(initConfigCmd, []string{path}))
}

func TestBuildFlowTemplateStyle(t *testing.T) {
	c := config.DefaultConfig()
	fake := llmtest.Text(`{"cakeType":"cupcake"}`)
	flow, err := buildFlow(c, fake, agent.LogOrderManager{})
	require.NoError(t, err)

	resp, err := flow.Invoke(context.Background(), &agent.Request{Prompt: "cupcakes"})
	require.NoError(t, err)
	assert.Equal(t, "cupcake", resp.Data.CakeType)
	assert.True(t, strings.HasPrefix(resp.Reply, "I've got your cakeType."))

	resp, err = flow.Invoke(context.Background(), &agent.Request{Prompt: "reset", CurrentState: &resp.Data})
	require.NoError(t, err)
	assert.Empty(t, resp.Data.CakeType)
}

func TestBuildFlowLLMStyleFallsBackToTemplate(t *testing.T) {
	c := config.DefaultConfig()
	c.Dialogue.Style = "llm"
	c.Dialogue.Commands = "off"
	// The second reply is not a tool call, so phrasing fails over to the template.
	fake := llmtest.Text(`{"flavor":"lemon"}`, "no tool call")
	flow, err := buildFlow(c, fake, agent.LogOrderManager{})
	require.NoError(t, err)

	resp, err := flow.Invoke(context.Background(), &agent.Request{Prompt: "lemon"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Reply, "I've got your flavor."))
}

func TestBuildFlowBoundsOptionalLLMCalls(t *testing.T) {
	c := config.DefaultConfig()
	c.LLM.Timeout = "50ms"
	c.Dialogue.Style = "llm"
	c.Dialogue.Commands = "llm"
	// Command classification hangs, extraction answers, phrasing hangs.
	fake := llmtest.New(
		llmtest.Hang(),
		llmtest.Reply{Message: schema.AssistantMessage(`{"flavor":"lemon"}`, nil)},
		llmtest.Hang(),
	)
	flow, err := buildFlow(c, fake, agent.LogOrderManager{})
	require.NoError(t, err)

	type result struct {
		resp *agent.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := flow.Invoke(context.Background(), &agent.Request{Prompt: "lemon"})
		done <- result{resp, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, "lemon", r.resp.Data.Flavor)
		assert.True(t, strings.HasPrefix(r.resp.Reply, "I've got your flavor."))
	case <-time.After(2 * time.Second):
		t.Fatal("turn still blocked although the llm timeout is 50ms")
	}
}

func TestJanitorInterval(t *testing.T) {
	assert.Zero(t, janitorInterval(0))
	assert.Equal(t, time.Minute, janitorInterval(time.Minute))
	assert.Equal(t, 6*time.Hour, janitorInterval(24*time.Hour))
}
