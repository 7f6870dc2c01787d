package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/tbxark/cakeagent/agent"
	"github.com/tbxark/cakeagent/dialogue"
)

const chatSession = "cli"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Order a cake from the terminal",
	Long: `Starts an interactive chat. Type "summary" to see the order so far,
"reset" to start over, "confirm" to place the order and "exit" to quit.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := agent.WithSessionKey(cmd.Context(), chatSession)
	cm, err := newChatModel(ctx, cfg)
	if err != nil {
		return err
	}
	flow, err := buildFlow(cfg, cm, agent.LogOrderManager{})
	if err != nil {
		return err
	}
	sessions := buildSessions(cfg, flow)
	orderAgent := agent.NewAgent(
		"CakeOrderAssistant",
		"An agent that collects a cake order through conversation",
		sessions,
	)
	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: orderAgent,
	})

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())
	fmt.Fprintf(out, "Assistant: %s\n", dialogue.Greeting)
	for {
		fmt.Fprint(out, "You: ")
		input, rErr := reader.ReadString('\n')
		if rErr != nil {
			fmt.Fprintln(out)
			return nil
		}
		input = strings.TrimSpace(input)
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "summary":
			snap, ok, err := sessions.Get(ctx, chatSession)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "No order yet.")
				continue
			}
			fmt.Fprintln(out, snap.Summary)
			continue
		}

		iter := runner.Run(ctx, []adk.Message{schema.UserMessage(input)})
		for {
			event, ok := iter.Next()
			if !ok {
				break
			}
			if event.Err != nil {
				return event.Err
			}
			msg, mErr := event.Output.MessageOutput.GetMessage()
			if mErr != nil {
				return mErr
			}
			fmt.Fprintf(out, "\nAssistant: %v\n======\n", msg.Content)
		}
	}
}
