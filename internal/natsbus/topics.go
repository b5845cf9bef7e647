package natsbus

import "fmt"

// Topic patterns for NATS pub/sub communication.

func TopicAgentInput(agentID string) string {
	return fmt.Sprintf("agent.%s.input", agentID)
}

func TopicAgentOutput(agentID string) string {
	return fmt.Sprintf("agent.%s.output", agentID)
}

func TopicWorkflowEvents(runID string) string {
	return fmt.Sprintf("workflow.%s.events", runID)
}

func TopicWorkflowReminder(runID string) string {
	return fmt.Sprintf("workflow.%s.reminder", runID)
}

func TopicHandoffEvents(runID string) string {
	return fmt.Sprintf("workflow.%s.handoffs", runID)
}

const (
	TopicAllWorkflows = "workflow.>"
	TopicAllAgents    = "agent.>"
)
