//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"fmt"
	"sort"
	"strings"
)

// reactPromptTemplate drives the ReAct loop. The Question and Action
// lines double as the semantic cache extraction points.
const reactPromptTemplate = `You are a reasoning agent that solves tasks step by step using tools.
${instruction}

Available tools:
${tools}

Available tool names:
"Final Answer" or ${tool_names}

Respond with exactly one JSON object per step:
` + "```" + `
{"action": "<tool name or Final Answer>", "action_input": <tool parameters object, or the final answer string>}
` + "```" + `

When you have the final answer, use the action "Final Answer".

Conversation so far:
${historic_messages}

Question: ${query}

Previous steps:
${agent_scratchpad}
`

// buildPrompt templates the instruction, the tool catalog, the history
// window and the scratchpad into one completion prompt.
func buildPrompt(instruction, toolsDesc, toolNames, query string, history []string, scratchpad string) string {
	r := strings.NewReplacer(
		"${instruction}", instruction,
		"${tools}", toolsDesc,
		"${tool_names}", toolNames,
		"${historic_messages}", strings.Join(history, "\n"),
		"${query}", query,
		"${agent_scratchpad}", scratchpad,
	)
	return r.Replace(reactPromptTemplate)
}

// describeTools renders the tool catalog: name, description, parameter
// schema and outputs, sorted by name.
func describeTools(tools map[string]Tool) (desc string, names string) {
	ordered := make([]string, 0, len(tools))
	for name := range tools {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	var b strings.Builder
	for _, name := range ordered {
		t := tools[name]
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
		if len(t.Params) > 0 {
			b.WriteString("     Parameters:\n")
			params := make([]string, 0, len(t.Params))
			for p := range t.Params {
				params = append(params, p)
			}
			sort.Strings(params)
			for _, p := range params {
				spec := t.Params[p]
				fmt.Fprintf(&b, "        %s (%s): %s\n", p, spec.Type, spec.Description)
			}
		}
		if len(t.Outputs) > 0 {
			b.WriteString("     Outputs:\n")
			outs := make([]string, 0, len(t.Outputs))
			for o := range t.Outputs {
				outs = append(outs, o)
			}
			sort.Strings(outs)
			for _, o := range outs {
				fmt.Fprintf(&b, "        %s: %s\n", o, t.Outputs[o])
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), strings.Join(ordered, ", ")
}
