// Package agent runs one prompt against the language model.
//
// Each run sends the system prompt and the user prompt, offers the toolset
// to the model, executes the tool calls it requests through the toolset
// caller and repeats until the model answers with text only.
package agent
