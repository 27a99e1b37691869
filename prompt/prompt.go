// Package prompt builds the system message that grounds each answer.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/poiesic/pitwall/core"
)

// EmptyContext is the serialized form of a context with no documents.
const EmptyContext = "[]"

const systemTemplate = `You are an AI assistant who knows everything about Formula One.
Use the below context to augment what you know about Formula One racing.
The context will provide you with the most recent page data from Wikipedia,
the official F1 website and others.

If the context doesn't include the information you need, answer based on your
existing knowledge and don't mention the source of your information or
what the context does or doesn't include.
Format responses using markdown where applicable and don't return images.
--------------------
START CONTEXT
%s
END CONTEXT
--------------------
Question: %s
--------------------`

// SerializeContext renders texts as a JSON array of strings. A nil or empty
// slice renders as EmptyContext. HTML characters are left unescaped.
func SerializeContext(texts []string) string {
	if len(texts) == 0 {
		return EmptyContext
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(texts); err != nil {
		// []string always encodes
		return EmptyContext
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// Compose returns the system message for question grounded in texts.
// Instructions come first, then the context block, then the literal question.
func Compose(texts []string, question string) core.ChatMessage {
	return core.ChatMessage{
		Role:    core.RoleSystem,
		Content: fmt.Sprintf(systemTemplate, SerializeContext(texts), question),
	}
}
