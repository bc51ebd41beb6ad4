// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AnyChat Contributors

package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anychat-dev/anychat/internal/store"
	anyerr "github.com/anychat-dev/anychat/pkg/errors"
)

const chatgptProviderID = "chatgpt"

// chatgptConversation is one entry of a ChatGPT data export. The mapping is
// a node graph; following children from the roots yields every branch of
// the conversation tree.
type chatgptConversation struct {
	Title      string                 `json:"title"`
	CreateTime float64                `json:"create_time"`
	Mapping    map[string]chatgptNode `json:"mapping"`
}

type chatgptNode struct {
	ID       string          `json:"id"`
	Message  *chatgptMessage `json:"message"`
	Parent   *string         `json:"parent"`
	Children []string        `json:"children"`
}

type chatgptMessage struct {
	Author     chatgptAuthor  `json:"author"`
	Content    chatgptContent `json:"content"`
	CreateTime float64        `json:"create_time"`
}

type chatgptAuthor struct {
	Role string `json:"role"`
}

type chatgptContent struct {
	ContentType string            `json:"content_type"`
	Parts       []json.RawMessage `json:"parts"`
}

// flatTurn is one collected message ready for insertion.
type flatTurn struct {
	role       store.Role
	content    string
	externalID string
	createTime float64
}

// ImportChatGPT loads a ChatGPT conversations.json export. Each
// conversation becomes one session under the chatgpt provider; a
// conversation that fails to apply is recorded and the rest continue.
func (im *Importer) ImportChatGPT(ctx context.Context, data []byte) (*Result, error) {
	var conversations []chatgptConversation
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, anyerr.Wrap(err, anyerr.CodeImportParseInvalid, "parse chatgpt export")
	}

	if err := im.ensureProvider(ctx, chatgptProviderID); err != nil {
		return nil, err
	}

	res := &Result{}
	for i, conv := range conversations {
		turns := collectTurns(conv)
		if len(turns) == 0 {
			continue
		}

		title := conv.Title
		if title == "" {
			title = fmt.Sprintf("Imported conversation %d", i+1)
		}
		sessionID, err := im.store.CreateSession(ctx, chatgptProviderID, title)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("conversation %q: %v", title, err))
			continue
		}

		inserted := 0
		for _, turn := range turns {
			msg := &store.Message{
				SessionID:  sessionID,
				Role:       turn.role,
				Content:    turn.content,
				Source:     store.SourceImport,
				ExternalID: turn.externalID,
				CreatedAt:  floatTime(turn.createTime),
			}
			if _, err := im.store.InsertMessage(ctx, msg); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("conversation %q: %v", title, err))
				continue
			}
			inserted++
		}
		res.SessionsImported++
		res.MessagesImported += inserted
		im.logger.Info("imported conversation",
			"title", title, "session_id", sessionID, "messages", inserted)
	}
	return res, nil
}

// collectTurns walks every branch of the conversation tree. Roots are nodes
// with no message or a system-role message; a depth-first walk over
// children reaches both sides of any edited fork. Turns come back sorted by
// original create time so regenerated branches interleave chronologically.
func collectTurns(conv chatgptConversation) []flatTurn {
	roots := make([]string, 0, 1)
	for id, node := range conv.Mapping {
		if node.Message == nil || node.Message.Author.Role == "system" {
			if node.Parent == nil {
				roots = append(roots, id)
			}
		}
	}
	// Fallback for exports whose root node carries a real message.
	if len(roots) == 0 {
		for id, node := range conv.Mapping {
			if node.Parent == nil {
				roots = append(roots, id)
			}
		}
	}
	sort.Strings(roots)

	var turns []flatTurn
	seen := make(map[string]bool)
	var walk func(id string)
	walk = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		node, ok := conv.Mapping[id]
		if !ok {
			return
		}
		if turn, ok := nodeTurn(node); ok {
			turns = append(turns, turn)
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}

	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].createTime < turns[j].createTime
	})
	return turns
}

// nodeTurn extracts an importable turn from a node. System prompts with
// real content are kept; tool and other non-canonical roles and anything
// with no textual content are dropped.
func nodeTurn(node chatgptNode) (flatTurn, bool) {
	msg := node.Message
	if msg == nil {
		return flatTurn{}, false
	}
	role := store.Role(msg.Author.Role)
	if !role.Valid() {
		return flatTurn{}, false
	}
	content := joinParts(msg.Content.Parts)
	if strings.TrimSpace(content) == "" {
		return flatTurn{}, false
	}
	return flatTurn{
		role:       role,
		content:    content,
		externalID: node.ID,
		createTime: msg.CreateTime,
	}, true
}

// joinParts concatenates the string parts of a content block. Non-string
// parts (image pointers and similar) are skipped.
func joinParts(parts []json.RawMessage) string {
	var b strings.Builder
	for _, raw := range parts {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if b.Len() > 0 && s != "" {
			b.WriteString("\n")
		}
		b.WriteString(s)
	}
	return b.String()
}

func floatTime(sec float64) time.Time {
	if sec <= 0 {
		return time.Now()
	}
	return time.Unix(int64(sec), int64((sec-float64(int64(sec)))*1e9))
}
