// Copyright (C) 2026 Lantern AI (dev@lanternai.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chat

import (
	"fmt"
	"time"
)

// =============================================================================
// Session
// =============================================================================

// Session is a document-scoped conversation thread identified by a
// stable id.
type Session struct {
	SessionID  string `json:"sessionId"`
	DocumentID string `json:"documentId"`
}

// ResolveSessionID returns the session id for the next turn.
//
// An existing id is always reused: ids are never regenerated
// mid-conversation, and changing the active document requires a new
// session. When no id exists yet, one is minted lazily on the first
// submitted turn, scoped by document and creation time. The result is
// collision-avoidant within a conversation's lifetime, not globally
// unique.
func ResolveSessionID(existing, documentID string) string {
	if existing != "" {
		return existing
	}
	return fmt.Sprintf("session-%s-%d", documentID, time.Now().UnixMilli())
}
