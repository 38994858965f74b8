package service

import (
	"sort"

	"relaychat/model"
	"relaychat/provider"
)

// BuildConversation returns the prior turns oldest first followed by the new user
// turn. It does not write anything.
func BuildConversation(history []model.Message, newUserText string) []provider.Message {
	turns := make([]model.Message, len(history))
	copy(turns, history)
	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].CreatedAt.Before(turns[j].CreatedAt)
	})

	messages := make([]provider.Message, 0, len(turns)+1)
	for _, t := range turns {
		if !t.Role.Valid() || t.Content == "" {
			continue
		}
		messages = append(messages, provider.Message{Role: t.Role, Content: t.Content})
	}
	return append(messages, provider.Message{Role: model.RoleUser, Content: newUserText})
}
